package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/inspection-wizard/internal/imageprep"
	"github.com/joseph-ayodele/inspection-wizard/internal/submission"
	"github.com/joseph-ayodele/inspection-wizard/internal/utils"
)

const (
	SheetInspection = "Inspection"
	SheetPhotos     = "Photos"
	SheetDamages    = "Damages"
	SheetConsent    = "Consent"
)

// Service renders assembled submissions as XLSX workbooks.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// WorkbookXLSX returns an XLSX workbook (as bytes) with one sheet per record kind.
func (s *Service) WorkbookXLSX(p submission.Payload) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetInspection); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetPhotos, SheetDamages, SheetConsent} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	writeInspection(f, p.Inspection)
	writePhotos(f, p.Photos)
	writeFindings(f, p.Findings)
	writeConsent(f, p.Consent)

	idx, _ := f.GetSheetIndex(SheetInspection)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"inspection_id", p.Inspection.ID.String(),
		"photos", len(p.Photos),
		"findings", len(p.Findings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
}

func newSheet(f *excelize.File, sheet string, headers ...string) *sheetWriter {
	w := &sheetWriter{f: f, sheet: sheet, row: 1}
	if len(headers) > 0 {
		w.write(toAny(headers)...)
	}
	return w
}

func (w *sheetWriter) write(values ...any) {
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, w.row)
		_ = w.f.SetCellValue(w.sheet, cell, v)
	}
	w.row++
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func writeInspection(f *excelize.File, r submission.InspectionRecord) {
	w := newSheet(f, SheetInspection, "Field", "Value")
	rows := [][2]any{
		{"Inspection ID", r.ID.String()},
		{"Country", r.Country},
		{"Accident type", r.AccidentType},
		{"Status", r.Status},
		{"Policy number", r.PolicyNumber},
		{"Claim number", r.ClaimNumber},
		{"Created at", formatTime(&r.CreatedAt)},
		{"Submitted at", formatTime(&r.SubmittedAt)},
		{"Insured", r.InsuredName},
		{"Insured document", r.InsuredDocument},
		{"Identity source", r.IdentitySource},
		{"Identity confidence", r.IdentityConfidence},
		{"Identity validated", r.IdentityValidated},
		{"Plate", r.Plate},
		{"VIN", r.VIN},
		{"Vehicle", strings.TrimSpace(fmt.Sprintf("%s %s %s", r.Brand, r.Model, yearOrBlank(r.Year)))},
		{"Color", r.Color},
		{"Mileage", r.Mileage},
		{"Garaged", r.Garaged},
		{"Third party", r.HasThirdParty},
		{"Third party name", r.ThirdPartyName},
		{"Third party plate", r.ThirdPartyPlate},
		{"Scene address", r.SceneAddress},
		{"Scene description", r.SceneDescription},
		{"Police report", r.PoliceReportNumber},
		{"Witnesses", r.HasWitnesses},
		{"Photos", r.PhotoCount},
		{"Damage photos", r.DamageCount},
		{"Risk score", r.RiskScore},
		{"Quality score", r.QualityScore},
		{"Tags", strings.Join(r.Tags, ", ")},
	}
	for _, kv := range rows {
		w.write(kv[0], kv[1])
	}
	_ = f.SetColWidth(SheetInspection, "A", "A", 22)
	_ = f.SetColWidth(SheetInspection, "B", "B", 60)
}

func writePhotos(f *excelize.File, recs []submission.PhotoRecord) {
	w := newSheet(f, SheetPhotos, "Photo ID", "Type", "Role", "Angle", "Category", "Accepted", "Captured at", "Latitude", "Longitude", "Image")
	for _, p := range recs {
		accepted := ""
		if p.Accepted != nil {
			accepted = fmt.Sprint(*p.Accepted)
		}
		w.write(p.ID.String(), p.PhotoType, p.Role, p.Angle, p.Category, accepted,
			formatTime(p.CapturedAt), floatOrBlank(p.Latitude), floatOrBlank(p.Longitude), imageRef(p.Image))
	}
	_ = f.SetColWidth(SheetPhotos, "A", "A", 38)
	_ = f.SetColWidth(SheetPhotos, "J", "J", 60)
}

func writeFindings(f *excelize.File, recs []submission.FindingRecord) {
	w := newSheet(f, SheetDamages, "Photo ID", "Part", "Type", "Severity", "Structural", "Mechanical", "Safety", "Confidence")
	for _, d := range recs {
		w.write(d.PhotoID.String(), d.Part, d.Type, d.Severity, d.StructuralImpact, d.MechanicalImpact, d.SafetyImpact, d.Confidence)
	}
	_ = f.SetColWidth(SheetDamages, "A", "A", 38)
}

func writeConsent(f *excelize.File, c *submission.ConsentRecord) {
	w := newSheet(f, SheetConsent, "Accepted", "Accepted at", "Address", "Signature")
	if c == nil {
		return
	}
	w.write(c.Accepted, formatTime(c.AcceptedAt), c.Address, imageRef(c.Signature))
}

// imageRef keeps storage keys readable and shortens inline data URLs.
func imageRef(s string) string {
	if imageprep.IsDataURL(s) {
		return utils.Truncate(s, 48)
	}
	return s
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func floatOrBlank(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func yearOrBlank(y int) string {
	if y == 0 {
		return ""
	}
	return fmt.Sprint(y)
}
