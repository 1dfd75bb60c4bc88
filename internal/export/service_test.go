package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/inspection-wizard/internal/submission"
	"github.com/joseph-ayodele/inspection-wizard/internal/utils"
)

func TestWorkbookXLSX(t *testing.T) {
	id := uuid.New()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := submission.Payload{
		Inspection: submission.InspectionRecord{
			ID: id, Country: "PA", Status: "submitted", Brand: "Toyota", Model: "Hilux", Year: 2020,
			RiskScore: 70, QualityScore: 85, Tags: []string{"status:submitted", "third_party"}, SubmittedAt: at,
		},
		Photos: []submission.PhotoRecord{
			{ID: uuid.New(), InspectionID: id, PhotoType: "vehicle", Angle: "front", Image: "data:image/jpeg;base64," + strings.Repeat("A", 500), Accepted: utils.Ptr(true)},
			{ID: uuid.New(), InspectionID: id, PhotoType: "damage", Angle: "damage", Image: "s3://claims/x.jpg", Latitude: utils.Ptr(8.9)},
		},
		Findings: []submission.FindingRecord{{InspectionID: id, Part: "door", Severity: "severe", SafetyImpact: true}},
		Consent:  &submission.ConsentRecord{InspectionID: id, Accepted: true, AcceptedAt: &at, Signature: "s3://claims/sig.png"},
	}

	b, err := NewService(nil).WorkbookXLSX(p)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetInspection, SheetPhotos, SheetDamages, SheetConsent}, f.GetSheetList())

	rows, err := f.GetRows(SheetInspection)
	require.NoError(t, err)
	values := map[string]string{}
	for _, r := range rows[1:] {
		if len(r) == 2 {
			values[r[0]] = r[1]
		}
	}
	assert.Equal(t, id.String(), values["Inspection ID"])
	assert.Equal(t, "Toyota Hilux 2020", values["Vehicle"])
	assert.Equal(t, "70", values["Risk score"])
	assert.Equal(t, "status:submitted, third_party", values["Tags"])
	assert.Equal(t, "2026-03-01T10:00:00Z", values["Submitted at"])

	photos, err := f.GetRows(SheetPhotos)
	require.NoError(t, err)
	require.Len(t, photos, 3)
	assert.Equal(t, "Photo ID", photos[0][0])
	assert.LessOrEqual(t, len([]rune(photos[1][9])), 48)
	assert.Equal(t, "true", photos[1][5])
	assert.Equal(t, "s3://claims/x.jpg", photos[2][9])

	damages, err := f.GetRows(SheetDamages)
	require.NoError(t, err)
	require.Len(t, damages, 2)
	assert.Equal(t, "severe", damages[1][3])

	consent, err := f.GetRows(SheetConsent)
	require.NoError(t, err)
	require.Len(t, consent, 2)
	assert.Equal(t, "s3://claims/sig.png", consent[1][3])
}
