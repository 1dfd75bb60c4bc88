package repository

import (
	"context"
	"errors"
	"log/slog"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/inspection-wizard/internal/common"
	"github.com/joseph-ayodele/inspection-wizard/internal/submission"
)

// SubmissionRepository persists assembled submissions to Postgres.
// Every insert is idempotent so a retried submission never duplicates rows.
type SubmissionRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewSubmissionRepository(db *DB, logger *slog.Logger) *SubmissionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmissionRepository{db: db, logger: logger}
}

var _ submission.Persister = (*SubmissionRepository)(nil)

func (r *SubmissionRepository) CreateInspection(ctx context.Context, rec submission.InspectionRecord) (string, error) {
	q, args := inspectionInsert(rec)
	var rows entsql.Rows
	if err := r.db.Driver.Query(ctx, q, args, &rows); err != nil {
		r.logger.Error("failed to insert inspection", "inspection_id", rec.ID, "error", err)
		return "", errors.Join(common.ErrDatabase, err)
	}
	defer rows.Close()

	if !rows.Next() {
		err := rows.Err()
		if err == nil {
			err = errors.New("insert returned no reference")
		}
		return "", errors.Join(common.ErrDatabase, err)
	}
	var ref string
	if err := rows.Scan(&ref); err != nil {
		return "", errors.Join(common.ErrDatabase, err)
	}
	r.logger.Info("inspection saved", "inspection_id", rec.ID, "reference", ref)
	return ref, nil
}

func (r *SubmissionRepository) CreatePhotos(ctx context.Context, ref string, recs []submission.PhotoRecord) error {
	if len(recs) == 0 {
		return nil
	}
	q, args := photosInsert(recs)
	return r.exec(ctx, "photos", ref, q, args)
}

func (r *SubmissionRepository) CreateFindings(ctx context.Context, ref string, recs []submission.FindingRecord) error {
	if len(recs) == 0 {
		return nil
	}
	q, args := findingsInsert(recs)
	return r.exec(ctx, "findings", ref, q, args)
}

func (r *SubmissionRepository) CreateConsent(ctx context.Context, ref string, rec submission.ConsentRecord) error {
	q, args := consentInsert(rec)
	return r.exec(ctx, "consent", ref, q, args)
}

func (r *SubmissionRepository) exec(ctx context.Context, kind, ref, q string, args []any) error {
	if err := r.db.Driver.Exec(ctx, q, args, nil); err != nil {
		r.logger.Error("failed to insert records", "record", kind, "reference", ref, "error", err)
		return errors.Join(common.ErrDatabase, err)
	}
	r.logger.Debug("records saved", "record", kind, "reference", ref)
	return nil
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.Postgres)
}

// inspectionInsert upserts on id and returns the reference, so a retried primary
// write yields the reference generated the first time.
func inspectionInsert(rec submission.InspectionRecord) (string, []any) {
	return builder().Insert("inspections").
		Columns(
			"id", "country", "accident_type", "status", "policy_number", "claim_number",
			"created_at", "submitted_at",
			"insured_name", "insured_document", "insured_phone", "insured_email",
			"identity_source", "identity_confidence", "identity_validated",
			"vehicle_plate", "vehicle_vin", "vehicle_brand", "vehicle_model", "vehicle_year",
			"vehicle_color", "vehicle_usage", "vehicle_mileage", "vehicle_garaged",
			"has_third_party", "third_party_name", "third_party_document", "third_party_phone",
			"third_party_plate", "third_party_vehicle",
			"scene_latitude", "scene_longitude", "scene_address", "scene_description",
			"police_present", "police_report_number", "has_witnesses",
			"photo_count", "damage_count", "risk_score", "quality_score", "tags",
		).
		Values(
			rec.ID, rec.Country, rec.AccidentType, rec.Status, rec.PolicyNumber, rec.ClaimNumber,
			rec.CreatedAt, rec.SubmittedAt,
			rec.InsuredName, rec.InsuredDocument, rec.InsuredPhone, rec.InsuredEmail,
			rec.IdentitySource, rec.IdentityConfidence, rec.IdentityValidated,
			rec.Plate, rec.VIN, rec.Brand, rec.Model, rec.Year, rec.Color, rec.Usage, rec.Mileage, rec.Garaged,
			rec.HasThirdParty, rec.ThirdPartyName, rec.ThirdPartyDocument, rec.ThirdPartyPhone,
			rec.ThirdPartyPlate, rec.ThirdPartyVehicle,
			rec.SceneLatitude, rec.SceneLongitude, rec.SceneAddress, rec.SceneDescription,
			rec.PolicePresent, rec.PoliceReportNumber, rec.HasWitnesses,
			rec.PhotoCount, rec.DamageCount, rec.RiskScore, rec.QualityScore, tagsOrEmpty(rec.Tags),
		).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("submitted_at")
			}),
		).
		Returning("reference").
		Query()
}

func photosInsert(recs []submission.PhotoRecord) (string, []any) {
	ins := builder().Insert("inspection_photos").
		Columns("id", "inspection_id", "photo_type", "category", "angle", "role", "image",
			"description", "latitude", "longitude", "captured_at", "accepted")
	for _, p := range recs {
		ins.Values(p.ID, p.InspectionID, p.PhotoType, p.Category, p.Angle, p.Role, p.Image,
			p.Description, p.Latitude, p.Longitude, p.CapturedAt, p.Accepted)
	}
	return ins.OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()).Query()
}

func findingsInsert(recs []submission.FindingRecord) (string, []any) {
	ins := builder().Insert("damage_findings").
		Columns("inspection_id", "photo_id", "ordinal", "part", "type", "severity",
			"structural_impact", "mechanical_impact", "safety_impact", "confidence")
	for n, f := range recs {
		ins.Values(f.InspectionID, f.PhotoID, n, f.Part, f.Type, f.Severity,
			f.StructuralImpact, f.MechanicalImpact, f.SafetyImpact, f.Confidence)
	}
	return ins.OnConflict(entsql.ConflictColumns("inspection_id", "ordinal"), entsql.DoNothing()).Query()
}

func consentInsert(c submission.ConsentRecord) (string, []any) {
	return builder().Insert("inspection_consents").
		Columns("inspection_id", "accepted", "signature", "accepted_at", "address").
		Values(c.InspectionID, c.Accepted, c.Signature, c.AcceptedAt, c.Address).
		OnConflict(entsql.ConflictColumns("inspection_id"), entsql.ResolveWithNewValues()).
		Query()
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
