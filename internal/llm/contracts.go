package llm

import (
	"context"
	"time"

	"github.com/joseph-ayodele/inspection-wizard/constants"
	"github.com/joseph-ayodele/inspection-wizard/internal/entity"
)

// IdentityFields is the normalized shape we want from an identity document.
type IdentityFields struct {
	FullName        string  `json:"full_name,omitempty"`
	FirstName       string  `json:"first_name,omitempty"`
	LastName        string  `json:"last_name,omitempty"`
	DocumentNumber  string  `json:"document_number,omitempty"`
	BirthDate       string  `json:"birth_date,omitempty"`  // YYYY-MM-DD
	ExpiryDate      string  `json:"expiry_date,omitempty"` // YYYY-MM-DD
	Sex             string  `json:"sex,omitempty"`         // M | F | X
	Nationality     string  `json:"nationality,omitempty"`
	Address         string  `json:"address,omitempty"`
	ModelConfidence float32 `json:"confidence,omitempty"` // optional (0..1)
}

// Entity converts the fields to the stored snapshot.
func (f IdentityFields) Entity() entity.ExtractedIdentity {
	return entity.ExtractedIdentity{
		FullName:       f.FullName,
		FirstName:      f.FirstName,
		LastName:       f.LastName,
		DocumentNumber: f.DocumentNumber,
		BirthDate:      f.BirthDate,
		ExpiryDate:     f.ExpiryDate,
		Sex:            f.Sex,
		Nationality:    f.Nationality,
		Address:        f.Address,
	}
}

// IdentityRequest carries one or two JPEG-encoded sides of a document.
type IdentityRequest struct {
	Front   []byte
	Back    []byte
	Country constants.CountryFormat
}

// IdentityExtractor is the high-accuracy structured extraction collaborator.
type IdentityExtractor interface {
	ExtractIdentity(ctx context.Context, req IdentityRequest) (IdentityFields, []byte /*rawJSON*/, error)
}

// DamageFindingFields is one finding as returned by a model.
type DamageFindingFields struct {
	Part             string  `json:"part"`
	Type             string  `json:"type"`
	Severity         string  `json:"severity"`
	StructuralImpact bool    `json:"structural_impact,omitempty"`
	MechanicalImpact bool    `json:"mechanical_impact,omitempty"`
	SafetyImpact     bool    `json:"safety_impact,omitempty"`
	Confidence       float32 `json:"confidence,omitempty"`
}

// DamageFields is the normalized shape of a damage analysis.
type DamageFields struct {
	Findings []DamageFindingFields `json:"findings"`
	Summary  string                `json:"summary,omitempty"`
}

// DamageRequest carries one JPEG-encoded damage photo.
type DamageRequest struct {
	Image       []byte
	Description string
}

// DamageAnalyzer is the damage-detection collaborator.
type DamageAnalyzer interface {
	AnalyzeDamage(ctx context.Context, req DamageRequest) (DamageFields, []byte, error)
}

// Entity converts the fields to a stored analysis stamped with model and time.
func (d DamageFields) Entity(model string, analyzedAt time.Time) entity.DamageAnalysis {
	out := entity.DamageAnalysis{
		Model:      model,
		Summary:    d.Summary,
		AnalyzedAt: analyzedAt,
		Findings:   make([]entity.DamageFinding, 0, len(d.Findings)),
	}
	for _, f := range d.Findings {
		out.Findings = append(out.Findings, entity.DamageFinding{
			Part:             f.Part,
			Type:             f.Type,
			Severity:         constants.Severity(f.Severity),
			StructuralImpact: f.StructuralImpact,
			MechanicalImpact: f.MechanicalImpact,
			SafetyImpact:     f.SafetyImpact,
			Confidence:       f.Confidence,
		})
	}
	return out
}
