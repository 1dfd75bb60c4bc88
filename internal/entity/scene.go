package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/inspection-wizard/constants"
)

// AccidentScene describes where and how the accident happened.
type AccidentScene struct {
	Latitude           *float64       `json:"latitude,omitempty"`
	Longitude          *float64       `json:"longitude,omitempty"`
	Address            string         `json:"address,omitempty"`
	Description        string         `json:"description,omitempty"`
	HasWitnesses       bool           `json:"has_witnesses"`
	WitnessInfo        string         `json:"witness_info,omitempty"`
	PolicePresent      bool           `json:"police_present"`
	PoliceReportNumber string         `json:"police_report_number,omitempty"`
	Photos             []VehiclePhoto `json:"photos"`
}

// HasCoordinates reports whether a GPS fix was recorded.
func (s *AccidentScene) HasCoordinates() bool {
	return s != nil && s.Latitude != nil && s.Longitude != nil
}

// Clone returns a deep copy of s (nil-safe).
func (s *AccidentScene) Clone() *AccidentScene {
	if s == nil {
		return nil
	}
	out := *s
	out.Latitude = cloneFloat(s.Latitude)
	out.Longitude = cloneFloat(s.Longitude)
	out.Photos = clonePhotos(s.Photos)
	return &out
}

// DamagePhoto is an on-demand photo of damage with an optional analysis.
type DamagePhoto struct {
	ID          uuid.UUID       `json:"id"`
	Image       string          `json:"image"`
	Thumbnail   *string         `json:"thumbnail,omitempty"`
	Description string          `json:"description,omitempty"`
	CapturedAt  time.Time       `json:"captured_at"`
	Check       *CaptureCheck   `json:"check,omitempty"`
	Analysis    *DamageAnalysis `json:"analysis,omitempty"`
}

// DamageAnalysis is the payload returned by the damage-detection collaborator.
type DamageAnalysis struct {
	Findings   []DamageFinding `json:"findings"`
	Summary    string          `json:"summary,omitempty"`
	Model      string          `json:"model,omitempty"`
	AnalyzedAt time.Time       `json:"analyzed_at"`
}

// DamageFinding is one detected damage.
type DamageFinding struct {
	Part             string             `json:"part"`
	Type             string             `json:"type"`
	Severity         constants.Severity `json:"severity"`
	StructuralImpact bool               `json:"structural_impact"`
	MechanicalImpact bool               `json:"mechanical_impact"`
	SafetyImpact     bool               `json:"safety_impact"`
	Confidence       float32            `json:"confidence"`
}

// Clone returns a deep copy of the damage photo.
func (d DamagePhoto) Clone() DamagePhoto {
	out := d
	out.Thumbnail = cloneString(d.Thumbnail)
	out.Check = d.Check.clone()
	if d.Analysis != nil {
		a := *d.Analysis
		a.Findings = append([]DamageFinding(nil), d.Analysis.Findings...)
		out.Analysis = &a
	}
	return out
}

// Consent is the final acceptance; the last write wins.
type Consent struct {
	Accepted   bool       `json:"accepted"`
	Signature  *string    `json:"signature,omitempty"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	Address    string     `json:"address,omitempty"`
}

// HasSignature reports whether a signature image is present.
func (c *Consent) HasSignature() bool {
	return c != nil && c.Signature != nil && *c.Signature != ""
}

// Clone returns a deep copy of c (nil-safe).
func (c *Consent) Clone() *Consent {
	if c == nil {
		return nil
	}
	out := *c
	out.Signature = cloneString(c.Signature)
	out.AcceptedAt = cloneTime(c.AcceptedAt)
	return &out
}
