package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/inspection-wizard/constants"
)

// Person is the insured or the third party.
type Person struct {
	ID             uuid.UUID        `json:"id"`
	Role           constants.Role   `json:"role"`
	FullName       string           `json:"full_name,omitempty"`
	DocumentNumber string           `json:"document_number,omitempty"`
	BirthDate      string           `json:"birth_date,omitempty"` // YYYY-MM-DD
	Phone          string           `json:"phone,omitempty"`
	Email          string           `json:"email,omitempty"`
	Address        string           `json:"address,omitempty"`
	LicenseNumber  string           `json:"license_number,omitempty"`
	Identity       IdentityDocument `json:"identity_document"`
}

// IdentityDocument holds the captured sides of an identity document and what was read from them.
type IdentityDocument struct {
	FrontImage  *string            `json:"front_image,omitempty"`
	BackImage   *string            `json:"back_image,omitempty"`
	FrontCheck  *CaptureCheck      `json:"front_check,omitempty"`
	BackCheck   *CaptureCheck      `json:"back_check,omitempty"`
	Extracted   *ExtractedIdentity `json:"extracted,omitempty"`
	Source      string             `json:"source,omitempty"` // remote | ocr
	Confidence  float32            `json:"confidence"`
	Validated   bool               `json:"validated"`
	ExtractedAt *time.Time         `json:"extracted_at,omitempty"`
}

// ExtractedIdentity is the snapshot of fields read from an identity document.
type ExtractedIdentity struct {
	FullName       string `json:"full_name,omitempty"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	DocumentNumber string `json:"document_number,omitempty"`
	BirthDate      string `json:"birth_date,omitempty"`
	ExpiryDate     string `json:"expiry_date,omitempty"`
	Sex            string `json:"sex,omitempty"`
	Nationality    string `json:"nationality,omitempty"`
	Address        string `json:"address,omitempty"`
}

// IsEmpty reports whether nothing usable was extracted.
func (e ExtractedIdentity) IsEmpty() bool {
	return e == ExtractedIdentity{}
}

// DisplayName prefers the full name and falls back to first + last.
func (e ExtractedIdentity) DisplayName() string {
	if e.FullName != "" {
		return e.FullName
	}
	switch {
	case e.FirstName != "" && e.LastName != "":
		return e.FirstName + " " + e.LastName
	case e.FirstName != "":
		return e.FirstName
	}
	return e.LastName
}

// CaptureCheck is the advisory classification attached to a captured image.
type CaptureCheck struct {
	Accepted       bool               `json:"accepted"`
	Detected       constants.Category `json:"detected"`
	Confidence     float32            `json:"confidence"`
	MismatchReason string             `json:"mismatch_reason,omitempty"`
}

// Clone returns a deep copy of p (nil-safe).
func (p *Person) Clone() *Person {
	if p == nil {
		return nil
	}
	out := *p
	out.Identity = p.Identity.clone()
	return &out
}

func (d IdentityDocument) clone() IdentityDocument {
	out := d
	out.FrontImage = cloneString(d.FrontImage)
	out.BackImage = cloneString(d.BackImage)
	out.FrontCheck = d.FrontCheck.clone()
	out.BackCheck = d.BackCheck.clone()
	out.ExtractedAt = cloneTime(d.ExtractedAt)
	if d.Extracted != nil {
		e := *d.Extracted
		out.Extracted = &e
	}
	return out
}

func (c *CaptureCheck) clone() *CaptureCheck {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}
