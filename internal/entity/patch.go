package entity

import (
	"strings"
	"time"

	"github.com/joseph-ayodele/inspection-wizard/constants"
)

// Patch types carry partial updates: a nil field is absent and leaves the
// target untouched, a non-nil field overwrites it.

// InspectionPatch updates root-level inspection fields.
type InspectionPatch struct {
	Country      *string
	AccidentType *constants.AccidentType
	Status       *constants.InspectionStatus
	PolicyNumber *string
	ClaimNumber  *string
	ReferenceID  *string
	SubmittedAt  *time.Time
}

// ApplyTo merges p into dst. Status changes that break the lifecycle are ignored
// and reported as false.
func (p InspectionPatch) ApplyTo(dst *Inspection) bool {
	setString(&dst.Country, p.Country)
	if p.AccidentType != nil {
		dst.AccidentType = *p.AccidentType
	}
	setString(&dst.PolicyNumber, p.PolicyNumber)
	setString(&dst.ClaimNumber, p.ClaimNumber)
	setString(&dst.ReferenceID, p.ReferenceID)
	if p.SubmittedAt != nil {
		dst.SubmittedAt = cloneTime(p.SubmittedAt)
	}
	if p.Status != nil {
		if !dst.Status.CanTransitionTo(*p.Status) {
			return false
		}
		dst.Status = *p.Status
	}
	return true
}

// PersonPatch updates a person. Identity is merged one level deeper, field by field.
type PersonPatch struct {
	FullName       *string
	DocumentNumber *string
	BirthDate      *string
	Phone          *string
	Email          *string
	Address        *string
	LicenseNumber  *string
	Identity       *IdentityDocumentPatch
}

func (p PersonPatch) ApplyTo(dst *Person) {
	setString(&dst.FullName, p.FullName)
	setString(&dst.DocumentNumber, p.DocumentNumber)
	setString(&dst.BirthDate, p.BirthDate)
	setString(&dst.Phone, p.Phone)
	setString(&dst.Email, p.Email)
	setString(&dst.Address, p.Address)
	setString(&dst.LicenseNumber, p.LicenseNumber)
	if p.Identity != nil {
		p.Identity.ApplyTo(&dst.Identity)
	}
}

// IdentityDocumentPatch updates the identity document of a person.
type IdentityDocumentPatch struct {
	FrontImage  *string
	BackImage   *string
	FrontCheck  *CaptureCheck
	BackCheck   *CaptureCheck
	Extracted   *ExtractedIdentity
	Source      *string
	Confidence  *float32
	Validated   *bool
	ExtractedAt *time.Time
}

func (p IdentityDocumentPatch) ApplyTo(dst *IdentityDocument) {
	if p.FrontImage != nil {
		dst.FrontImage = cloneString(p.FrontImage)
	}
	if p.BackImage != nil {
		dst.BackImage = cloneString(p.BackImage)
	}
	if p.FrontCheck != nil {
		dst.FrontCheck = p.FrontCheck.clone()
	}
	if p.BackCheck != nil {
		dst.BackCheck = p.BackCheck.clone()
	}
	if p.Extracted != nil {
		e := *p.Extracted
		dst.Extracted = &e
	}
	setString(&dst.Source, p.Source)
	if p.Confidence != nil {
		dst.Confidence = *p.Confidence
	}
	if p.Validated != nil {
		dst.Validated = *p.Validated
	}
	if p.ExtractedAt != nil {
		dst.ExtractedAt = cloneTime(p.ExtractedAt)
	}
}

// OnlyEmpty drops every scalar field whose target on cur already holds a value.
// The identity sub-patch is kept as is.
func (p PersonPatch) OnlyEmpty(cur Person) PersonPatch {
	keepIfEmpty(&p.FullName, cur.FullName)
	keepIfEmpty(&p.DocumentNumber, cur.DocumentNumber)
	keepIfEmpty(&p.BirthDate, cur.BirthDate)
	keepIfEmpty(&p.Phone, cur.Phone)
	keepIfEmpty(&p.Email, cur.Email)
	keepIfEmpty(&p.Address, cur.Address)
	keepIfEmpty(&p.LicenseNumber, cur.LicenseNumber)
	return p
}

// VehiclePatch updates vehicle data fields. Photos are managed by id, not through this patch.
type VehiclePatch struct {
	Plate   *string
	VIN     *string
	Brand   *string
	Model   *string
	Year    *int
	Trim    *string
	Color   *string
	Usage   *string
	Mileage *int
	Garaged *bool
}

func (p VehiclePatch) ApplyTo(dst *Vehicle) {
	setString(&dst.Plate, p.Plate)
	setString(&dst.VIN, p.VIN)
	setString(&dst.Brand, p.Brand)
	setString(&dst.Model, p.Model)
	setString(&dst.Trim, p.Trim)
	setString(&dst.Color, p.Color)
	setString(&dst.Usage, p.Usage)
	if p.Year != nil {
		dst.Year = *p.Year
	}
	if p.Mileage != nil {
		dst.Mileage = *p.Mileage
	}
	if p.Garaged != nil {
		dst.Garaged = *p.Garaged
	}
}

// OnlyEmpty drops every field whose target on cur already holds a value. Garaged has no
// empty state and is always dropped.
func (p VehiclePatch) OnlyEmpty(cur Vehicle) VehiclePatch {
	keepIfEmpty(&p.Plate, cur.Plate)
	keepIfEmpty(&p.VIN, cur.VIN)
	keepIfEmpty(&p.Brand, cur.Brand)
	keepIfEmpty(&p.Model, cur.Model)
	keepIfEmpty(&p.Trim, cur.Trim)
	keepIfEmpty(&p.Color, cur.Color)
	keepIfEmpty(&p.Usage, cur.Usage)
	if cur.Year != 0 {
		p.Year = nil
	}
	if cur.Mileage != 0 {
		p.Mileage = nil
	}
	p.Garaged = nil
	return p
}

func keepIfEmpty(v **string, current string) {
	if strings.TrimSpace(current) != "" {
		*v = nil
	}
}

// PhotoPatch updates a photo found by id.
type PhotoPatch struct {
	Label       *string
	Description *string
	Image       *string
	Thumbnail   *string
	CapturedAt  *time.Time
	Metadata    *PhotoMetadata
	Check       *CaptureCheck
}

func (p PhotoPatch) ApplyTo(dst *VehiclePhoto) {
	setString(&dst.Label, p.Label)
	setString(&dst.Description, p.Description)
	if p.Image != nil {
		dst.Image = cloneString(p.Image)
	}
	if p.Thumbnail != nil {
		dst.Thumbnail = cloneString(p.Thumbnail)
	}
	if p.CapturedAt != nil {
		dst.CapturedAt = cloneTime(p.CapturedAt)
	}
	if p.Metadata != nil {
		m := VehiclePhoto{Metadata: p.Metadata}.Clone().Metadata
		dst.Metadata = m
	}
	if p.Check != nil {
		dst.Check = p.Check.clone()
	}
}

// ScenePatch updates the accident scene.
type ScenePatch struct {
	Latitude           *float64
	Longitude          *float64
	Address            *string
	Description        *string
	HasWitnesses       *bool
	WitnessInfo        *string
	PolicePresent      *bool
	PoliceReportNumber *string
}

func (p ScenePatch) ApplyTo(dst *AccidentScene) {
	if p.Latitude != nil {
		dst.Latitude = cloneFloat(p.Latitude)
	}
	if p.Longitude != nil {
		dst.Longitude = cloneFloat(p.Longitude)
	}
	setString(&dst.Address, p.Address)
	setString(&dst.Description, p.Description)
	setString(&dst.WitnessInfo, p.WitnessInfo)
	setString(&dst.PoliceReportNumber, p.PoliceReportNumber)
	if p.HasWitnesses != nil {
		dst.HasWitnesses = *p.HasWitnesses
	}
	if p.PolicePresent != nil {
		dst.PolicePresent = *p.PolicePresent
	}
}

// DamagePhotoPatch updates a damage photo found by id.
type DamagePhotoPatch struct {
	Image       *string
	Thumbnail   *string
	Description *string
	Check       *CaptureCheck
	Analysis    *DamageAnalysis
}

func (p DamagePhotoPatch) ApplyTo(dst *DamagePhoto) {
	setString(&dst.Image, p.Image)
	setString(&dst.Description, p.Description)
	if p.Thumbnail != nil {
		dst.Thumbnail = cloneString(p.Thumbnail)
	}
	if p.Check != nil {
		dst.Check = p.Check.clone()
	}
	if p.Analysis != nil {
		dst.Analysis = DamagePhoto{Analysis: p.Analysis}.Clone().Analysis
	}
}

// ConsentPatch updates the consent.
type ConsentPatch struct {
	Accepted   *bool
	Signature  *string
	AcceptedAt *time.Time
	Address    *string
}

func (p ConsentPatch) ApplyTo(dst *Consent) {
	if p.Accepted != nil {
		dst.Accepted = *p.Accepted
	}
	if p.Signature != nil {
		dst.Signature = cloneString(p.Signature)
	}
	if p.AcceptedAt != nil {
		dst.AcceptedAt = cloneTime(p.AcceptedAt)
	}
	setString(&dst.Address, p.Address)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
