package submission

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/inspection-wizard/constants"
	"github.com/joseph-ayodele/inspection-wizard/internal/entity"
)

// Photo types used on photo records.
const (
	PhotoVehicle  = "vehicle"
	PhotoScene    = "scene"
	PhotoDamage   = "damage"
	PhotoIdentity = "identity"
)

// InspectionRecord is the flattened, scalar-only summary of an inspection.
type InspectionRecord struct {
	ID           uuid.UUID `json:"id"`
	Country      string    `json:"country"`
	AccidentType string    `json:"accident_type"`
	Status       string    `json:"status"`
	PolicyNumber string    `json:"policy_number,omitempty"`
	ClaimNumber  string    `json:"claim_number,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	SubmittedAt  time.Time `json:"submitted_at"`

	InsuredName        string  `json:"insured_name,omitempty"`
	InsuredDocument    string  `json:"insured_document,omitempty"`
	InsuredPhone       string  `json:"insured_phone,omitempty"`
	InsuredEmail       string  `json:"insured_email,omitempty"`
	IdentitySource     string  `json:"identity_source,omitempty"`
	IdentityConfidence float32 `json:"identity_confidence"`
	IdentityValidated  bool    `json:"identity_validated"`

	Plate   string `json:"vehicle_plate,omitempty"`
	VIN     string `json:"vehicle_vin,omitempty"`
	Brand   string `json:"vehicle_brand,omitempty"`
	Model   string `json:"vehicle_model,omitempty"`
	Year    int    `json:"vehicle_year,omitempty"`
	Color   string `json:"vehicle_color,omitempty"`
	Usage   string `json:"vehicle_usage,omitempty"`
	Mileage int    `json:"vehicle_mileage,omitempty"`
	Garaged bool   `json:"vehicle_garaged"`

	HasThirdParty      bool   `json:"has_third_party"`
	ThirdPartyName     string `json:"third_party_name,omitempty"`
	ThirdPartyDocument string `json:"third_party_document,omitempty"`
	ThirdPartyPhone    string `json:"third_party_phone,omitempty"`
	ThirdPartyPlate    string `json:"third_party_plate,omitempty"`
	ThirdPartyVehicle  string `json:"third_party_vehicle,omitempty"`

	SceneLatitude      *float64 `json:"scene_latitude,omitempty"`
	SceneLongitude     *float64 `json:"scene_longitude,omitempty"`
	SceneAddress       string   `json:"scene_address,omitempty"`
	SceneDescription   string   `json:"scene_description,omitempty"`
	PolicePresent      bool     `json:"police_present"`
	PoliceReportNumber string   `json:"police_report_number,omitempty"`
	HasWitnesses       bool     `json:"has_witnesses"`

	PhotoCount   int      `json:"photo_count"`
	DamageCount  int      `json:"damage_count"`
	RiskScore    int      `json:"risk_score"`
	QualityScore int      `json:"quality_score"`
	Tags         []string `json:"tags"`
}

// PhotoRecord is one image from any photo collection.
type PhotoRecord struct {
	ID           uuid.UUID  `json:"id"`
	InspectionID uuid.UUID  `json:"inspection_id"`
	PhotoType    string     `json:"photo_type"`
	Category     string     `json:"category"`
	Angle        string     `json:"angle"`
	Role         string     `json:"role,omitempty"`
	Image        string     `json:"image"`
	Description  string     `json:"description,omitempty"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
	CapturedAt   *time.Time `json:"captured_at,omitempty"`
	Accepted     *bool      `json:"accepted,omitempty"`
}

// FindingRecord is one detected damage.
type FindingRecord struct {
	InspectionID     uuid.UUID `json:"inspection_id"`
	PhotoID          uuid.UUID `json:"photo_id"`
	Part             string    `json:"part"`
	Type             string    `json:"type"`
	Severity         string    `json:"severity"`
	StructuralImpact bool      `json:"structural_impact"`
	MechanicalImpact bool      `json:"mechanical_impact"`
	SafetyImpact     bool      `json:"safety_impact"`
	Confidence       float32   `json:"confidence"`
}

// ConsentRecord is the signed acceptance.
type ConsentRecord struct {
	InspectionID uuid.UUID  `json:"inspection_id"`
	Accepted     bool       `json:"accepted"`
	Signature    string     `json:"signature,omitempty"`
	AcceptedAt   *time.Time `json:"accepted_at,omitempty"`
	Address      string     `json:"address,omitempty"`
}

// Payload is everything handed to the persistence collaborator.
type Payload struct {
	Inspection InspectionRecord `json:"inspection"`
	Photos     []PhotoRecord    `json:"photos"`
	Findings   []FindingRecord  `json:"findings"`
	Consent    *ConsentRecord   `json:"consent,omitempty"`
}

// Assembler builds payloads. It never modifies the inspection it is given.
type Assembler struct {
	weights Weights
	now     func() time.Time
}

// NewAssembler uses time.Now when clock is nil.
func NewAssembler(w Weights, clock func() time.Time) *Assembler {
	if clock == nil {
		clock = time.Now
	}
	return &Assembler{weights: w, now: clock}
}

// Assemble flattens i as it will look once submitted: status submitted, submitted now.
func (a *Assembler) Assemble(i entity.Inspection) Payload {
	now := a.now()
	i = i.Clone()
	i.Status = constants.StatusSubmitted
	i.SubmittedAt = &now

	p := Payload{
		Inspection: inspectionRecord(i, now, a.weights),
		Photos:     photoRecords(i),
		Findings:   findingRecords(i),
		Consent:    consentRecord(i),
	}
	p.Inspection.PhotoCount = len(p.Photos)
	return p
}

func inspectionRecord(i entity.Inspection, now time.Time, w Weights) InspectionRecord {
	r := InspectionRecord{
		ID:            i.ID,
		Country:       i.Country,
		AccidentType:  string(i.AccidentType),
		Status:        string(i.Status),
		PolicyNumber:  i.PolicyNumber,
		ClaimNumber:   i.ClaimNumber,
		CreatedAt:     i.CreatedAt,
		SubmittedAt:   now,
		HasThirdParty: i.HasThirdParty,
		DamageCount:   len(i.DamagePhotos),
		RiskScore:     RiskScore(i, now, w),
		QualityScore:  QualityScore(i, w),
		Tags:          Tags(i, now, w),
	}
	if p := i.InsuredPerson; p != nil {
		r.InsuredName = p.FullName
		r.InsuredDocument = p.DocumentNumber
		r.InsuredPhone = p.Phone
		r.InsuredEmail = p.Email
		r.IdentitySource = p.Identity.Source
		r.IdentityConfidence = p.Identity.Confidence
		r.IdentityValidated = p.Identity.Validated
	}
	if v := i.InsuredVehicle; v != nil {
		r.Plate = v.Plate
		r.VIN = v.VIN
		r.Brand = v.Brand
		r.Model = v.Model
		r.Year = v.Year
		r.Color = v.Color
		r.Usage = v.Usage
		r.Mileage = v.Mileage
		r.Garaged = v.Garaged
	}
	if i.HasThirdParty {
		if p := i.ThirdPartyPerson; p != nil {
			r.ThirdPartyName = p.FullName
			r.ThirdPartyDocument = p.DocumentNumber
			r.ThirdPartyPhone = p.Phone
		}
		if v := i.ThirdPartyVehicle; v != nil {
			r.ThirdPartyPlate = v.Plate
			r.ThirdPartyVehicle = joinNonEmpty(v.Brand, v.Model, v.Color)
		}
	}
	if s := i.Scene; s != nil {
		r.SceneLatitude = s.Latitude
		r.SceneLongitude = s.Longitude
		r.SceneAddress = s.Address
		r.SceneDescription = s.Description
		r.PolicePresent = s.PolicePresent
		r.PoliceReportNumber = s.PoliceReportNumber
		r.HasWitnesses = s.HasWitnesses
	}
	return r
}

func photoRecords(i entity.Inspection) []PhotoRecord {
	out := []PhotoRecord{}
	roles := []constants.Role{constants.RoleInsured}
	if i.HasThirdParty {
		roles = append(roles, constants.RoleThirdParty)
	}
	for _, role := range roles {
		if p := i.Person(role); p != nil {
			out = appendIdentity(out, i.ID, role, p.Identity)
		}
		if v := i.Vehicle(role); v != nil {
			for _, ph := range v.Photos {
				if ph.HasImage() {
					out = append(out, vehiclePhotoRecord(i.ID, PhotoVehicle, role, ph))
				}
			}
		}
	}
	if i.Scene != nil {
		for _, ph := range i.Scene.Photos {
			if ph.HasImage() {
				out = append(out, vehiclePhotoRecord(i.ID, PhotoScene, "", ph))
			}
		}
	}
	for _, d := range i.DamagePhotos {
		if d.Image == "" {
			continue
		}
		at := d.CapturedAt
		out = append(out, PhotoRecord{
			ID:           d.ID,
			InspectionID: i.ID,
			PhotoType:    PhotoDamage,
			Category:     string(constants.CategoryDamage),
			Angle:        string(constants.SlotDamage),
			Role:         string(constants.RoleInsured),
			Image:        d.Image,
			Description:  d.Description,
			CapturedAt:   &at,
			Accepted:     accepted(d.Check),
		})
	}
	return out
}

func appendIdentity(out []PhotoRecord, id uuid.UUID, role constants.Role, doc entity.IdentityDocument) []PhotoRecord {
	sides := []struct {
		slot  constants.Slot
		image *string
		check *entity.CaptureCheck
	}{
		{constants.SlotIdentityFront, doc.FrontImage, doc.FrontCheck},
		{constants.SlotIdentityBack, doc.BackImage, doc.BackCheck},
	}
	for _, s := range sides {
		if s.image == nil || *s.image == "" {
			continue
		}
		out = append(out, PhotoRecord{
			ID:           uuid.NewSHA1(id, []byte(string(role)+"/"+string(s.slot))),
			InspectionID: id,
			PhotoType:    PhotoIdentity,
			Category:     string(s.slot.Category()),
			Angle:        string(s.slot),
			Role:         string(role),
			Image:        *s.image,
			Accepted:     accepted(s.check),
		})
	}
	return out
}

func vehiclePhotoRecord(id uuid.UUID, kind string, role constants.Role, ph entity.VehiclePhoto) PhotoRecord {
	r := PhotoRecord{
		ID:           ph.ID,
		InspectionID: id,
		PhotoType:    kind,
		Category:     string(ph.Slot.Category()),
		Angle:        string(ph.Slot),
		Role:         string(role),
		Image:        *ph.Image,
		Description:  ph.Description,
		CapturedAt:   ph.CapturedAt,
		Accepted:     accepted(ph.Check),
	}
	if m := ph.Metadata; m != nil {
		r.Latitude = m.Latitude
		r.Longitude = m.Longitude
	}
	return r
}

func findingRecords(i entity.Inspection) []FindingRecord {
	out := []FindingRecord{}
	for _, d := range i.DamagePhotos {
		if d.Analysis == nil {
			continue
		}
		for _, f := range d.Analysis.Findings {
			out = append(out, FindingRecord{
				InspectionID:     i.ID,
				PhotoID:          d.ID,
				Part:             f.Part,
				Type:             f.Type,
				Severity:         string(f.Severity),
				StructuralImpact: f.StructuralImpact,
				MechanicalImpact: f.MechanicalImpact,
				SafetyImpact:     f.SafetyImpact,
				Confidence:       f.Confidence,
			})
		}
	}
	return out
}

func consentRecord(i entity.Inspection) *ConsentRecord {
	c := i.Consent
	if c == nil {
		return nil
	}
	r := &ConsentRecord{
		InspectionID: i.ID,
		Accepted:     c.Accepted,
		AcceptedAt:   c.AcceptedAt,
		Address:      c.Address,
	}
	if c.Signature != nil {
		r.Signature = *c.Signature
	}
	return r
}

func accepted(c *entity.CaptureCheck) *bool {
	if c == nil {
		return nil
	}
	v := c.Accepted
	return &v
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}
