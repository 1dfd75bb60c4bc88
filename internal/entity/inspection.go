package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/inspection-wizard/constants"
)

// Inspection is the root document of one accident-inspection session.
type Inspection struct {
	ID           uuid.UUID                  `json:"id"`
	Country      string                     `json:"country"`
	AccidentType constants.AccidentType     `json:"accident_type,omitempty"`
	Status       constants.InspectionStatus `json:"status"`
	PolicyNumber string                     `json:"policy_number,omitempty"`
	ClaimNumber  string                     `json:"claim_number,omitempty"`
	ReferenceID  string                     `json:"reference_id,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`

	HasThirdParty     bool           `json:"has_third_party"`
	InsuredPerson     *Person        `json:"insured_person,omitempty"`
	ThirdPartyPerson  *Person        `json:"third_party_person,omitempty"`
	InsuredVehicle    *Vehicle       `json:"insured_vehicle,omitempty"`
	ThirdPartyVehicle *Vehicle       `json:"third_party_vehicle,omitempty"`
	Scene             *AccidentScene `json:"scene,omitempty"`
	DamagePhotos      []DamagePhoto  `json:"damage_photos,omitempty"`
	Consent           *Consent       `json:"consent,omitempty"`
}

// Person returns the person holding role, or nil.
func (i Inspection) Person(role constants.Role) *Person {
	if role == constants.RoleThirdParty {
		return i.ThirdPartyPerson
	}
	return i.InsuredPerson
}

// Vehicle returns the vehicle holding role, or nil.
func (i Inspection) Vehicle(role constants.Role) *Vehicle {
	if role == constants.RoleThirdParty {
		return i.ThirdPartyVehicle
	}
	return i.InsuredVehicle
}

// Clone returns a deep copy; the copy shares no slices, maps or pointers with i.
func (i Inspection) Clone() Inspection {
	out := i
	out.SubmittedAt = cloneTime(i.SubmittedAt)
	out.InsuredPerson = i.InsuredPerson.Clone()
	out.ThirdPartyPerson = i.ThirdPartyPerson.Clone()
	out.InsuredVehicle = i.InsuredVehicle.Clone()
	out.ThirdPartyVehicle = i.ThirdPartyVehicle.Clone()
	out.Scene = i.Scene.Clone()
	out.Consent = i.Consent.Clone()
	if i.DamagePhotos != nil {
		out.DamagePhotos = make([]DamagePhoto, len(i.DamagePhotos))
		for k := range i.DamagePhotos {
			out.DamagePhotos[k] = i.DamagePhotos[k].Clone()
		}
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
