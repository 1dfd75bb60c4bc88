package inspection

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/inspection-wizard/constants"
	"github.com/joseph-ayodele/inspection-wizard/internal/entity"
)

// NewInspection returns an empty draft with no sub-entities.
func NewInspection(now time.Time) entity.Inspection {
	return entity.Inspection{
		ID:        uuid.New(),
		Status:    constants.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewPerson returns the empty template for a person holding role.
func NewPerson(role constants.Role) *entity.Person {
	return &entity.Person{
		ID:   uuid.New(),
		Role: role,
	}
}

// NewVehicle returns the empty template for a vehicle holding role.
// The insured vehicle starts with one empty photo per checklist slot.
func NewVehicle(role constants.Role) *entity.Vehicle {
	v := &entity.Vehicle{
		ID:     uuid.New(),
		Role:   role,
		Photos: []entity.VehiclePhoto{},
	}
	if role == constants.RoleInsured {
		v.Photos = ChecklistPhotos()
	}
	return v
}

// ChecklistPhotos returns the 12 required photo placeholders in checklist order.
func ChecklistPhotos() []entity.VehiclePhoto {
	slots := constants.VehicleChecklist()
	out := make([]entity.VehiclePhoto, 0, len(slots))
	for _, s := range slots {
		out = append(out, entity.VehiclePhoto{
			ID:          uuid.New(),
			Slot:        s.Slot,
			Label:       s.Label,
			Description: s.Description,
		})
	}
	return out
}

// NewScene returns the empty accident scene template.
func NewScene() *entity.AccidentScene {
	return &entity.AccidentScene{Photos: []entity.VehiclePhoto{}}
}

// NewConsent returns the empty consent template.
func NewConsent() *entity.Consent {
	return &entity.Consent{}
}
