package inspection

import (
	"github.com/google/uuid"

	"github.com/joseph-ayodele/inspection-wizard/constants"
	"github.com/joseph-ayodele/inspection-wizard/internal/entity"
)

// The functions below never modify their input. Each returns a new document
// and whether anything changed; when nothing changed the input is returned as is.

// ApplyInspection merges root-level fields. An invalid status transition rejects the whole patch.
func ApplyInspection(doc entity.Inspection, p entity.InspectionPatch) (entity.Inspection, bool) {
	out := doc.Clone()
	if !p.ApplyTo(&out) {
		return doc, false
	}
	return out, true
}

// ApplyPerson merges p into the person holding role, creating it from the empty template first.
func ApplyPerson(doc entity.Inspection, role constants.Role, p entity.PersonPatch) (entity.Inspection, bool) {
	out := doc.Clone()
	person := out.Person(role)
	if person == nil {
		person = NewPerson(role)
		setPerson(&out, role, person)
	}
	p.ApplyTo(person)
	return out, true
}

// ApplyVehicle merges p into the vehicle holding role, creating it from the empty template first.
func ApplyVehicle(doc entity.Inspection, role constants.Role, p entity.VehiclePatch) (entity.Inspection, bool) {
	out := doc.Clone()
	vehicle := out.Vehicle(role)
	if vehicle == nil {
		vehicle = NewVehicle(role)
		setVehicle(&out, role, vehicle)
	}
	p.ApplyTo(vehicle)
	return out, true
}

// MergeMode selects how MergePerson and MergeVehicle treat fields the target already holds.
type MergeMode int

const (
	// Overwrite applies every field present in the patch.
	Overwrite MergeMode = iota
	// FillEmpty applies a field only where the target is still empty.
	FillEmpty
)

// MergePerson merges p into the existing person holding role. Unlike ApplyPerson it never
// creates the person: without one the document is returned unchanged.
func MergePerson(doc entity.Inspection, role constants.Role, p entity.PersonPatch, mode MergeMode) (entity.Inspection, bool) {
	if doc.Person(role) == nil {
		return doc, false
	}
	out := doc.Clone()
	person := out.Person(role)
	if mode == FillEmpty {
		p = p.OnlyEmpty(*person)
	}
	p.ApplyTo(person)
	return out, true
}

// MergeVehicle merges p into the existing vehicle holding role; never creates it.
func MergeVehicle(doc entity.Inspection, role constants.Role, p entity.VehiclePatch, mode MergeMode) (entity.Inspection, bool) {
	if doc.Vehicle(role) == nil {
		return doc, false
	}
	out := doc.Clone()
	vehicle := out.Vehicle(role)
	if mode == FillEmpty {
		p = p.OnlyEmpty(*vehicle)
	}
	p.ApplyTo(vehicle)
	return out, true
}

// AddVehiclePhoto appends photo to the vehicle holding role. No-op without that vehicle.
func AddVehiclePhoto(doc entity.Inspection, role constants.Role, photo entity.VehiclePhoto) (entity.Inspection, bool) {
	if doc.Vehicle(role) == nil {
		return doc, false
	}
	out := doc.Clone()
	v := out.Vehicle(role)
	v.Photos = append(v.Photos, withPhotoID(photo.Clone()))
	return out, true
}

// UpdateVehiclePhoto merges p into the photo with id on the vehicle holding role.
func UpdateVehiclePhoto(doc entity.Inspection, role constants.Role, id uuid.UUID, p entity.PhotoPatch) (entity.Inspection, bool) {
	v := doc.Vehicle(role)
	if v == nil || indexPhoto(v.Photos, id) < 0 {
		return doc, false
	}
	out := doc.Clone()
	photos := out.Vehicle(role).Photos
	p.ApplyTo(&photos[indexPhoto(photos, id)])
	return out, true
}

// ApplyScene merges p into the accident scene, creating it lazily.
func ApplyScene(doc entity.Inspection, p entity.ScenePatch) (entity.Inspection, bool) {
	out := doc.Clone()
	if out.Scene == nil {
		out.Scene = NewScene()
	}
	p.ApplyTo(out.Scene)
	return out, true
}

// AddScenePhoto appends photo to the scene. No-op while no scene exists.
func AddScenePhoto(doc entity.Inspection, photo entity.VehiclePhoto) (entity.Inspection, bool) {
	if doc.Scene == nil {
		return doc, false
	}
	out := doc.Clone()
	photo = withPhotoID(photo.Clone())
	if photo.Slot == "" {
		photo.Slot = constants.SlotScene
	}
	out.Scene.Photos = append(out.Scene.Photos, photo)
	return out, true
}

// UpdateScenePhoto merges p into the scene photo with id.
func UpdateScenePhoto(doc entity.Inspection, id uuid.UUID, p entity.PhotoPatch) (entity.Inspection, bool) {
	if doc.Scene == nil || indexPhoto(doc.Scene.Photos, id) < 0 {
		return doc, false
	}
	out := doc.Clone()
	p.ApplyTo(&out.Scene.Photos[indexPhoto(out.Scene.Photos, id)])
	return out, true
}

// RemoveScenePhoto drops the scene photo with id.
func RemoveScenePhoto(doc entity.Inspection, id uuid.UUID) (entity.Inspection, bool) {
	if doc.Scene == nil || indexPhoto(doc.Scene.Photos, id) < 0 {
		return doc, false
	}
	out := doc.Clone()
	kept := make([]entity.VehiclePhoto, 0, len(out.Scene.Photos)-1)
	for _, ph := range out.Scene.Photos {
		if ph.ID != id {
			kept = append(kept, ph)
		}
	}
	out.Scene.Photos = kept
	return out, true
}

// AddDamagePhoto appends photo to the inspection-level damage list.
func AddDamagePhoto(doc entity.Inspection, photo entity.DamagePhoto) (entity.Inspection, bool) {
	out := doc.Clone()
	photo = photo.Clone()
	if photo.ID == uuid.Nil {
		photo.ID = uuid.New()
	}
	out.DamagePhotos = append(out.DamagePhotos, photo)
	return out, true
}

// RemoveDamagePhoto drops the damage photo with id.
func RemoveDamagePhoto(doc entity.Inspection, id uuid.UUID) (entity.Inspection, bool) {
	if indexDamage(doc.DamagePhotos, id) < 0 {
		return doc, false
	}
	out := doc.Clone()
	kept := make([]entity.DamagePhoto, 0, len(out.DamagePhotos)-1)
	for _, d := range out.DamagePhotos {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	out.DamagePhotos = kept
	return out, true
}

// UpdateDamagePhoto merges p into the damage photo with id.
func UpdateDamagePhoto(doc entity.Inspection, id uuid.UUID, p entity.DamagePhotoPatch) (entity.Inspection, bool) {
	if indexDamage(doc.DamagePhotos, id) < 0 {
		return doc, false
	}
	out := doc.Clone()
	p.ApplyTo(&out.DamagePhotos[indexDamage(out.DamagePhotos, id)])
	return out, true
}

// ApplyConsent merges p into the consent, creating it lazily. Last write wins.
func ApplyConsent(doc entity.Inspection, p entity.ConsentPatch) (entity.Inspection, bool) {
	out := doc.Clone()
	if out.Consent == nil {
		out.Consent = NewConsent()
	}
	p.ApplyTo(out.Consent)
	return out, true
}

// SetHasThirdParty turns the third party on (creating empty person and vehicle when missing)
// or off (discarding both).
func SetHasThirdParty(doc entity.Inspection, on bool) (entity.Inspection, bool) {
	out := doc.Clone()
	out.HasThirdParty = on
	if !on {
		out.ThirdPartyPerson = nil
		out.ThirdPartyVehicle = nil
		return out, true
	}
	if out.ThirdPartyPerson == nil {
		out.ThirdPartyPerson = NewPerson(constants.RoleThirdParty)
	}
	if out.ThirdPartyVehicle == nil {
		out.ThirdPartyVehicle = NewVehicle(constants.RoleThirdParty)
	}
	return out, true
}

func setPerson(doc *entity.Inspection, role constants.Role, p *entity.Person) {
	if role == constants.RoleThirdParty {
		doc.ThirdPartyPerson = p
		return
	}
	doc.InsuredPerson = p
}

func setVehicle(doc *entity.Inspection, role constants.Role, v *entity.Vehicle) {
	if role == constants.RoleThirdParty {
		doc.ThirdPartyVehicle = v
		return
	}
	doc.InsuredVehicle = v
}

func withPhotoID(p entity.VehiclePhoto) entity.VehiclePhoto {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return p
}

func indexPhoto(photos []entity.VehiclePhoto, id uuid.UUID) int {
	for i := range photos {
		if photos[i].ID == id {
			return i
		}
	}
	return -1
}

func indexDamage(photos []entity.DamagePhoto, id uuid.UUID) int {
	for i := range photos {
		if photos[i].ID == id {
			return i
		}
	}
	return -1
}
