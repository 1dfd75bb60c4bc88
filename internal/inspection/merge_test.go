package inspection

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/inspection-wizard/constants"
	"github.com/joseph-ayodele/inspection-wizard/internal/entity"
	"github.com/joseph-ayodele/inspection-wizard/internal/utils"
)

func scaffolded() entity.Inspection {
	doc := NewInspection(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	doc.InsuredPerson = NewPerson(constants.RoleInsured)
	doc.InsuredVehicle = NewVehicle(constants.RoleInsured)
	return doc
}

func TestChecklistPhotos(t *testing.T) {
	v := NewVehicle(constants.RoleInsured)
	require.Len(t, v.Photos, 12)
	for i, info := range constants.VehicleChecklist() {
		assert.Equal(t, info.Slot, v.Photos[i].Slot)
		assert.Nil(t, v.Photos[i].Image)
		assert.NotEqual(t, uuid.Nil, v.Photos[i].ID)
	}

	tp := NewVehicle(constants.RoleThirdParty)
	assert.Empty(t, tp.Photos)
}

func TestApplyVehicle_KeepsAbsentFields(t *testing.T) {
	doc := scaffolded()

	doc, _ = ApplyVehicle(doc, constants.RoleInsured, entity.VehiclePatch{Plate: utils.Ptr("ABC1234"), Brand: utils.Ptr("Toyota")})
	doc, _ = ApplyVehicle(doc, constants.RoleInsured, entity.VehiclePatch{Model: utils.Ptr("Corolla")})
	doc, _ = ApplyVehicle(doc, constants.RoleInsured, entity.VehiclePatch{Brand: utils.Ptr("Honda"), Mileage: utils.Ptr(1200)})

	v := doc.InsuredVehicle
	assert.Equal(t, "ABC1234", v.Plate)
	assert.Equal(t, "Honda", v.Brand)
	assert.Equal(t, "Corolla", v.Model)
	assert.Equal(t, 1200, v.Mileage)
	assert.Len(t, v.Photos, 12)
}

func TestApplyPerson_MergesIdentitySidesIndependently(t *testing.T) {
	doc := scaffolded()

	doc, _ = ApplyPerson(doc, constants.RoleInsured, entity.PersonPatch{
		Identity: &entity.IdentityDocumentPatch{BackImage: utils.Ptr("data:image/jpeg;base64,BACK")},
	})
	doc, _ = ApplyPerson(doc, constants.RoleInsured, entity.PersonPatch{
		FullName: utils.Ptr("Ana Pérez"),
		Identity: &entity.IdentityDocumentPatch{FrontImage: utils.Ptr("data:image/jpeg;base64,FRONT")},
	})

	id := doc.InsuredPerson.Identity
	require.NotNil(t, id.FrontImage)
	require.NotNil(t, id.BackImage)
	assert.Equal(t, "data:image/jpeg;base64,FRONT", *id.FrontImage)
	assert.Equal(t, "data:image/jpeg;base64,BACK", *id.BackImage)
	assert.Equal(t, "Ana Pérez", doc.InsuredPerson.FullName)
}

func TestApplyPerson_CreatesMissingTarget(t *testing.T) {
	doc := NewInspection(time.Now())
	require.Nil(t, doc.ThirdPartyPerson)

	out, changed := ApplyPerson(doc, constants.RoleThirdParty, entity.PersonPatch{FullName: utils.Ptr("Luis")})
	require.True(t, changed)
	require.NotNil(t, out.ThirdPartyPerson)
	assert.Equal(t, constants.RoleThirdParty, out.ThirdPartyPerson.Role)
	assert.Equal(t, "Luis", out.ThirdPartyPerson.FullName)
	assert.Nil(t, doc.ThirdPartyPerson, "input must not be modified")
	assert.Nil(t, out.InsuredPerson)
}

func TestMergePerson_NeverCreates(t *testing.T) {
	doc := scaffolded()

	out, changed := MergePerson(doc, constants.RoleThirdParty, entity.PersonPatch{FullName: utils.Ptr("Luis")}, Overwrite)
	assert.False(t, changed)
	assert.Nil(t, out.ThirdPartyPerson)

	out, changed = MergeVehicle(doc, constants.RoleThirdParty, entity.VehiclePatch{Plate: utils.Ptr("XYZ")}, FillEmpty)
	assert.False(t, changed)
	assert.Nil(t, out.ThirdPartyVehicle)
}

func TestMerge_FillEmptyKeepsExistingValues(t *testing.T) {
	doc := scaffolded()
	doc.InsuredPerson.FullName = "Ana Pérez"
	doc.InsuredVehicle.Plate = "USR-123"
	doc.InsuredVehicle.Year = 2018

	out, changed := MergePerson(doc, constants.RoleInsured, entity.PersonPatch{
		FullName:       utils.Ptr("ANA PEREZ"),
		DocumentNumber: utils.Ptr("PERA800101"),
		Identity:       &entity.IdentityDocumentPatch{Source: utils.Ptr("ocr")},
	}, FillEmpty)
	require.True(t, changed)
	assert.Equal(t, "Ana Pérez", out.InsuredPerson.FullName)
	assert.Equal(t, "PERA800101", out.InsuredPerson.DocumentNumber)
	assert.Equal(t, "ocr", out.InsuredPerson.Identity.Source)

	out, _ = MergeVehicle(out, constants.RoleInsured, entity.VehiclePatch{
		Plate: utils.Ptr("OCR-999"),
		VIN:   utils.Ptr("1HGCM82633A004352"),
		Year:  utils.Ptr(2020),
	}, FillEmpty)
	assert.Equal(t, "USR-123", out.InsuredVehicle.Plate)
	assert.Equal(t, "1HGCM82633A004352", out.InsuredVehicle.VIN)
	assert.Equal(t, 2018, out.InsuredVehicle.Year)

	out, _ = MergeVehicle(out, constants.RoleInsured, entity.VehiclePatch{Plate: utils.Ptr("OCR-999")}, Overwrite)
	assert.Equal(t, "OCR-999", out.InsuredVehicle.Plate)
	assert.Equal(t, "USR-123", doc.InsuredVehicle.Plate, "input must not be modified")
}

func TestApplyInspection_RejectsBackwardStatus(t *testing.T) {
	doc := scaffolded()
	doc.Status = constants.StatusSubmitted

	out, changed := ApplyInspection(doc, entity.InspectionPatch{
		Status:       utils.Ptr(constants.StatusDraft),
		PolicyNumber: utils.Ptr("POL-1"),
	})
	assert.False(t, changed)
	assert.Equal(t, constants.StatusSubmitted, out.Status)
	assert.Empty(t, out.PolicyNumber)
}

func TestVehiclePhotoOps_NoVehicleIsNoop(t *testing.T) {
	doc := NewInspection(time.Now())

	out, changed := AddVehiclePhoto(doc, constants.RoleThirdParty, entity.VehiclePhoto{Slot: constants.SlotDamage})
	assert.False(t, changed)
	assert.Nil(t, out.ThirdPartyVehicle)

	_, changed = UpdateVehiclePhoto(doc, constants.RoleInsured, uuid.New(), entity.PhotoPatch{Image: utils.Ptr("x")})
	assert.False(t, changed)
}

func TestUpdateVehiclePhoto_ByID(t *testing.T) {
	doc := scaffolded()
	target := doc.InsuredVehicle.Photos[3]

	out, changed := UpdateVehiclePhoto(doc, constants.RoleInsured, target.ID, entity.PhotoPatch{Image: utils.Ptr("img")})
	require.True(t, changed)
	assert.True(t, out.InsuredVehicle.Photos[3].HasImage())
	assert.Equal(t, target.Label, out.InsuredVehicle.Photos[3].Label)
	assert.False(t, doc.InsuredVehicle.Photos[3].HasImage(), "input must not be modified")
	assert.Equal(t, 1, out.InsuredVehicle.CapturedPhotos())
}

func TestScenePhotos(t *testing.T) {
	doc := scaffolded()

	_, changed := AddScenePhoto(doc, entity.VehiclePhoto{Image: utils.Ptr("img")})
	assert.False(t, changed, "no scene yet")

	doc, _ = ApplyScene(doc, entity.ScenePatch{Description: utils.Ptr("Choque en cruce")})
	doc, changed = AddScenePhoto(doc, entity.VehiclePhoto{Image: utils.Ptr("img")})
	require.True(t, changed)
	require.Len(t, doc.Scene.Photos, 1)
	assert.Equal(t, constants.SlotScene, doc.Scene.Photos[0].Slot)

	doc, changed = RemoveScenePhoto(doc, doc.Scene.Photos[0].ID)
	require.True(t, changed)
	assert.Empty(t, doc.Scene.Photos)
	assert.Equal(t, "Choque en cruce", doc.Scene.Description)
}

func TestDamagePhotos_AddThenRemoveRestoresList(t *testing.T) {
	doc := scaffolded()
	doc, _ = AddDamagePhoto(doc, entity.DamagePhoto{Image: "first"})
	before := doc.DamagePhotos

	doc, _ = AddDamagePhoto(doc, entity.DamagePhoto{Image: "second"})
	require.Len(t, doc.DamagePhotos, 2)
	added := doc.DamagePhotos[1].ID

	doc, changed := RemoveDamagePhoto(doc, added)
	require.True(t, changed)
	assert.Equal(t, before, doc.DamagePhotos)

	_, changed = RemoveDamagePhoto(doc, uuid.New())
	assert.False(t, changed)
}

func TestUpdateDamagePhoto_AttachesAnalysis(t *testing.T) {
	doc := scaffolded()
	doc, _ = AddDamagePhoto(doc, entity.DamagePhoto{Image: "img", Description: "bumper"})
	id := doc.DamagePhotos[0].ID

	analysis := &entity.DamageAnalysis{Findings: []entity.DamageFinding{{Part: "bumper", Type: "dent", Severity: constants.SeverityModerate}}}
	doc, changed := UpdateDamagePhoto(doc, id, entity.DamagePhotoPatch{Analysis: analysis})
	require.True(t, changed)
	require.NotNil(t, doc.DamagePhotos[0].Analysis)
	assert.Equal(t, "bumper", doc.DamagePhotos[0].Description)

	analysis.Findings[0].Part = "mutated"
	assert.Equal(t, "bumper", doc.DamagePhotos[0].Analysis.Findings[0].Part)
}

func TestSetHasThirdParty_ToggleDiscardsResidue(t *testing.T) {
	doc := scaffolded()

	doc, _ = SetHasThirdParty(doc, true)
	doc, _ = ApplyPerson(doc, constants.RoleThirdParty, entity.PersonPatch{FullName: utils.Ptr("Luis")})
	doc, _ = ApplyVehicle(doc, constants.RoleThirdParty, entity.VehiclePatch{Plate: utils.Ptr("XYZ987")})

	doc, _ = SetHasThirdParty(doc, false)
	assert.False(t, doc.HasThirdParty)
	assert.Nil(t, doc.ThirdPartyPerson)
	assert.Nil(t, doc.ThirdPartyVehicle)

	doc, _ = SetHasThirdParty(doc, true)
	require.NotNil(t, doc.ThirdPartyPerson)
	require.NotNil(t, doc.ThirdPartyVehicle)
	assert.Empty(t, doc.ThirdPartyPerson.FullName)
	assert.Empty(t, doc.ThirdPartyVehicle.Plate)
	assert.NotNil(t, doc.InsuredVehicle)
}

func TestApplyConsent_LastWriteWins(t *testing.T) {
	doc := scaffolded()
	doc, _ = ApplyConsent(doc, entity.ConsentPatch{Accepted: utils.Ptr(true), Signature: utils.Ptr("sig-1")})
	doc, _ = ApplyConsent(doc, entity.ConsentPatch{Signature: utils.Ptr("sig-2")})

	assert.True(t, doc.Consent.Accepted)
	assert.Equal(t, "sig-2", *doc.Consent.Signature)
}
