package capture

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/inspection-wizard/constants"
	"github.com/joseph-ayodele/inspection-wizard/internal/imageprep"
)

// Job is one raw capture waiting to be prepared, checked and merged into the inspection.
type Job struct {
	ID          uuid.UUID
	Target      Target
	Image       []byte
	Capture     imageprep.Capture
	Source      string // file path or device id
	SubmittedAt time.Time
}

// Target says where a capture belongs. PhotoID selects an existing photo; when nil the
// processor resolves it (checklist slot) or creates one (damage, scene).
type Target struct {
	Role        constants.Role
	Slot        constants.Slot
	PhotoID     *uuid.UUID
	Description string
}

// IsIdentity reports whether the target is a side of an identity document.
func (t Target) IsIdentity() bool {
	return t.Slot == constants.SlotIdentityFront || t.Slot == constants.SlotIdentityBack
}

// ParseFilename maps inbox file names onto targets:
//
//	insured_front.jpg, third_party_rear.jpg   vehicle checklist slot
//	identity_front.jpg, third_party_identity_back.png
//	damage_<anything>.jpg, scene_<anything>.jpg
func ParseFilename(path string) (Target, bool) {
	base := strings.ToLower(filepath.Base(path))
	ext := filepath.Ext(base)
	if !constants.IsImageExt(ext) {
		return Target{}, false
	}
	name := strings.TrimSuffix(base, ext)

	if rest, ok := cutKind(name, "damage"); ok {
		return Target{Role: constants.RoleInsured, Slot: constants.SlotDamage, Description: describe(rest)}, true
	}
	if rest, ok := cutKind(name, "scene"); ok {
		return Target{Role: constants.RoleInsured, Slot: constants.SlotScene, Description: describe(rest)}, true
	}

	role := constants.RoleInsured
	switch {
	case strings.HasPrefix(name, string(constants.RoleThirdParty)+"_"):
		role = constants.RoleThirdParty
		name = strings.TrimPrefix(name, string(constants.RoleThirdParty)+"_")
	case strings.HasPrefix(name, string(constants.RoleInsured)+"_"):
		name = strings.TrimPrefix(name, string(constants.RoleInsured)+"_")
	}

	slot := constants.Slot(name)
	if slot == constants.SlotIdentityFront || slot == constants.SlotIdentityBack || constants.IsVehicleSlot(slot) {
		return Target{Role: role, Slot: slot}, true
	}
	return Target{}, false
}

func cutKind(name, kind string) (string, bool) {
	if name == kind {
		return "", true
	}
	return strings.CutPrefix(name, kind+"_")
}

func describe(s string) string {
	return strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(s))
}
