package constants

import "strings"

// Slot is a capture purpose: a required vehicle angle, an identity side,
// or an on-demand damage/scene shot.
type Slot string

const (
	SlotIdentityFront Slot = "identity_front"
	SlotIdentityBack  Slot = "identity_back"

	SlotFront         Slot = "front"
	SlotFrontLeft45   Slot = "front_left_45"
	SlotFrontRight45  Slot = "front_right_45"
	SlotRearLeft45    Slot = "rear_left_45"
	SlotRearRight45   Slot = "rear_right_45"
	SlotLeftSide      Slot = "left_side"
	SlotRightSide     Slot = "right_side"
	SlotRear          Slot = "rear"
	SlotDashboard     Slot = "dashboard"
	SlotInteriorFront Slot = "interior_front"
	SlotInteriorRear  Slot = "interior_rear"
	SlotTrunk         Slot = "trunk"

	SlotDamage Slot = "damage"
	SlotScene  Slot = "scene"
)

// SlotInfo is the label and guidance shown for a slot.
type SlotInfo struct {
	Slot        Slot
	Label       string
	Description string
}

// vehicleChecklist is the ordered set of photos required for the insured vehicle.
var vehicleChecklist = []SlotInfo{
	{SlotFront, "Front", "Full front of the vehicle with the plate visible"},
	{SlotFrontLeft45, "Front left 45°", "Front left corner at a 45° angle"},
	{SlotFrontRight45, "Front right 45°", "Front right corner at a 45° angle"},
	{SlotRearLeft45, "Rear left 45°", "Rear left corner at a 45° angle"},
	{SlotRearRight45, "Rear right 45°", "Rear right corner at a 45° angle"},
	{SlotLeftSide, "Left side", "Entire left side of the vehicle"},
	{SlotRightSide, "Right side", "Entire right side of the vehicle"},
	{SlotRear, "Rear", "Full rear of the vehicle with the plate visible"},
	{SlotDashboard, "Dashboard", "Dashboard with the odometer readable"},
	{SlotInteriorFront, "Front interior", "Front seats and console"},
	{SlotInteriorRear, "Rear interior", "Rear seats"},
	{SlotTrunk, "Trunk", "Open trunk"},
}

// VehicleChecklist returns a copy of the ordered insured-vehicle photo checklist.
func VehicleChecklist() []SlotInfo {
	return append([]SlotInfo(nil), vehicleChecklist...)
}

// MinRequiredPhotos is the number of captured vehicle photos below which quality is penalised.
const MinRequiredPhotos = 8

var otherSlots = []SlotInfo{
	{SlotIdentityFront, "Identity document (front)", "Front side of the identity document"},
	{SlotIdentityBack, "Identity document (back)", "Back side of the identity document"},
	{SlotDamage, "Damage", "Close-up of the damaged area"},
	{SlotScene, "Accident scene", "Wide shot of the accident scene"},
}

// LookupSlot returns the label info for any known slot.
func LookupSlot(s Slot) (SlotInfo, bool) {
	for _, si := range vehicleChecklist {
		if si.Slot == s {
			return si, true
		}
	}
	for _, si := range otherSlots {
		if si.Slot == s {
			return si, true
		}
	}
	return SlotInfo{}, false
}

// IsVehicleSlot reports whether s is one of the checklist angles.
func IsVehicleSlot(s Slot) bool {
	for _, si := range vehicleChecklist {
		if si.Slot == s {
			return true
		}
	}
	return false
}

// Category returns the content a slot is expected to show.
func (s Slot) Category() Category {
	switch s {
	case SlotIdentityFront, SlotIdentityBack:
		return CategoryDocument
	case SlotDashboard:
		return CategoryDashboard
	case SlotInteriorFront, SlotInteriorRear, SlotTrunk:
		return CategoryVehicleInterior
	case SlotDamage:
		return CategoryDamage
	case SlotScene:
		return CategoryScene
	}
	if IsVehicleSlot(s) {
		return CategoryVehicleExterior
	}
	return CategoryUnknown
}

// Category is the content detected in a captured image.
type Category string

const (
	CategoryDocument        Category = "document"
	CategoryVehicleExterior Category = "vehicle_exterior"
	CategoryVehicleInterior Category = "vehicle_interior"
	CategoryDashboard       Category = "dashboard"
	CategoryDamage          Category = "damage"
	CategoryScene           Category = "scene"
	CategoryUnknown         Category = "unknown"
)

var allCategories = []Category{
	CategoryDocument,
	CategoryVehicleExterior,
	CategoryVehicleInterior,
	CategoryDashboard,
	CategoryDamage,
	CategoryScene,
	CategoryUnknown,
}

// CategoriesAsStrings returns every category value, used as an enum in analyzer prompts.
func CategoriesAsStrings() []string {
	out := make([]string, len(allCategories))
	for i, c := range allCategories {
		out[i] = string(c)
	}
	return out
}

// CanonicalizeCategory maps free-form analyzer labels onto a Category.
// Unrecognised input yields CategoryUnknown and false.
func CanonicalizeCategory(input string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return CategoryUnknown, false
	}

	synonyms := map[string]Category{
		"id":               CategoryDocument,
		"id card":          CategoryDocument,
		"identity card":    CategoryDocument,
		"license":          CategoryDocument,
		"passport":         CategoryDocument,
		"car":              CategoryVehicleExterior,
		"vehicle":          CategoryVehicleExterior,
		"exterior":         CategoryVehicleExterior,
		"interior":         CategoryVehicleInterior,
		"seats":            CategoryVehicleInterior,
		"odometer":         CategoryDashboard,
		"instrument panel": CategoryDashboard,
		"dent":             CategoryDamage,
		"scratch":          CategoryDamage,
		"street":           CategoryScene,
		"road":             CategoryScene,
		"intersection":     CategoryScene,
	}
	if c, ok := synonyms[normalized]; ok {
		return c, true
	}
	for _, c := range allCategories {
		if normalized == string(c) {
			return c, c != CategoryUnknown
		}
	}
	return CategoryUnknown, false
}
