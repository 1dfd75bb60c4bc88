package classify

import "github.com/joseph-ayodele/inspection-wizard/constants"

var (
	exterior = []constants.Category{constants.CategoryVehicleExterior, constants.CategoryDamage}
	interior = []constants.Category{constants.CategoryVehicleInterior, constants.CategoryDashboard}
)

// acceptable maps each capture slot to the categories that satisfy it.
var acceptable = map[constants.Slot][]constants.Category{
	constants.SlotIdentityFront: {constants.CategoryDocument},
	constants.SlotIdentityBack:  {constants.CategoryDocument},

	constants.SlotFront:        exterior,
	constants.SlotFrontLeft45:  exterior,
	constants.SlotFrontRight45: exterior,
	constants.SlotRearLeft45:   exterior,
	constants.SlotRearRight45:  exterior,
	constants.SlotLeftSide:     exterior,
	constants.SlotRightSide:    exterior,
	constants.SlotRear:         exterior,

	constants.SlotDashboard:     {constants.CategoryDashboard, constants.CategoryVehicleInterior},
	constants.SlotInteriorFront: interior,
	constants.SlotInteriorRear:  interior,
	constants.SlotTrunk:         {constants.CategoryVehicleInterior, constants.CategoryVehicleExterior},

	constants.SlotDamage: {constants.CategoryDamage, constants.CategoryVehicleExterior, constants.CategoryVehicleInterior},
	constants.SlotScene:  {constants.CategoryScene, constants.CategoryVehicleExterior, constants.CategoryDamage},
}

var categoryLabels = map[constants.Category]string{
	constants.CategoryDocument:        "an identity document",
	constants.CategoryVehicleExterior: "the outside of a vehicle",
	constants.CategoryVehicleInterior: "the inside of a vehicle",
	constants.CategoryDashboard:       "a dashboard",
	constants.CategoryDamage:          "a close-up of damage",
	constants.CategoryScene:           "a street scene",
}

// Accepts reports whether detected satisfies slot. Unknown content and unknown slots always pass.
func Accepts(slot constants.Slot, detected constants.Category) bool {
	if detected == constants.CategoryUnknown || detected == "" {
		return true
	}
	allowed, ok := acceptable[slot]
	if !ok {
		return true
	}
	for _, c := range allowed {
		if c == detected {
			return true
		}
	}
	return false
}

func describe(c constants.Category) string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}
