// Package wizard sequences the inspection steps and drives each step's actions against the store.
package wizard

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/inspection-wizard/constants"
	"github.com/joseph-ayodele/inspection-wizard/internal/common"
	"github.com/joseph-ayodele/inspection-wizard/internal/entity"
)

// StepInfo describes what a step collects.
type StepInfo struct {
	Step     constants.Step
	Title    string
	Section  string // document section the step fills
	Optional bool
}

var steps = []StepInfo{
	{constants.StepStart, "Start", "inspection", false},
	{constants.StepIdentity, "Identity document", "insured_person.identity_document", false},
	{constants.StepVehiclePhotos, "Vehicle photos", "insured_vehicle.photos", false},
	{constants.StepVehicleData, "Vehicle data", "insured_vehicle", false},
	{constants.StepDamagePhotos, "Damage photos", "damage_photos", true},
	{constants.StepThirdParty, "Third party", "third_party", true},
	{constants.StepScene, "Accident scene", "scene", false},
	{constants.StepSummary, "Summary and consent", "consent", false},
}

// Steps returns the wizard steps in order.
func Steps() []StepInfo {
	return append([]StepInfo(nil), steps...)
}

// Info returns the description of step.
func Info(step constants.Step) (StepInfo, bool) {
	if !step.IsValid() {
		return StepInfo{}, false
	}
	return steps[step], true
}

// GateError lists what keeps a step from advancing.
type GateError struct {
	Step  constants.Step
	Unmet []string
}

func (e *GateError) Error() string {
	return fmt.Sprintf("step %s is incomplete: %s", e.Step, strings.Join(e.Unmet, "; "))
}

func blocked(step constants.Step, unmet []string) error {
	return common.NewAppError(common.CodeGateBlocked, "cannot continue", &GateError{Step: step, Unmet: unmet})
}

// Gate evaluates the completion predicate of step over i and returns the unmet requirements.
// An empty result means the step may advance. Gate never mutates i.
func Gate(step constants.Step, i entity.Inspection) []string {
	v := common.NewValidator()
	switch step {
	case constants.StepStart:
		v.Field("country", i.Country, common.Required)
		v.Field("accident_type", string(i.AccidentType), common.Required)

	case constants.StepIdentity:
		p := i.InsuredPerson
		if p == nil {
			v.Field("insured_person", nil, common.Required)
			break
		}
		v.Field("identity front image", p.Identity.FrontImage, common.Required)
		if cf, _ := constants.LookupCountry(i.Country); cf.HasBackSide {
			v.Field("identity back image", p.Identity.BackImage, common.Required)
		}

	case constants.StepVehiclePhotos:
		veh := i.InsuredVehicle
		front := veh.PhotoBySlot(constants.SlotFront)
		if (front == nil || !front.HasImage()) && (veh == nil || strings.TrimSpace(veh.Plate) == "") {
			v.Field("front photo or plate", "", common.Required)
		}

	case constants.StepVehicleData:
		veh := i.InsuredVehicle
		if veh == nil {
			v.Field("insured_vehicle", nil, common.Required)
			break
		}
		v.Field("plate", veh.Plate, common.Required).
			Field("brand", veh.Brand, common.Required).
			Field("model", veh.Model, common.Required).
			Field("color", veh.Color, common.Required)

	case constants.StepDamagePhotos:

	case constants.StepThirdParty:
		if !i.HasThirdParty {
			break
		}
		name := ""
		if p := i.ThirdPartyPerson; p != nil {
			name = p.FullName
		}
		plate := ""
		if veh := i.ThirdPartyVehicle; veh != nil {
			plate = veh.Plate
		}
		v.Field("third party name", name, common.Required).
			Field("third party plate", plate, common.Required)

	case constants.StepScene:
		desc := ""
		if i.Scene != nil {
			desc = i.Scene.Description
		}
		v.Field("scene description", desc, common.Required)

	case constants.StepSummary:
		c := i.Consent
		if c == nil {
			c = &entity.Consent{}
		}
		v.Field("consent", c.Accepted, common.Required)
		v.Field("signature", c.Signature, common.Required)

	default:
		return []string{fmt.Sprintf("unknown step %d", int(step))}
	}
	return v.Messages()
}

// CanAdvance reports whether step's gate holds for i.
func CanAdvance(step constants.Step, i entity.Inspection) bool {
	return len(Gate(step, i)) == 0
}

// FirstBlocked returns the earliest step in [from, to) whose gate fails, with its unmet requirements.
// ok is false when every gate in the range passes.
func FirstBlocked(from, to constants.Step, i entity.Inspection) (constants.Step, []string, bool) {
	if from < constants.StepStart {
		from = constants.StepStart
	}
	for s := from; s < to && s.IsValid(); s++ {
		if unmet := Gate(s, i); len(unmet) > 0 {
			return s, unmet, true
		}
	}
	return 0, nil, false
}

// Ready reports the unmet requirements of every step; an empty map means the inspection can be submitted.
func Ready(i entity.Inspection) map[constants.Step][]string {
	out := map[constants.Step][]string{}
	for _, s := range steps {
		if unmet := Gate(s.Step, i); len(unmet) > 0 {
			out[s.Step] = unmet
		}
	}
	return out
}
