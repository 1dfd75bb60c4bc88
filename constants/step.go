package constants

// Step is a wizard screen index.
type Step int

const (
	StepStart Step = iota
	StepIdentity
	StepVehiclePhotos
	StepVehicleData
	StepDamagePhotos
	StepThirdParty
	StepScene
	StepSummary
)

// LastStep is the final wizard step; there is nothing to continue to after it.
const LastStep = StepSummary

var stepNames = [...]string{
	"start",
	"identity",
	"vehicle_photos",
	"vehicle_data",
	"damage_photos",
	"third_party",
	"scene",
	"summary",
}

func (s Step) String() string {
	if !s.IsValid() {
		return "unknown"
	}
	return stepNames[s]
}

func (s Step) IsValid() bool {
	return s >= StepStart && s <= LastStep
}
