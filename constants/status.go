package constants

// InspectionStatus is the lifecycle state of an inspection.
type InspectionStatus string

const (
	StatusDraft      InspectionStatus = "draft"
	StatusInProgress InspectionStatus = "in_progress"
	StatusSubmitted  InspectionStatus = "submitted"
	StatusProcessed  InspectionStatus = "processed"
)

func (s InspectionStatus) String() string { return string(s) }

// IsValid returns true if the status is a recognized value.
func (s InspectionStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusInProgress, StatusSubmitted, StatusProcessed:
		return true
	}
	return false
}

// CanTransitionTo checks the forward-only lifecycle:
// draft -> in_progress -> submitted -> processed.
// A draft may also be submitted directly and a status may be re-set to itself.
func (s InspectionStatus) CanTransitionTo(target InspectionStatus) bool {
	if s == target {
		return true
	}
	switch s {
	case StatusDraft:
		return target == StatusInProgress || target == StatusSubmitted
	case StatusInProgress:
		return target == StatusSubmitted
	case StatusSubmitted:
		return target == StatusProcessed
	}
	return false
}

// AccidentType classifies the declared accident.
type AccidentType string

const (
	AccidentCollision       AccidentType = "collision"
	AccidentRollover        AccidentType = "rollover"
	AccidentTheft           AccidentType = "theft"
	AccidentVandalism       AccidentType = "vandalism"
	AccidentFire            AccidentType = "fire"
	AccidentGlass           AccidentType = "glass"
	AccidentNaturalDisaster AccidentType = "natural_disaster"
	AccidentOther           AccidentType = "other"
)

var allAccidentTypes = []AccidentType{
	AccidentCollision,
	AccidentRollover,
	AccidentTheft,
	AccidentVandalism,
	AccidentFire,
	AccidentGlass,
	AccidentNaturalDisaster,
	AccidentOther,
}

// AccidentTypes returns the accident types in display order.
func AccidentTypes() []AccidentType {
	return append([]AccidentType(nil), allAccidentTypes...)
}

func (a AccidentType) IsValid() bool {
	for _, t := range allAccidentTypes {
		if a == t {
			return true
		}
	}
	return false
}

// Role tags a person or vehicle as belonging to the insured or to the third party.
type Role string

const (
	RoleInsured    Role = "insured"
	RoleThirdParty Role = "third_party"
)

// Severity of a single damage finding.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

func (s Severity) IsValid() bool {
	switch s {
	case SeverityMinor, SeverityModerate, SeveritySevere:
		return true
	}
	return false
}
