package submission

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joseph-ayodele/inspection-wizard/constants"
)

// Weights drives the risk and quality scores. Every field can be overridden from a JSON file.
type Weights struct {
	RiskBase int `json:"risk_base"`

	// Mileage thresholds are in km; the high penalty replaces the mid one.
	HighMileage        int `json:"high_mileage"`
	HighMileagePenalty int `json:"high_mileage_penalty"`
	MidMileage         int `json:"mid_mileage"`
	MidMileagePenalty  int `json:"mid_mileage_penalty"`

	OldVehicleYears   int `json:"old_vehicle_years"`
	OldVehiclePenalty int `json:"old_vehicle_penalty"`
	MidAgeYears       int `json:"mid_age_years"`
	MidAgePenalty     int `json:"mid_age_penalty"`

	AccidentType map[constants.AccidentType]int `json:"accident_type"`

	ThirdParty       int `json:"third_party"`
	NotGaraged       int `json:"not_garaged"`
	ManyFindings     int `json:"many_findings"` // more findings than this add ManyFindingsRisk
	ManyFindingsRisk int `json:"many_findings_risk"`
	SevereFinding    int `json:"severe_finding"`
	StructuralImpact int `json:"structural_impact"`
	SafetyImpact     int `json:"safety_impact"`

	QualityBase           int `json:"quality_base"`
	MissingPhoto          int `json:"missing_photo"`
	IdentityNotValidated  int `json:"identity_not_validated"`
	PlateMissing          int `json:"plate_missing"`
	VINMissing            int `json:"vin_missing"`
	SceneAddressMissing   int `json:"scene_address_missing"`
	ThirdPartyIncomplete  int `json:"third_party_incomplete"`
	SignatureBonus        int `json:"signature_bonus"`
	RequiredVehiclePhotos int `json:"required_vehicle_photos"`
}

// DefaultWeights returns the stock scoring table.
func DefaultWeights() Weights {
	return Weights{
		RiskBase: 50,

		HighMileage:        100_000,
		HighMileagePenalty: 20,
		MidMileage:         50_000,
		MidMileagePenalty:  10,

		OldVehicleYears:   10,
		OldVehiclePenalty: 15,
		MidAgeYears:       5,
		MidAgePenalty:     5,

		AccidentType: map[constants.AccidentType]int{
			constants.AccidentCollision:       10,
			constants.AccidentRollover:        20,
			constants.AccidentTheft:           15,
			constants.AccidentFire:            15,
			constants.AccidentVandalism:       5,
			constants.AccidentGlass:           0,
			constants.AccidentNaturalDisaster: 5,
			constants.AccidentOther:           0,
		},

		ThirdParty:       10,
		NotGaraged:       5,
		ManyFindings:     3,
		ManyFindingsRisk: 10,
		SevereFinding:    15,
		StructuralImpact: 10,
		SafetyImpact:     10,

		QualityBase:           100,
		MissingPhoto:          5,
		IdentityNotValidated:  10,
		PlateMissing:          10,
		VINMissing:            5,
		SceneAddressMissing:   5,
		ThirdPartyIncomplete:  15,
		SignatureBonus:        5,
		RequiredVehiclePhotos: constants.MinRequiredPhotos,
	}
}

// LoadWeights reads overrides from path on top of DefaultWeights. An empty path returns the defaults.
// Accident-type entries present in the file replace the default for that type only.
func LoadWeights(path string) (Weights, error) {
	w := DefaultWeights()
	if path == "" {
		return w, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("read weights %s: %w", path, err)
	}

	overrides := struct {
		Weights
		AccidentType map[constants.AccidentType]int `json:"accident_type"`
	}{Weights: w}
	if err := json.Unmarshal(b, &overrides); err != nil {
		return w, fmt.Errorf("parse weights %s: %w", path, err)
	}
	out := overrides.Weights
	out.AccidentType = w.AccidentType
	for k, v := range overrides.AccidentType {
		if !k.IsValid() {
			return w, fmt.Errorf("parse weights %s: unknown accident type %q", path, k)
		}
		out.AccidentType[k] = v
	}
	return out, nil
}
