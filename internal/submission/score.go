package submission

import (
	"fmt"
	"time"

	"github.com/joseph-ayodele/inspection-wizard/constants"
	"github.com/joseph-ayodele/inspection-wizard/internal/entity"
	"github.com/joseph-ayodele/inspection-wizard/internal/utils"
)

// findingStats summarises damage analyses across all damage photos.
type findingStats struct {
	count      int
	severe     bool
	structural bool
	safety     bool
}

func collectFindings(i entity.Inspection) findingStats {
	var st findingStats
	for _, d := range i.DamagePhotos {
		if d.Analysis == nil {
			continue
		}
		for _, f := range d.Analysis.Findings {
			st.count++
			st.severe = st.severe || f.Severity == constants.SeveritySevere
			st.structural = st.structural || f.StructuralImpact
			st.safety = st.safety || f.SafetyImpact
		}
	}
	return st
}

func vehicleAge(v *entity.Vehicle, now time.Time) int {
	if v == nil || v.Year <= 0 {
		return 0
	}
	return now.Year() - v.Year
}

// RiskScore is 0..100, higher is riskier.
func RiskScore(i entity.Inspection, now time.Time, w Weights) int {
	score := w.RiskBase
	v := i.InsuredVehicle

	if v != nil {
		switch {
		case v.Mileage > w.HighMileage:
			score += w.HighMileagePenalty
		case v.Mileage > w.MidMileage:
			score += w.MidMileagePenalty
		}
		if !v.Garaged {
			score += w.NotGaraged
		}
	}
	switch age := vehicleAge(v, now); {
	case age > w.OldVehicleYears:
		score += w.OldVehiclePenalty
	case age > w.MidAgeYears:
		score += w.MidAgePenalty
	}

	score += w.AccidentType[i.AccidentType]
	if i.HasThirdParty {
		score += w.ThirdParty
	}

	st := collectFindings(i)
	if st.count > w.ManyFindings {
		score += w.ManyFindingsRisk
	}
	if st.severe {
		score += w.SevereFinding
	}
	if st.structural {
		score += w.StructuralImpact
	}
	if st.safety {
		score += w.SafetyImpact
	}
	return utils.Clamp(score, 0, 100)
}

// QualityScore is 0..100, higher means a more complete inspection.
func QualityScore(i entity.Inspection, w Weights) int {
	score := w.QualityBase

	if short := w.RequiredVehiclePhotos - i.InsuredVehicle.CapturedPhotos(); short > 0 {
		score -= short * w.MissingPhoto
	}
	if p := i.InsuredPerson; p == nil || !p.Identity.Validated {
		score -= w.IdentityNotValidated
	}
	if v := i.InsuredVehicle; v == nil || v.Plate == "" {
		score -= w.PlateMissing
	}
	if v := i.InsuredVehicle; v == nil || v.VIN == "" {
		score -= w.VINMissing
	}
	if i.Scene == nil || i.Scene.Address == "" {
		score -= w.SceneAddressMissing
	}
	if i.HasThirdParty && !thirdPartyComplete(i) {
		score -= w.ThirdPartyIncomplete
	}
	if i.Consent.HasSignature() {
		score += w.SignatureBonus
	}
	return utils.Clamp(score, 0, 100)
}

func thirdPartyComplete(i entity.Inspection) bool {
	p, v := i.ThirdPartyPerson, i.ThirdPartyVehicle
	return p != nil && p.FullName != "" && v != nil && v.Plate != ""
}

// Tags labels the inspection for back-office triage.
func Tags(i entity.Inspection, now time.Time, w Weights) []string {
	tags := []string{"status:" + string(i.Status)}
	if v := i.InsuredVehicle; v != nil && v.Mileage > w.HighMileage {
		tags = append(tags, "high_mileage")
	}
	if vehicleAge(i.InsuredVehicle, now) > w.OldVehicleYears {
		tags = append(tags, "old_vehicle")
	}
	if i.HasThirdParty {
		tags = append(tags, "third_party")
	}
	if i.AccidentType != "" {
		tags = append(tags, "accident:"+string(i.AccidentType))
	}
	if s := i.Scene; s != nil {
		if s.PolicePresent || s.PoliceReportNumber != "" {
			tags = append(tags, "police_report")
		}
		if s.HasWitnesses {
			tags = append(tags, "witnesses")
		}
	}
	if n := len(i.DamagePhotos); n > 0 {
		tags = append(tags, fmt.Sprintf("damages:%d", n))
	}
	st := collectFindings(i)
	if st.severe {
		tags = append(tags, "severe_damage")
	}
	if st.safety {
		tags = append(tags, "not_driveable")
	}
	return tags
}
