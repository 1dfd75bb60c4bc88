package llm

import (
	"strings"

	"github.com/joseph-ayodele/inspection-wizard/constants"
)

// BuildIdentityPrompt composes the instruction for reading an identity document of country cf.
func BuildIdentityPrompt(cf constants.CountryFormat, sides int) string {
	parts := []string{
		"You read identity documents for an insurance accident inspection. Return ONLY JSON that matches the provided JSON Schema.",
	}
	if cf.Code != "" {
		parts = append(parts, "The document is a "+cf.DocumentLabel+" from "+cf.Name+" ("+cf.Code+").")
	}
	if sides > 1 {
		parts = append(parts, "The first image is the front and the second image is the back of the same document.")
	}
	if len(cf.Labels.DocumentNumber) > 0 {
		parts = append(parts, "The document number is printed next to one of: "+strings.Join(cf.Labels.DocumentNumber, ", ")+".")
	}
	parts = append(parts,
		"Use ISO-8601 dates (YYYY-MM-DD).",
		"Sex must be M, F or X.",
		"Copy names exactly as printed, keeping accents.",
		"Set 'confidence' between 0 and 1 to reflect how legible the document is.",
		"Never output null. If a field is not present, omit it.",
	)
	return strings.Join(parts, " ")
}

// BuildDamagePrompt composes the instruction for analyzing a damage photo.
func BuildDamagePrompt(description string) string {
	parts := []string{
		"You assess vehicle damage for an insurance accident inspection. Return ONLY JSON that matches the provided JSON Schema.",
		"List one finding per damaged part with the part name, the damage type (dent, scratch, crack, broken, deformation, missing), and a severity of minor, moderate or severe.",
		"Set structural_impact when the frame or chassis is affected, mechanical_impact when engine, suspension or steering is affected, and safety_impact when the vehicle should not be driven.",
		"If no damage is visible, return an empty findings list.",
	}
	if d := strings.TrimSpace(description); d != "" {
		parts = append(parts, "The user described the damage as: "+d+".")
	}
	return strings.Join(parts, " ")
}
