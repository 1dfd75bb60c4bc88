package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/joseph-ayodele/inspection-wizard/constants"
)

// reVIN is ISO 3779: 17 characters, never I, O or Q.
var reVIN = regexp.MustCompile(`\b[A-HJ-NPR-Z0-9]{17}\b`)

var reSeparators = regexp.MustCompile(`[\s\-]+`)

// MatchPlate tries the country's plate patterns in priority order and returns the first match,
// joined with the country's separator.
func MatchPlate(text string, cf constants.CountryFormat) (string, bool) {
	upper := strings.ToUpper(text)
	for _, p := range cf.PlatePatterns {
		m := p.FindStringSubmatch(upper)
		if m == nil {
			continue
		}
		if len(m) == 1 {
			return reSeparators.ReplaceAllString(m[0], cf.PlateSeparator), true
		}
		groups := make([]string, 0, len(m)-1)
		for _, g := range m[1:] {
			if g != "" {
				groups = append(groups, g)
			}
		}
		return strings.Join(groups, cf.PlateSeparator), true
	}
	return "", false
}

// HeuristicPlate returns the first token of 5 to 8 characters mixing letters and digits.
// Hyphens inside a token are ignored for the length check and dropped from the result.
func HeuristicPlate(text string) (string, bool) {
	for _, tok := range strings.Fields(strings.ToUpper(text)) {
		tok = strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		tok = strings.ReplaceAll(tok, "-", "")
		if n := len(tok); n < 5 || n > 8 {
			continue
		}
		var letter, digit, other bool
		for _, r := range tok {
			switch {
			case r >= 'A' && r <= 'Z':
				letter = true
			case r >= '0' && r <= '9':
				digit = true
			default:
				other = true
			}
		}
		if letter && digit && !other {
			return tok, true
		}
	}
	return "", false
}

// MatchVIN returns the first 17-character VIN in text, upper-cased.
func MatchVIN(text string) (string, bool) {
	v := reVIN.FindString(strings.ToUpper(text))
	return v, v != ""
}
