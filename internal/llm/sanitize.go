package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	reISODate   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reDMYDate   = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4})$`)
	identityStr = []string{"full_name", "first_name", "last_name", "document_number", "nationality", "address"}
)

// SanitizeIdentityFields drops or normalizes fields that would fail the identity schema,
// so the rest of the document can still validate. Returns the dropped keys.
func SanitizeIdentityFields(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}
	allowed := BuildIdentityJSONSchema()["properties"].(map[string]any)
	var dropped []string
	drop := func(k string) {
		delete(m, k)
		dropped = append(dropped, k)
	}

	for k := range m {
		if _, ok := allowed[k]; !ok {
			drop(k)
		}
	}

	for _, k := range identityStr {
		v, ok := m[k]
		if !ok {
			continue
		}
		s, isStr := v.(string)
		s = strings.TrimSpace(s)
		if !isStr || s == "" || strings.EqualFold(s, "null") {
			drop(k)
			continue
		}
		m[k] = s
	}

	for _, k := range []string{"birth_date", "expiry_date"} {
		v, ok := m[k]
		if !ok {
			continue
		}
		s, _ := v.(string)
		if d, ok := normalizeDate(s); ok {
			m[k] = d
		} else {
			drop(k)
		}
	}

	if v, ok := m["sex"]; ok {
		s, _ := v.(string)
		switch strings.ToUpper(strings.TrimSpace(s)) {
		case "M", "MALE", "MASCULINO", "H", "HOMBRE":
			m["sex"] = "M"
		case "F", "FEMALE", "FEMENINO", "MUJER":
			m["sex"] = "F"
		case "X":
			m["sex"] = "X"
		default:
			drop("sex")
		}
	}

	if v, ok := m["confidence"]; ok {
		f, isNum := v.(float64)
		switch {
		case !isNum:
			drop("confidence")
		case f > 1 && f <= 100:
			m["confidence"] = f / 100
		case f < 0 || f > 100:
			drop("confidence")
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, nil, err
	}
	return b, dropped, nil
}

// SanitizeDamageFields lower-cases severities, maps common synonyms and drops findings without a part.
func SanitizeDamageFields(doc []byte) ([]byte, []string, error) {
	var d struct {
		Findings []map[string]any `json:"findings"`
		Summary  any              `json:"summary"`
	}
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, nil, err
	}
	var dropped []string
	out := map[string]any{}
	findings := make([]map[string]any, 0, len(d.Findings))
	for i, f := range d.Findings {
		part, _ := f["part"].(string)
		if strings.TrimSpace(part) == "" {
			dropped = append(dropped, fmt.Sprintf("findings[%d]", i))
			continue
		}
		sev, _ := f["severity"].(string)
		f["severity"] = normalizeSeverity(sev)
		if t, _ := f["type"].(string); strings.TrimSpace(t) == "" {
			f["type"] = "unspecified"
		}
		if c, ok := f["confidence"].(float64); ok && c > 1 && c <= 100 {
			f["confidence"] = c / 100
		}
		for k := range f {
			switch k {
			case "part", "type", "severity", "structural_impact", "mechanical_impact", "safety_impact", "confidence":
			default:
				delete(f, k)
			}
		}
		findings = append(findings, f)
	}
	out["findings"] = findings
	if s, ok := d.Summary.(string); ok && s != "" {
		out["summary"] = s
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, nil, err
	}
	return b, dropped, nil
}

func normalizeSeverity(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minor", "light", "low", "leve":
		return "minor"
	case "severe", "high", "major", "critical", "grave":
		return "severe"
	}
	return "moderate"
}

func normalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if reISODate.MatchString(s) {
		return s, true
	}
	if m := reDMYDate.FindStringSubmatch(s); m != nil {
		return m[3] + "-" + pad(m[2]) + "-" + pad(m[1]), true
	}
	return "", false
}

func pad(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
