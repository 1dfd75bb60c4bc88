package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/joseph-ayodele/inspection-wizard/constants"
	"github.com/joseph-ayodele/inspection-wizard/internal/entity"
)

var (
	reNumericDate = regexp.MustCompile(`\b(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4})\b`)
	reISODate     = regexp.MustCompile(`\b(\d{4})[/.\-](\d{2})[/.\-](\d{2})\b`)
	reMonthDate   = regexp.MustCompile(`\b(\d{1,2})[\s\-/]+([A-Z]{3})[A-Z]*[\s\-/]+(\d{4})\b`)
)

var months = map[string]int{
	"ENE": 1, "JAN": 1, "FEB": 2, "MAR": 3, "ABR": 4, "APR": 4, "MAY": 5, "JUN": 6,
	"JUL": 7, "AGO": 8, "AUG": 8, "SEP": 9, "SET": 9, "OCT": 10, "NOV": 11, "DIC": 12, "DEC": 12,
}

type field int

const (
	fDocumentNumber field = iota
	fBirthDate
	fExpiryDate
	fSex
	fNationality
	fSurname
	fName
	fAddress
)

// ParseIdentity reads labelled fields out of recognized document text using the country's labels
// and identity-number patterns. Values are taken from the rest of the labelled line, or from the
// next line when the label stands alone.
func ParseIdentity(text string, cf constants.CountryFormat) entity.ExtractedIdentity {
	lines := splitLines(text)
	folded := make([]string, len(lines))
	for i, l := range lines {
		folded[i] = fold(l)
	}

	labels := map[field][]string{
		fDocumentNumber: cf.Labels.DocumentNumber,
		fBirthDate:      cf.Labels.BirthDate,
		fExpiryDate:     cf.Labels.ExpiryDate,
		fSex:            cf.Labels.Sex,
		fNationality:    cf.Labels.Nationality,
		fSurname:        cf.Labels.Surname,
		fName:           cf.Labels.Name,
		fAddress:        cf.Labels.Address,
	}
	var all []string
	for _, ls := range labels {
		all = append(all, ls...)
	}

	used := make(map[int]bool)
	values := make(map[field]string)
	for f := fDocumentNumber; f <= fAddress; f++ {
		for i := range folded {
			if used[i] {
				continue
			}
			label, pos := findLabel(folded[i], labels[f])
			if pos < 0 {
				continue
			}
			used[i] = true
			v := valueAfter(lines[i], folded[i], pos+len(label), all)
			if v == "" && i+1 < len(lines) && !used[i+1] {
				if l, p := findLabel(folded[i+1], all); p < 0 || l == "" {
					v = strings.TrimSpace(lines[i+1])
					used[i+1] = true
				}
			}
			values[f] = v
			break
		}
	}

	out := entity.ExtractedIdentity{
		Nationality: values[fNationality],
		Address:     values[fAddress],
		Sex:         normalizeSex(values[fSex]),
		BirthDate:   normalizeDate(values[fBirthDate]),
		ExpiryDate:  normalizeDate(values[fExpiryDate]),
	}

	upper := strings.ToUpper(text)
	for _, p := range cf.IDNumberPatterns {
		if m := p.FindStringSubmatch(upper); m != nil {
			out.DocumentNumber = m[len(m)-1]
			break
		}
	}
	if out.DocumentNumber == "" {
		out.DocumentNumber = firstToken(values[fDocumentNumber])
	}

	name, surname := values[fName], values[fSurname]
	switch {
	case name != "" && surname != "":
		out.FirstName = name
		out.LastName = surname
		out.FullName = name + " " + surname
	case name != "":
		out.FullName = name
	case surname != "":
		out.LastName = surname
	}
	return out
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r", ""), "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// fold upper-cases s and strips Spanish accents rune for rune, so byte offsets of
// ASCII letters keep their rune index.
func fold(s string) string {
	var b strings.Builder
	for _, r := range s {
		b.WriteRune(foldRune(r))
	}
	return b.String()
}

func foldRune(r rune) rune {
	switch unicode.ToUpper(r) {
	case 'Á', 'À', 'Ä':
		return 'A'
	case 'É', 'È', 'Ë':
		return 'E'
	case 'Í', 'Ì', 'Ï':
		return 'I'
	case 'Ó', 'Ò', 'Ö':
		return 'O'
	case 'Ú', 'Ù', 'Ü':
		return 'U'
	}
	return unicode.ToUpper(r)
}

// findLabel returns the first label occurring in line as a whole word, and its byte offset.
func findLabel(line string, labels []string) (string, int) {
	best, bestPos := "", -1
	for _, l := range labels {
		from := 0
		for {
			idx := strings.Index(line[from:], l)
			if idx < 0 {
				break
			}
			p := from + idx
			if wordBoundary(line, p, p+len(l)) {
				if bestPos < 0 || p < bestPos || (p == bestPos && len(l) > len(best)) {
					best, bestPos = l, p
				}
				break
			}
			from = p + 1
		}
	}
	return best, bestPos
}

func wordBoundary(s string, start, end int) bool {
	if start > 0 && isWordByte(s[start-1]) {
		return false
	}
	if end < len(s) && isWordByte(s[end]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b >= 0x80
}

// valueAfter returns the text following offset up to the next known label.
// folded and original share byte offsets only when accents were not present before offset,
// so the cut is mapped through rune counts.
func valueAfter(original, folded string, offset int, labels []string) string {
	runeOff := len([]rune(folded[:offset]))
	origRunes := []rune(original)
	if runeOff > len(origRunes) {
		return ""
	}
	rest := string(origRunes[runeOff:])
	restFolded := fold(rest)
	if _, p := findLabel(restFolded, labels); p > 0 {
		rest = string([]rune(rest)[:len([]rune(restFolded[:p]))])
	}
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(rest), ":.-# "))
}

func firstToken(s string) string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return ""
	}
	return strings.Trim(f[0], ":.,")
}

func normalizeSex(s string) string {
	s = strings.TrimSpace(fold(s))
	if s == "" {
		return ""
	}
	switch s[0] {
	case 'M', 'H':
		return "M"
	case 'F':
		return "F"
	}
	return ""
}

// normalizeDate converts DD/MM/YYYY, YYYY-MM-DD and "DD MMM YYYY" (Spanish or English months) to YYYY-MM-DD.
func normalizeDate(s string) string {
	s = fold(s)
	if m := reISODate.FindStringSubmatch(s); m != nil {
		return m[1] + "-" + m[2] + "-" + m[3]
	}
	if m := reNumericDate.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%s-%02d-%02d", m[3], atoi(m[2]), atoi(m[1]))
	}
	if m := reMonthDate.FindStringSubmatch(s); m != nil {
		if mm, ok := months[m[2]]; ok {
			return fmt.Sprintf("%s-%02d-%02d", m[3], mm, atoi(m[1]))
		}
	}
	return ""
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
