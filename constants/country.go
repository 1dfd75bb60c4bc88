package constants

import (
	"regexp"
	"sort"
	"strings"
)

// FieldLabels lists the keywords printed next to each field on an identity document.
// Keywords are matched against upper-cased, accent-stripped OCR lines.
type FieldLabels struct {
	Name           []string
	Surname        []string
	DocumentNumber []string
	BirthDate      []string
	ExpiryDate     []string
	Sex            []string
	Nationality    []string
	Address        []string
}

// CountryFormat is the per-country document and plate format table.
type CountryFormat struct {
	Code          string
	Name          string
	Language      string // tesseract language hint
	DocumentLabel string
	HasBackSide   bool

	// PlatePatterns are tried in order against upper-cased text; capture groups are
	// joined with PlateSeparator to build the normalized plate.
	PlatePatterns  []*regexp.Regexp
	PlateSeparator string

	IDNumberPatterns []*regexp.Regexp
	Labels           FieldLabels
}

var spanishLabels = FieldLabels{
	Name:           []string{"NOMBRE COMPLETO", "NOMBRES", "NOMBRE"},
	Surname:        []string{"PRIMER APELLIDO", "APELLIDOS", "APELLIDO"},
	DocumentNumber: []string{"NUMERO DE CEDULA", "CEDULA", "NUMERO", "NO."},
	BirthDate:      []string{"FECHA DE NACIMIENTO", "F. NACIMIENTO", "NACIMIENTO"},
	ExpiryDate:     []string{"FECHA DE EXPIRACION", "FECHA DE VENCIMIENTO", "EXPIRA", "VENCE", "VIGENCIA"},
	Sex:            []string{"SEXO"},
	Nationality:    []string{"NACIONALIDAD"},
	Address:        []string{"DOMICILIO", "DIRECCION"},
}

func withDocLabels(base FieldLabels, doc ...string) FieldLabels {
	base.DocumentNumber = append(append([]string{}, doc...), base.DocumentNumber...)
	return base
}

var re = regexp.MustCompile

var countries = map[string]CountryFormat{
	"PA": {
		Code: "PA", Name: "Panamá", Language: "spa", DocumentLabel: "Cédula de identidad", HasBackSide: true,
		PlatePatterns: []*regexp.Regexp{
			re(`\b([A-Z]{2})[\s-]?(\d{4})\b`),
			re(`\b([A-Z]{3})[\s-]?(\d{3,4})\b`),
			re(`\b(\d{6})\b`),
		},
		PlateSeparator:   "-",
		IDNumberPatterns: []*regexp.Regexp{re(`\b((?:PE|E|N|1[0-3]|[1-9])(?:AV|PI)?-\d{1,4}-\d{1,6})\b`)},
		Labels:           spanishLabels,
	},
	"MX": {
		Code: "MX", Name: "México", Language: "spa", DocumentLabel: "Credencial para votar (INE)", HasBackSide: true,
		PlatePatterns: []*regexp.Regexp{
			re(`\b([A-Z]{3})[\s-]?(\d{2})[\s-]?(\d{2})\b`),
			re(`\b([A-Z]{3})[\s-]?(\d{3,4})\b`),
			re(`\b(\d{3})[\s-]?([A-Z]{3})\b`),
		},
		PlateSeparator: "-",
		IDNumberPatterns: []*regexp.Regexp{
			re(`\b([A-Z]{4}\d{6}[HM][A-Z]{5}[A-Z0-9]\d)\b`),
			re(`\b([A-Z]{6}\d{8}[HM]\d{3})\b`),
		},
		Labels: withDocLabels(spanishLabels, "CURP", "CLAVE DE ELECTOR"),
	},
	"CO": {
		Code: "CO", Name: "Colombia", Language: "spa", DocumentLabel: "Cédula de ciudadanía", HasBackSide: true,
		PlatePatterns: []*regexp.Regexp{
			re(`\b([A-Z]{3})[\s-]?(\d{3})\b`),
			re(`\b([A-Z]{3})[\s-]?(\d{2}[A-Z])\b`),
		},
		PlateSeparator: " ",
		IDNumberPatterns: []*regexp.Regexp{
			re(`\b(\d{1,3}(?:\.\d{3}){2,3})\b`),
			re(`\b(\d{6,10})\b`),
		},
		Labels: spanishLabels,
	},
	"CR": {
		Code: "CR", Name: "Costa Rica", Language: "spa", DocumentLabel: "Cédula de identidad", HasBackSide: true,
		PlatePatterns: []*regexp.Regexp{
			re(`\b([A-Z]{3})[\s-]?(\d{3})\b`),
			re(`\b(\d{6})\b`),
		},
		PlateSeparator: "-",
		IDNumberPatterns: []*regexp.Regexp{
			re(`\b(\d-\d{4}-\d{4})\b`),
			re(`\b(\d{9})\b`),
		},
		Labels: spanishLabels,
	},
	"GT": {
		Code: "GT", Name: "Guatemala", Language: "spa", DocumentLabel: "DPI", HasBackSide: true,
		PlatePatterns: []*regexp.Regexp{
			re(`\b([PCMAOTU])[\s-]?(\d{3})[\s-]?([A-Z]{3})\b`),
		},
		PlateSeparator:   "-",
		IDNumberPatterns: []*regexp.Regexp{re(`\b(\d{4}\s?\d{5}\s?\d{4})\b`)},
		Labels:           withDocLabels(spanishLabels, "CUI", "DPI"),
	},
	"SV": {
		Code: "SV", Name: "El Salvador", Language: "spa", DocumentLabel: "DUI", HasBackSide: true,
		PlatePatterns: []*regexp.Regexp{
			re(`\b([PAC])[\s-]?(\d{3})[\s-]?(\d{3})\b`),
		},
		PlateSeparator:   "-",
		IDNumberPatterns: []*regexp.Regexp{re(`\b(\d{8}-\d)\b`)},
		Labels:           withDocLabels(spanishLabels, "DUI"),
	},
	"EC": {
		Code: "EC", Name: "Ecuador", Language: "spa", DocumentLabel: "Cédula de identidad", HasBackSide: true,
		PlatePatterns: []*regexp.Regexp{
			re(`\b([A-Z]{3})[\s-]?(\d{3,4})\b`),
		},
		PlateSeparator:   "-",
		IDNumberPatterns: []*regexp.Regexp{re(`\b(\d{10})\b`)},
		Labels:           spanishLabels,
	},
	"PE": {
		Code: "PE", Name: "Perú", Language: "spa", DocumentLabel: "DNI", HasBackSide: false,
		PlatePatterns: []*regexp.Regexp{
			re(`\b([A-Z]{3})[\s-]?(\d{3})\b`),
			re(`\b([A-Z]\d[A-Z])[\s-]?(\d{3})\b`),
		},
		PlateSeparator:   "-",
		IDNumberPatterns: []*regexp.Regexp{re(`\b(\d{8})\b`)},
		Labels:           withDocLabels(spanishLabels, "DNI"),
	},
	"DO": {
		Code: "DO", Name: "República Dominicana", Language: "spa", DocumentLabel: "Cédula de identidad y electoral", HasBackSide: true,
		PlatePatterns: []*regexp.Regexp{
			re(`\b([A-Z])[\s-]?(\d{6})\b`),
		},
		PlateSeparator:   "",
		IDNumberPatterns: []*regexp.Regexp{re(`\b(\d{3}-\d{7}-\d)\b`)},
		Labels:           spanishLabels,
	},
	"US": {
		Code: "US", Name: "United States", Language: "eng", DocumentLabel: "Driver license", HasBackSide: true,
		PlatePatterns: []*regexp.Regexp{
			re(`\b(\d[A-Z]{3})[\s-]?(\d{3})\b`),
			re(`\b([A-Z]{3})[\s-]?(\d{4})\b`),
			re(`\b([A-Z]{3})[\s-]?(\d{3})\b`),
		},
		PlateSeparator:   "-",
		IDNumberPatterns: []*regexp.Regexp{re(`\b([A-Z]\d{7,12})\b`)},
		Labels: FieldLabels{
			Name:           []string{"FN", "FIRST NAME"},
			Surname:        []string{"LN", "LAST NAME"},
			DocumentNumber: []string{"DL", "LIC", "LICENSE NO"},
			BirthDate:      []string{"DOB", "DATE OF BIRTH"},
			ExpiryDate:     []string{"EXP", "EXPIRES"},
			Sex:            []string{"SEX"},
			Nationality:    []string{"NATIONALITY"},
			Address:        []string{"ADDRESS"},
		},
	},
}

var genericFormat = CountryFormat{
	Code: "", Name: "Generic", Language: "spa+eng", DocumentLabel: "Identity document", HasBackSide: true,
	PlateSeparator: "-",
	IDNumberPatterns: []*regexp.Regexp{
		re(`\b([A-Z0-9]{1,3}-\d{3,7}-\d{1,7})\b`),
		re(`\b(\d{7,12})\b`),
	},
	Labels: spanishLabels,
}

// LookupCountry returns the format for an ISO 3166-1 alpha-2 code.
// Unknown codes get the generic format and false.
func LookupCountry(code string) (CountryFormat, bool) {
	c, ok := countries[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return genericFormat, false
	}
	return c, true
}

// CountryCodes returns the supported country codes sorted alphabetically.
func CountryCodes() []string {
	out := make([]string, 0, len(countries))
	for k := range countries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
