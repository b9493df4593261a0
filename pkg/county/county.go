// Package county maps Romanian county codes to the diacritic-free names the
// FAN Courier API expects, and back.
package county

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// names is keyed by the ISO 3166-2:RO subdivision code used by storefronts.
var names = map[string]string{
	"AB": "Alba", "AR": "Arad", "AG": "Arges", "BC": "Bacau", "BH": "Bihor",
	"BN": "Bistrita-Nasaud", "BT": "Botosani", "BV": "Brasov", "BR": "Braila",
	"B": "Bucuresti", "BZ": "Buzau", "CS": "Caras-Severin", "CL": "Calarasi",
	"CJ": "Cluj", "CT": "Constanta", "CV": "Covasna", "DB": "Dambovita",
	"DJ": "Dolj", "GL": "Galati", "GR": "Giurgiu", "GJ": "Gorj", "HR": "Harghita",
	"HD": "Hunedoara", "IL": "Ialomita", "IS": "Iasi", "IF": "Ilfov",
	"MM": "Maramures", "MH": "Mehedinti", "MS": "Mures", "NT": "Neamt",
	"OT": "Olt", "PH": "Prahova", "SM": "Satu Mare", "SJ": "Salaj",
	"SB": "Sibiu", "SV": "Suceava", "TR": "Teleorman", "TM": "Timis",
	"TL": "Tulcea", "VS": "Vaslui", "VL": "Valcea", "VN": "Vrancea",
}

// codes is the reverse of names, keyed by lower-case name.
var codes = func() map[string]string {
	m := make(map[string]string, len(names)+1)
	for code, name := range names {
		m[strings.ToLower(name)] = code
	}
	m["bucharest"] = "B"
	return m
}()

// Name returns the canonical county name for a code such as "CJ" or "b".
// Unknown codes are returned unchanged (trimmed), since the API also accepts
// free-form county names.
func Name(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if name, ok := names[c]; ok {
		return name
	}
	return strings.TrimSpace(code)
}

// Lookup is like Name but reports whether the code was known.
func Lookup(code string) (string, bool) {
	name, ok := names[strings.ToUpper(strings.TrimSpace(code))]
	return name, ok
}

// Code returns the county code for a name, ignoring case and diacritics.
// It returns "" when the name is not a known county.
func Code(name string) string {
	if name == "" {
		return ""
	}
	return codes[strings.ToLower(StripDiacritics(strings.TrimSpace(name)))]
}

// Codes returns all known county codes, sorted.
func Codes() []string {
	out := make([]string, 0, len(names))
	for code := range names {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// StripDiacritics removes combining marks, turning "Timișoara" into
// "Timisoara" and both comma-below and cedilla forms of ș/ț into s/t.
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// TitleCase capitalises each word of a location name ("satu mare" -> "Satu Mare").
func TitleCase(s string) string {
	return cases.Title(language.Romanian).String(strings.TrimSpace(s))
}

// IsBucharestArea reports whether a destination falls in the Bucharest/Ilfov
// pricing zone, by county code or by a city name hinting at the capital.
func IsBucharestArea(state, city string) bool {
	state = strings.TrimSpace(state)
	if state == "B" || state == "IF" {
		return true
	}
	city = strings.ToLower(strings.TrimSpace(city))
	if city == "" {
		return false
	}
	for _, hint := range []string{"sector", "bucuresti", "bucharest", "bucurești", "bucureşti"} {
		if strings.Contains(city, hint) {
			return true
		}
	}
	return false
}
