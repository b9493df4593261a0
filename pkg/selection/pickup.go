// Package selection holds the shopper's FANBox locker choice: the payload the
// map widget emits and the cookie-backed record it is persisted as.
package selection

import "strings"

// Undefined is the sentinel the map widget emits for a missing field.
const Undefined = "undefined"

// PickupPoint is the locker payload produced by the map widget.
type PickupPoint struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Description string `json:"description"`
	Schedule    string `json:"schedule"`
}

// Normalize returns a copy with sentinel and blank fields emptied. An address
// that merely starts with the sentinel is rejected as a whole.
func (p PickupPoint) Normalize() PickupPoint {
	out := PickupPoint{
		Name:        clean(p.Name),
		Description: clean(p.Description),
		Schedule:    clean(p.Schedule),
	}
	if !strings.HasPrefix(p.Address, Undefined) {
		out.Address = strings.TrimSpace(p.Address)
	}
	return out
}

func clean(v string) string {
	v = strings.TrimSpace(v)
	if v == Undefined {
		return ""
	}
	return v
}

// LockerAddress is a widget address split into its positional parts.
type LockerAddress struct {
	County      string
	Locality    string
	Street      string
	Number      string
	PostalCode  string
	Description string
}

// Line returns street and number for an address line, or "" when the street
// is missing.
func (a LockerAddress) Line() string {
	if a.Street == "" {
		return ""
	}
	if a.Number == "" {
		return a.Street
	}
	return a.Street + " " + a.Number
}

// ParseAddress splits a widget address of the form
//
//	County, Locality, Street, Number, PostalCode, Description
//
// on commas. Trailing segments may be missing. Sentinel segments come back
// empty.
func ParseAddress(full string) LockerAddress {
	var a LockerAddress
	if strings.TrimSpace(full) == "" {
		return a
	}

	parts := strings.Split(full, ",")
	fields := []*string{&a.County, &a.Locality, &a.Street, &a.Number, &a.PostalCode, &a.Description}
	for i, dst := range fields {
		if i >= len(parts) {
			break
		}
		*dst = clean(parts[i])
	}
	if len(parts) > len(fields) {
		// descriptions may themselves contain commas
		rest := make([]string, 0, len(parts)-len(fields)+1)
		for _, p := range parts[len(fields)-1:] {
			rest = append(rest, strings.TrimSpace(p))
		}
		a.Description = strings.Join(rest, ", ")
	}
	return a
}

// CountyLocality returns the first two address segments, or empty strings
// when the address has fewer than two.
func CountyLocality(full string) (county, locality string) {
	if strings.Count(full, ",") < 1 {
		return "", ""
	}
	a := ParseAddress(full)
	return a.County, a.Locality
}
