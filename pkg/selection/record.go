package selection

import "strings"

// Record is the durable, cookie-backed form of a locker selection.
type Record struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	FullAddress string `json:"full_address"`
	Description string `json:"description"`
	Schedule    string `json:"schedule"`
}

// FromPickupPoint normalizes a widget payload and derives the
// "County|Locality" pair from its address.
func FromPickupPoint(p PickupPoint) Record {
	p = p.Normalize()
	county, locality := CountyLocality(p.Address)
	return Record{
		Name:        p.Name,
		Address:     JoinCountyLocality(county, locality),
		FullAddress: p.Address,
		Description: p.Description,
		Schedule:    p.Schedule,
	}
}

// JoinCountyLocality formats the fanbox_address value.
func JoinCountyLocality(county, locality string) string {
	return county + "|" + locality
}

// SplitCountyLocality parses a fanbox_address value. ok is false unless the
// value has exactly two parts.
func SplitCountyLocality(v string) (county, locality string, ok bool) {
	parts := strings.Split(v, "|")
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

// Empty reports whether no locker has been chosen.
func (r Record) Empty() bool {
	return r.Name == ""
}

// Location resolves the locker's county and locality, preferring the
// fanbox_address cookie and falling back to the full address. Sentinel
// values are reported as found so callers can refuse them.
func (r Record) Location() (county, locality string, ok bool) {
	if c, l, found := SplitCountyLocality(r.Address); found && c != "" && l != "" {
		return c, l, true
	}
	if strings.Count(r.FullAddress, ",") >= 1 {
		parts := strings.SplitN(r.FullAddress, ",", 3)
		c, l := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if c != "" && l != "" {
			return c, l, true
		}
	}
	return "", "", false
}

// CountyAndLocality resolves each part on its own: from the fanbox_address
// pair when set, else from the full address. Sentinels come back empty.
func (r Record) CountyAndLocality() (county, locality string) {
	county, locality, _ = SplitCountyLocality(r.Address)
	county, locality = clean(county), clean(locality)
	if county != "" && locality != "" {
		return county, locality
	}

	full := ParseAddress(r.FullAddress)
	if strings.Count(r.FullAddress, ",") < 1 {
		full = LockerAddress{}
	}
	if county == "" {
		county = full.County
	}
	if locality == "" {
		locality = full.Locality
	}
	return county, locality
}

// DisplayAddress cuts an address at the first occurrence of the locker
// description, which the widget appends as the last segment.
func DisplayAddress(address, description string) string {
	if description == "" || address == "" {
		return address
	}
	if i := strings.Index(address, description); i >= 0 {
		return strings.Trim(address[:i], ", ")
	}
	return address
}
