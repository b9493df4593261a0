// Package order records the FANBox locker on an order when it is placed.
package order

import (
	"strings"
	"time"

	"github.com/tournevent/fancourier/pkg/catalog"
	"github.com/tournevent/fancourier/pkg/selection"
	"github.com/tournevent/fancourier/pkg/shipper"
)

// Meta keys written on the order.
const (
	KeyName        = "fanbox_name"
	KeyFullAddress = "fanbox_full_address"
	KeyDescription = "fanbox_description"
	KeySchedule    = "fanbox_schedule"
	KeyCounty      = "fanbox_county"
	KeyLocality    = "fanbox_locality"
	KeyAddress     = "fanbox_address"
)

// Meta is the locker as stored on an order.
type Meta struct {
	Name        string `json:"fanbox_name"`
	FullAddress string `json:"fanbox_full_address"`
	Description string `json:"fanbox_description"`
	Schedule    string `json:"fanbox_schedule"`
	County      string `json:"fanbox_county,omitempty"`
	Locality    string `json:"fanbox_locality,omitempty"`
	Address     string `json:"fanbox_address,omitempty"` // shipping address line
}

// Order is a placed order as far as shipping is concerned.
type Order struct {
	ID        string            `json:"id"`
	MethodID  string            `json:"method_id"`
	Shipping  shipper.Address   `json:"shipping"`
	Meta      map[string]string `json:"meta,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// FromSelection builds the order meta from the cookie record. ok is false
// unless methodID is the FANBox method and a locker name is present.
func FromSelection(methodID string, rec selection.Record) (m Meta, ok bool) {
	if !isFanbox(methodID) || rec.Name == "" {
		return Meta{}, false
	}

	m = Meta{
		Name:        dropUndefined(rec.Name),
		FullAddress: rec.FullAddress,
		Description: dropUndefined(rec.Description),
		Schedule:    dropUndefined(rec.Schedule),
	}
	if strings.Contains(m.FullAddress, selection.Undefined) {
		m.FullAddress = ""
	}
	m.County, m.Locality = rec.CountyAndLocality()

	switch {
	case m.FullAddress != "":
		m.Address = m.FullAddress
	case m.Locality != "" && m.County != "":
		m.Address = m.Locality + ", " + m.County
	case m.Locality != "":
		m.Address = m.Locality
	default:
		m.Address = m.County
	}
	return m, true
}

func isFanbox(methodID string) bool {
	return methodID != "" && strings.Contains(methodID, catalog.FanboxMethodID)
}

func dropUndefined(v string) string {
	if v == selection.Undefined {
		return ""
	}
	return v
}

// Values returns the meta as order key/values. Name, full address,
// description and schedule are always written; the rest only when known.
func (m Meta) Values() map[string]string {
	v := map[string]string{
		KeyName:        m.Name,
		KeyFullAddress: m.FullAddress,
		KeyDescription: m.Description,
		KeySchedule:    m.Schedule,
	}
	if m.County != "" {
		v[KeyCounty] = m.County
	}
	if m.Locality != "" {
		v[KeyLocality] = m.Locality
	}
	if m.Address != "" {
		v[KeyAddress] = m.Address
	}
	return v
}

// MetaFromValues reads meta written by Values.
func MetaFromValues(v map[string]string) Meta {
	return Meta{
		Name:        v[KeyName],
		FullAddress: v[KeyFullAddress],
		Description: v[KeyDescription],
		Schedule:    v[KeySchedule],
		County:      v[KeyCounty],
		Locality:    v[KeyLocality],
		Address:     v[KeyAddress],
	}
}

// Override replaces the shipping address with the locker location. Fields
// the meta does not know are kept, except the postcode which is cleared.
func (m Meta) Override(addr shipper.Address) shipper.Address {
	addr.Company = m.Name
	if m.Address != "" {
		addr.Line1 = m.Address
	}
	if m.Description != "" {
		addr.Line2 = m.Description
	}
	if m.Locality != "" {
		addr.City = m.Locality
	}
	if m.County != "" {
		addr.State = m.County
	}
	addr.Postcode = ""
	return addr
}

// DisplayAddress is the locker address shown on the order, without the
// trailing description.
func (m Meta) DisplayAddress() string {
	addr := m.FullAddress
	if addr == "" {
		addr = m.Address
	}
	return selection.DisplayAddress(addr, m.Description)
}
