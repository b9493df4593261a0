package fanbox

import (
	"time"

	"github.com/tournevent/fancourier/pkg/selection"
)

// Element ids the controller reads and writes on the checkout page.
const (
	MapRootID           = "FANmapDiv"
	ShipToDifferentID   = "ship-to-different-address-checkbox"
	BillingFirstNameID  = "billing_first_name"
	BillingLastNameID   = "billing_last_name"
	BillingStateID      = "billing_state"
	BillingCityID       = "billing_city"
	ShippingFirstNameID = "shipping_first_name"
	ShippingLastNameID  = "shipping_last_name"
	ShippingCompanyID   = "shipping_company"
	ShippingAddress1ID  = "shipping_address_1"
	ShippingAddress2ID  = "shipping_address_2"
	ShippingCityID      = "shipping_city"
	ShippingStateID     = "shipping_state"
	ShippingPostcodeID  = "shipping_postcode"
	ShippingCountryID   = "shipping_country"
)

// Shopper-facing texts.
const (
	MapButtonText   = "Alege FANBox de pe hartă"
	NoSelectionText = "Nu ați ales încă un FANBox"
	SelectedText    = "FANBox selectat"
	MapLoadError    = "Harta FANBox nu a putut fi încărcată. Vă rugăm să reîncărcați pagina."
	ValidationError = "Te rugăm să alegi un locker FANBox de pe hartă!"
	LockerLine      = "Locker FANBox"
	DefaultCounty   = "Bucuresti"
	DefaultCountry  = "RO"
)

// Timings of the controller's deferred work.
const (
	SettleDelay       = 500 * time.Millisecond
	UpdateDelay       = 100 * time.Millisecond
	LibraryPollEvery  = 500 * time.Millisecond
	LibraryPollLimit  = 20
	FirstRecheckDelay = time.Second
	LastRecheckDelay  = 3 * time.Second
)

// Option is one entry of a select field.
type Option struct {
	Value string
	Text  string
}

// Confirmation is the locker summary shown in place of the address fields.
// An empty Name renders the "no locker chosen" prompt.
type Confirmation struct {
	Name        string
	Address     string
	Description string
	Schedule    string
}

// Destination is the "shipping to" line. An empty Name renders a link that
// opens the picker.
type Destination struct {
	Name     string
	County   string
	Locality string
}

// Page is the checkout page. Absent elements read as empty and writes to
// them are dropped. Field writes must not fire change events.
type Page interface {
	// CheckedMethod returns the checked shipping method id, "" when none.
	CheckedMethod() string
	Exists(id string) bool
	Checked(id string) bool
	Value(id string) string
	SetValue(id, value string)
	// Options returns the options of a select field. ok is false for text
	// inputs and absent fields.
	Options(id string) (opts []Option, ok bool)
	// SelectedText returns the text of the chosen option of a select field.
	SelectedText(id string) string

	// ShowPicker inserts the picker row under the shipping methods. It
	// returns false when no insertion point was found.
	ShowPicker(label string) bool
	HasPicker() bool
	SetPickerLabel(label string)
	RemovePicker()

	RenderConfirmation(c Confirmation)
	HasConfirmation() bool
	RemoveConfirmation()

	SetAddressFieldsVisible(visible bool)
	SetDestination(d Destination)

	Alert(message string)
	ShowError(message string)
}

// PickerRequest is what the map widget is opened with.
type PickerRequest struct {
	PickupPoint *selection.PickupPoint
	County      string
	Locality    string
	RootID      string
}

// Widget is the courier's map library.
type Widget interface {
	Loaded() bool
	Open(req PickerRequest) error
}

// Host is the checkout framework.
type Host interface {
	// UpdateCheckout asks the host to recompute shipping totals.
	UpdateCheckout()
}

// Scheduler runs f on the controller's loop after d.
type Scheduler interface {
	After(d time.Duration, f func())
}
