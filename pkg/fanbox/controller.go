// Package fanbox keeps the FANBox locker pick consistent across the checkout
// page: the chosen shipping method, the picker and confirmation blocks, the
// selection cookies and the hidden shipping fields.
//
// A Controller is not safe for concurrent use. All of its methods, and the
// callbacks it hands to its Scheduler, must run on one EventLoop.
package fanbox

import (
	"fmt"
	"strings"

	"github.com/tournevent/fancourier/pkg/catalog"
	"github.com/tournevent/fancourier/pkg/county"
	"github.com/tournevent/fancourier/pkg/selection"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// State of the checkout with respect to FANBox.
type State int

const (
	NoMethodSelected State = iota
	NonFanboxSelected
	FanboxSelected
	AwaitingPickerResult
)

func (s State) String() string {
	switch s {
	case NoMethodSelected:
		return "no_method"
	case NonFanboxSelected:
		return "non_fanbox"
	case FanboxSelected:
		return "fanbox"
	case AwaitingPickerResult:
		return "awaiting_picker"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Controller reconciles the FANBox selection with the checkout page.
type Controller struct {
	page   Page
	jar    selection.Jar
	widget Widget
	host   Host
	sched  Scheduler
	logger *otelzap.Logger

	state    State
	selected *selection.PickupPoint

	// rendered/lastRendered memoise the confirmation block by locker name.
	rendered     bool
	lastRendered string

	// populating is set while hidden fields are written and for SettleDelay
	// after, so events caused by the writes do not reconcile again.
	populating bool

	pickerLabel   string
	libraryLoaded bool
}

// New creates a controller.
func New(page Page, jar selection.Jar, widget Widget, host Host, sched Scheduler, logger *otelzap.Logger) *Controller {
	return &Controller{
		page:   page,
		jar:    jar,
		widget: widget,
		host:   host,
		sched:  sched,
		logger: logger,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Populating reports whether hidden fields are being written.
func (c *Controller) Populating() bool {
	return c.populating
}

// LibraryLoaded reports whether the map library was detected.
func (c *Controller) LibraryLoaded() bool {
	return c.libraryLoaded
}

// IsFanboxMethod reports whether a shipping method id is the FANBox one.
// Hosts suffix instance numbers, as in "fc_pro_fanbox:3".
func IsFanboxMethod(methodID string) bool {
	return methodID != "" && strings.Contains(methodID, catalog.FanboxMethodID)
}

// ============================================================================
// Triggers
// ============================================================================

// Start evaluates the page, schedules the two delayed re-checks for methods
// the host renders late and begins polling for the map library.
func (c *Controller) Start() {
	c.logger.Info("Initializing FANBox integration")
	c.EvaluateShippingMethod()
	c.sched.After(FirstRecheckDelay, c.EvaluateShippingMethod)
	c.sched.After(LastRecheckDelay, c.EvaluateShippingMethod)
	c.MonitorLibrary()
}

// OnMethodChange handles a shipping method radio change.
func (c *Controller) OnMethodChange() {
	c.EvaluateShippingMethod()
}

// OnCheckoutUpdated handles the host's "checkout updated" notification.
func (c *Controller) OnCheckoutUpdated() {
	c.logger.Debug("Checkout updated")
	c.EvaluateShippingMethod()
}

// OnTotalsUpdated handles the host's cart or shipping totals notification.
func (c *Controller) OnTotalsUpdated() {
	c.logger.Debug("Cart/shipping updated")
	c.EvaluateShippingMethod()
}

// ============================================================================
// Operations
// ============================================================================

// EvaluateShippingMethod drives the state from the checked method. It is
// safe to call at any time, including before the page has rendered.
func (c *Controller) EvaluateShippingMethod() {
	defer c.recover("evaluate shipping method")

	method := c.page.CheckedMethod()
	rec := selection.Load(c.jar)

	c.logger.Debug("Shipping method check",
		zap.String("selected", method),
		zap.Bool("is_fanbox", IsFanboxMethod(method)),
		zap.Bool("has_selection", !rec.Empty()),
	)

	switch {
	case IsFanboxMethod(method):
		c.state = FanboxSelected
		c.showPicker(rec)
		c.updateDestination(rec)
		c.showConfirmation(rec)
	case method == "":
		// The host may still be rendering its methods; keep any prior pick.
		c.logger.Debug("Waiting for shipping methods to load", zap.Bool("has_selection", !rec.Empty()))
		if rec.Empty() {
			c.hidePicker()
			c.rendered, c.lastRendered = false, ""
			c.showAddressFields()
		}
	default:
		c.state = NonFanboxSelected
		c.hidePicker()
		c.ClearSelection()
		c.rendered, c.lastRendered = false, ""
		c.showAddressFields()
	}
}

// OpenPicker opens the map widget around the shopper's current address.
// A missing widget or mount point is reported to the shopper and not retried.
func (c *Controller) OpenPicker() {
	defer c.recover("open picker")

	if !c.widget.Loaded() {
		c.logger.Error("Map library not loaded")
		c.page.Alert(MapLoadError)
		return
	}
	if !c.page.Exists(MapRootID) {
		c.logger.Error("Map container not found", zap.String("id", MapRootID))
		c.page.Alert(MapLoadError)
		return
	}

	req := PickerRequest{
		PickupPoint: c.selected,
		County:      c.shippingCounty(),
		Locality:    c.shippingLocality(),
		RootID:      MapRootID,
	}
	c.logger.Info("Opening map",
		zap.String("county", req.County),
		zap.String("locality", req.Locality),
		zap.Bool("has_previous", req.PickupPoint != nil),
	)
	if err := c.widget.Open(req); err != nil {
		c.logger.Error("Map failed to open", zap.Error(err))
		c.page.Alert(MapLoadError)
		return
	}
	c.state = AwaitingPickerResult
}

// OnPickerResult stores the locker the shopper picked and asks the host to
// recompute shipping once the page has settled.
func (c *Controller) OnPickerResult(point *selection.PickupPoint) {
	defer c.recover("picker result")

	if point == nil {
		c.logger.Error("No pickup point received")
		return
	}
	p := *point
	c.selected = &p

	rec := selection.FromPickupPoint(p)
	c.logger.Info("FANBox selected",
		zap.String("name", rec.Name),
		zap.String("full_address", rec.FullAddress),
		zap.String("address", rec.Address),
	)
	selection.Save(c.jar, rec)

	label := rec.Name
	if label == "" {
		label = SelectedText
	}
	c.page.SetPickerLabel(label)
	c.pickerLabel = label

	c.page.RemoveConfirmation()
	c.rendered = false
	c.renderConfirmation(rec)

	c.state = FanboxSelected
	c.updateDestination(rec)

	c.sched.After(UpdateDelay, func() {
		c.logger.Debug("Triggering checkout update for dynamic pricing recalculation")
		c.host.UpdateCheckout()
	})
}

// ClearSelection erases the selection cookies.
func (c *Controller) ClearSelection() {
	selection.Clear(c.jar)
}

// ValidateBeforeSubmit blocks order placement when FANBox is chosen without
// a locker.
func (c *Controller) ValidateBeforeSubmit() (ok bool) {
	ok = true
	defer c.recover("validate")

	if !IsFanboxMethod(c.page.CheckedMethod()) {
		return true
	}
	if selection.Load(c.jar).Name != "" {
		return true
	}
	c.logger.Info("Order blocked: no FANBox chosen")
	c.page.ShowError(ValidationError)
	return false
}

// MonitorLibrary polls for the map library every LibraryPollEvery, up to
// LibraryPollLimit times.
func (c *Controller) MonitorLibrary() {
	attempts := 0
	var check func()
	check = func() {
		defer c.recover("library poll")
		attempts++
		if c.widget.Loaded() {
			c.libraryLoaded = true
			c.logger.Info("Map library loaded", zap.Int("attempts", attempts))
			return
		}
		if attempts < LibraryPollLimit {
			c.sched.After(LibraryPollEvery, check)
			return
		}
		c.logger.Error("Map library failed to load", zap.Int("attempts", attempts))
	}
	c.sched.After(LibraryPollEvery, check)
}

// ============================================================================
// Rendering
// ============================================================================

func (c *Controller) showPicker(rec selection.Record) {
	label := rec.Name
	if label == "" {
		label = NoSelectionText
	}
	if c.page.HasPicker() && c.pickerLabel == label {
		return
	}

	c.page.RemovePicker()
	if !c.page.ShowPicker(label) {
		c.logger.Warn("Could not find insertion point for FANBox picker")
		c.pickerLabel = ""
		return
	}
	c.pickerLabel = label
}

func (c *Controller) hidePicker() {
	c.page.RemovePicker()
	c.pickerLabel = ""
}

func (c *Controller) updateDestination(rec selection.Record) {
	d := Destination{Name: rec.Name}
	if rec.Name != "" {
		d.County, d.Locality = rec.CountyAndLocality()
	}
	c.page.SetDestination(d)
}

// showConfirmation renders the locker summary unless the same locker is
// already on the page or fields are still being written.
func (c *Controller) showConfirmation(rec selection.Record) {
	if c.populating {
		c.logger.Debug("Skipping confirmation: fields are being populated")
		return
	}
	if c.rendered && c.lastRendered == rec.Name && c.page.HasConfirmation() {
		return
	}

	c.page.RemoveConfirmation()
	c.renderConfirmation(rec)
}

func (c *Controller) renderConfirmation(rec selection.Record) {
	conf := Confirmation{Name: rec.Name}
	if rec.Name != "" {
		conf.Address = selection.DisplayAddress(rec.FullAddress, rec.Description)
		conf.Description = rec.Description
		conf.Schedule = rec.Schedule
	}
	c.page.RenderConfirmation(conf)
	c.page.SetAddressFieldsVisible(false)
	c.populateFields(rec)

	c.rendered, c.lastRendered = true, rec.Name
}

func (c *Controller) showAddressFields() {
	c.page.RemoveConfirmation()
	c.page.SetAddressFieldsVisible(true)
	c.page.SetValue(ShippingCompanyID, "")
	c.page.SetValue(ShippingAddress1ID, "")
	c.page.SetValue(ShippingAddress2ID, "")
}

// populateFields fills the hidden shipping fields so the host's required
// field validation passes.
func (c *Controller) populateFields(rec selection.Record) {
	c.populating = true

	addr := selection.ParseAddress(rec.FullAddress)
	line := addr.Line()
	if line == "" {
		line = LockerLine
	}

	c.page.SetValue(ShippingFirstNameID, c.page.Value(BillingFirstNameID))
	c.page.SetValue(ShippingLastNameID, c.page.Value(BillingLastNameID))
	c.page.SetValue(ShippingCompanyID, rec.Name)
	c.page.SetValue(ShippingAddress1ID, line)
	c.page.SetValue(ShippingAddress2ID, "")
	c.page.SetValue(ShippingPostcodeID, addr.PostalCode)
	c.page.SetValue(ShippingCountryID, DefaultCountry)
	c.setState(addr.County)
	c.setCity(addr.Locality)

	c.logger.Debug("Shipping fields populated",
		zap.String("county", addr.County),
		zap.String("city", addr.Locality),
		zap.String("address_1", line),
		zap.String("postcode", addr.PostalCode),
	)

	c.sched.After(SettleDelay, func() { c.populating = false })
}

func (c *Controller) setState(name string) {
	if !c.page.Exists(ShippingStateID) {
		return
	}
	opts, isSelect := c.page.Options(ShippingStateID)
	if !isSelect {
		if name == "" {
			name = DefaultCounty
		}
		c.page.SetValue(ShippingStateID, name)
		return
	}

	if name == "" {
		return
	}
	if code := county.Code(name); code != "" {
		c.page.SetValue(ShippingStateID, code)
		return
	}
	want := strings.ToLower(name)
	for _, o := range opts {
		if strings.Contains(strings.ToLower(o.Text), want) {
			c.page.SetValue(ShippingStateID, o.Value)
			return
		}
	}
}

func (c *Controller) setCity(city string) {
	opts, isSelect := c.page.Options(ShippingCityID)
	if !isSelect {
		c.page.SetValue(ShippingCityID, city)
		return
	}
	for _, o := range opts {
		if strings.EqualFold(o.Text, city) || strings.EqualFold(o.Value, city) {
			c.page.SetValue(ShippingCityID, o.Value)
			return
		}
	}
	// the first option is the placeholder
	if len(opts) > 1 {
		c.page.SetValue(ShippingCityID, opts[1].Value)
	}
}

// ============================================================================
// Address guesses for the picker
// ============================================================================

func (c *Controller) shipToDifferent() bool {
	return c.page.Checked(ShipToDifferentID)
}

func (c *Controller) fieldText(id string) string {
	if t := c.page.SelectedText(id); t != "" {
		return t
	}
	return c.page.Value(id)
}

// shippingCounty returns the county name for the picker: the county code
// expanded when known, else the field text without diacritics.
func (c *Controller) shippingCounty() string {
	var code, text string
	if c.shipToDifferent() {
		code = c.page.Value(ShippingStateID)
		text = c.fieldText(ShippingStateID)
	}
	if code == "" {
		code = c.page.Value(BillingStateID)
	}
	if text == "" {
		text = c.fieldText(BillingStateID)
	}

	if name, ok := county.Lookup(code); ok {
		return name
	}
	return county.StripDiacritics(text)
}

func (c *Controller) shippingLocality() string {
	var locality string
	if c.shipToDifferent() {
		locality = c.page.Value(ShippingCityID)
		if locality == "" {
			locality = c.page.SelectedText(ShippingCityID)
		}
	}
	if locality == "" {
		locality = c.page.Value(BillingCityID)
		if locality == "" {
			locality = c.page.SelectedText(BillingCityID)
		}
	}
	return county.StripDiacritics(locality)
}

// recover keeps a failing handler from taking the page down with it.
func (c *Controller) recover(op string) {
	if r := recover(); r != nil {
		c.logger.Error("FANBox handler panicked", zap.String("op", op), zap.Any("panic", r))
	}
}
