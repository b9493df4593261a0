package fanbox_test

import (
	"errors"
	"sort"
	"time"

	"github.com/tournevent/fancourier/pkg/fanbox"
)

// fakePage is an in-memory checkout page.
type fakePage struct {
	method  string
	checked map[string]bool
	values  map[string]string
	options map[string][]fanbox.Option
	missing map[string]bool

	noInsertionPoint bool
	picker           bool
	pickerLabel      string
	pickerBuilds     int

	confirmation *fanbox.Confirmation
	renders      int

	addressVisible bool
	destination    fanbox.Destination
	alerts         []string
	errors         []string
}

func newFakePage() *fakePage {
	return &fakePage{
		checked:        map[string]bool{},
		values:         map[string]string{},
		options:        map[string][]fanbox.Option{},
		missing:        map[string]bool{},
		addressVisible: true,
	}
}

func (p *fakePage) CheckedMethod() string   { return p.method }
func (p *fakePage) Exists(id string) bool   { return !p.missing[id] }
func (p *fakePage) Checked(id string) bool  { return p.checked[id] }
func (p *fakePage) Value(id string) string  { return p.values[id] }
func (p *fakePage) SetValue(id, v string)   { p.values[id] = v }
func (p *fakePage) HasPicker() bool         { return p.picker }
func (p *fakePage) SetPickerLabel(l string) { p.pickerLabel = l }
func (p *fakePage) RemovePicker()           { p.picker, p.pickerLabel = false, "" }
func (p *fakePage) HasConfirmation() bool   { return p.confirmation != nil }
func (p *fakePage) RemoveConfirmation()     { p.confirmation = nil }
func (p *fakePage) Alert(m string)          { p.alerts = append(p.alerts, m) }
func (p *fakePage) ShowError(m string)      { p.errors = append(p.errors, m) }

func (p *fakePage) SetAddressFieldsVisible(v bool) { p.addressVisible = v }

func (p *fakePage) SetDestination(d fanbox.Destination) { p.destination = d }

func (p *fakePage) Options(id string) ([]fanbox.Option, bool) {
	opts, ok := p.options[id]
	return opts, ok
}

func (p *fakePage) SelectedText(id string) string {
	for _, o := range p.options[id] {
		if o.Value == p.values[id] {
			return o.Text
		}
	}
	return ""
}

func (p *fakePage) ShowPicker(label string) bool {
	if p.noInsertionPoint {
		return false
	}
	p.picker, p.pickerLabel = true, label
	p.pickerBuilds++
	return true
}

func (p *fakePage) RenderConfirmation(c fanbox.Confirmation) {
	p.confirmation = &c
	p.renders++
}

// rerender simulates the host replacing the checkout fragment.
func (p *fakePage) rerender() {
	p.picker = false
	p.confirmation = nil
}

// memJar is an in-memory cookie jar.
type memJar map[string]string

func (j memJar) Get(name string) (string, bool) {
	v, ok := j[name]
	return v, ok
}
func (j memJar) Set(name, value string, _ time.Duration) { j[name] = value }
func (j memJar) Delete(name string)                      { delete(j, name) }

type fakeWidget struct {
	loaded bool
	err    error
	opened []fanbox.PickerRequest
}

func (w *fakeWidget) Loaded() bool { return w.loaded }

func (w *fakeWidget) Open(req fanbox.PickerRequest) error {
	if w.err != nil {
		return w.err
	}
	w.opened = append(w.opened, req)
	return nil
}

var errWidget = errors.New("widget exploded")

type fakeHost struct {
	updates int
}

func (h *fakeHost) UpdateCheckout() { h.updates++ }

// manualClock is a Scheduler driven by Advance.
type manualClock struct {
	now     time.Duration
	pending []timer
	seq     int
}

type timer struct {
	at  time.Duration
	seq int
	f   func()
}

func (c *manualClock) After(d time.Duration, f func()) {
	c.seq++
	c.pending = append(c.pending, timer{at: c.now + d, seq: c.seq, f: f})
}

// Advance runs every timer due within d, in order.
func (c *manualClock) Advance(d time.Duration) {
	end := c.now + d
	for {
		sort.Slice(c.pending, func(i, j int) bool {
			if c.pending[i].at == c.pending[j].at {
				return c.pending[i].seq < c.pending[j].seq
			}
			return c.pending[i].at < c.pending[j].at
		})
		if len(c.pending) == 0 || c.pending[0].at > end {
			break
		}
		next := c.pending[0]
		c.pending = c.pending[1:]
		c.now = next.at
		next.f()
	}
	c.now = end
}
