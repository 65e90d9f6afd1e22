// internal/form/submit.go
//
// Orderform – Forms subsystem: translating posts into controller calls.
//
// Context
//   Two request shapes change the session snapshot:
//
//   •  Submission – the native form post on /form.  Every control arrives at
//      once and is replayed against the controller before Submit runs.
//   •  Event – one incremental UI event on /form/events (field edit, consent
//      toggle, present toggle, notification choice).  Events never validate.
//
//   Both are decoded from url.Values with go-playground/form.  Checkbox
//   values stay strings (“on”, “true”, …) because browsers never post “true”
//   for a bare checkbox; checkedValue interprets them.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	playform "github.com/go-playground/form/v4"

	"github.com/yanizio/orderform/internal/order"
)

// decoder is safe for concurrent use and caches struct metadata.
var decoder = playform.NewDecoder()

var (
	// ErrUnknownEvent is returned for an event kind the page never sends.
	ErrUnknownEvent = errors.New("form: unknown event kind")
	// ErrUnknownField is returned when an event names no order field.
	ErrUnknownField = errors.New("form: unknown field")
)

// -----------------------------------------------------------------------------
// Full submission
// -----------------------------------------------------------------------------

// Submission mirrors the posted order form.  The picture travels as a file
// part and is handled separately.
type Submission struct {
	Name          string   `form:"name"`
	Surname       string   `form:"surname"`
	ZipCode       string   `form:"zipCode"`
	Birthday      string   `form:"birthday"`
	DeliveryDate  string   `form:"deliveryDate"`
	Country       string   `form:"country"`
	State         string   `form:"state"`
	Consent       string   `form:"consent"`
	Presents      []string `form:"presents"`
	Gender        string   `form:"gender"`
	Notifications string   `form:"notifications"`
}

// DecodeSubmission reads a Submission from posted values.
func DecodeSubmission(values url.Values) (Submission, error) {
	var s Submission
	if err := decoder.Decode(&s, values); err != nil {
		return Submission{}, fmt.Errorf("decode submission: %w", err)
	}
	return s, nil
}

// Apply writes the whole submission into the controller as one update.
func (s Submission) Apply(c *order.Controller) error {
	return c.Replace(s.ApplyTo)
}

// ApplyTo returns st with every posted value written into it.  The present
// set is replaced: tags not posted are unchecked, posted tags are checked in
// the order they arrive.  Picture is left alone.
func (s Submission) ApplyTo(st order.State) (order.State, error) {
	scalars := []struct {
		f order.Field
		v string
	}{
		{order.FieldName, s.Name},
		{order.FieldSurname, s.Surname},
		{order.FieldZipCode, s.ZipCode},
		{order.FieldBirthday, s.Birthday},
		{order.FieldDeliveryDate, s.DeliveryDate},
		{order.FieldCountry, s.Country},
		{order.FieldState, s.State},
		{order.FieldGender, s.Gender},
	}
	var err error
	for _, sc := range scalars {
		if st, err = st.With(sc.f, sc.v); err != nil {
			return order.State{}, err
		}
	}
	if st, err = st.WithBool(order.FieldConsent, checkedValue(s.Consent)); err != nil {
		return order.State{}, err
	}

	for _, tag := range slices.Clone(st.Presents) {
		if !slices.Contains(s.Presents, tag) {
			st = st.WithPresent(tag, false)
		}
	}
	for _, tag := range s.Presents {
		st = st.WithPresent(tag, true)
	}

	return st.WithNotification(s.Notifications), nil
}

// -----------------------------------------------------------------------------
// Incremental events
// -----------------------------------------------------------------------------

// Event kinds.
const (
	EventField        = "field"
	EventBoolean      = "boolean"
	EventPresent      = "present"
	EventNotification = "notification"
)

// Event is one UI interaction posted to /form/events.
type Event struct {
	Kind    string `form:"kind"`
	Name    string `form:"name"`
	Value   string `form:"value"`
	Checked string `form:"checked"`
}

// DecodeEvent reads an Event from posted values.
func DecodeEvent(values url.Values) (Event, error) {
	var e Event
	if err := decoder.Decode(&e, values); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return e, nil
}

// Apply forwards the event to the matching controller method.  Field and
// kind mismatches surface as order.ErrNotScalar / order.ErrNotBoolean.
func (e Event) Apply(c *order.Controller) error {
	switch e.Kind {
	case EventField:
		f, ok := order.ParseField(e.Name)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownField, e.Name)
		}
		return c.UpdateField(f, e.Value)
	case EventBoolean:
		f, ok := order.ParseField(e.Name)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownField, e.Name)
		}
		return c.UpdateBoolean(f, checkedValue(e.Checked))
	case EventPresent:
		c.TogglePresent(e.Value, checkedValue(e.Checked))
		return nil
	case EventNotification:
		c.SetNotification(e.Value)
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownEvent, e.Kind)
}

// checkedValue interprets a posted checkbox state.  Browsers send “on” for a
// checked box and omit it otherwise; scripts may send true/false.
func checkedValue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "off", "no":
		return false
	}
	return true
}
