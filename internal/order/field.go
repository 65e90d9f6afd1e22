// internal/order/field.go
//
// Orderform – order domain: field identifiers and error mapping.
//
// Context
//   Every slot of the order form is named by a Field.  The set is closed so
//   handlers, the renderer, and the validator agree at compile time on which
//   keys exist.  The wire name of each Field equals the HTML input name, so
//   posted values map back without a lookup table in the HTTP layer.
//
//------------------------------------------------------------------------------

package order

import "sort"

// Field identifies one named slot of the order form.
type Field int

const (
	FieldName Field = iota
	FieldSurname
	FieldZipCode
	FieldBirthday
	FieldDeliveryDate
	FieldCountry
	FieldState
	FieldConsent
	FieldPresents
	FieldGender
	FieldNotifications
	FieldPicture

	fieldCount
)

type fieldMeta struct {
	wire  string
	label string
}

var fieldTable = [fieldCount]fieldMeta{
	FieldName:          {"name", "Name"},
	FieldSurname:       {"surname", "Surname"},
	FieldZipCode:       {"zipCode", "Zip code"},
	FieldBirthday:      {"birthday", "Birthday"},
	FieldDeliveryDate:  {"deliveryDate", "Delivery date"},
	FieldCountry:       {"country", "Country"},
	FieldState:         {"state", "State"},
	FieldConsent:       {"consent", "Consent"},
	FieldPresents:      {"presents", "Presents"},
	FieldGender:        {"gender", "Gender"},
	FieldNotifications: {"notifications", "Notifications"},
	FieldPicture:       {"picture", "Profile picture"},
}

// String returns the wire name, e.g. "deliveryDate".
func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return "unknown"
	}
	return fieldTable[f].wire
}

// Label returns the human-readable name used in messages.
func (f Field) Label() string {
	if f < 0 || f >= fieldCount {
		return ""
	}
	return fieldTable[f].label
}

// Scalar reports whether the field holds a single replaceable string.
func (f Field) Scalar() bool {
	switch f {
	case FieldName, FieldSurname, FieldZipCode, FieldBirthday,
		FieldDeliveryDate, FieldCountry, FieldState, FieldGender:
		return true
	}
	return false
}

// ParseField maps a wire name back to its Field.
func ParseField(name string) (Field, bool) {
	for i, m := range fieldTable {
		if m.wire == name {
			return Field(i), true
		}
	}
	return 0, false
}

// Fields returns every Field in declaration order.
func Fields() []Field {
	out := make([]Field, fieldCount)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

// Errors maps a failed field to its user-facing message.  A missing key means
// the field is valid; an empty map means the whole form is valid.
type Errors map[Field]string

// Has reports whether f failed validation.
func (e Errors) Has(f Field) bool {
	_, ok := e[f]
	return ok
}

// Message returns the message for f or "".
func (e Errors) Message(f Field) string { return e[f] }

// Valid is true when no field failed.
func (e Errors) Valid() bool { return len(e) == 0 }

// Fields lists failed fields in declaration order.
func (e Errors) Fields() []Field {
	out := make([]Field, 0, len(e))
	for f := range e {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy.
func (e Errors) Clone() Errors {
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// ByName re-keys the map by wire name for JSON and templates.
func (e Errors) ByName() map[string]string {
	out := make(map[string]string, len(e))
	for k, v := range e {
		out[k.String()] = v
	}
	return out
}
