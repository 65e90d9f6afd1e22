// internal/order/state.go
//
// Orderform – order domain: the FormState snapshot.
//
// Context
//   State is a value type.  Every With* method returns a new State and never
//   mutates the receiver, so a snapshot handed to the renderer or the
//   validator cannot change underneath it.  The only reference field,
//   Presents, is copied on every write.
//
//   Validation tags live on the struct so Validate can run the whole rule set
//   in one pass; fields without a tag are collected but never validated.
//
//------------------------------------------------------------------------------

package order

import (
	"errors"
	"slices"
)

// State is one immutable snapshot of the order form.
type State struct {
	Name          string   `json:"name"          field:"name"          validate:"required,ucfirst"`
	Surname       string   `json:"surname"       field:"surname"       validate:"required,ucfirst"`
	ZipCode       string   `json:"zipCode"       field:"zipCode"`
	Birthday      string   `json:"birthday"      field:"birthday"      validate:"required"`
	DeliveryDate  string   `json:"deliveryDate"  field:"deliveryDate"  validate:"required"`
	Country       string   `json:"country"       field:"country"       validate:"required"`
	State         string   `json:"state"         field:"state"         validate:"required"`
	Consent       bool     `json:"consent"       field:"consent"       validate:"required"`
	Presents      []string `json:"presents"      field:"presents"`
	Gender        string   `json:"gender"        field:"gender"        validate:"required"`
	Notifications bool     `json:"notifications" field:"notifications"`

	// Picture is a data URL ("data:image/png;base64,...") or "" when absent.
	Picture string `json:"picture,omitempty" field:"picture"`
}

var (
	// ErrNotScalar is returned when a text update targets a non-text field.
	ErrNotScalar = errors.New("order: field is not a scalar text field")
	// ErrNotBoolean is returned when a checkbox update targets a non-boolean field.
	ErrNotBoolean = errors.New("order: field is not a boolean field")
)

// Value returns the current text of a scalar field.
func (s State) Value(f Field) string {
	switch f {
	case FieldName:
		return s.Name
	case FieldSurname:
		return s.Surname
	case FieldZipCode:
		return s.ZipCode
	case FieldBirthday:
		return s.Birthday
	case FieldDeliveryDate:
		return s.DeliveryDate
	case FieldCountry:
		return s.Country
	case FieldState:
		return s.State
	case FieldGender:
		return s.Gender
	}
	return ""
}

// With returns a copy with one scalar field replaced.
func (s State) With(f Field, value string) (State, error) {
	next := s.clone()
	switch f {
	case FieldName:
		next.Name = value
	case FieldSurname:
		next.Surname = value
	case FieldZipCode:
		next.ZipCode = value
	case FieldBirthday:
		next.Birthday = value
	case FieldDeliveryDate:
		next.DeliveryDate = value
	case FieldCountry:
		next.Country = value
	case FieldState:
		next.State = value
	case FieldGender:
		next.Gender = value
	default:
		return s, ErrNotScalar
	}
	return next, nil
}

// WithBool returns a copy with a checkbox field set.  Consent is the only
// free-standing checkbox; notifications go through WithNotification.
func (s State) WithBool(f Field, checked bool) (State, error) {
	if f != FieldConsent {
		return s, ErrNotBoolean
	}
	next := s.clone()
	next.Consent = checked
	return next, nil
}

// WithPresent adds tag when checked and absent, removes it when unchecked and
// present.  Repeating the same call yields the same set.
func (s State) WithPresent(tag string, checked bool) State {
	next := s.clone()
	i := slices.Index(next.Presents, tag)
	switch {
	case checked && i < 0:
		next.Presents = append(next.Presents, tag)
	case !checked && i >= 0:
		next.Presents = slices.Delete(next.Presents, i, i+1)
	}
	return next
}

// WithNotification sets notifications from the yes/no radio choice.
func (s State) WithNotification(choice string) State {
	next := s.clone()
	next.Notifications = choice == NotifyYes
	return next
}

// WithPicture stores an encoded picture.
func (s State) WithPicture(dataURL string) State {
	next := s.clone()
	next.Picture = dataURL
	return next
}

// HasPresent reports whether tag is selected.
func (s State) HasPresent(tag string) bool { return slices.Contains(s.Presents, tag) }

func (s State) clone() State {
	next := s
	next.Presents = slices.Clone(s.Presents)
	return next
}
