// internal/order/validate.go
//
// Orderform – order domain: submission rules.
//
// Context
//   Validate turns a State into Errors.  The rules are declared as
//   go-playground/validator tags on State; this file owns the validator
//   instance, the custom “ucfirst” rule, and the translation from
//   validator.FieldError into the user-facing message table below.
//
//   Every field is checked in the same pass, so one submission reports all
//   problems at once.  Within a field the first failing tag wins, which gives
//   “is required” precedence over “must start with an uppercase letter”.
//
// Notes
//   •  zipCode, presents, notifications, and picture carry no tag and are
//      never reported.
//   •  Validate never returns a Go error.  A validator failure that is not a
//      field error is logged and treated as “no field errors”.
//
//------------------------------------------------------------------------------

package order

import (
	"errors"
	"reflect"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	val.RegisterTagNameFunc(func(sf reflect.StructField) string {
		return sf.Tag.Get("field")
	})
	if err := val.RegisterValidation("ucfirst", startsUpper); err != nil {
		panic("order: register ucfirst rule: " + err.Error())
	}
	return val
}

// startsUpper accepts strings whose first byte is an ASCII capital.
func startsUpper(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}

// Validate runs one full validation pass over s.
func Validate(s State) Errors {
	errs := Errors{}

	err := v.Struct(s)
	if err == nil {
		return errs
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		zap.S().Errorw("order validation failed unexpectedly", "err", err)
		return errs
	}

	for _, fe := range fieldErrs {
		f, ok := ParseField(fe.Field())
		if !ok {
			continue
		}
		if _, seen := errs[f]; seen {
			continue
		}
		errs[f] = message(f, fe.Tag())
	}
	return errs
}

func message(f Field, tag string) string {
	switch tag {
	case "ucfirst":
		return f.Label() + " must start with an uppercase letter"
	default:
		return f.Label() + " is required"
	}
}
