// Package validation wraps go-playground/validator with the booking tags:
// hhmm (time of day), ymd (calendar date) and phone (dialable characters).
package validation

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/md-rashed-zaman/clinicbook/libs/i18n"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/phone"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/schedule"
)

var messages = map[string]i18n.Key{
	"required": i18n.RequiredField,
	"uuid":     i18n.UUIDField,
	"hhmm":     i18n.TimeField,
	"ymd":      i18n.DateField,
	"phone":    i18n.PhoneField,
	"max":      i18n.TooLongField,
	"oneof":    i18n.UnsupportedField,
}

type Validator struct {
	v      *validator.Validate
	locale string
}

// New returns a validator whose messages are rendered in locale.
func New(locale string) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	mustRegister(v, "hhmm", func(fl validator.FieldLevel) bool {
		_, err := schedule.ParseClock(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "ymd", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		return phone.ValidChars(fl.Field().String())
	})
	return &Validator{v: v, locale: locale}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Struct validates s and returns an apperr validation error naming the first
// offending field.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		key, ok := messages[fe.Tag()]
		if !ok {
			key = i18n.InvalidField
		}
		return apperr.Validation(i18n.Message(v.locale, key, fe.Field()))
	}
	return apperr.Validation(i18n.Message(v.locale, i18n.InvalidField, "request"))
}

// DateLayout is the wire format of civil dates.
const DateLayout = time.DateOnly

// ParseDate parses YYYY-MM-DD into a civil date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}
