package apiutil

import (
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is used for numbers entered without a country code.
const DefaultPhoneRegion = "IN"

// FieldErrors collects every invalid field of a submitted form.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return strings.Join(parts, "; ")
}

// For returns the reason recorded for field, or "".
func (e FieldErrors) For(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Reason
		}
	}
	return ""
}

// FormReader reads and validates form fields, collecting errors so a form
// can report all of them at once.
type FormReader struct {
	values url.Values
	errs   FieldErrors
}

func NewFormReader(values url.Values) *FormReader {
	if values == nil {
		values = url.Values{}
	}
	return &FormReader{values: values}
}

func (f *FormReader) fail(field, reason string) {
	f.errs = append(f.errs, FieldError{Field: field, Reason: reason})
}

// Fail records a reason found by a check made outside the reader.
func (f *FormReader) Fail(field, reason string) {
	f.fail(field, reason)
}

func (f *FormReader) Optional(field string) string {
	return strings.TrimSpace(f.values.Get(field))
}

func (f *FormReader) Required(field string) string {
	value := f.Optional(field)
	if value == "" {
		f.fail(field, "is required")
	}
	return value
}

// Bool treats checkbox values (on, true, 1, yes) as set.
func (f *FormReader) Bool(field string) bool {
	return ParseBool(f.values.Get(field))
}

// Date validates a YYYY-MM-DD value.
func (f *FormReader) Date(field string, required bool) string {
	value := f.Optional(field)
	if value == "" {
		if required {
			f.fail(field, "is required")
		}
		return ""
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		f.fail(field, "must be a date (YYYY-MM-DD)")
	}
	return value
}

// Time validates an HH:MM value.
func (f *FormReader) Time(field string, required bool) string {
	value := f.Optional(field)
	if value == "" {
		if required {
			f.fail(field, "is required")
		}
		return ""
	}
	if _, err := time.Parse("15:04", value); err != nil {
		f.fail(field, "must be a time (HH:MM)")
	}
	return value
}

func (f *FormReader) Email(field string, required bool) string {
	value := f.Optional(field)
	if value == "" {
		if required {
			f.fail(field, "is required")
		}
		return ""
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		f.fail(field, "must be a valid email address")
	}
	return value
}

// Phone normalises the number to E.164.
func (f *FormReader) Phone(field string, required bool) string {
	value := f.Optional(field)
	if value == "" {
		if required {
			f.fail(field, "is required")
		}
		return ""
	}
	normalized, err := NormalizePhone(value, DefaultPhoneRegion)
	if err != nil {
		f.fail(field, "must be a valid phone number")
		return value
	}
	return normalized
}

// Err returns FieldErrors when any field failed, otherwise nil.
func (f *FormReader) Err() error {
	if len(f.errs) == 0 {
		return nil
	}
	out := make(FieldErrors, len(f.errs))
	copy(out, f.errs)
	return out
}

func ParseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// NormalizePhone parses raw in defaultRegion and formats it as E.164.
func NormalizePhone(raw, defaultRegion string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(raw), defaultRegion)
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", phonenumbers.ErrNotANumber
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
