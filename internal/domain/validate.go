package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"

	goa "goa.design/goa/v3/pkg"

	apperrors "lumenai/pkg/errors"
)

var (
	// EmailPattern is the address format accepted on every public form.
	EmailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)
	// PhonePattern accepts an optional leading plus followed by digits and common separators.
	PhonePattern = regexp.MustCompile(`^\+?\d[\d\s\-()]{6,19}$`)
)

// validator collects field errors using goa's validation error constructors,
// mirroring what goa-generated payload validators produce.
type validator struct {
	details []apperrors.FieldError
}

func (v *validator) add(field string, err error) {
	if err == nil {
		return
	}
	v.details = append(v.details, apperrors.FieldError{Field: field, Message: err.Error()})
}

// text checks a required string for presence and length bounds (in runes).
func (v *validator) text(field, value string, min, max int) {
	if value == "" && min > 0 {
		v.add(field, goa.MissingFieldError(field, "body"))
		return
	}
	v.length(field, value, min, max)
}

// optional checks only the upper bound of a string that may be empty.
func (v *validator) optional(field, value string, max int) {
	if value == "" {
		return
	}
	v.length(field, value, 0, max)
}

func (v *validator) length(field, value string, min, max int) {
	n := utf8.RuneCountInString(value)
	if n < min {
		v.add(field, goa.InvalidLengthError(field, value, n, min, true))
	}
	if max > 0 && n > max {
		v.add(field, goa.InvalidLengthError(field, value, n, max, false))
	}
}

func (v *validator) pattern(field, value string, re *regexp.Regexp) {
	if value == "" {
		v.add(field, goa.MissingFieldError(field, "body"))
		return
	}
	if !re.MatchString(value) {
		v.add(field, goa.InvalidPatternError(field, value, re.String()))
	}
}

func (v *validator) rangeInt(field string, value, min, max int) {
	if value < min {
		v.add(field, goa.InvalidRangeError(field, value, min, true))
	}
	if value > max {
		v.add(field, goa.InvalidRangeError(field, value, max, false))
	}
}

func (v *validator) enum(field string, value any, allowed []any) {
	v.add(field, goa.InvalidEnumValueError(field, value, allowed))
}

func (v *validator) custom(field, message string) {
	v.details = append(v.details, apperrors.FieldError{Field: field, Message: message})
}

// result returns nil when every check passed.
func (v *validator) result(message string) error {
	if len(v.details) == 0 {
		return nil
	}
	return apperrors.Validation(message, v.details...)
}

// url checks an optional absolute URL.
func (v *validator) url(field, value string) {
	if value == "" {
		return
	}
	v.add(field, goa.ValidateFormat(field, value, goa.FormatURI))
}

// cleanText trims a submitted value. Content is stored as sent; markup is
// escaped where it is rendered.
func cleanText(s string) string {
	return strings.TrimSpace(s)
}
