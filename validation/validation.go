// Package validation collects field-level violations for form-like input.
// A Violations value maps a field name to the human readable message shown
// next to that field.
package validation

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records msg for field unless the field already has a violation, so the
// first failing rule wins.
func (v Violations) Add(field, msg string) {
	if _, ok := v[field]; !ok {
		v[field] = msg
	}
}

// Fields returns the violated field names in a stable order.
func (v Violations) Fields() []string {
	out := make([]string, 0, len(v))
	for f := range v {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// First returns the message of the first violated field in Fields order.
func (v Violations) First() string {
	fields := v.Fields()
	if len(fields) == 0 {
		return ""
	}
	return v[fields[0]]
}

var (
	emailShape = regexp.MustCompile(`\S+@\S+\.\S+`)
	sixDigits  = regexp.MustCompile(`^[0-9]{6}$`)
)

// IsEmail reports whether s has the loose "x@y.z" shape accepted by the forms.
func IsEmail(s string) bool { return emailShape.MatchString(s) }

// Basic validators
func Required(field, value, msg string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, msg)
	}
}

// Email requires a valid address when value is non-empty; pair with Required
// for mandatory fields.
func Email(field, value, msg string, v Violations) {
	if value != "" && !IsEmail(value) {
		v.Add(field, msg)
	}
}

func OneOf(field, value, msg string, allowed []string, v Violations) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.Add(field, msg)
}

func MinLength(field, value string, n int, msg string, v Violations) {
	if utf8.RuneCountInString(value) < n {
		v.Add(field, msg)
	}
}

func LengthBetween(field, value string, minLen, maxLen int, msg string, v Violations) {
	n := utf8.RuneCountInString(value)
	if n < minLen || n > maxLen {
		v.Add(field, msg)
	}
}

func Equal(field, a, b, msg string, v Violations) {
	if a != b {
		v.Add(field, msg)
	}
}

// SixDigitCode requires exactly six ASCII digits.
func SixDigitCode(field, value, msg string, v Violations) {
	if !sixDigits.MatchString(value) {
		v.Add(field, msg)
	}
}

func NonNegativeFloat(field string, val float64, v Violations) {
	if val < 0 || val != val {
		v.Add(field, "must_be_non_negative")
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v.Add(field, "out_of_range")
	}
}

// SanitizeOTP keeps the digits of s, at most six of them, the way the code
// inputs behave while typing.
func SanitizeOTP(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == 6 {
				break
			}
		}
	}
	return b.String()
}
