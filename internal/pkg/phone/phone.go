// Package phone canonicalises free-form phone number input into E.164 identities.
package phone

import (
	"regexp"
	"strings"

	"github.com/signal-otp-api/internal/domain"
)

var e164 = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// Normalize strips formatting from input and returns a "+<digits>" identity.
// Ten-digit input is treated as a US number. It returns domain.ErrInvalidPhone
// when no rule applies.
func Normalize(input string) (string, error) {
	if input == "" {
		return "", domain.ErrInvalidPhone
	}
	digits := keep(input, false)

	switch {
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits, nil
	case len(digits) == 10:
		return "+1" + digits, nil
	case len(digits) > 10:
		return "+" + digits, nil
	}

	if strings.Contains(input, "+") {
		withPlus := keep(input, true)
		if strings.HasPrefix(withPlus, "+") && len(withPlus) > 10 {
			return withPlus, nil
		}
	}
	return "", domain.ErrInvalidPhone
}

// IsValid reports whether s is a well-formed E.164 identity.
func IsValid(s string) bool {
	return e164.MatchString(s)
}

// Canonical runs Normalize then IsValid; both must accept the input.
func Canonical(input string) (string, error) {
	id, err := Normalize(input)
	if err != nil {
		return "", err
	}
	if !IsValid(id) {
		return "", domain.ErrInvalidPhone
	}
	return id, nil
}

func keep(s string, plus bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || (plus && r == '+') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
