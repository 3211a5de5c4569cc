package phone

import (
	"testing"

	"github.com/signal-otp-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct{ input, want string }{
		{"2025550123", "+12025550123"},
		{"12025550123", "+12025550123"},
		{"+12025550123", "+12025550123"},
		{"(202) 555-0123", "+12025550123"},
		{"1 (202) 555-0123", "+12025550123"},
		{"+44 20 7946 0958", "+442079460958"},
		{"+11234556777", "+11234556777"},
	}
	for _, c := range cases {
		got, err := Normalize(c.input)
		require.NoError(t, err, "input: %q", c.input)
		assert.Equal(t, c.want, got, "input: %q", c.input)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, id := range []string{"+12025550123", "+19998887777", "+442079460958"} {
		got, err := Normalize(id)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestNormalize_Invalid(t *testing.T) {
	for _, in := range []string{"", "555", "abc", "+1 555", "123456789"} {
		_, err := Normalize(in)
		assert.ErrorIs(t, err, domain.ErrInvalidPhone, "input: %q", in)
	}
}

func TestNormalize_PlusFormPreservedButRejectedByValidity(t *testing.T) {
	id, err := Normalize("+++123456789")
	require.NoError(t, err)
	assert.Equal(t, "+++123456789", id)
	assert.False(t, IsValid(id))

	_, err = Canonical("+++123456789")
	assert.ErrorIs(t, err, domain.ErrInvalidPhone)
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("+12025550123"))
	assert.True(t, IsValid("+12"))
	assert.False(t, IsValid("+02025550123"))
	assert.False(t, IsValid("12025550123"))
	assert.False(t, IsValid("+1234567890123456"))
}

func TestCanonical_RejectsOverlongNumbers(t *testing.T) {
	_, err := Canonical("1234567890123456")
	assert.ErrorIs(t, err, domain.ErrInvalidPhone)
}
