package jwtinfra

import (
	"testing"
	"time"

	"github.com/signal-otp-api/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_SignVerify(t *testing.T) {
	p, err := NewProvider("secret", time.Hour, nil)
	require.NoError(t, err)

	tok, err := p.Sign("admin", "S1")
	require.NoError(t, err)

	claims, err := p.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.UserID)
	assert.Equal(t, "S1", claims.SessionID)
}

func TestProvider_RejectsForeignKey(t *testing.T) {
	a, _ := NewProvider("secret-a", time.Hour, nil)
	b, _ := NewProvider("secret-b", time.Hour, nil)

	tok, err := a.Sign("admin", "S1")
	require.NoError(t, err)

	_, err = b.Verify(tok)
	assert.Error(t, err)
}

func TestProvider_Expired(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	p, _ := NewProvider("secret", time.Minute, clk)

	tok, err := p.Sign("admin", "S1")
	require.NoError(t, err)

	clk.Advance(2 * time.Minute)
	_, err = p.Verify(tok)
	assert.Error(t, err)
}

func TestNewProvider_EmptySecret(t *testing.T) {
	_, err := NewProvider("", time.Hour, nil)
	assert.Error(t, err)
}

func TestNewSecret(t *testing.T) {
	a, err := NewSecret()
	require.NoError(t, err)
	b, err := NewSecret()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)

	_, err = NewProvider(a, time.Minute, nil)
	assert.NoError(t, err)
}
