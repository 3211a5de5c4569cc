package memory

import (
	"testing"
	"time"

	"github.com/signal-otp-api/internal/domain"
	"github.com/signal-otp-api/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepo_Lifecycle(t *testing.T) {
	clk := clock.NewFake(time.Now())
	r := NewSessionRepo(clk)
	r.Put(domain.Session{SessionID: "s1", UserID: "admin", CreatedAt: clk.Now(), ExpiresAt: clk.Now().Add(time.Hour)})

	s, err := r.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "admin", s.UserID)

	clk.Advance(2 * time.Hour)
	_, err = r.Get("s1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = r.Get("s1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionRepo_DeleteAndPurge(t *testing.T) {
	clk := clock.NewFake(time.Now())
	r := NewSessionRepo(clk)
	r.Put(domain.Session{SessionID: "a", ExpiresAt: clk.Now().Add(time.Minute)})
	r.Put(domain.Session{SessionID: "b", ExpiresAt: clk.Now().Add(time.Hour)})

	r.Delete("b")
	_, err := r.Get("b")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	clk.Advance(2 * time.Minute)
	assert.Equal(t, 1, r.PurgeExpired())
}
