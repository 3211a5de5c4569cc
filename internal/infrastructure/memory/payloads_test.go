package memory

import (
	"testing"
	"time"

	"github.com/signal-otp-api/internal/domain"
	"github.com/signal-otp-api/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPayloadRepo_StoreGetMark(t *testing.T) {
	r := NewPayloadRepo(clock.NewFake(time.Now()), zap.NewNop())
	pid := r.Store(map[string]interface{}{"k": "v"}, "mobile-app")

	p, err := r.Get(pid)
	require.NoError(t, err)
	assert.Equal(t, "mobile-app", p.Source)
	assert.False(t, p.Processed)
	assert.Equal(t, 1, r.UnprocessedCount())

	require.NoError(t, r.MarkProcessed(pid))
	p, err = r.Get(pid)
	require.NoError(t, err)
	assert.True(t, p.Processed)
	assert.Equal(t, 0, r.UnprocessedCount())
}

func TestPayloadRepo_MissingIsNotFound(t *testing.T) {
	r := NewPayloadRepo(nil, zap.NewNop())
	_, err := r.Get("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, r.MarkProcessed("nope"), domain.ErrNotFound)
	assert.False(t, r.Delete("nope"))
}

func TestPayloadRepo_ListNewestFirst(t *testing.T) {
	clk := clock.NewFake(time.Now())
	r := NewPayloadRepo(clk, zap.NewNop())
	first := r.Store(map[string]interface{}{"n": 1}, "a")
	clk.Advance(time.Second)
	second := r.Store(map[string]interface{}{"n": 2}, "a")
	clk.Advance(time.Second)
	third := r.Store(map[string]interface{}{"n": 3}, "a")
	require.NoError(t, r.MarkProcessed(second))

	all := r.List(false)
	require.Len(t, all, 3)
	assert.Equal(t, []string{third, second, first}, []string{all[0].ID, all[1].ID, all[2].ID})

	pending := r.List(true)
	require.Len(t, pending, 2)
	assert.Equal(t, third, pending[0].ID)
	assert.Equal(t, first, pending[1].ID)
}

func TestPayloadRepo_Cleanup(t *testing.T) {
	clk := clock.NewFake(time.Now())
	r := NewPayloadRepo(clk, zap.NewNop())
	r.Store(map[string]interface{}{}, "a")
	clk.Advance(8 * 24 * time.Hour)
	keep := r.Store(map[string]interface{}{}, "a")

	assert.Equal(t, 1, r.OldCount(7*24*time.Hour))
	assert.Equal(t, 1, r.CleanupOlderThan(7*24*time.Hour))
	assert.Equal(t, 1, r.Count())
	_, err := r.Get(keep)
	assert.NoError(t, err)
}
