package memory

import (
	"sync"
	"time"

	"github.com/signal-otp-api/internal/domain"
	"github.com/signal-otp-api/internal/pkg/clock"
	"github.com/signal-otp-api/internal/pkg/id"
)

// ring is a bounded newest-first list.
type ring[T any] struct {
	mu       sync.RWMutex
	items    []T
	capacity int
}

func (r *ring[T]) push(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append([]T{v}, r.items...)
	if r.capacity > 0 && len(r.items) > r.capacity {
		r.items = r.items[:r.capacity]
	}
}

func (r *ring[T]) recent(limit int) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 || limit > len(r.items) {
		limit = len(r.items)
	}
	out := make([]T, limit)
	copy(out, r.items[:limit])
	return out
}

func (r *ring[T]) count(keep func(T) bool) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if keep == nil {
		return len(r.items)
	}
	n := 0
	for _, v := range r.items {
		if keep(v) {
			n++
		}
	}
	return n
}

// removeIf drops items matching drop and returns how many were removed.
func (r *ring[T]) removeIf(drop func(T) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	for _, v := range r.items {
		if !drop(v) {
			kept = append(kept, v)
		}
	}
	removed := len(r.items) - len(kept)
	r.items = kept
	return removed
}

// ActivityLog records inbound API calls.
type ActivityLog struct {
	ring  ring[domain.Activity]
	clock clock.Clock
}

func NewActivityLog(capacity int, clk clock.Clock) *ActivityLog {
	if clk == nil {
		clk = clock.Real{}
	}
	return &ActivityLog{ring: ring[domain.Activity]{capacity: capacity}, clock: clk}
}

// Record stamps a and stores it, returning its id.
func (l *ActivityLog) Record(a domain.Activity) string {
	a.ID = id.Prefixed("activity")
	a.Timestamp = l.clock.Now().UTC()
	l.ring.push(a)
	return a.ID
}

func (l *ActivityLog) Recent(limit int) []domain.Activity { return l.ring.recent(limit) }

func (l *ActivityLog) Count() int { return l.ring.count(nil) }

func (l *ActivityLog) CleanupOlderThan(maxAge time.Duration) int {
	cutoff := l.clock.Now().Add(-maxAge)
	return l.ring.removeIf(func(a domain.Activity) bool { return a.Timestamp.Before(cutoff) })
}

func (l *ActivityLog) OldCount(maxAge time.Duration) int {
	cutoff := l.clock.Now().Add(-maxAge)
	return l.ring.count(func(a domain.Activity) bool { return a.Timestamp.Before(cutoff) })
}

// OutboundLog records calls made to external URLs.
type OutboundLog struct {
	ring  ring[domain.OutboundActivity]
	clock clock.Clock
}

func NewOutboundLog(capacity int, clk clock.Clock) *OutboundLog {
	if clk == nil {
		clk = clock.Real{}
	}
	return &OutboundLog{ring: ring[domain.OutboundActivity]{capacity: capacity}, clock: clk}
}

func (l *OutboundLog) Record(a domain.OutboundActivity) string {
	a.ID = id.Prefixed("outbound")
	a.Timestamp = l.clock.Now().UTC()
	l.ring.push(a)
	return a.ID
}

func (l *OutboundLog) Recent(limit int) []domain.OutboundActivity { return l.ring.recent(limit) }

func (l *OutboundLog) Count() int { return l.ring.count(nil) }

func (l *OutboundLog) SuccessCount() int {
	return l.ring.count(func(a domain.OutboundActivity) bool { return a.Success })
}

func (l *OutboundLog) FailureCount() int {
	return l.ring.count(func(a domain.OutboundActivity) bool { return !a.Success })
}

// RecentCount counts activities within the last window.
func (l *OutboundLog) RecentCount(window time.Duration) int {
	cutoff := l.clock.Now().Add(-window)
	return l.ring.count(func(a domain.OutboundActivity) bool { return a.Timestamp.After(cutoff) })
}

func (l *OutboundLog) CleanupOlderThan(maxAge time.Duration) int {
	cutoff := l.clock.Now().Add(-maxAge)
	return l.ring.removeIf(func(a domain.OutboundActivity) bool { return a.Timestamp.Before(cutoff) })
}
