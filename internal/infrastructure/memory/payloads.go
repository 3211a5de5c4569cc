package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/signal-otp-api/internal/domain"
	"github.com/signal-otp-api/internal/pkg/clock"
	"github.com/signal-otp-api/internal/pkg/id"
	"go.uber.org/zap"
)

// PayloadRepo keeps received payloads in memory.
type PayloadRepo struct {
	mu       sync.RWMutex
	payloads map[string]*domain.Payload
	clock    clock.Clock
	logger   *zap.Logger
}

func NewPayloadRepo(clk clock.Clock, logger *zap.Logger) *PayloadRepo {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayloadRepo{payloads: make(map[string]*domain.Payload), clock: clk, logger: logger}
}

// Store saves data and returns its new id.
func (r *PayloadRepo) Store(data map[string]interface{}, source string) string {
	p := &domain.Payload{
		ID:         id.Prefixed("payload"),
		Data:       data,
		ReceivedAt: r.clock.Now().UTC(),
		Source:     source,
	}
	r.mu.Lock()
	r.payloads[p.ID] = p
	r.mu.Unlock()

	r.logger.Info("payload stored", zap.String("payload_id", p.ID), zap.String("source", source), zap.Int("keys", len(data)))
	return p.ID
}

func (r *PayloadRepo) Get(payloadID string) (*domain.Payload, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payloads[payloadID]
	if !ok {
		return nil, fmt.Errorf("payload %s: %w", payloadID, domain.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

// List returns payloads newest first.
func (r *PayloadRepo) List(unprocessedOnly bool) []domain.Payload {
	r.mu.RLock()
	out := make([]domain.Payload, 0, len(r.payloads))
	for _, p := range r.payloads {
		if unprocessedOnly && p.Processed {
			continue
		}
		out = append(out, *p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].ReceivedAt.After(out[j].ReceivedAt)
	})
	return out
}

func (r *PayloadRepo) MarkProcessed(payloadID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payloads[payloadID]
	if !ok {
		return fmt.Errorf("payload %s: %w", payloadID, domain.ErrNotFound)
	}
	p.Processed = true
	return nil
}

func (r *PayloadRepo) Delete(payloadID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.payloads[payloadID]
	delete(r.payloads, payloadID)
	return ok
}

func (r *PayloadRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.payloads)
}

func (r *PayloadRepo) UnprocessedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, p := range r.payloads {
		if !p.Processed {
			n++
		}
	}
	return n
}

// CleanupOlderThan removes payloads received before now-maxAge.
func (r *PayloadRepo) CleanupOlderThan(maxAge time.Duration) int {
	cutoff := r.clock.Now().Add(-maxAge)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for pid, p := range r.payloads {
		if p.ReceivedAt.Before(cutoff) {
			delete(r.payloads, pid)
			n++
		}
	}
	return n
}

// OldCount reports how many payloads CleanupOlderThan would remove.
func (r *PayloadRepo) OldCount(maxAge time.Duration) int {
	cutoff := r.clock.Now().Add(-maxAge)
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, p := range r.payloads {
		if p.ReceivedAt.Before(cutoff) {
			n++
		}
	}
	return n
}
