package memory

import (
	"fmt"
	"sync"

	"github.com/signal-otp-api/internal/domain"
	"github.com/signal-otp-api/internal/pkg/clock"
)

// SessionRepo keeps admin sessions in memory.
type SessionRepo struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	clock    clock.Clock
}

func NewSessionRepo(clk clock.Clock) *SessionRepo {
	if clk == nil {
		clk = clock.Real{}
	}
	return &SessionRepo{sessions: make(map[string]domain.Session), clock: clk}
}

func (r *SessionRepo) Put(s domain.Session) {
	r.mu.Lock()
	r.sessions[s.SessionID] = s
	r.mu.Unlock()
}

// Get returns a live session. Expired sessions are removed on read.
func (r *SessionRepo) Get(sessionID string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session: %w", domain.ErrNotFound)
	}
	if r.clock.Now().After(s.ExpiresAt) {
		delete(r.sessions, sessionID)
		return nil, fmt.Errorf("session expired: %w", domain.ErrUnauthorized)
	}
	return &s, nil
}

func (r *SessionRepo) Delete(sessionID string) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
}

// PurgeExpired drops sessions whose expiry has passed.
func (r *SessionRepo) PurgeExpired() int {
	now := r.clock.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for sid, s := range r.sessions {
		if now.After(s.ExpiresAt) {
			delete(r.sessions, sid)
			n++
		}
	}
	return n
}
