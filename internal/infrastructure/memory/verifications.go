package memory

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/signal-otp-api/internal/domain"
	"github.com/signal-otp-api/internal/pkg/clock"
	"github.com/signal-otp-api/internal/worker"
	"go.uber.org/zap"
)

const otpShardCount = 32

// OTPStoreOptions configures an OTPStore.
type OTPStoreOptions struct {
	TTL           time.Duration
	MaxAttempts   int
	GraceDelay    time.Duration // how long a verified entry lingers to block replay
	SweepInterval time.Duration
	Clock         clock.Clock
	Logger        *zap.Logger
	OnPurge       func(n int) // optional, called after every background sweep
}

type otpSlot struct {
	entry domain.OTPEntry
	gen   uint64
}

type otpShard struct {
	mu      sync.Mutex
	entries map[string]otpSlot
	nextGen uint64
}

// OTPStore keeps at most one entry per phone identity. Identities are spread over
// shards so operations on different phones never contend on the same lock, while
// every operation on one identity is serialised by its shard mutex.
type OTPStore struct {
	shards      [otpShardCount]*otpShard
	ttl         time.Duration
	maxAttempts int
	grace       time.Duration
	clock       clock.Clock
	logger      *zap.Logger
	onPurge     func(int)
	janitor     *worker.Janitor

	timersMu sync.Mutex
	timers   map[*time.Timer]struct{}
}

// NewOTPStore builds a store. The background sweep does not run until Start.
func NewOTPStore(opts OTPStoreOptions) *OTPStore {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.GraceDelay <= 0 {
		opts.GraceDelay = 30 * time.Second
	}
	s := &OTPStore{
		ttl:         opts.TTL,
		maxAttempts: opts.MaxAttempts,
		grace:       opts.GraceDelay,
		clock:       opts.Clock,
		logger:      opts.Logger,
		onPurge:     opts.OnPurge,
		timers:      make(map[*time.Timer]struct{}),
	}
	for i := range s.shards {
		s.shards[i] = &otpShard{entries: make(map[string]otpSlot)}
	}
	s.janitor = worker.NewJanitor("otp-purge", opts.SweepInterval, s.sweep, opts.Logger)
	return s
}

// TTL is the validity window of new entries.
func (s *OTPStore) TTL() time.Duration { return s.ttl }

// MaxAttempts is the number of verification attempts allowed per entry.
func (s *OTPStore) MaxAttempts() int { return s.maxAttempts }

// Start launches the periodic purge.
func (s *OTPStore) Start() { s.janitor.Start() }

// Stop halts the periodic purge and cancels pending post-verification deletions.
func (s *OTPStore) Stop() {
	s.janitor.Stop()
	s.timersMu.Lock()
	for t := range s.timers {
		t.Stop()
	}
	s.timers = make(map[*time.Timer]struct{})
	s.timersMu.Unlock()
}

func (s *OTPStore) shard(identity string) *otpShard {
	return s.shards[xxhash.Sum64String(identity)%otpShardCount]
}

// Create installs a fresh ACTIVE entry, replacing any previous one for identity.
func (s *OTPStore) Create(identity, code string) {
	sh := s.shard(identity)
	sh.mu.Lock()
	sh.nextGen++
	sh.entries[identity] = otpSlot{
		entry: domain.NewOTPEntry(identity, code, s.clock.Now(), s.ttl),
		gen:   sh.nextGen,
	}
	sh.mu.Unlock()

	s.logger.Info("otp stored", zap.String("phone", identity), zap.Duration("ttl", s.ttl))
}

// Verify runs one verification attempt for identity.
func (s *OTPStore) Verify(identity, supplied string) domain.VerificationOutcome {
	sh := s.shard(identity)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	slot, ok := sh.entries[identity]
	if !ok {
		return domain.NotFoundOutcome()
	}

	next, outcome := slot.entry.Verify(s.clock.Now(), supplied, s.maxAttempts)
	switch next.State {
	case domain.OTPExpired, domain.OTPExhausted:
		delete(sh.entries, identity)
	default:
		sh.entries[identity] = otpSlot{entry: next, gen: slot.gen}
	}

	if outcome.Outcome == domain.OutcomeSuccess {
		s.scheduleDelete(identity, slot.gen)
	}
	s.logger.Info("otp verification",
		zap.String("phone", identity),
		zap.String("outcome", string(outcome.Outcome)),
		zap.Int("attempts", next.Attempts),
	)
	return outcome
}

// scheduleDelete removes identity after the grace delay, unless the entry was
// replaced in the meantime.
func (s *OTPStore) scheduleDelete(identity string, gen uint64) {
	var t *time.Timer
	s.timersMu.Lock()
	t = time.AfterFunc(s.grace, func() {
		sh := s.shard(identity)
		sh.mu.Lock()
		if slot, ok := sh.entries[identity]; ok && slot.gen == gen {
			delete(sh.entries, identity)
		}
		sh.mu.Unlock()

		s.timersMu.Lock()
		delete(s.timers, t)
		s.timersMu.Unlock()
	})
	s.timers[t] = struct{}{}
	s.timersMu.Unlock()
}

// PurgeExpired removes every entry past its expiry and returns how many were removed.
func (s *OTPStore) PurgeExpired() int {
	now := s.clock.Now()
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, slot := range sh.entries {
			if slot.entry.IsExpiredAt(now) {
				delete(sh.entries, id)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

func (s *OTPStore) sweep() int {
	n := s.PurgeExpired()
	if s.onPurge != nil {
		s.onPurge(n)
	}
	return n
}

// Stats classifies live entries at call time.
func (s *OTPStore) Stats() domain.OTPStats {
	now := s.clock.Now()
	var st domain.OTPStats
	for _, sh := range s.shards {
		sh.mu.Lock()
		for _, slot := range sh.entries {
			st.Total++
			switch slot.entry.StateAt(now) {
			case domain.OTPVerified:
				st.Verified++
			case domain.OTPExpired:
				st.Expired++
			default:
				st.Active++
			}
		}
		sh.mu.Unlock()
	}
	return st
}

// Status returns a code-free snapshot of the entry for identity.
func (s *OTPStore) Status(identity string) domain.OTPStatus {
	sh := s.shard(identity)
	sh.mu.Lock()
	slot, ok := sh.entries[identity]
	sh.mu.Unlock()
	if !ok {
		return domain.OTPStatus{}
	}

	now := s.clock.Now()
	e := slot.entry
	remaining := s.maxAttempts - e.Attempts
	if remaining < 0 {
		remaining = 0
	}
	created, expires := e.CreatedAt, e.ExpiresAt
	return domain.OTPStatus{
		Exists:            true,
		State:             e.StateAt(now),
		Attempts:          e.Attempts,
		RemainingAttempts: remaining,
		TimeRemaining:     domain.SecondsUntil(now, e.ExpiresAt),
		CreatedAt:         &created,
		ExpiresAt:         &expires,
	}
}
