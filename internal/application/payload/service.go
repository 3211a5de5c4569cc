package payload

import (
	"context"
	"time"

	"github.com/signal-otp-api/internal/domain"
	"github.com/signal-otp-api/internal/infrastructure/forwarder"
	"github.com/signal-otp-api/internal/pkg/clock"
	"go.uber.org/zap"
)

// Store is the payload persistence the service needs.
type Store interface {
	Store(data map[string]interface{}, source string) string
	Get(payloadID string) (*domain.Payload, error)
	List(unprocessedOnly bool) []domain.Payload
	MarkProcessed(payloadID string) error
	Count() int
	UnprocessedCount() int
	CleanupOlderThan(maxAge time.Duration) int
	OldCount(maxAge time.Duration) int
}

// ActivitySource exposes inbound activity history.
type ActivitySource interface {
	Recent(limit int) []domain.Activity
	Count() int
	CleanupOlderThan(maxAge time.Duration) int
	OldCount(maxAge time.Duration) int
}

// OutboundSource exposes outbound activity history.
type OutboundSource interface {
	Recent(limit int) []domain.OutboundActivity
	Count() int
	SuccessCount() int
	FailureCount() int
	RecentCount(window time.Duration) int
	CleanupOlderThan(maxAge time.Duration) int
}

// UsageSource summarises served requests.
type UsageSource interface {
	Stats() domain.UsageStats
}

// Dispatcher runs the Signal Post rule on incoming payloads.
type Dispatcher interface {
	MaybeDispatch(ctx context.Context, payload map[string]interface{}, source string) domain.DispatchResult
}

// Transport delivers payloads to external URLs.
type Transport interface {
	Wait(ctx context.Context) error
	Send(ctx context.Context, req forwarder.Request) (*forwarder.Response, error)
	Fetch(ctx context.Context, url string) (interface{}, error)
}

// Options tunes retention reporting and cleanup.
type Options struct {
	MaxAge                  time.Duration
	PayloadCleanupInterval  time.Duration
	ActivityCleanupInterval time.Duration
}

type Service interface {
	Ingest(ctx context.Context, data map[string]interface{}, source string) IngestResult
	// Dispatch runs the Signal Post rule without storing the payload.
	Dispatch(ctx context.Context, data map[string]interface{}, source string) domain.DispatchResult
	List(unprocessedOnly bool, limit int) ListResult
	Get(payloadID string) (*domain.Payload, error)
	Summary() Summary

	Forward(ctx context.Context, req ForwardRequest) (*ForwardResult, error)
	AutoForward(ctx context.Context, req AutoForwardRequest) (*AutoForwardResult, error)
	Fetch(ctx context.Context, url string) (interface{}, error)

	CleanupStats() CleanupStats
	Cleanup(req CleanupRequest) CleanupResult

	Activities(limit int) ActivityReport
	OutboundActivities(limit int) OutboundReport
	Usage() domain.UsageStats
	Storage() StorageStats
}

// IngestResult describes a stored payload and what the dispatch rule did.
type IngestResult struct {
	PayloadID string
	StoredAt  time.Time
	Keys      []string
	Dispatch  domain.DispatchResult
}

// ListResult is one page of payloads.
type ListResult struct {
	Payloads         []domain.Payload `json:"payloads"`
	Total            int              `json:"total"`
	Showing          int              `json:"showing"`
	UnprocessedCount int              `json:"unprocessedCount"`
}

// Summary counts stored payloads.
type Summary struct {
	Stored      int `json:"storedPayloads"`
	Unprocessed int `json:"unprocessedPayloads"`
}

type service struct {
	payloads   Store
	activities ActivitySource
	outbound   OutboundSource
	usage      UsageSource
	dispatcher Dispatcher
	transport  Transport
	opts       Options
	clock      clock.Clock
	logger     *zap.Logger
}

func NewService(
	payloads Store,
	activities ActivitySource,
	outbound OutboundSource,
	usage UsageSource,
	dispatcher Dispatcher,
	transport Transport,
	opts Options,
	clk clock.Clock,
	logger *zap.Logger,
) Service {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		payloads:   payloads,
		activities: activities,
		outbound:   outbound,
		usage:      usage,
		dispatcher: dispatcher,
		transport:  transport,
		opts:       opts,
		clock:      clk,
		logger:     logger,
	}
}

func (s *service) Ingest(ctx context.Context, data map[string]interface{}, source string) IngestResult {
	payloadID := s.payloads.Store(data, source)
	res := s.dispatcher.MaybeDispatch(ctx, data, source)

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	return IngestResult{
		PayloadID: payloadID,
		StoredAt:  s.clock.Now().UTC(),
		Keys:      keys,
		Dispatch:  res,
	}
}

func (s *service) Dispatch(ctx context.Context, data map[string]interface{}, source string) domain.DispatchResult {
	return s.dispatcher.MaybeDispatch(ctx, data, source)
}

func (s *service) List(unprocessedOnly bool, limit int) ListResult {
	all := s.payloads.List(unprocessedOnly)
	shown := all
	if limit >= 0 && limit < len(all) {
		shown = all[:limit]
	}
	return ListResult{
		Payloads:         shown,
		Total:            len(all),
		Showing:          len(shown),
		UnprocessedCount: s.payloads.UnprocessedCount(),
	}
}

func (s *service) Get(payloadID string) (*domain.Payload, error) {
	return s.payloads.Get(payloadID)
}

func (s *service) Summary() Summary {
	return Summary{Stored: s.payloads.Count(), Unprocessed: s.payloads.UnprocessedCount()}
}
