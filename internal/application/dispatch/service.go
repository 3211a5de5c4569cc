package dispatch

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/signal-otp-api/internal/domain"
	"github.com/signal-otp-api/internal/infrastructure/metrics"
	"github.com/signal-otp-api/internal/pkg/phone"
	"go.uber.org/zap"
)

// Code space is [codeMin, codeMin+codeSpan): five digits, no leading zero.
const (
	codeMin  = 10000
	codeSpan = 90000
)

// OTPIssuer installs a fresh code for an identity.
type OTPIssuer interface {
	Create(identity, code string)
	TTL() time.Duration
}

// Sender delivers an issued code. The response is opaque provider output kept
// for diagnostics.
type Sender interface {
	Send(ctx context.Context, identity, code string, trigger map[string]interface{}) (interface{}, error)
}

// ActivityRecorder logs internal processing steps next to inbound calls.
type ActivityRecorder interface {
	Record(a domain.Activity) string
}

type Service interface {
	// MaybeDispatch inspects payload and, when it carries the Signal Post
	// discriminator, issues and sends a code. Other payloads are untouched.
	MaybeDispatch(ctx context.Context, payload map[string]interface{}, source string) domain.DispatchResult
}

type service struct {
	store      OTPIssuer
	sender     Sender
	activities ActivityRecorder
	metrics    *metrics.Metrics
	logger     *zap.Logger
	generate   func() (string, error)
}

func NewService(store OTPIssuer, sender Sender, activities ActivityRecorder, m *metrics.Metrics, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		store:      store,
		sender:     sender,
		activities: activities,
		metrics:    m,
		logger:     logger,
		generate:   GenerateCode,
	}
}

func (s *service) MaybeDispatch(ctx context.Context, payload map[string]interface{}, source string) domain.DispatchResult {
	if v, ok := payload[domain.DiscriminatorField].(string); !ok || v != domain.SignalPostAppID {
		return domain.DispatchResult{}
	}

	raw := phoneValue(payload[domain.PhoneField])
	if raw == "" {
		s.metrics.Dispatch("rejected")
		return rejected("Missing phone_number in payload")
	}
	identity, err := phone.Canonical(raw)
	if err != nil {
		s.metrics.Dispatch("rejected")
		s.logger.Info("signal post rejected", zap.String("source", source), zap.String("phone", raw))
		return rejected(fmt.Sprintf("Invalid phone number format: %s", raw))
	}

	code, err := s.generate()
	if err != nil {
		s.metrics.Dispatch("error")
		s.logger.Error("generate code", zap.Error(err))
		return rejected("Failed to generate signal code")
	}

	s.store.Create(identity, code)

	details := &domain.DispatchDetails{
		OriginalPhone:             raw,
		E164Phone:                 identity,
		CodeMarker:                mask(code),
		OTPStored:                 true,
		OTPExpiresIn:              humanDuration(s.store.TTL()),
		OriginalPayloadSignalCode: originalSignalCode(payload),
	}
	s.recordProcessing(details, source)
	s.logger.Info("otp issued",
		zap.String("source", source),
		zap.String("phone", identity),
		zap.String("code", details.CodeMarker),
	)

	resp, err := s.sender.Send(ctx, identity, code, payload)
	details.ProviderResponse = resp
	result := domain.DispatchResult{
		Triggered: true,
		Action:    domain.ActionSignalPost,
		Success:   err == nil,
		Details:   details,
	}
	if err != nil {
		details.ProviderError = err.Error()
		result.Error = err.Error()
		s.metrics.Dispatch("send_failed")
		s.logger.Warn("notification failed, code stays valid", zap.String("phone", identity), zap.Error(err))
		return result
	}
	s.metrics.Dispatch("sent")
	return result
}

func (s *service) recordProcessing(d *domain.DispatchDetails, source string) {
	if s.activities == nil {
		return
	}
	s.activities.Record(domain.Activity{
		Method:   "PROCESS",
		Endpoint: "/internal/signal-post-processor",
		Payload: map[string]interface{}{
			"originalPhone":             d.OriginalPhone,
			"e164Phone":                 d.E164Phone,
			"generatedSignalCode":       d.CodeMarker,
			"otpStored":                 d.OTPStored,
			"originalPayloadSignalCode": d.OriginalPayloadSignalCode,
			"source":                    source,
		},
	})
}

// GenerateCode draws a uniform five-digit code from crypto/rand.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}

func rejected(msg string) domain.DispatchResult {
	return domain.DispatchResult{
		Triggered: true,
		Action:    domain.ActionSignalPost,
		Success:   false,
		Error:     msg,
	}
}

// phoneValue accepts strings and JSON numbers.
func phoneValue(v interface{}) string {
	switch p := v.(type) {
	case string:
		return p
	case float64:
		return strconv.FormatFloat(p, 'f', -1, 64)
	default:
		return ""
	}
}

func originalSignalCode(payload map[string]interface{}) string {
	for _, key := range []string{"signalcode", "signal_code"} {
		if v, ok := payload[key]; ok && v != nil && v != "" {
			return fmt.Sprint(v)
		}
	}
	return "none"
}

func mask(code string) string {
	return strings.Repeat("*", len(code))
}

func humanDuration(d time.Duration) string {
	if d > 0 && d%time.Minute == 0 {
		if m := int(d / time.Minute); m != 1 {
			return fmt.Sprintf("%d minutes", m)
		}
		return "1 minute"
	}
	return d.String()
}
