package otp

import (
	"fmt"

	"github.com/signal-otp-api/internal/domain"
	"github.com/signal-otp-api/internal/infrastructure/metrics"
	"github.com/signal-otp-api/internal/pkg/phone"
	"go.uber.org/zap"
)

// Client-visible verification statuses.
const (
	StatusValid   = "Valid"
	StatusInvalid = "Invalid"
	StatusError   = "Error"
)

const (
	MsgSuccess       = "OTP verification successful"
	MsgMissingFields = "Missing required fields: phone number and signal code"
	MsgInvalidPhone  = "Invalid phone number format"
	MsgInternal      = "Failed to verify OTP"
)

// Store is the part of the OTP store the verification surface needs.
type Store interface {
	Verify(identity, supplied string) domain.VerificationOutcome
	Status(identity string) domain.OTPStatus
	Stats() domain.OTPStats
}

// VerificationResponse is what every verification surface returns to clients.
// Outcome is empty when the input was rejected before reaching the store.
type VerificationResponse struct {
	Status            string         `json:"status"`
	Message           string         `json:"message"`
	RemainingAttempts *int           `json:"remainingAttempts,omitempty"`
	TimeRemaining     *int           `json:"timeRemaining,omitempty"`
	Outcome           domain.Outcome `json:"-"`
}

// InputRejected reports a response produced without consulting the store.
func (r VerificationResponse) InputRejected() bool {
	return r.Status == StatusInvalid && r.Outcome == ""
}

// ErrorResponse is the reply for malformed requests.
func ErrorResponse() VerificationResponse {
	return VerificationResponse{Status: StatusError, Message: MsgInternal}
}

type Service interface {
	Verify(rawPhone, code string) VerificationResponse
	// Status looks up the entry for rawPhone without revealing or consuming it.
	Status(rawPhone string) (identity string, status domain.OTPStatus, err error)
	Stats() domain.OTPStats
}

type service struct {
	store   Store
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewService(store Store, m *metrics.Metrics, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{store: store, metrics: m, logger: logger}
}

func (s *service) Verify(rawPhone, code string) VerificationResponse {
	if rawPhone == "" || code == "" {
		s.metrics.Verification("INVALID_INPUT")
		return VerificationResponse{Status: StatusInvalid, Message: MsgMissingFields}
	}
	identity, err := phone.Canonical(rawPhone)
	if err != nil {
		s.metrics.Verification("INVALID_INPUT")
		return VerificationResponse{Status: StatusInvalid, Message: MsgInvalidPhone}
	}

	out := s.store.Verify(identity, code)
	s.metrics.Verification(string(out.Outcome))
	s.logger.Info("otp verification attempt",
		zap.String("phone", identity),
		zap.String("outcome", string(out.Outcome)),
	)

	if out.Success() {
		return VerificationResponse{Status: StatusValid, Message: MsgSuccess, Outcome: out.Outcome}
	}
	return VerificationResponse{
		Status:            StatusInvalid,
		Message:           out.Message,
		RemainingAttempts: out.RemainingAttempts,
		TimeRemaining:     out.TimeRemaining,
		Outcome:           out.Outcome,
	}
}

func (s *service) Status(rawPhone string) (string, domain.OTPStatus, error) {
	if rawPhone == "" {
		return "", domain.OTPStatus{}, fmt.Errorf("missing phoneNumber: %w", domain.ErrBadRequest)
	}
	identity, err := phone.Canonical(rawPhone)
	if err != nil {
		return "", domain.OTPStatus{}, err
	}
	return identity, s.store.Status(identity), nil
}

func (s *service) Stats() domain.OTPStats {
	return s.store.Stats()
}
