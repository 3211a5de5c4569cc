package otp

import (
	"errors"
	"testing"
	"time"

	"github.com/signal-otp-api/internal/domain"
	"github.com/signal-otp-api/internal/infrastructure/memory"
	"github.com/signal-otp-api/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) Verify(identity, supplied string) domain.VerificationOutcome {
	return m.Called(identity, supplied).Get(0).(domain.VerificationOutcome)
}
func (m *mockStore) Status(identity string) domain.OTPStatus {
	return m.Called(identity).Get(0).(domain.OTPStatus)
}
func (m *mockStore) Stats() domain.OTPStats {
	return m.Called().Get(0).(domain.OTPStats)
}

func intPtr(v int) *int { return &v }

func TestVerify_MissingFieldsSkipsStore(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store, nil, nil)

	for _, tc := range []struct{ phone, code string }{
		{"", "12345"},
		{"+12025550123", ""},
		{"", ""},
	} {
		resp := svc.Verify(tc.phone, tc.code)
		assert.Equal(t, StatusInvalid, resp.Status)
		assert.Equal(t, MsgMissingFields, resp.Message)
		assert.True(t, resp.InputRejected())
	}
	store.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}

func TestVerify_InvalidPhoneSkipsStore(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store, nil, nil)

	resp := svc.Verify("555", "12345")

	assert.Equal(t, StatusInvalid, resp.Status)
	assert.Equal(t, MsgInvalidPhone, resp.Message)
	assert.True(t, resp.InputRejected())
	store.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}

func TestVerify_NormalizesBeforeStore(t *testing.T) {
	store := new(mockStore)
	store.On("Verify", "+12025550123", "12345").
		Return(domain.VerificationOutcome{Outcome: domain.OutcomeSuccess, Message: domain.MsgVerified})
	svc := NewService(store, nil, nil)

	resp := svc.Verify("202-555-0123", "12345")

	assert.Equal(t, StatusValid, resp.Status)
	assert.Equal(t, MsgSuccess, resp.Message)
	assert.Nil(t, resp.RemainingAttempts)
	assert.False(t, resp.InputRejected())
	store.AssertExpectations(t)
}

func TestVerify_MismatchCarriesDetails(t *testing.T) {
	store := new(mockStore)
	store.On("Verify", "+12025550123", "00000").Return(domain.VerificationOutcome{
		Outcome:           domain.OutcomeMismatch,
		Message:           "Invalid OTP. 2 attempts remaining.",
		RemainingAttempts: intPtr(2),
		TimeRemaining:     intPtr(299),
	})
	svc := NewService(store, nil, nil)

	resp := svc.Verify("+12025550123", "00000")

	assert.Equal(t, StatusInvalid, resp.Status)
	assert.Equal(t, "Invalid OTP. 2 attempts remaining.", resp.Message)
	assert.Equal(t, 2, *resp.RemainingAttempts)
	assert.Equal(t, 299, *resp.TimeRemaining)
	assert.Equal(t, domain.OutcomeMismatch, resp.Outcome)
}

func TestVerify_StoreOutcomesMapToInvalid(t *testing.T) {
	for _, out := range []domain.VerificationOutcome{
		domain.NotFoundOutcome(),
		{Outcome: domain.OutcomeExpired, Message: domain.MsgExpired},
		{Outcome: domain.OutcomeAlreadyUsed, Message: domain.MsgAlreadyUsed},
		{Outcome: domain.OutcomeExhausted, Message: domain.MsgExhausted},
	} {
		store := new(mockStore)
		store.On("Verify", mock.Anything, mock.Anything).Return(out)
		resp := NewService(store, nil, nil).Verify("+12025550123", "12345")

		assert.Equal(t, StatusInvalid, resp.Status)
		assert.Equal(t, out.Message, resp.Message)
		assert.False(t, resp.InputRejected())
	}
}

func TestVerify_WithRealStore(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	store := memory.NewOTPStore(memory.OTPStoreOptions{TTL: 5 * time.Minute, MaxAttempts: 3, GraceDelay: time.Minute, Clock: clk})
	svc := NewService(store, nil, nil)

	store.Create("+11234556777", "48213")

	assert.Equal(t, StatusValid, svc.Verify("+1 (123) 455-6777", " 48213 ").Status)
	again := svc.Verify("+11234556777", "48213")
	assert.Equal(t, StatusInvalid, again.Status)
	assert.Equal(t, domain.MsgAlreadyUsed, again.Message)
}

func TestStatus(t *testing.T) {
	store := new(mockStore)
	store.On("Status", "+12025550123").Return(domain.OTPStatus{Exists: true, State: domain.OTPActive})
	svc := NewService(store, nil, nil)

	identity, st, err := svc.Status("2025550123")
	require.NoError(t, err)
	assert.Equal(t, "+12025550123", identity)
	assert.True(t, st.Exists)

	_, _, err = svc.Status("")
	assert.True(t, errors.Is(err, domain.ErrBadRequest))

	_, _, err = svc.Status("555")
	assert.True(t, errors.Is(err, domain.ErrInvalidPhone))
}

func TestStats(t *testing.T) {
	store := new(mockStore)
	store.On("Stats").Return(domain.OTPStats{Total: 2, Active: 1, Verified: 1})

	assert.Equal(t, 2, NewService(store, nil, nil).Stats().Total)
}

func TestErrorResponse(t *testing.T) {
	resp := ErrorResponse()
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, MsgInternal, resp.Message)
}
