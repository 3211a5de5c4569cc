package dispatch

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/signal-otp-api/internal/domain"
	"github.com/signal-otp-api/internal/infrastructure/memory"
	"github.com/signal-otp-api/internal/infrastructure/metrics"
	"github.com/signal-otp-api/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(ctx context.Context, identity, code string, trigger map[string]interface{}) (interface{}, error) {
	args := m.Called(ctx, identity, code, trigger)
	return args.Get(0), args.Error(1)
}

type captureActivities struct{ got []domain.Activity }

func (c *captureActivities) Record(a domain.Activity) string {
	c.got = append(c.got, a)
	return "A1"
}

// --- helpers ---

func newTestService(sender Sender) (Service, *memory.OTPStore, *captureActivities) {
	clk := clock.NewFake(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	store := memory.NewOTPStore(memory.OTPStoreOptions{
		TTL:         5 * time.Minute,
		MaxAttempts: 3,
		GraceDelay:  30 * time.Second,
		Clock:       clk,
	})
	acts := &captureActivities{}
	m := metrics.New(prometheus.NewRegistry())
	return NewService(store, sender, acts, m, nil), store, acts
}

func signalPost(phone interface{}) map[string]interface{} {
	return map[string]interface{}{
		domain.DiscriminatorField: domain.SignalPostAppID,
		domain.PhoneField:         phone,
	}
}

// --- tests ---

func TestMaybeDispatch_NonTriggerPassesThrough(t *testing.T) {
	sender := new(mockSender)
	svc, store, acts := newTestService(sender)

	for _, p := range []map[string]interface{}{
		{"phone_number": "+12025550123"},
		{domain.DiscriminatorField: "Other App", "phone_number": "+12025550123"},
		{domain.DiscriminatorField: 42},
		{},
	} {
		res := svc.MaybeDispatch(context.Background(), p, "webhook")
		assert.False(t, res.Triggered)
	}

	assert.Equal(t, 0, store.Stats().Total)
	assert.Empty(t, acts.got)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMaybeDispatch_MissingPhone(t *testing.T) {
	sender := new(mockSender)
	svc, store, _ := newTestService(sender)

	res := svc.MaybeDispatch(context.Background(), map[string]interface{}{domain.DiscriminatorField: domain.SignalPostAppID}, "test")

	assert.True(t, res.Triggered)
	assert.False(t, res.Success)
	assert.Equal(t, domain.ActionSignalPost, res.Action)
	assert.Equal(t, "Missing phone_number in payload", res.Error)
	assert.Equal(t, 0, store.Stats().Total)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMaybeDispatch_InvalidPhone(t *testing.T) {
	sender := new(mockSender)
	svc, store, _ := newTestService(sender)

	res := svc.MaybeDispatch(context.Background(), signalPost("555"), "test")

	assert.True(t, res.Triggered)
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid phone number format: 555", res.Error)
	assert.Equal(t, 0, store.Stats().Total)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMaybeDispatch_IssuesAndSends(t *testing.T) {
	var code string
	sender := new(mockSender)
	sender.On("Send", mock.Anything, "+11234556777", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { code = args.String(2) }).
		Return(map[string]interface{}{"id": "n-1"}, nil)
	svc, store, acts := newTestService(sender)

	res := svc.MaybeDispatch(context.Background(), signalPost("+11234556777"), "mobile-app")

	require.True(t, res.Triggered)
	assert.True(t, res.Success)
	assert.Empty(t, res.Error)
	require.NotNil(t, res.Details)
	assert.Equal(t, "+11234556777", res.Details.E164Phone)
	assert.Equal(t, "*****", res.Details.CodeMarker)
	assert.Equal(t, "5 minutes", res.Details.OTPExpiresIn)
	assert.Equal(t, "none", res.Details.OriginalPayloadSignalCode)
	assert.Equal(t, map[string]interface{}{"id": "n-1"}, res.Details.ProviderResponse)

	require.Len(t, code, 5)
	n, err := strconv.Atoi(code)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 10000)
	assert.LessOrEqual(t, n, 99999)

	require.Len(t, acts.got, 1)
	assert.Equal(t, "*****", acts.got[0].Payload.(map[string]interface{})["generatedSignalCode"])

	assert.True(t, store.Verify("+11234556777", code).Success())
	sender.AssertExpectations(t)
}

func TestMaybeDispatch_NormalizesPhone(t *testing.T) {
	sender := new(mockSender)
	sender.On("Send", mock.Anything, "+12025550123", mock.Anything, mock.Anything).Return(nil, nil)
	svc, store, _ := newTestService(sender)

	res := svc.MaybeDispatch(context.Background(), signalPost("(202) 555-0123"), "webhook")
	assert.True(t, res.Success)

	res = svc.MaybeDispatch(context.Background(), signalPost(2025550123.0), "webhook")
	assert.True(t, res.Success)

	assert.Equal(t, 1, store.Stats().Total)
	sender.AssertNumberOfCalls(t, "Send", 2)
}

func TestMaybeDispatch_SenderFailureKeepsCode(t *testing.T) {
	var code string
	sender := new(mockSender)
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { code = args.String(2) }).
		Return(nil, errors.New("provider down"))
	svc, store, _ := newTestService(sender)

	res := svc.MaybeDispatch(context.Background(), signalPost("+12025550123"), "webhook")

	assert.True(t, res.Triggered)
	assert.False(t, res.Success)
	assert.Equal(t, "provider down", res.Error)
	assert.Equal(t, "provider down", res.Details.ProviderError)
	assert.True(t, res.Details.OTPStored)
	assert.True(t, store.Verify("+12025550123", code).Success())
}

func TestMaybeDispatch_EchoesOriginalSignalCode(t *testing.T) {
	sender := new(mockSender)
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	svc, _, _ := newTestService(sender)

	p := signalPost("+12025550123")
	p["signalcode"] = "54541"
	res := svc.MaybeDispatch(context.Background(), p, "test")

	assert.Equal(t, "54541", res.Details.OriginalPayloadSignalCode)
}

func TestGenerateCode_Range(t *testing.T) {
	for i := 0; i < 2000; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 10000)
		require.LessOrEqual(t, n, 99999)
	}
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "5 minutes", humanDuration(5*time.Minute))
	assert.Equal(t, "1 minute", humanDuration(time.Minute))
	assert.Equal(t, "1m30s", humanDuration(90*time.Second))
}

func TestLogSender(t *testing.T) {
	resp, err := NewLogSender(nil).Send(context.Background(), "+12025550123", "12345", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"delivered": "log"}, resp)
}
