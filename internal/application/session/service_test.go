package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/signal-otp-api/internal/domain"
	"github.com/signal-otp-api/internal/infrastructure/memory"
	jwtinfra "github.com/signal-otp-api/internal/infrastructure/jwt"
	"github.com/signal-otp-api/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTokens struct{ mock.Mock }

func (m *mockTokens) Sign(userID, sessionID string) (string, error) {
	args := m.Called(userID, sessionID)
	return args.String(0), args.Error(1)
}
func (m *mockTokens) Verify(token string) (*jwtinfra.Claims, error) {
	args := m.Called(token)
	if c, _ := args.Get(0).(*jwtinfra.Claims); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestService(t *testing.T, password string) (Service, *memory.SessionRepo, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	repo := memory.NewSessionRepo(clk)
	tokens, err := jwtinfra.NewProvider("test-secret", time.Hour, clk)
	require.NoError(t, err)
	svc, err := NewService(password, repo, tokens, time.Hour, clk, nil)
	require.NoError(t, err)
	return svc, repo, clk
}

func TestLogin_Success(t *testing.T) {
	svc, _, _ := newTestService(t, "hunter2")

	res, err := svc.Login(context.Background(), LoginRequest{Password: "  hunter2 "})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, AdminUserID, res.Session.UserID)

	sess, err := svc.Current(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Session.SessionID, sess.SessionID)
}

func TestLogin_Failures(t *testing.T) {
	svc, _, _ := newTestService(t, "hunter2")

	_, err := svc.Login(context.Background(), LoginRequest{Password: ""})
	assert.True(t, errors.Is(err, domain.ErrBadRequest))

	_, err = svc.Login(context.Background(), LoginRequest{Password: "wrong"})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_NotConfigured(t *testing.T) {
	svc, _, _ := newTestService(t, "")

	_, err := svc.Login(context.Background(), LoginRequest{Password: "anything"})
	assert.True(t, errors.Is(err, domain.ErrNotConfigured))
}

func TestLogout(t *testing.T) {
	svc, _, _ := newTestService(t, "hunter2")
	res, err := svc.Login(context.Background(), LoginRequest{Password: "hunter2"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), res.Token))

	_, err = svc.Current(context.Background(), res.Token)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestCurrent_Expired(t *testing.T) {
	svc, _, clk := newTestService(t, "hunter2")
	res, err := svc.Login(context.Background(), LoginRequest{Password: "hunter2"})
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)

	_, err = svc.Current(context.Background(), res.Token)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestCurrent_BadToken(t *testing.T) {
	svc, _, _ := newTestService(t, "hunter2")

	_, err := svc.Current(context.Background(), "")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	_, err = svc.Current(context.Background(), "not-a-jwt")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestCurrent_UnknownSession(t *testing.T) {
	clk := clock.NewFake(time.Now())
	tokens := new(mockTokens)
	tokens.On("Verify", "tok").Return(&jwtinfra.Claims{UserID: AdminUserID, SessionID: "gone"}, nil)
	svc, err := NewService("pw", memory.NewSessionRepo(clk), tokens, time.Hour, clk, nil)
	require.NoError(t, err)

	_, err = svc.Current(context.Background(), "tok")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}
