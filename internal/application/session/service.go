package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/signal-otp-api/internal/domain"
	jwtinfra "github.com/signal-otp-api/internal/infrastructure/jwt"
	"github.com/signal-otp-api/internal/pkg/clock"
	"github.com/signal-otp-api/internal/pkg/id"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminUserID is the only principal this service authenticates.
const AdminUserID = "admin"

type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token   string
	Session *domain.Session
}

// Store persists sessions.
type Store interface {
	Put(s domain.Session)
	Get(sessionID string) (*domain.Session, error)
	Delete(sessionID string)
}

// TokenProvider signs and verifies session tokens.
type TokenProvider interface {
	Sign(userID, sessionID string) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, token string) error
	// Current resolves token to a live session.
	Current(ctx context.Context, token string) (*domain.Session, error)
}

type service struct {
	passwordHash []byte
	sessionRepo  Store
	tokens       TokenProvider
	ttl          time.Duration
	clock        clock.Clock
	logger       *zap.Logger
}

// NewService hashes adminPassword once. An empty password disables login.
func NewService(adminPassword string, sessionRepo Store, tokens TokenProvider, ttl time.Duration, clk clock.Clock, logger *zap.Logger) (Service, error) {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &service{sessionRepo: sessionRepo, tokens: tokens, ttl: ttl, clock: clk, logger: logger}
	if adminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		s.passwordHash = hash
	}
	return s, nil
}

func (s *service) Login(_ context.Context, req LoginRequest) (*LoginResult, error) {
	password := strings.TrimSpace(req.Password)
	if password == "" {
		return nil, fmt.Errorf("password is required: %w", domain.ErrBadRequest)
	}
	if s.passwordHash == nil {
		return nil, fmt.Errorf("admin password: %w", domain.ErrNotConfigured)
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		s.logger.Info("admin login rejected")
		return nil, fmt.Errorf("invalid password: %w", domain.ErrUnauthorized)
	}

	now := s.clock.Now().UTC()
	sess := domain.Session{
		SessionID: id.Prefixed("session"),
		UserID:    AdminUserID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	token, err := s.tokens.Sign(sess.UserID, sess.SessionID)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	s.sessionRepo.Put(sess)

	s.logger.Info("admin session created", zap.String("session_id", sess.SessionID))
	return &LoginResult{Token: token, Session: &sess}, nil
}

func (s *service) Logout(ctx context.Context, token string) error {
	sess, err := s.Current(ctx, token)
	if err != nil {
		return err
	}
	s.sessionRepo.Delete(sess.SessionID)
	s.logger.Info("admin session ended", zap.String("session_id", sess.SessionID))
	return nil
}

func (s *service) Current(_ context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, fmt.Errorf("missing session: %w", domain.ErrUnauthorized)
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", domain.ErrUnauthorized)
	}
	sess, err := s.sessionRepo.Get(claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) || errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("session %s: %w", claims.SessionID, domain.ErrUnauthorized)
		}
		return nil, err
	}
	return sess, nil
}
