package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/signal-otp-api/internal/application/session"
	"github.com/signal-otp-api/internal/domain"
	"github.com/signal-otp-api/internal/transport/http/middleware"
	"go.uber.org/zap"
)

// SessionHandler handles admin login, logout and session checks.
type SessionHandler struct {
	svc    session.Service
	secure bool
	logger *zap.Logger
}

func NewSessionHandler(svc session.Service, secureCookies bool, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{svc: svc, secure: secureCookies, logger: logger}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req session.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Password is required")
		return
	}
	res, err := h.svc.Login(r.Context(), req)
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "Password is required")
		return
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Invalid password")
		return
	case errors.Is(err, domain.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "Admin login is not configured")
		return
	case err != nil:
		h.logger.Error("login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.Session.ExpiresAt,
		MaxAge:   int(res.Session.ExpiresAt.Sub(res.Session.CreatedAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Login successful",
		"sessionId": res.Session.SessionID,
		"redirect":  "/",
	})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(middleware.SessionCookie); err == nil {
		_ = h.svc.Logout(r.Context(), c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Logout successful"})
}

func (h *SessionHandler) Check(w http.ResponseWriter, r *http.Request) {
	var sess *domain.Session
	if c, err := r.Cookie(middleware.SessionCookie); err == nil {
		sess, _ = h.svc.Current(r.Context(), c.Value)
	}
	var user interface{}
	if sess != nil {
		user = sess.UserID
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": sess != nil,
		"user":          user,
		"sessionValid":  sess != nil,
	})
}
