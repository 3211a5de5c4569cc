package domain

import "time"

// Session is an authenticated admin session.
type Session struct {
	SessionID string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created"`
	ExpiresAt time.Time `json:"expires"`
}
