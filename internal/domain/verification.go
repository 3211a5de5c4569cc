package domain

import (
	"fmt"
	"strings"
	"time"
)

// OTPState is the lifecycle state of a one-time code entry.
// ABSENT is represented by the entry not being in the store.
type OTPState string

const (
	OTPActive    OTPState = "active"
	OTPVerified  OTPState = "verified"
	OTPExpired   OTPState = "expired"
	OTPExhausted OTPState = "exhausted"
)

// Outcome classifies a single verification attempt.
type Outcome string

const (
	OutcomeSuccess     Outcome = "SUCCESS"
	OutcomeNotFound    Outcome = "NOT_FOUND"
	OutcomeExpired     Outcome = "EXPIRED"
	OutcomeAlreadyUsed Outcome = "ALREADY_USED"
	OutcomeExhausted   Outcome = "EXHAUSTED"
	OutcomeMismatch    Outcome = "MISMATCH"
)

// OTPEntry is one issued code. Entries are values: transitions return a new entry
// instead of mutating a shared record.
type OTPEntry struct {
	Identity  string
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
	State     OTPState
	Attempts  int
}

// NewOTPEntry returns a fresh ACTIVE entry whose TTL window starts at now.
func NewOTPEntry(identity, code string, now time.Time, ttl time.Duration) OTPEntry {
	return OTPEntry{
		Identity:  identity,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		State:     OTPActive,
	}
}

// IsExpiredAt reports whether the entry is logically dead at t.
func (e OTPEntry) IsExpiredAt(t time.Time) bool {
	return t.After(e.ExpiresAt)
}

// StateAt recomputes the state at t: a verified entry stays verified, anything
// else past its expiry reads as expired.
func (e OTPEntry) StateAt(t time.Time) OTPState {
	if e.State == OTPVerified {
		return OTPVerified
	}
	if e.IsExpiredAt(t) {
		return OTPExpired
	}
	return e.State
}

// Verify applies one verification attempt at now and returns the next entry and
// the outcome. The check order is existence (done by the caller), expiry,
// already-used, exhaustion, then the attempt-consuming comparison.
// Entries returned in OTPExpired or OTPExhausted state must be removed by the caller.
func (e OTPEntry) Verify(now time.Time, supplied string, maxAttempts int) (OTPEntry, VerificationOutcome) {
	if e.IsExpiredAt(now) {
		e.State = OTPExpired
		return e, VerificationOutcome{Outcome: OutcomeExpired, Message: MsgExpired}
	}
	if e.State == OTPVerified {
		return e, VerificationOutcome{Outcome: OutcomeAlreadyUsed, Message: MsgAlreadyUsed}
	}
	if e.Attempts >= maxAttempts {
		e.State = OTPExhausted
		return e, VerificationOutcome{Outcome: OutcomeExhausted, Message: MsgExhausted}
	}

	e.Attempts++
	if e.Code == strings.TrimSpace(supplied) {
		e.State = OTPVerified
		return e, VerificationOutcome{Outcome: OutcomeSuccess, Message: MsgVerified}
	}

	remaining := maxAttempts - e.Attempts
	seconds := SecondsUntil(now, e.ExpiresAt)
	return e, VerificationOutcome{
		Outcome:           OutcomeMismatch,
		Message:           fmt.Sprintf("Invalid OTP. %d attempts remaining.", remaining),
		RemainingAttempts: &remaining,
		TimeRemaining:     &seconds,
	}
}

// SecondsUntil is ceil((until - now) / 1s), floored at zero.
func SecondsUntil(now, until time.Time) int {
	d := until.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

const (
	MsgNotFound    = "No OTP found for this phone number. Please request a new code."
	MsgExpired     = "OTP has expired. Please request a new code."
	MsgAlreadyUsed = "This OTP has already been used. Please request a new code."
	MsgExhausted   = "Maximum verification attempts exceeded. Please request a new code."
	MsgVerified    = "OTP verified successfully!"
)

// VerificationOutcome is the store-level result of a verify call.
type VerificationOutcome struct {
	Outcome           Outcome
	Message           string
	RemainingAttempts *int
	TimeRemaining     *int
}

// Success reports whether the attempt matched.
func (o VerificationOutcome) Success() bool { return o.Outcome == OutcomeSuccess }

// NotFoundOutcome is returned when no entry exists for the identity.
func NotFoundOutcome() VerificationOutcome {
	return VerificationOutcome{Outcome: OutcomeNotFound, Message: MsgNotFound}
}

// OTPStats classifies live entries at call time.
type OTPStats struct {
	Total    int `json:"totalOTPs"`
	Active   int `json:"activeOTPs"`
	Expired  int `json:"expiredOTPs"`
	Verified int `json:"verifiedOTPs"`
}

// OTPStatus is a code-free view of one entry, used by status lookups.
type OTPStatus struct {
	Exists            bool       `json:"exists"`
	State             OTPState   `json:"state,omitempty"`
	Attempts          int        `json:"attempts"`
	RemainingAttempts int        `json:"remainingAttempts"`
	TimeRemaining     int        `json:"timeRemaining"`
	CreatedAt         *time.Time `json:"createdAt,omitempty"`
	ExpiresAt         *time.Time `json:"expiresAt,omitempty"`
}
