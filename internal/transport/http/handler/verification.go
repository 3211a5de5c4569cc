package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/signal-otp-api/internal/application/otp"
	"github.com/signal-otp-api/internal/domain"
	"github.com/signal-otp-api/internal/pkg/clock"
)

// VerificationHandler serves the OTP verification surface.
type VerificationHandler struct {
	svc   otp.Service
	clock clock.Clock
}

func NewVerificationHandler(svc otp.Service, clk clock.Clock) *VerificationHandler {
	if clk == nil {
		clk = clock.Real{}
	}
	return &VerificationHandler{svc: svc, clock: clk}
}

// Verify reads phoneNumber and signalCode the same way MobileData reads
// phone_number and signalCode, so numeric JSON values are accepted on both.
func (h *VerificationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeVerification(w, otp.ErrorResponse())
		return
	}
	writeVerification(w, h.svc.Verify(stringField(body, "phoneNumber"), stringField(body, "signalCode")))
}

func (h *VerificationHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity, status, err := h.svc.Status(r.URL.Query().Get("phoneNumber"))
	if err != nil {
		msg := otp.MsgInvalidPhone
		if errors.Is(err, domain.ErrBadRequest) {
			msg = "Missing phoneNumber parameter"
		}
		writeJSON(w, http.StatusBadRequest, otp.VerificationResponse{Status: otp.StatusInvalid, Message: msg})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "Success",
		"phoneNumber": identity,
		"otpStatus":   status,
		"timestamp":   h.clock.Now().UTC(),
	})
}

func (h *VerificationHandler) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"stats":     h.svc.Stats(),
		"timestamp": h.clock.Now().UTC(),
	})
}

// writeVerification maps a verification response onto its HTTP status.
func writeVerification(w http.ResponseWriter, resp otp.VerificationResponse) {
	status := http.StatusOK
	switch {
	case resp.Status == otp.StatusError:
		status = http.StatusInternalServerError
	case resp.InputRejected():
		status = http.StatusBadRequest
	case resp.Status == otp.StatusInvalid:
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, resp)
}
