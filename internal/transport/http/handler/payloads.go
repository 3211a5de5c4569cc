package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/signal-otp-api/internal/application/payload"
	"github.com/signal-otp-api/internal/domain"
	"github.com/signal-otp-api/internal/pkg/clock"
	"github.com/signal-otp-api/internal/pkg/validate"
)

const defaultListLimit = 50

// PayloadHandler serves the admin payload, activity and maintenance endpoints.
type PayloadHandler struct {
	svc   payload.Service
	clock clock.Clock
}

func NewPayloadHandler(svc payload.Service, clk clock.Clock) *PayloadHandler {
	if clk == nil {
		clk = clock.Real{}
	}
	return &PayloadHandler{svc: svc, clock: clk}
}

type listEnvelope struct {
	Success bool `json:"success"`
	payload.ListResult
}

func (h *PayloadHandler) List(w http.ResponseWriter, r *http.Request) {
	unprocessed := r.URL.Query().Get("unprocessed") == "true"
	res := h.svc.List(unprocessed, queryInt(r, "limit", defaultListLimit))
	writeJSON(w, http.StatusOK, listEnvelope{Success: true, ListResult: res})
}

func (h *PayloadHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Payload not found")
			return
		}
		writeFailure(w, http.StatusInternalServerError, "Failed to retrieve payload", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "payload": p})
}

type forwardEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	*payload.ForwardResult
}

func (h *PayloadHandler) Forward(w http.ResponseWriter, r *http.Request) {
	var req payload.ForwardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.svc.Forward(r.Context(), req)
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "Missing required fields: payloadId and targetUrl")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Payload not found")
	case errors.Is(err, domain.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, "Invalid target URL")
	case err != nil:
		writeFailure(w, http.StatusInternalServerError, "Failed to forward payload", err)
	default:
		writeJSON(w, http.StatusOK, forwardEnvelope{Success: true, Message: "Payload forwarded successfully", ForwardResult: res})
	}
}

type autoForwardEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	*payload.AutoForwardResult
}

func (h *PayloadHandler) AutoForward(w http.ResponseWriter, r *http.Request) {
	var req payload.AutoForwardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.svc.AutoForward(r.Context(), req)
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "Missing required field: targetUrl")
		return
	case errors.Is(err, domain.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, "Invalid target URL")
		return
	case err != nil:
		writeFailure(w, http.StatusInternalServerError, "Failed to auto-forward payloads", err)
		return
	}

	msg := fmt.Sprintf("Forwarded %d of %d payloads", res.ForwardedCount, res.TotalProcessed)
	if res.TotalProcessed == 0 {
		msg = "No unprocessed payloads to forward"
	}
	writeJSON(w, http.StatusOK, autoForwardEnvelope{Success: true, Message: msg, AutoForwardResult: res})
}

func (h *PayloadHandler) External(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameter: url")
		return
	}
	data, err := h.svc.Fetch(r.Context(), target)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "Failed to fetch external API", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"source":    target,
		"fetchedAt": h.clock.Now().UTC(),
		"data":      data,
	})
}

func (h *PayloadHandler) CleanupStats(w http.ResponseWriter, _ *http.Request) {
	stats := h.svc.CleanupStats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":           true,
		"stats":             stats,
		"autoCleanupStatus": stats.AutoCleanup,
	})
}

func (h *PayloadHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	var req payload.CleanupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res := h.svc.Cleanup(req)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Cleanup completed",
		"results":   res,
		"cleanedAt": res.CleanedAt,
	})
}

type activitiesEnvelope struct {
	Success bool `json:"success"`
	payload.ActivityReport
}

func (h *PayloadHandler) Activities(w http.ResponseWriter, r *http.Request) {
	rep := h.svc.Activities(queryInt(r, "limit", defaultListLimit))
	writeJSON(w, http.StatusOK, activitiesEnvelope{Success: true, ActivityReport: rep})
}

type outboundEnvelope struct {
	Success bool `json:"success"`
	payload.OutboundReport
}

func (h *PayloadHandler) OutboundActivities(w http.ResponseWriter, r *http.Request) {
	rep := h.svc.OutboundActivities(queryInt(r, "limit", defaultListLimit))
	writeJSON(w, http.StatusOK, outboundEnvelope{Success: true, OutboundReport: rep})
}

func (h *PayloadHandler) Usage(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"usage":     h.svc.Usage(),
		"storage":   h.svc.Storage(),
		"timestamp": h.clock.Now().UTC(),
	})
}
