package handler

import (
	"encoding/json"
	"net/http"

	"github.com/signal-otp-api/internal/application/otp"
	"github.com/signal-otp-api/internal/application/payload"
	"github.com/signal-otp-api/internal/domain"
	"github.com/signal-otp-api/internal/pkg/clock"
)

const (
	sourceMobile  = "mobile-app"
	sourceWebhook = "webhook"
	sourceTest    = "test"
)

// IngestHandler receives payloads from webhooks and mobile clients.
type IngestHandler struct {
	payloads payload.Service
	otp      otp.Service
	clock    clock.Clock
}

func NewIngestHandler(payloads payload.Service, otpSvc otp.Service, clk clock.Clock) *IngestHandler {
	if clk == nil {
		clk = clock.Real{}
	}
	return &IngestHandler{payloads: payloads, otp: otpSvc, clock: clk}
}

// IngestEnvelope is returned for accepted payloads.
type IngestEnvelope struct {
	Success      bool                   `json:"success"`
	Message      string                 `json:"message"`
	PayloadID    string                 `json:"payloadId"`
	ReceivedKeys []string               `json:"receivedKeys"`
	StoredAt     interface{}            `json:"storedAt"`
	DataCount    int                    `json:"dataCount"`
	Processing   *domain.DispatchResult `json:"processing,omitempty"`
	NextStep     string                 `json:"nextStep,omitempty"`
}

// MobileData stores a mobile payload, or verifies a code when the body
// carries verification=yes.
func (h *IngestHandler) MobileData(w http.ResponseWriter, r *http.Request) {
	var body interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFailure(w, http.StatusInternalServerError, "Failed to process mobile app data", err)
		return
	}
	data, ok := body.(map[string]interface{})
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid data format. Expected JSON object with key:value pairs.")
		return
	}

	if data["verification"] == "yes" {
		writeVerification(w, h.otp.Verify(stringField(data, domain.PhoneField), stringField(data, "signalCode")))
		return
	}

	res := h.payloads.Ingest(r.Context(), data, sourceMobile)
	env := IngestEnvelope{
		Success:      true,
		Message:      "Data received and stored successfully",
		PayloadID:    res.PayloadID,
		ReceivedKeys: res.Keys,
		StoredAt:     res.StoredAt,
		DataCount:    len(res.Keys),
	}
	if res.Dispatch.Triggered {
		env.Processing = &res.Dispatch
		if res.Dispatch.Success {
			env.Message = "OTP generated and sent via notification"
			env.NextStep = "User will receive notification with OTP code. Use /api/verify-otp to verify the code."
		}
	}
	writeJSON(w, http.StatusOK, env)
}

// MobileInfo documents the mobile surface and the OTP flow.
func (h *IngestHandler) MobileInfo(w http.ResponseWriter, _ *http.Request) {
	sum := h.payloads.Summary()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"endpoint":            "/api/mobile/data",
		"method":              "POST",
		"description":         "Receive key:value string data from mobile apps",
		"storedPayloads":      sum.Stored,
		"unprocessedPayloads": sum.Unprocessed,
		"otpFlow": map[string]interface{}{
			"step1": map[string]interface{}{
				"description": "Send Signal Post payload to generate OTP",
				"endpoint":    "POST /api/mobile/data",
				"payload": map[string]string{
					domain.DiscriminatorField: domain.SignalPostAppID,
					domain.PhoneField:         "+1234567890",
				},
				"note": "Do NOT include signalCode - server generates it automatically",
			},
			"step2": map[string]interface{}{
				"description": "Verify the OTP code received by notification",
				"endpoint":    "POST /api/verify-otp",
				"payload":     map[string]string{"phoneNumber": "+1234567890", "signalCode": "12345"},
			},
		},
		"expectedFormat": map[string]string{"key1": "value1", "key2": "value2"},
	})
}

func (h *IngestHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var data map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeFailure(w, http.StatusBadRequest, "Failed to process webhook", err)
		return
	}
	res := h.payloads.Ingest(r.Context(), data, sourceWebhook)

	env := map[string]interface{}{
		"success":      true,
		"message":      "Webhook received successfully",
		"payloadId":    res.PayloadID,
		"receivedAt":   res.StoredAt,
		"dataReceived": res.Keys,
	}
	if res.Dispatch.Triggered {
		env["processing"] = res.Dispatch
	}
	writeJSON(w, http.StatusOK, env)
}

// TestSignalPost runs the dispatch rule on a body without storing it.
func (h *IngestHandler) TestSignalPost(w http.ResponseWriter, r *http.Request) {
	var data map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeFailure(w, http.StatusInternalServerError, "Failed to test Signal Post processing", err)
		return
	}
	res := h.payloads.Dispatch(r.Context(), data, sourceTest)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"message":          "Signal Post test completed",
		"testPayload":      data,
		"processed":        res.Triggered,
		"processingResult": res,
		"testedAt":         h.clock.Now().UTC(),
	})
}

func (h *IngestHandler) TestSignalPostInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"endpoint":    "/api/test-signal-post",
		"method":      "POST",
		"description": "Test Signal Post payload processing",
		"testPayload": map[string]string{
			domain.DiscriminatorField: domain.SignalPostAppID,
			domain.PhoneField:         "+11234556777",
			"userId":                  "test123",
		},
		"instructions": "Send a POST request with the test payload to see Signal Post processing in action",
	})
}

func (h *IngestHandler) Process(w http.ResponseWriter, r *http.Request) {
	var body interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFailure(w, http.StatusBadRequest, "Failed to process data", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Data processed successfully",
		"result":  payload.Process(body, h.clock.Now()),
	})
}
