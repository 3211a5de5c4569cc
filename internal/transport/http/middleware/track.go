package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/signal-otp-api/internal/domain"
)

const maxTrackedBody = 1 << 20

// ActivityRecorder stores inbound activity entries.
type ActivityRecorder interface {
	Record(a domain.Activity) string
}

// Track records each request as inbound activity, including its JSON body.
// Verification bodies are stored with the phone shortened and the code hidden.
func Track(activities ActivityRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var payload interface{}
			if r.Body != nil && r.Method != http.MethodGet {
				// Bodies over maxTrackedBody reach the handler whole but are not recorded.
				raw, err := io.ReadAll(io.LimitReader(r.Body, maxTrackedBody+1))
				r.Body = struct {
					io.Reader
					io.Closer
				}{io.MultiReader(bytes.NewReader(raw), r.Body), r.Body}
				if err == nil && len(raw) > 0 && len(raw) <= maxTrackedBody && json.Unmarshal(raw, &payload) != nil {
					payload = nil
				}
			}

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			activities.Record(domain.Activity{
				Method:         r.Method,
				Endpoint:       r.URL.Path,
				Payload:        RedactVerification(r.URL.Path, payload),
				Headers:        flattenHeaders(r.Header),
				UserAgent:      r.UserAgent(),
				ClientIP:       realIP(r),
				ResponseStatus: status,
				ResponseTime:   time.Since(start).Milliseconds(),
			})
		})
	}
}

// RedactVerification hides the code and all but the first eight characters
// of the phone number in verification payloads. Other payloads are returned as is.
func RedactVerification(path string, payload interface{}) interface{} {
	m, ok := payload.(map[string]interface{})
	if !ok {
		return payload
	}
	if path != "/api/verify-otp" && m["verification"] != "yes" {
		return payload
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	for _, k := range []string{"phoneNumber", "phone_number"} {
		var s string
		switch v := out[k].(type) {
		case string:
			s = v
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			continue
		}
		if len(s) > 8 {
			s = s[:8]
		}
		out[k] = s + "***"
	}
	if _, ok := out["signalCode"]; ok {
		out["signalCode"] = "***"
	}
	return out
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		switch strings.ToLower(k) {
		case "authorization", "cookie":
			out[k] = "[REDACTED]"
		default:
			out[k] = strings.Join(v, ", ")
		}
	}
	return out
}
