package forwarder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/signal-otp-api/internal/domain"
	"github.com/signal-otp-api/internal/pkg/clock"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	UserAgentForward     = "API-Server-Forward/1.0"
	UserAgentAutoForward = "API-Server-Auto-Forward/1.0"
	UserAgentFetch       = "API-Server/1.0"
)

// OutboundRecorder receives one entry per forwarded request.
type OutboundRecorder interface {
	Record(a domain.OutboundActivity) string
}

// Request describes one outbound JSON call.
type Request struct {
	Method         string
	URL            string
	Headers        map[string]string
	UserAgent      string
	Body           interface{}
	Trigger        string
	TriggerPayload interface{}
}

// Response is what the target answered. Data is decoded JSON when possible and
// the raw text otherwise.
type Response struct {
	Status     int         `json:"status"`
	StatusText string      `json:"statusText"`
	Data       interface{} `json:"data"`
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// Forwarder sends stored payloads to external URLs.
type Forwarder struct {
	client   *http.Client
	limiter  *rate.Limiter
	recorder OutboundRecorder
	clock    clock.Clock
	logger   *zap.Logger
}

// New builds a forwarder. perSecond paces Wait; zero or less disables pacing.
func New(timeout time.Duration, perSecond float64, recorder OutboundRecorder, clk clock.Clock, logger *zap.Logger) *Forwarder {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Forwarder{
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(limit, 1),
		recorder: recorder,
		clock:    clk,
		logger:   logger,
	}
}

// Wait blocks until the pacing limiter admits another request.
func (f *Forwarder) Wait(ctx context.Context) error {
	return f.limiter.Wait(ctx)
}

// Send performs req and records it as outbound activity. A transport error is
// returned as error; any HTTP reply, including non-2xx, is returned as Response.
func (f *Forwarder) Send(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodPost
	}
	body, err := json.Marshal(req.Body)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"User-Agent":   req.UserAgent,
	}
	for k, v := range req.Headers {
		headers[k] = v
	}

	activity := domain.OutboundActivity{
		Method:         method,
		TargetURL:      req.URL,
		Payload:        req.Body,
		Headers:        redactHeaders(headers),
		Trigger:        req.Trigger,
		TriggerPayload: req.TriggerPayload,
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	start := f.clock.Now()
	resp, err := f.client.Do(httpReq)
	activity.ResponseTime = f.clock.Now().Sub(start).Milliseconds()
	if err != nil {
		activity.Error = err.Error()
		f.record(activity)
		f.logger.Warn("forward failed", zap.String("url", req.URL), zap.Error(err))
		return nil, fmt.Errorf("forward to %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	out := &Response{Status: resp.StatusCode, StatusText: http.StatusText(resp.StatusCode), Data: decode(resp.Body)}
	activity.ResponseStatus = out.Status
	activity.ResponseData = out.Data
	activity.Success = out.OK()
	if !activity.Success {
		activity.Error = fmt.Sprintf("HTTP %d: %s", out.Status, out.StatusText)
	}
	f.record(activity)
	f.logger.Info("payload forwarded",
		zap.String("url", req.URL),
		zap.String("method", method),
		zap.Int("status", out.Status),
	)
	return out, nil
}

// Fetch GETs url and decodes its JSON body. Non-2xx replies are errors.
func (f *Forwarder) Fetch(ctx context.Context, url string) (interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgentFetch)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	var data interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return data, nil
}

func (f *Forwarder) record(a domain.OutboundActivity) {
	if f.recorder != nil {
		f.recorder.Record(a)
	}
}

func decode(r io.Reader) interface{} {
	raw, _ := io.ReadAll(r)
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

func redactHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if strings.EqualFold(k, "Authorization") {
			v = "[REDACTED]"
		}
		out[k] = v
	}
	return out
}
