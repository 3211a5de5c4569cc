package payload

import (
	"context"
	"fmt"
	"time"

	"github.com/signal-otp-api/internal/domain"
	"github.com/signal-otp-api/internal/infrastructure/forwarder"
	"github.com/signal-otp-api/internal/pkg/validate"
	"go.uber.org/zap"
)

const defaultMaxPayloads = 10

type ForwardRequest struct {
	PayloadID string            `json:"payloadId" validate:"required"`
	TargetURL string            `json:"targetUrl" validate:"required"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
}

type ForwardResult struct {
	PayloadID       string                 `json:"payloadId"`
	TargetURL       string                 `json:"targetUrl"`
	ForwardedAt     time.Time              `json:"forwardedAt"`
	TargetResponse  *forwarder.Response    `json:"targetResponse"`
	OriginalPayload map[string]interface{} `json:"originalPayload"`
}

type AutoForwardRequest struct {
	TargetURL   string            `json:"targetUrl" validate:"required"`
	Method      string            `json:"method"`
	Headers     map[string]string `json:"headers"`
	MaxPayloads int               `json:"maxPayloads" validate:"gte=0"`
}

// AutoForwardItem is the outcome for one payload in an auto-forward batch.
type AutoForwardItem struct {
	PayloadID string      `json:"payloadId"`
	Success   bool        `json:"success"`
	Status    int         `json:"status,omitempty"`
	Response  interface{} `json:"response,omitempty"`
	Error     string      `json:"error,omitempty"`
}

type AutoForwardResult struct {
	ForwardedCount int               `json:"forwardedCount"`
	TotalProcessed int               `json:"totalProcessed"`
	Results        []AutoForwardItem `json:"results"`
	ForwardedAt    time.Time         `json:"forwardedAt"`
}

// Forward sends one stored payload to req.TargetURL. The payload is marked
// processed once the target answers, whatever its status.
func (s *service) Forward(ctx context.Context, req ForwardRequest) (*ForwardResult, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	p, err := s.payloads.Get(req.PayloadID)
	if err != nil {
		return nil, err
	}
	if !validate.IsHTTPURL(req.TargetURL) {
		return nil, fmt.Errorf("%s: %w", req.TargetURL, domain.ErrInvalidURL)
	}

	resp, err := s.transport.Send(ctx, forwarder.Request{
		Method:    req.Method,
		URL:       req.TargetURL,
		Headers:   req.Headers,
		UserAgent: forwarder.UserAgentForward,
		Body:      p.Data,
		Trigger:   domain.TriggerManualForward,
		TriggerPayload: map[string]interface{}{
			"payloadId":       p.ID,
			"originalPayload": p,
		},
	})
	if err != nil {
		return nil, err
	}
	if err := s.payloads.MarkProcessed(p.ID); err != nil {
		s.logger.Warn("mark processed", zap.String("payload_id", p.ID), zap.Error(err))
	}

	return &ForwardResult{
		PayloadID:       p.ID,
		TargetURL:       req.TargetURL,
		ForwardedAt:     s.clock.Now().UTC(),
		TargetResponse:  resp,
		OriginalPayload: p.Data,
	}, nil
}

// AutoForward sends the newest unprocessed payloads, paced by the transport.
func (s *service) AutoForward(ctx context.Context, req AutoForwardRequest) (*AutoForwardResult, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	if !validate.IsHTTPURL(req.TargetURL) {
		return nil, fmt.Errorf("%s: %w", req.TargetURL, domain.ErrInvalidURL)
	}
	limit := req.MaxPayloads
	if limit == 0 {
		limit = defaultMaxPayloads
	}

	pending := s.payloads.List(true)
	if len(pending) > limit {
		pending = pending[:limit]
	}

	result := &AutoForwardResult{Results: make([]AutoForwardItem, 0, len(pending))}
	for _, p := range pending {
		if err := s.transport.Wait(ctx); err != nil {
			result.Results = append(result.Results, AutoForwardItem{PayloadID: p.ID, Error: err.Error()})
			continue
		}
		resp, err := s.transport.Send(ctx, forwarder.Request{
			Method:    req.Method,
			URL:       req.TargetURL,
			Headers:   req.Headers,
			UserAgent: forwarder.UserAgentAutoForward,
			Body:      p.Data,
			Trigger:   domain.TriggerAutoForward,
			TriggerPayload: map[string]interface{}{
				"payloadId": p.ID,
			},
		})
		if err != nil {
			result.Results = append(result.Results, AutoForwardItem{PayloadID: p.ID, Error: err.Error()})
			continue
		}
		if err := s.payloads.MarkProcessed(p.ID); err != nil {
			s.logger.Warn("mark processed", zap.String("payload_id", p.ID), zap.Error(err))
		}
		result.ForwardedCount++
		result.Results = append(result.Results, AutoForwardItem{
			PayloadID: p.ID,
			Success:   true,
			Status:    resp.Status,
			Response:  resp.Data,
		})
	}
	result.TotalProcessed = len(pending)
	result.ForwardedAt = s.clock.Now().UTC()

	s.logger.Info("auto-forward finished",
		zap.String("url", req.TargetURL),
		zap.Int("forwarded", result.ForwardedCount),
		zap.Int("total", result.TotalProcessed),
	)
	return result, nil
}

// Fetch GETs an external JSON document.
func (s *service) Fetch(ctx context.Context, url string) (interface{}, error) {
	if url == "" {
		return nil, fmt.Errorf("missing url: %w", domain.ErrBadRequest)
	}
	if !validate.IsHTTPURL(url) {
		return nil, fmt.Errorf("%s: %w", url, domain.ErrInvalidURL)
	}
	return s.transport.Fetch(ctx, url)
}
