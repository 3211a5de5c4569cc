package onesignal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/signal-otp-api/internal/config"
	"github.com/signal-otp-api/internal/domain"
	"github.com/signal-otp-api/internal/pkg/clock"
	"go.uber.org/zap"
)

// OutboundRecorder receives one entry per provider call.
type OutboundRecorder interface {
	Record(a domain.OutboundActivity) string
}

type notification struct {
	AppID               string            `json:"app_id"`
	TemplateID          string            `json:"template_id"`
	IncludePhoneNumbers []string          `json:"include_phone_numbers"`
	CustomData          map[string]string `json:"custom_data"`
	ExternalID          string            `json:"external_id"`
}

// Sender delivers codes through the OneSignal notifications API.
type Sender struct {
	cfg      config.OneSignalConfig
	client   *http.Client
	recorder OutboundRecorder
	clock    clock.Clock
	logger   *zap.Logger
}

func NewSender(cfg config.OneSignalConfig, client *http.Client, recorder OutboundRecorder, clk clock.Clock, logger *zap.Logger) *Sender {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{cfg: cfg, client: client, recorder: recorder, clock: clk, logger: logger}
}

// Send posts a templated notification carrying code to identity. A non-2xx
// reply is an error that includes the provider's body.
func (s *Sender) Send(ctx context.Context, identity, code string, trigger map[string]interface{}) (interface{}, error) {
	if s.cfg.APIKey == "" || s.cfg.AppID == "" {
		return nil, fmt.Errorf("onesignal: %w", domain.ErrNotConfigured)
	}

	n := notification{
		AppID:               s.cfg.AppID,
		TemplateID:          s.cfg.TemplateID,
		IncludePhoneNumbers: []string{identity},
		CustomData:          map[string]string{"signalcode": code},
		ExternalID:          uuid.New().String(),
	}
	body, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encode notification: %w", err)
	}

	activity := domain.OutboundActivity{
		Method:    http.MethodPost,
		TargetURL: s.cfg.APIURL,
		Payload:   redacted(n),
		Headers: map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Basic [REDACTED]",
		},
		Trigger:        domain.TriggerSignalPost,
		TriggerPayload: trigger,
	}

	start := s.clock.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	activity.ResponseTime = s.clock.Now().Sub(start).Milliseconds()
	if err != nil {
		activity.Error = err.Error()
		s.record(activity)
		s.logger.Warn("onesignal request failed", zap.String("phone", identity), zap.Error(err))
		return nil, fmt.Errorf("onesignal request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var data interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		data = string(raw)
	}

	activity.ResponseStatus = resp.StatusCode
	activity.ResponseData = data
	activity.Success = resp.StatusCode >= 200 && resp.StatusCode < 300
	if !activity.Success {
		activity.Error = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		s.record(activity)
		s.logger.Warn("onesignal rejected notification",
			zap.String("phone", identity),
			zap.Int("status", resp.StatusCode),
		)
		return data, fmt.Errorf("OneSignal API error: %d - %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	s.record(activity)
	s.logger.Info("onesignal notification sent", zap.String("phone", identity))
	return data, nil
}

func (s *Sender) record(a domain.OutboundActivity) {
	if s.recorder != nil {
		s.recorder.Record(a)
	}
}

func redacted(n notification) notification {
	n.CustomData = map[string]string{"signalcode": "***"}
	return n
}
