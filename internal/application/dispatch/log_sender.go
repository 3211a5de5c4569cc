package dispatch

import (
	"context"

	"go.uber.org/zap"
)

// LogSender writes notifications to the log instead of a provider. Used for
// local development when no notifier is configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, identity, code string, _ map[string]interface{}) (interface{}, error) {
	s.logger.Info("notification delivered to log", zap.String("phone", identity))
	s.logger.Debug("issued code", zap.String("phone", identity), zap.String("code", code))
	return map[string]interface{}{"delivered": "log"}, nil
}
