package sns

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/signal-otp-api/internal/domain"
	"github.com/signal-otp-api/internal/pkg/clock"
	"go.uber.org/zap"
)

// Publisher is the subset of the SNS client the sender uses.
type Publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// OutboundRecorder receives one entry per provider call.
type OutboundRecorder interface {
	Record(a domain.OutboundActivity) string
}

// Sender delivers codes as SMS through AWS SNS.
type Sender struct {
	client   Publisher
	region   string
	recorder OutboundRecorder
	clock    clock.Clock
	logger   *zap.Logger
}

// NewSender loads the default AWS credential chain for region.
func NewSender(ctx context.Context, region string, recorder OutboundRecorder, logger *zap.Logger) (*Sender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSenderWithClient(sns.NewFromConfig(awsCfg), region, recorder, nil, logger), nil
}

func NewSenderWithClient(client Publisher, region string, recorder OutboundRecorder, clk clock.Clock, logger *zap.Logger) *Sender {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{client: client, region: region, recorder: recorder, clock: clk, logger: logger}
}

// Send publishes the code to identity and returns the SNS message id.
func (s *Sender) Send(ctx context.Context, identity, code string, trigger map[string]interface{}) (interface{}, error) {
	start := s.clock.Now()
	msg := fmt.Sprintf("Your verification code is %s", code)
	out, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(identity),
		Message:     aws.String(msg),
	})

	activity := domain.OutboundActivity{
		Method:         "PUBLISH",
		TargetURL:      "sns://" + s.region,
		Payload:        map[string]interface{}{"phoneNumber": identity, "message": "Your verification code is ***"},
		ResponseTime:   s.clock.Now().Sub(start).Milliseconds(),
		Trigger:        domain.TriggerSignalPost,
		TriggerPayload: trigger,
	}
	if err != nil {
		activity.Error = err.Error()
		s.record(activity)
		s.logger.Warn("sns publish failed", zap.String("phone", identity), zap.Error(err))
		return nil, fmt.Errorf("sns publish: %w", err)
	}

	resp := map[string]interface{}{"messageId": aws.ToString(out.MessageId)}
	activity.Success = true
	activity.ResponseData = resp
	s.record(activity)
	return resp, nil
}

func (s *Sender) record(a domain.OutboundActivity) {
	if s.recorder != nil {
		s.recorder.Record(a)
	}
}
