package sns

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/signal-otp-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	if v := args.Get(0); v != nil {
		return v.(*sns.PublishOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

type captureRecorder struct{ got []domain.OutboundActivity }

func (c *captureRecorder) Record(a domain.OutboundActivity) string {
	c.got = append(c.got, a)
	return "A1"
}

func TestSender_Send(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		return aws.ToString(in.PhoneNumber) == "+12025550123" &&
			aws.ToString(in.Message) == "Your verification code is 12345"
	})).Return(&sns.PublishOutput{MessageId: aws.String("m-1")}, nil)
	rec := &captureRecorder{}

	s := NewSenderWithClient(pub, "us-east-1", rec, nil, nil)
	resp, err := s.Send(context.Background(), "+12025550123", "12345", nil)

	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"messageId": "m-1"}, resp)
	require.Len(t, rec.got, 1)
	assert.True(t, rec.got[0].Success)
	assert.Equal(t, domain.TriggerSignalPost, rec.got[0].Trigger)
	assert.NotContains(t, rec.got[0].Payload.(map[string]interface{})["message"], "12345")
	pub.AssertExpectations(t)
}

func TestSender_SendFailure(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))
	rec := &captureRecorder{}

	s := NewSenderWithClient(pub, "us-east-1", rec, nil, nil)
	_, err := s.Send(context.Background(), "+12025550123", "12345", nil)

	require.Error(t, err)
	require.Len(t, rec.got, 1)
	assert.False(t, rec.got[0].Success)
	assert.Equal(t, "throttled", rec.got[0].Error)
}
