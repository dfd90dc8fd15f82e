package reminder

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"
)

// SNSSender delivers SMS reminders via AWS SNS.
type SNSSender struct {
	client *sns.Client
	logger *zap.Logger
}

type SNSConfig struct {
	Region string
}

// NewSNSSender creates an SNS sender for SMS reminders.
func NewSNSSender(ctx context.Context, cfg SNSConfig, logger *zap.Logger) (*SNSSender, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load default AWS config for SNS: %w", err)
	}

	return &SNSSender{
		client: sns.NewFromConfig(awsCfg),
		logger: logger,
	}, nil
}

// Send sends an SMS reminder via AWS SNS.
func (s *SNSSender) Send(ctx context.Context, rem *Reminder) error {
	if rem.Channel != ChannelSMS {
		return fmt.Errorf("SNS sender only supports SMS, got: %s", rem.Channel)
	}
	if rem.To == "" {
		return fmt.Errorf("SMS reminder missing phone number")
	}
	if rem.Body == "" {
		return fmt.Errorf("SMS reminder missing body")
	}

	input := &sns.PublishInput{
		PhoneNumber: aws.String(rem.To),
		Message:     aws.String(rem.Body),
	}

	result, err := s.client.Publish(ctx, input)
	if err != nil {
		return fmt.Errorf("sns publish failed: %w", err)
	}

	s.logger.Info("reminder SMS sent via SNS",
		zap.String("client_id", rem.ClientID.String()),
		zap.String("message_id", aws.ToString(result.MessageId)),
	)

	return nil
}

// SupportsChannel reports whether this sender handles the channel.
func (s *SNSSender) SupportsChannel(channel string) bool {
	return channel == ChannelSMS
}
