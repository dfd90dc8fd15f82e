// Package reminder delivers composed payment reminders to clients
// over email, SMS or a WhatsApp gateway.
package reminder

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Delivery channels
const (
	ChannelEmail    = "email"
	ChannelSMS      = "sms"
	ChannelWhatsapp = "whatsapp"
)

// Reminder is a composed message ready for delivery.
type Reminder struct {
	ClientID uuid.UUID
	Channel  string
	To       string // email address or phone number, per channel
	Subject  string // email only
	Body     string
}

// Sender is the unified interface for all delivery channels.
type Sender interface {
	Send(ctx context.Context, rem *Reminder) error
	SupportsChannel(channel string) bool
}

// MultiSender routes reminders to the first sender that supports the
// channel.
type MultiSender struct {
	senders []Sender
	logger  *zap.Logger
}

// NewMultiSender creates a router over multiple underlying senders.
func NewMultiSender(logger *zap.Logger, senders ...Sender) *MultiSender {
	return &MultiSender{
		senders: senders,
		logger:  logger,
	}
}

// Send routes the reminder to the matching channel sender.
func (m *MultiSender) Send(ctx context.Context, rem *Reminder) error {
	for _, sender := range m.senders {
		if sender.SupportsChannel(rem.Channel) {
			return sender.Send(ctx, rem)
		}
	}
	return fmt.Errorf("no sender configured for channel: %s", rem.Channel)
}

// SupportsChannel reports whether any underlying sender handles the channel.
func (m *MultiSender) SupportsChannel(channel string) bool {
	for _, sender := range m.senders {
		if sender.SupportsChannel(channel) {
			return true
		}
	}
	return false
}

// LogSender logs reminders instead of delivering them, for development
// and tests.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, rem *Reminder) error {
	s.logger.Info("reminder (log only)",
		zap.String("client_id", rem.ClientID.String()),
		zap.String("channel", rem.Channel),
		zap.String("to", rem.To),
		zap.Int("body_length", len(rem.Body)),
	)
	return nil
}

// SupportsChannel accepts every channel so development setups never
// drop reminders.
func (s *LogSender) SupportsChannel(channel string) bool {
	return true
}
