package reminder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// WhatsappSender posts reminders to an external WhatsApp gateway over
// HTTP. The gateway owns session management with WhatsApp; this sender
// only hands it a phone number and a message.
type WhatsappSender struct {
	client     *http.Client
	gatewayURL string
	token      string
	logger     *zap.Logger
}

type WhatsappConfig struct {
	GatewayURL string
	Token      string
	Timeout    time.Duration
}

// NewWhatsappSender creates a WhatsApp gateway sender.
func NewWhatsappSender(cfg WhatsappConfig, logger *zap.Logger) *WhatsappSender {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &WhatsappSender{
		client: &http.Client{
			Timeout: timeout,
		},
		gatewayURL: cfg.GatewayURL,
		token:      cfg.Token,
		logger:     logger,
	}
}

type whatsappRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Send posts the reminder to the gateway.
func (s *WhatsappSender) Send(ctx context.Context, rem *Reminder) error {
	if rem.Channel != ChannelWhatsapp {
		return fmt.Errorf("whatsapp sender only supports whatsapp, got: %s", rem.Channel)
	}
	if rem.To == "" {
		return fmt.Errorf("whatsapp reminder missing phone number")
	}
	if s.gatewayURL == "" {
		return fmt.Errorf("whatsapp gateway not configured")
	}

	body, err := json.Marshal(whatsappRequest{Phone: rem.To, Message: rem.Body})
	if err != nil {
		return fmt.Errorf("marshal gateway payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	s.logger.Info("reminder sent via whatsapp gateway",
		zap.String("client_id", rem.ClientID.String()),
		zap.Int("status", resp.StatusCode),
	)

	return nil
}

// SupportsChannel reports whether this sender handles the channel.
func (s *WhatsappSender) SupportsChannel(channel string) bool {
	return channel == ChannelWhatsapp
}
