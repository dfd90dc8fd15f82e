package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gportela85/gestor/internal/db"
	"github.com/gportela85/gestor/internal/metrics"
)

// MessageKind selects the reminder tone.
type MessageKind string

const (
	KindReminder MessageKind = "reminder" // upcoming payment
	KindOverdue  MessageKind = "overdue"  // payment already late
)

// KindFor picks the message kind from the client's lifecycle status.
func KindFor(c *db.Client) MessageKind {
	if c.Status == db.StatusLate {
		return KindOverdue
	}
	return KindReminder
}

// Generator is the text-generation collaborator. Implementations are
// fallible and may be slow; the composer absorbs both.
type Generator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Composer builds client-facing reminder texts. It never fails: when
// the generator errors, times out or returns nothing, the caller gets a
// fixed fallback that still mentions the product generically.
type Composer struct {
	generator Generator
	timeout   time.Duration
	logger    *zap.Logger
}

// NewComposer creates a reminder composer around a generator. A nil
// generator is allowed and always yields fallback text.
func NewComposer(generator Generator, timeout time.Duration, logger *zap.Logger) *Composer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Composer{
		generator: generator,
		timeout:   timeout,
		logger:    logger,
	}
}

const composerSystemPrompt = `Você escreve mensagens de cobrança para clientes de pequenos negócios.
Escreva uma mensagem curta e cordial em português, pronta para enviar por WhatsApp.
Inclua o link de pagamento no final. Responda apenas com a mensagem, sem aspas.`

// Compose returns the reminder text for a client. The generator call is
// bounded by the composer's timeout on top of whatever limit the
// generator itself carries, so a stalled service still degrades to the
// fallback instead of hanging the caller.
func (c *Composer) Compose(ctx context.Context, client *db.Client, kind MessageKind) string {
	if c.generator == nil {
		metrics.RecordComposerFallback()
		return fallbackText(client, kind)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var situation string
	if kind == KindOverdue {
		situation = "O pagamento está em atraso."
	} else {
		situation = fmt.Sprintf("O pagamento vence no dia %d.", client.DueDay)
	}

	userPrompt := fmt.Sprintf(
		"Cliente: %s\nProduto: %s\nValor mensal: R$ %.2f\nDia de vencimento: %d\nSituação: %s\nLink de pagamento: %s",
		client.Name, client.AppName, client.MonthlyValue, client.DueDay, situation, client.PaymentLink,
	)

	text, err := c.generator.GenerateText(ctx, composerSystemPrompt, userPrompt)
	if err != nil {
		c.logger.Warn("reminder generation failed, using fallback",
			zap.Error(err),
			zap.String("client_id", client.ID.String()),
			zap.String("kind", string(kind)),
		)
		metrics.RecordComposerFallback()
		return fallbackText(client, kind)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		c.logger.Warn("reminder generation returned empty text, using fallback",
			zap.String("client_id", client.ID.String()),
		)
		metrics.RecordComposerFallback()
		return fallbackText(client, kind)
	}

	return text
}

// fallbackText is the deterministic degradation path: generic product
// context, no personalization beyond the payment link.
func fallbackText(client *db.Client, kind MessageKind) string {
	if kind == KindOverdue {
		return fmt.Sprintf(
			"Olá! Identificamos que o pagamento da sua assinatura está em atraso. "+
				"Para manter o serviço ativo, regularize pelo link: %s",
			client.PaymentLink,
		)
	}
	return fmt.Sprintf(
		"Olá! Este é um lembrete do pagamento da sua assinatura. "+
			"Quando puder, efetue o pagamento pelo link: %s",
		client.PaymentLink,
	)
}
