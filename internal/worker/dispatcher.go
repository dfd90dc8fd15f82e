// Package worker runs the background reminder dispatcher.
package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gportela85/gestor/internal/ai"
	"github.com/gportela85/gestor/internal/alerts"
	"github.com/gportela85/gestor/internal/db"
	"github.com/gportela85/gestor/internal/metrics"
	"github.com/gportela85/gestor/internal/reminder"
)

// Repository is the subset of store operations the dispatcher needs.
type Repository interface {
	ListClients(ctx context.Context) ([]*db.Client, error)
}

// Composer produces reminder text for a client. It never fails.
type Composer interface {
	Compose(ctx context.Context, client *db.Client, kind ai.MessageKind) string
}

type Config struct {
	PollInterval time.Duration
}

// Dispatcher periodically scans clients and sends payment reminders to
// the ones that are late or due today. Send failures are logged only;
// the next pass retries naturally. Each client gets at most one
// reminder per calendar day, tracked in process memory. A restart may
// resend the same day's reminder.
type Dispatcher struct {
	repo     Repository
	composer Composer
	sender   reminder.Sender
	config   Config
	logger   *zap.Logger

	// client id -> day (2006-01-02) of the last reminder
	lastSent map[uuid.UUID]string
}

func New(repo Repository, composer Composer, sender reminder.Sender, cfg Config, logger *zap.Logger) *Dispatcher {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 30 * time.Minute
	}

	return &Dispatcher{
		repo:     repo,
		composer: composer,
		sender:   sender,
		config:   cfg,
		logger:   logger,
		lastSent: make(map[uuid.UUID]string),
	}
}

// Start runs the dispatch loop until ctx is cancelled. The ticker is
// always stopped on return, so cancelling the context is the teardown.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("reminder dispatcher stopping")
			return
		case <-ticker.C:
			d.processPass(ctx, time.Now())
		}
	}
}

func (d *Dispatcher) processPass(ctx context.Context, now time.Time) {
	clients, err := d.repo.ListClients(ctx)
	if err != nil {
		d.logger.Error("failed to list clients for dispatch", zap.Error(err))
		return
	}

	derived := alerts.DeriveBillingAlerts(clients, now)
	counts := make(map[string]int)
	for _, a := range derived {
		counts[a.Title]++
	}
	metrics.RecordFeedBuild(counts)

	day := now.Format("2006-01-02")
	today := now.Day()

	for _, c := range clients {
		if c.Status == db.StatusPaused {
			continue
		}
		if c.Status != db.StatusLate && c.DueDay != today {
			continue
		}
		if d.lastSent[c.ID] == day {
			continue
		}

		rem := d.buildReminder(ctx, c)
		if rem == nil {
			d.logger.Warn("client has no reachable channel, skipping reminder",
				zap.String("client_id", c.ID.String()),
			)
			continue
		}

		err := d.sender.Send(ctx, rem)
		metrics.RecordReminderSent(rem.Channel, err)
		if err != nil {
			d.logger.Error("failed to send reminder",
				zap.Error(err),
				zap.String("client_id", c.ID.String()),
				zap.String("channel", rem.Channel),
			)
			continue
		}

		d.lastSent[c.ID] = day
		d.logger.Info("reminder dispatched",
			zap.String("client_id", c.ID.String()),
			zap.String("channel", rem.Channel),
			zap.String("status", c.Status),
		)
	}
}

// buildReminder composes the text and picks the delivery channel:
// WhatsApp when a number is on file, email otherwise.
func (d *Dispatcher) buildReminder(ctx context.Context, c *db.Client) *reminder.Reminder {
	body := d.composer.Compose(ctx, c, ai.KindFor(c))

	switch {
	case c.Whatsapp != "" && d.sender.SupportsChannel(reminder.ChannelWhatsapp):
		return &reminder.Reminder{
			ClientID: c.ID,
			Channel:  reminder.ChannelWhatsapp,
			To:       c.Whatsapp,
			Body:     body,
		}
	case c.Email != "" && d.sender.SupportsChannel(reminder.ChannelEmail):
		subject := "Lembrete de pagamento - " + c.AppName
		if c.Status == db.StatusLate {
			subject = "Pagamento em atraso - " + c.AppName
		}
		return &reminder.Reminder{
			ClientID: c.ID,
			Channel:  reminder.ChannelEmail,
			To:       c.Email,
			Subject:  subject,
			Body:     body,
		}
	}

	return nil
}
