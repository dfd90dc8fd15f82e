package alerts

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gportela85/gestor/internal/db"
)

// MessageNotification maps an admin message to a feed entry. Message
// entries are the only deletable ones, and the only ones that keep
// their original timestamp.
func MessageNotification(m *db.Message) Notification {
	kind := KindGeneral
	if m.ReceiverEmail != nil {
		kind = KindPrivate
	}

	id := m.ID
	return Notification{
		ID:              "msg-" + m.ID.String(),
		Kind:            kind,
		Title:           "Mensagem de " + m.SenderName,
		Content:         m.Content,
		Timestamp:       m.CreatedAt,
		Deletable:       true,
		SourceMessageID: &id,
		SenderName:      m.SenderName,
	}
}

// BuildFeed merges billing/trial alerts with message notifications and
// sorts the result newest first. It is a pure function of its inputs;
// calling it twice with the same snapshot yields the same feed.
//
// There is no deduplication beyond the natural per-source key
// uniqueness: a TESTING client appearing in both the due and trial
// output keeps both entries.
func BuildFeed(clients []*db.Client, messages []*db.Message, now time.Time) []Notification {
	feed := DeriveBillingAlerts(clients, now)
	for _, m := range messages {
		feed = append(feed, MessageNotification(m))
	}

	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].Timestamp.After(feed[j].Timestamp)
	})

	return feed
}

// FeedRepository is the subset of store operations the feed service needs.
type FeedRepository interface {
	ListClients(ctx context.Context) ([]*db.Client, error)
	ListMessages(ctx context.Context) ([]*db.Message, error)
	DeleteMessage(ctx context.Context, id uuid.UUID) error
}

// Service assembles the notification feed from fresh store snapshots.
// It holds no state between calls.
type Service struct {
	repo   FeedRepository
	logger *zap.Logger
}

// NewService creates a feed service.
func NewService(repo FeedRepository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Feed fetches current clients and messages and builds the feed.
func (s *Service) Feed(ctx context.Context) ([]Notification, error) {
	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	messages, err := s.repo.ListMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	feed := BuildFeed(clients, messages, time.Now())

	s.logger.Debug("feed rebuilt",
		zap.Int("clients", len(clients)),
		zap.Int("messages", len(messages)),
		zap.Int("entries", len(feed)),
	)

	return feed, nil
}

// DeleteMessage removes the backing message of a deletable feed entry.
// The caller is expected to rebuild the feed afterwards; billing and
// trial entries have no backing record and must never reach here.
func (s *Service) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteMessage(ctx, id)
}
