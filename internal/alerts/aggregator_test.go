package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gportela85/gestor/internal/db"
)

func makeMessage(content string, receiver *string, createdAt time.Time) *db.Message {
	return &db.Message{
		ID:            uuid.New(),
		Content:       content,
		SenderName:    "Admin",
		ReceiverEmail: receiver,
		CreatedAt:     createdAt,
	}
}

func TestMessageNotification_KindByReceiver(t *testing.T) {
	now := time.Now()

	broadcast := MessageNotification(makeMessage("para todos", nil, now))
	if broadcast.Kind != KindGeneral {
		t.Errorf("broadcast message should be general, got %s", broadcast.Kind)
	}

	receiver := "joao@gestor.app"
	private := MessageNotification(makeMessage("só para o João", &receiver, now))
	if private.Kind != KindPrivate {
		t.Errorf("targeted message should be private, got %s", private.Kind)
	}

	if !broadcast.Deletable || broadcast.SourceMessageID == nil {
		t.Error("message notifications must be deletable and carry the source id")
	}
	if !broadcast.Timestamp.Equal(now) {
		t.Error("message notifications must keep the message creation time")
	}
}

func TestBuildFeed_SortedNewestFirst(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

	messages := []*db.Message{
		makeMessage("old", nil, now.Add(-48*time.Hour)),
		makeMessage("newer", nil, now.Add(-1*time.Hour)),
		makeMessage("oldest", nil, now.Add(-72*time.Hour)),
	}
	clients := []*db.Client{makeClient(db.StatusLate, 20)}

	feed := BuildFeed(clients, messages, now)
	if len(feed) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(feed))
	}

	for i := 1; i < len(feed); i++ {
		if feed[i].Timestamp.After(feed[i-1].Timestamp) {
			t.Fatalf("feed not sorted descending at index %d", i)
		}
	}

	// Billing alerts are stamped "now", so they lead every past message.
	if feed[0].Title != TitleOverdue {
		t.Errorf("expected the billing alert first, got %q", feed[0].Title)
	}
}

func TestBuildFeed_Recomputation_IsStable(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
	clients := []*db.Client{makeClient(db.StatusLate, 5), makeClient(db.StatusActive, 15)}
	messages := []*db.Message{makeMessage("oi", nil, now.Add(-time.Hour))}

	a := BuildFeed(clients, messages, now)
	b := BuildFeed(clients, messages, now)

	if len(a) != len(b) {
		t.Fatalf("feed lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Content != b[i].Content {
			t.Errorf("entry %d differs between identical passes", i)
		}
	}
}

// fakeFeedRepo is an in-memory FeedRepository.
type fakeFeedRepo struct {
	clients  []*db.Client
	messages []*db.Message

	failList bool
	deleted  []uuid.UUID
}

var errStore = errors.New("store unavailable")

func (f *fakeFeedRepo) ListClients(ctx context.Context) ([]*db.Client, error) {
	if f.failList {
		return nil, errStore
	}
	return f.clients, nil
}

func (f *fakeFeedRepo) ListMessages(ctx context.Context) ([]*db.Message, error) {
	if f.failList {
		return nil, errStore
	}
	return f.messages, nil
}

func (f *fakeFeedRepo) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	for i, m := range f.messages {
		if m.ID == id {
			f.messages = append(f.messages[:i], f.messages[i+1:]...)
			break
		}
	}
	return nil
}

func TestService_DeleteMessageRemovesFromNextPass(t *testing.T) {
	now := time.Now()
	msg := makeMessage("apagar depois", nil, now.Add(-time.Hour))
	repo := &fakeFeedRepo{messages: []*db.Message{msg}}
	svc := NewService(repo, zap.NewNop())

	feed, err := svc.Feed(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(feed) != 1 {
		t.Fatalf("expected 1 entry before delete, got %d", len(feed))
	}

	if err := svc.DeleteMessage(context.Background(), msg.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	feed, err = svc.Feed(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(feed) != 0 {
		t.Fatalf("expected empty feed after delete, got %d entries", len(feed))
	}

	// Second delete is a store-level no-op.
	if err := svc.DeleteMessage(context.Background(), msg.ID); err != nil {
		t.Fatalf("repeated delete should not fail: %v", err)
	}
}

func TestService_FeedPropagatesStoreErrors(t *testing.T) {
	svc := NewService(&fakeFeedRepo{failList: true}, zap.NewNop())

	if _, err := svc.Feed(context.Background()); !errors.Is(err, errStore) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}
