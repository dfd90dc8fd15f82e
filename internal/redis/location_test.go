package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := NewFromAddr(mr.Addr(), zap.NewNop())
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestLocationTracker_UpdateAndList(t *testing.T) {
	client, _ := newTestClient(t)
	tracker := NewLocationTracker(client, zap.NewNop(), time.Minute)
	ctx := context.Background()

	first := uuid.New()
	second := uuid.New()

	if err := tracker.Update(ctx, first, -23.5505, -46.6333); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if err := tracker.Update(ctx, second, -22.9068, -43.1729); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	locations, err := tracker.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(locations) != 2 {
		t.Fatalf("expected 2 locations, got %d", len(locations))
	}

	byID := map[uuid.UUID]SellerLocation{}
	for _, loc := range locations {
		byID[loc.SellerID] = loc
	}
	if byID[first].Latitude != -23.5505 {
		t.Errorf("unexpected latitude %f", byID[first].Latitude)
	}
}

func TestLocationTracker_RefreshOverwrites(t *testing.T) {
	client, _ := newTestClient(t)
	tracker := NewLocationTracker(client, zap.NewNop(), time.Minute)
	ctx := context.Background()

	seller := uuid.New()
	if err := tracker.Update(ctx, seller, 1, 1); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if err := tracker.Update(ctx, seller, 2, 2); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	locations, err := tracker.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(locations) != 1 {
		t.Fatalf("expected 1 location after refresh, got %d", len(locations))
	}
	if locations[0].Latitude != 2 {
		t.Errorf("expected refreshed position, got %f", locations[0].Latitude)
	}
}

func TestLocationTracker_EntriesExpire(t *testing.T) {
	client, mr := newTestClient(t)
	tracker := NewLocationTracker(client, zap.NewNop(), time.Second)
	ctx := context.Background()

	if err := tracker.Update(ctx, uuid.New(), 1, 1); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	mr.FastForward(2 * time.Second)

	locations, err := tracker.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(locations) != 0 {
		t.Fatalf("expected stale locations to expire, got %d", len(locations))
	}
}
