package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultLocationTTL is how long a reported seller position stays
// visible without a refresh. Seller apps report on a ~30s poll cycle,
// so two missed cycles drop the marker.
const DefaultLocationTTL = 90 * time.Second

// SellerLocation is a seller's last reported position.
type SellerLocation struct {
	SellerID   uuid.UUID `json:"seller_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	ReportedAt time.Time `json:"reported_at"`
}

// LocationTracker keeps the live positions of field sellers in Redis.
// Entries expire on their own; a seller that stops reporting simply
// disappears from the map.
type LocationTracker struct {
	client *Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewLocationTracker creates a location tracker. A zero ttl uses
// DefaultLocationTTL.
func NewLocationTracker(client *Client, logger *zap.Logger, ttl time.Duration) *LocationTracker {
	if ttl <= 0 {
		ttl = DefaultLocationTTL
	}
	return &LocationTracker{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

func locationKey(sellerID uuid.UUID) string {
	return "location:" + sellerID.String()
}

// Update stores the seller's current position with the tracker's TTL.
func (t *LocationTracker) Update(ctx context.Context, sellerID uuid.UUID, lat, lng float64) error {
	loc := SellerLocation{
		SellerID:   sellerID,
		Latitude:   lat,
		Longitude:  lng,
		ReportedAt: time.Now(),
	}

	data, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("marshal location: %w", err)
	}

	if err := t.client.rdb.Set(ctx, locationKey(sellerID), data, t.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	t.logger.Debug("seller location updated",
		zap.String("seller_id", sellerID.String()),
	)

	return nil
}

// List returns all currently active seller positions.
func (t *LocationTracker) List(ctx context.Context) ([]SellerLocation, error) {
	var locations []SellerLocation

	iter := t.client.rdb.Scan(ctx, 0, "location:*", 100).Iterator()
	for iter.Next(ctx) {
		val, err := t.client.rdb.Get(ctx, iter.Val()).Result()
		if err == redis.Nil {
			continue // expired between scan and get
		}
		if err != nil {
			return nil, fmt.Errorf("redis get failed: %w", err)
		}

		var loc SellerLocation
		if err := json.Unmarshal([]byte(val), &loc); err != nil {
			t.logger.Warn("discarding malformed location entry",
				zap.String("key", iter.Val()),
				zap.Error(err),
			)
			continue
		}
		locations = append(locations, loc)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan failed: %w", err)
	}

	return locations, nil
}
