package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/takudzwam/pamsika/internal/domain"
)

// PresenceStore implements domain.PresenceStore using one Redis hash per
// seller.
//
// Key schema:
//
//	seller:{id} - hash with fields:
//	    location  - JSON {"lat":..,"lng":..}
//	    is_online - "true" / "false"
//	    last_seen - RFC 3339 timestamp
type PresenceStore struct {
	rdb *redis.Client
	now func() time.Time
}

// NewPresenceStore creates a PresenceStore backed by the given Client.
func NewPresenceStore(c *Client) *PresenceStore {
	return &PresenceStore{rdb: c.Underlying(), now: time.Now}
}

func sellerKey(id string) string { return "seller:" + id }

// SetLocation upserts the seller's last-known location.
func (s *PresenceStore) SetLocation(ctx context.Context, sellerID string, lat, lng float64) error {
	loc, err := json.Marshal(domain.Location{Lat: lat, Lng: lng})
	if err != nil {
		return fmt.Errorf("redis: marshal location for %s: %w", sellerID, err)
	}
	if err := s.rdb.HSet(ctx, sellerKey(sellerID), "location", loc).Err(); err != nil {
		return fmt.Errorf("redis: set location for %s: %w", sellerID, err)
	}
	return nil
}

// SetOnline flips the seller's reachability flag.
func (s *PresenceStore) SetOnline(ctx context.Context, sellerID string, online bool) error {
	val := "false"
	if online {
		val = "true"
	}
	if err := s.rdb.HSet(ctx, sellerKey(sellerID), "is_online", val).Err(); err != nil {
		return fmt.Errorf("redis: set online for %s: %w", sellerID, err)
	}
	return nil
}

// TouchLastSeen stamps the seller's last-seen time with the current clock.
func (s *PresenceStore) TouchLastSeen(ctx context.Context, sellerID string) error {
	ts := s.now().UTC().Format(time.RFC3339Nano)
	if err := s.rdb.HSet(ctx, sellerKey(sellerID), "last_seen", ts).Err(); err != nil {
		return fmt.Errorf("redis: touch last_seen for %s: %w", sellerID, err)
	}
	return nil
}

// Get retrieves a seller's presence. It returns domain.ErrNotFound when no
// presence has ever been written for the id, so callers exclude the seller
// from proximity decisions instead of trusting a zero location.
func (s *PresenceStore) Get(ctx context.Context, sellerID string) (domain.SellerPresence, error) {
	fields, err := s.rdb.HGetAll(ctx, sellerKey(sellerID)).Result()
	if err != nil {
		return domain.SellerPresence{}, fmt.Errorf("redis: get presence for %s: %w", sellerID, err)
	}
	if len(fields) == 0 {
		return domain.SellerPresence{}, domain.ErrNotFound
	}
	return parsePresence(sellerID, fields)
}

// ListAll enumerates every seller presence record via the seller:* key
// pattern. Seller counts are small enough that KEYS is acceptable here.
func (s *PresenceStore) ListAll(ctx context.Context) ([]domain.SellerPresence, error) {
	keys, err := s.rdb.Keys(ctx, "seller:*").Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list seller keys: %w", err)
	}

	out := make([]domain.SellerPresence, 0, len(keys))
	for _, key := range keys {
		id := key[len("seller:"):]
		p, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Deleted between KEYS and HGETALL; skip.
				continue
			}
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func parsePresence(sellerID string, fields map[string]string) (domain.SellerPresence, error) {
	p := domain.SellerPresence{
		SellerID: sellerID,
		IsOnline: fields["is_online"] == "true",
	}

	if raw, ok := fields["location"]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &p.Location); err != nil {
			return domain.SellerPresence{}, fmt.Errorf("redis: unmarshal location for %s: %w", sellerID, err)
		}
	}
	if raw, ok := fields["last_seen"]; ok && raw != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return domain.SellerPresence{}, fmt.Errorf("redis: parse last_seen for %s: %w", sellerID, err)
		}
		p.LastSeen = ts
	}
	return p, nil
}

// Compile-time interface check.
var _ domain.PresenceStore = (*PresenceStore)(nil)
