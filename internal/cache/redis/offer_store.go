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

// OfferStore implements domain.OfferStore using Redis hashes with
// JSON-serialized offer data and a key-level TTL.
//
// Key schema:
//
//	offer:{id} - hash with field "data" containing JSON, EXPIRE = offer TTL
//
// TTL is the only expiry mechanism: once the key lapses, the offer reads as
// ErrNotFound exactly like an id that never existed.
type OfferStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewOfferStore creates an OfferStore backed by the given Client. A
// non-positive ttl falls back to the 24h default.
func NewOfferStore(c *Client, ttl time.Duration) *OfferStore {
	if ttl <= 0 {
		ttl = domain.OfferTTL
	}
	return &OfferStore{rdb: c.Underlying(), ttl: ttl}
}

func offerKey(id string) string { return "offer:" + id }

// Put stores a new offer and arms its expiry.
func (s *OfferStore) Put(ctx context.Context, offer domain.Offer) error {
	data, err := json.Marshal(offer)
	if err != nil {
		return fmt.Errorf("redis: marshal offer %s: %w", offer.ID, err)
	}

	key := offerKey(offer.ID)

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, "data", data)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: put offer %s: %w", offer.ID, err)
	}
	return nil
}

// Get retrieves an offer by id. It returns domain.ErrNotFound when the key
// does not exist or has expired.
func (s *OfferStore) Get(ctx context.Context, id string) (domain.Offer, error) {
	data, err := s.rdb.HGet(ctx, offerKey(id), "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Offer{}, domain.ErrNotFound
		}
		return domain.Offer{}, fmt.Errorf("redis: get offer %s: %w", id, err)
	}

	var offer domain.Offer
	if err := json.Unmarshal(data, &offer); err != nil {
		return domain.Offer{}, fmt.Errorf("redis: unmarshal offer %s: %w", id, err)
	}
	return offer, nil
}

// Update rewrites an existing offer record and re-arms its absolute expiry
// from the record's ExpiresAt. Re-arming rather than relying on the key's
// remaining TTL means a key that lapses mid-update still ends up expired: an
// ExpiresAt in the past deletes the key. Returns domain.ErrNotFound if the
// record has already expired.
func (s *OfferStore) Update(ctx context.Context, offer domain.Offer) error {
	key := offerKey(offer.ID)

	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis: update offer %s: %w", offer.ID, err)
	}
	if exists == 0 {
		return domain.ErrNotFound
	}

	data, err := json.Marshal(offer)
	if err != nil {
		return fmt.Errorf("redis: marshal offer %s: %w", offer.ID, err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, "data", data)
	pipe.ExpireAt(ctx, key, offer.ExpiresAt)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: update offer %s: %w", offer.ID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.OfferStore = (*OfferStore)(nil)
