package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/takudzwam/pamsika/internal/domain"
)

// CounterOfferStore implements domain.CounterOfferStore. Counters are
// immutable and carry no TTL of their own.
//
// Key schema:
//
//	counter:{id} - hash with field "data" containing JSON
type CounterOfferStore struct {
	rdb *redis.Client
}

// NewCounterOfferStore creates a CounterOfferStore backed by the given Client.
func NewCounterOfferStore(c *Client) *CounterOfferStore {
	return &CounterOfferStore{rdb: c.Underlying()}
}

func counterKey(id string) string { return "counter:" + id }

// Put stores a counter-offer record.
func (s *CounterOfferStore) Put(ctx context.Context, counter domain.CounterOffer) error {
	data, err := json.Marshal(counter)
	if err != nil {
		return fmt.Errorf("redis: marshal counter %s: %w", counter.ID, err)
	}
	if err := s.rdb.HSet(ctx, counterKey(counter.ID), "data", data).Err(); err != nil {
		return fmt.Errorf("redis: put counter %s: %w", counter.ID, err)
	}
	return nil
}

// Get retrieves a counter-offer by id.
func (s *CounterOfferStore) Get(ctx context.Context, id string) (domain.CounterOffer, error) {
	data, err := s.rdb.HGet(ctx, counterKey(id), "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.CounterOffer{}, domain.ErrNotFound
		}
		return domain.CounterOffer{}, fmt.Errorf("redis: get counter %s: %w", id, err)
	}

	var counter domain.CounterOffer
	if err := json.Unmarshal(data, &counter); err != nil {
		return domain.CounterOffer{}, fmt.Errorf("redis: unmarshal counter %s: %w", id, err)
	}
	return counter, nil
}

// Compile-time interface check.
var _ domain.CounterOfferStore = (*CounterOfferStore)(nil)
