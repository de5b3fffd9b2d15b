package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/takudzwam/pamsika/internal/domain"
	"github.com/takudzwam/pamsika/internal/geo"
)

// Sellers serves seller discovery queries over the durable profile store and
// the live presence store.
type Sellers struct {
	users    domain.UserStore
	presence domain.PresenceStore
	logger   *slog.Logger
}

// NewSellers creates a Sellers service.
func NewSellers(users domain.UserStore, presence domain.PresenceStore, logger *slog.Logger) *Sellers {
	return &Sellers{
		users:    users,
		presence: presence,
		logger:   logger.With(slog.String("component", "sellers")),
	}
}

// ListNearby returns sellers whose last-known location is within radiusKm of
// the origin, sorted ascending by distance. Each summary carries the
// distance rounded to 0.1 km plus the seller's online flag and last-seen
// time. Sellers with no presence record are excluded: without a location
// there is no proximity to rank them by.
func (s *Sellers) ListNearby(ctx context.Context, lat, lng, radiusKm float64) ([]domain.SellerSummary, error) {
	profiles, err := s.users.ListSellers(ctx)
	if err != nil {
		return nil, fmt.Errorf("sellers: list profiles: %w", err)
	}

	out := make([]domain.SellerSummary, 0, len(profiles))
	for _, profile := range profiles {
		p, err := s.presence.Get(ctx, profile.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("sellers: presence for %s: %w", profile.ID, err)
		}

		d := geo.DistanceKm(lat, lng, p.Location.Lat, p.Location.Lng)
		if d > radiusKm {
			continue
		}

		out = append(out, domain.SellerSummary{
			UserProfile: profile,
			DistanceKm:  math.Round(d*10) / 10,
			IsOnline:    p.IsOnline,
			LastSeen:    p.LastSeen,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out, nil
}
