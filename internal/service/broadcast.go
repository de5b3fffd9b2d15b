package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/takudzwam/pamsika/internal/domain"
	"github.com/takudzwam/pamsika/internal/geo"
)

// Connections is the slice of the connection registry the broadcaster needs:
// a seller snapshot and best-effort targeted delivery.
type Connections interface {
	SellerIDs() []string
	SendTo(id string, payload []byte) bool
}

// Broadcaster delivers a payload to every connected seller within a radius
// of an origin point. Filtering is recomputed per broadcast from live
// presence rather than kept as a standing spatial index: seller counts are
// small and locations churn faster than broadcasts happen.
type Broadcaster struct {
	conns    Connections
	presence domain.PresenceStore
	logger   *slog.Logger
}

// NewBroadcaster creates a Broadcaster over the given connections and
// presence store.
func NewBroadcaster(conns Connections, presence domain.PresenceStore, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		conns:    conns,
		presence: presence,
		logger:   logger.With(slog.String("component", "broadcaster")),
	}
}

// BroadcastToSellers sends payload to every seller with a live connection
// whose last-known location is within radiusKm of the origin. Sellers with
// no presence record are excluded; a failed delivery to one seller never
// stops delivery to the rest. Returns the number of deliveries that landed.
func (b *Broadcaster) BroadcastToSellers(ctx context.Context, payload []byte, lat, lng, radiusKm float64) int {
	delivered := 0
	candidates := b.conns.SellerIDs()

	for _, id := range candidates {
		p, err := b.presence.Get(ctx, id)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				b.logger.WarnContext(ctx, "presence lookup failed during broadcast",
					slog.String("seller_id", id),
					slog.String("error", err.Error()),
				)
			}
			// No presence, no proximity decision: exclude.
			continue
		}

		if geo.DistanceKm(lat, lng, p.Location.Lat, p.Location.Lng) > radiusKm {
			continue
		}

		if b.conns.SendTo(id, payload) {
			delivered++
		}
	}

	b.logger.InfoContext(ctx, "broadcast to sellers",
		slog.Int("candidates", len(candidates)),
		slog.Int("delivered", delivered),
		slog.Float64("radius_km", radiusKm),
	)
	return delivered
}
