package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/takudzwam/pamsika/internal/domain"
)

// sampleSellers are development fixtures around central Harare. They are only
// written when marketplace.seed_sample_data is enabled.
var sampleSellers = []domain.UserProfile{
	{
		ID:       "seller_1",
		Kind:     domain.KindSeller,
		Name:     "John Mukamuri",
		Phone:    "+263 77 123 4567",
		WhatsApp: "+263 77 123 4567",
		Rating:   4.8,
		Category: "Food & Groceries",
		Home:     domain.Location{Lat: -17.8201, Lng: 31.0369},
	},
	{
		ID:       "seller_2",
		Kind:     domain.KindSeller,
		Name:     "Grace Chimedza",
		Phone:    "+263 77 234 5678",
		WhatsApp: "+263 77 234 5678",
		Rating:   4.6,
		Category: "Food & Groceries",
		Home:     domain.Location{Lat: -17.8290, Lng: 31.0410},
	},
	{
		ID:       "seller_3",
		Kind:     domain.KindSeller,
		Name:     "Tendai Moyo",
		Phone:    "+263 77 345 6789",
		WhatsApp: "+263 77 345 6789",
		Rating:   4.9,
		Category: "Electronics",
		Home:     domain.Location{Lat: -17.8150, Lng: 31.0280},
	},
}

// seedSampleData upserts the sample seller profiles and records each one's
// home location as its last known position. Seeded sellers start offline;
// they flip online when they connect.
func (a *App) seedSampleData(ctx context.Context, deps *Dependencies) error {
	for _, profile := range sampleSellers {
		p := profile
		p.CreatedAt = time.Now().UTC()
		if err := deps.Users.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert %s: %w", p.ID, err)
		}
		if err := deps.Presence.SetLocation(ctx, p.ID, p.Home.Lat, p.Home.Lng); err != nil {
			return fmt.Errorf("seed presence %s: %w", p.ID, err)
		}
		if err := deps.Presence.SetOnline(ctx, p.ID, false); err != nil {
			return fmt.Errorf("seed presence %s: %w", p.ID, err)
		}
	}

	a.logger.InfoContext(ctx, "sample sellers seeded",
		slog.Int("count", len(sampleSellers)),
	)
	return nil
}
