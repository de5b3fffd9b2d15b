package domain

import "context"

// PresenceStore tracks each seller's last-known location and reachability.
// All writes are idempotent upserts; Get returns ErrNotFound for unknown ids
// so callers exclude the seller from proximity decisions rather than
// treating a zero location as real.
type PresenceStore interface {
	SetLocation(ctx context.Context, sellerID string, lat, lng float64) error
	SetOnline(ctx context.Context, sellerID string, online bool) error
	TouchLastSeen(ctx context.Context, sellerID string) error
	Get(ctx context.Context, sellerID string) (SellerPresence, error)
	ListAll(ctx context.Context) ([]SellerPresence, error)
}

// OfferStore persists offers with store-enforced expiry. Get on an expired
// offer must be indistinguishable from a never-created one (ErrNotFound).
type OfferStore interface {
	Put(ctx context.Context, offer Offer) error
	Get(ctx context.Context, id string) (Offer, error)
	// Update rewrites an existing record, keeping its expiry anchored to
	// the record's ExpiresAt. Returns ErrNotFound if the record has
	// already expired.
	Update(ctx context.Context, offer Offer) error
}

// CounterOfferStore persists immutable counter records (store-default TTL).
type CounterOfferStore interface {
	Put(ctx context.Context, counter CounterOffer) error
	Get(ctx context.Context, id string) (CounterOffer, error)
}

// ReportStore persists write-once reports; the read path lives elsewhere.
type ReportStore interface {
	Put(ctx context.Context, report Report) error
}

// UserStore holds durable participant profiles, including the contact fields
// disclosed on acceptance.
type UserStore interface {
	Upsert(ctx context.Context, profile UserProfile) error
	GetByID(ctx context.Context, id string) (UserProfile, error)
	ListSellers(ctx context.Context) ([]UserProfile, error)
}

// MediaProcessor turns raw uploaded bytes into a storable image reference.
// Unsupported formats fail with ErrUnsupportedImage.
type MediaProcessor interface {
	Encode(ctx context.Context, raw []byte) (string, error)
}
