package domain

import "time"

// OfferStatus represents the lifecycle state of an offer.
type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusAccepted OfferStatus = "accepted"
	// OfferStatusCountered is declared for wire compatibility but is never
	// assigned: counters notify the buyer without advancing offer status.
	OfferStatusCountered OfferStatus = "countered"
	OfferStatusRejected  OfferStatus = "rejected"
)

// OfferTTL is how long an offer stays live in the store. Expiry is enforced
// by the store's TTL, so an expired offer reads exactly like an unknown one.
const OfferTTL = 24 * time.Hour

// DefaultBroadcastRadiusKm bounds the seller fan-out when the buyer does not
// supply a radius.
const DefaultBroadcastRadiusKm = 5.0

// Offer is a buyer's purchase request, broadcast to nearby sellers.
type Offer struct {
	ID          string      `json:"id"`
	BuyerID     string      `json:"buyer_id"`
	SellerID    string      `json:"seller_id,omitempty"` // set on acceptance
	ProductName string      `json:"product_name"`
	Description string      `json:"description"`
	Price       float64     `json:"price"`
	Quantity    int         `json:"quantity"`
	Images      []string    `json:"images"` // stored image refs, min 2
	Location    Location    `json:"location"`
	Status      OfferStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	ExpiresAt   time.Time   `json:"expires_at"`
	AcceptedAt  *time.Time  `json:"accepted_at,omitempty"`
}

// CounterOffer is a seller's price counter against a live offer. Records are
// immutable; an offer may accumulate any number of them.
type CounterOffer struct {
	ID              string    `json:"id"`
	OriginalOfferID string    `json:"original_offer_id"`
	SellerID        string    `json:"seller_id"`
	NewPrice        float64   `json:"new_price"`
	Message         string    `json:"message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Report is a write-once complaint about another participant.
type Report struct {
	ID          string    `json:"id"`
	ReporterID  string    `json:"reporter_id"`
	ReportedID  string    `json:"reported_id"`
	OfferID     string    `json:"offer_id,omitempty"`
	Reason      string    `json:"reason"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
