package domain

import "time"

// ClientKind distinguishes the two session roles on the realtime transport.
type ClientKind string

const (
	KindBuyer  ClientKind = "buyer"
	KindSeller ClientKind = "seller"
)

// Location is a WGS84 coordinate pair in decimal degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// UserProfile is the durable record of a marketplace participant. Contact
// fields are disclosed to the counterparty only after an offer is accepted.
type UserProfile struct {
	ID        string     `json:"id"`
	Kind      ClientKind `json:"kind"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	WhatsApp  string     `json:"whatsapp"`
	Rating    float64    `json:"rating"`
	Category  string     `json:"category"`
	Home      Location   `json:"location"`
	CreatedAt time.Time  `json:"created_at"`
}

// Contact is the subset of a profile revealed on acceptance.
type Contact struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	WhatsApp string `json:"whatsapp,omitempty"`
}

// Contact extracts the disclosure fields from a profile.
func (p UserProfile) Contact() Contact {
	return Contact{
		Name:     p.Name,
		Phone:    p.Phone,
		WhatsApp: p.WhatsApp,
	}
}

// SellerPresence is a seller's last-known location and reachability. It is
// independent of any single live connection: LastSeen survives disconnects
// and IsOnline is true only while a seller-kind session is registered.
type SellerPresence struct {
	SellerID string    `json:"seller_id"`
	Location Location  `json:"location"`
	IsOnline bool      `json:"is_online"`
	LastSeen time.Time `json:"last_seen"`
}

// SellerSummary is the nearby-sellers listing row: a profile augmented with
// live presence and the distance from the query origin, rounded to 0.1 km.
type SellerSummary struct {
	UserProfile
	DistanceKm float64   `json:"distance"`
	IsOnline   bool      `json:"is_online"`
	LastSeen   time.Time `json:"last_seen"`
}
