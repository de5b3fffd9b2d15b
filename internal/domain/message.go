package domain

// Wire message types exchanged over realtime sessions.
const (
	MsgLocationUpdate = "location_update"
	MsgNewOffer       = "new_offer"
	MsgCounterOffer   = "counter_offer"
	MsgOfferAccepted  = "offer_accepted"
)

// InboundMessage is the envelope read from a client session. Only
// location_update carries fields this system acts on; unknown types are read
// and dropped.
type InboundMessage struct {
	Type string  `json:"type"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// NewOfferMessage fans out to sellers within the broadcast radius.
type NewOfferMessage struct {
	Type  string `json:"type"`
	Offer Offer  `json:"offer"`
}

// CounterOfferMessage notifies the buyer of a seller's counter. The original
// offer rides along so the client needs no follow-up fetch.
type CounterOfferMessage struct {
	Type          string       `json:"type"`
	CounterOffer  CounterOffer `json:"counter_offer"`
	OriginalOffer Offer        `json:"original_offer"`
}

// OfferAcceptedMessage is the mutual contact disclosure, delivered to both
// parties independently.
type OfferAcceptedMessage struct {
	Type          string  `json:"type"`
	OfferID       string  `json:"offer_id"`
	SellerContact Contact `json:"seller_contact"`
	BuyerContact  Contact `json:"buyer_contact"`
}
