package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/takudzwam/pamsika/internal/domain"
)

// SellerBroadcaster fans a payload out to nearby connected sellers.
type SellerBroadcaster interface {
	BroadcastToSellers(ctx context.Context, payload []byte, lat, lng, radiusKm float64) int
}

// Sender delivers a payload to one identity, best effort.
type Sender interface {
	SendTo(id string, payload []byte) bool
}

// Negotiation is the offer / counter-offer / accept state machine. Offers
// expire through the store's TTL alone, so every read of an expired id fails
// with domain.ErrNotFound exactly like an unknown id.
type Negotiation struct {
	offers      domain.OfferStore
	counters    domain.CounterOfferStore
	users       domain.UserStore
	media       domain.MediaProcessor
	broadcaster SellerBroadcaster
	sender      Sender
	logger      *slog.Logger

	defaultRadiusKm float64
	now             func() time.Time

	// acceptMu serializes the pending→accepted transition so that two
	// sellers racing to accept cannot both observe a pending offer.
	acceptMu sync.Mutex
}

// NewNegotiation creates a Negotiation with all required dependencies. A
// non-positive defaultRadiusKm falls back to the 5 km default.
func NewNegotiation(
	offers domain.OfferStore,
	counters domain.CounterOfferStore,
	users domain.UserStore,
	media domain.MediaProcessor,
	broadcaster SellerBroadcaster,
	sender Sender,
	defaultRadiusKm float64,
	logger *slog.Logger,
) *Negotiation {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = domain.DefaultBroadcastRadiusKm
	}
	return &Negotiation{
		offers:          offers,
		counters:        counters,
		users:           users,
		media:           media,
		broadcaster:     broadcaster,
		sender:          sender,
		logger:          logger.With(slog.String("component", "negotiation")),
		defaultRadiusKm: defaultRadiusKm,
		now:             time.Now,
	}
}

// CreateOfferInput carries everything a buyer submits with a new offer.
// Images are raw uploaded bytes; they are validated and stored before
// anything is persisted or broadcast.
type CreateOfferInput struct {
	BuyerID     string
	ProductName string
	Description string
	Price       float64
	Quantity    int
	Images      [][]byte
	Location    domain.Location
	RadiusKm    float64 // 0 means the default radius
}

// CreateOffer validates the input, stores the images, persists a pending
// offer with a 24h lifetime, and broadcasts it to connected sellers within
// the radius. Validation failures abort before any persistence or broadcast.
func (n *Negotiation) CreateOffer(ctx context.Context, in CreateOfferInput) (domain.Offer, error) {
	if len(in.Images) < 2 {
		return domain.Offer{}, domain.ErrTooFewImages
	}
	if in.Price <= 0 {
		return domain.Offer{}, domain.ErrInvalidPrice
	}
	if in.Quantity <= 0 {
		return domain.Offer{}, domain.ErrInvalidQuantity
	}

	refs := make([]string, 0, len(in.Images))
	for i, raw := range in.Images {
		ref, err := n.media.Encode(ctx, raw)
		if err != nil {
			return domain.Offer{}, fmt.Errorf("negotiation: image %d: %w", i, err)
		}
		refs = append(refs, ref)
	}

	radius := in.RadiusKm
	if radius <= 0 {
		radius = n.defaultRadiusKm
	}

	now := n.now().UTC()
	offer := domain.Offer{
		ID:          uuid.NewString(),
		BuyerID:     in.BuyerID,
		ProductName: in.ProductName,
		Description: in.Description,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Images:      refs,
		Location:    in.Location,
		Status:      domain.OfferStatusPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(domain.OfferTTL),
	}

	if err := n.offers.Put(ctx, offer); err != nil {
		return domain.Offer{}, fmt.Errorf("negotiation: persist offer: %w", err)
	}

	payload, err := json.Marshal(domain.NewOfferMessage{
		Type:  domain.MsgNewOffer,
		Offer: offer,
	})
	if err != nil {
		return domain.Offer{}, fmt.Errorf("negotiation: marshal new_offer: %w", err)
	}

	delivered := n.broadcaster.BroadcastToSellers(ctx, payload, offer.Location.Lat, offer.Location.Lng, radius)

	n.logger.InfoContext(ctx, "offer created",
		slog.String("offer_id", offer.ID),
		slog.String("buyer_id", offer.BuyerID),
		slog.Float64("radius_km", radius),
		slog.Int("delivered", delivered),
	)
	return offer, nil
}

// GetOffer retrieves a live offer. Expired and unknown ids are
// indistinguishable (domain.ErrNotFound).
func (n *Negotiation) GetOffer(ctx context.Context, offerID string) (domain.Offer, error) {
	return n.offers.Get(ctx, offerID)
}

// CounterOffer records a seller's price counter against a live offer and
// notifies the buyer. The offer's own status is untouched: counters pile up
// while the offer stays pending. A buyer who is not connected simply misses
// the notification; the counter is recorded regardless.
func (n *Negotiation) CounterOffer(ctx context.Context, offerID, sellerID string, newPrice float64, message string) (domain.CounterOffer, error) {
	if newPrice <= 0 {
		return domain.CounterOffer{}, domain.ErrInvalidPrice
	}

	offer, err := n.offers.Get(ctx, offerID)
	if err != nil {
		return domain.CounterOffer{}, err
	}

	counter := domain.CounterOffer{
		ID:              uuid.NewString(),
		OriginalOfferID: offer.ID,
		SellerID:        sellerID,
		NewPrice:        newPrice,
		Message:         message,
		CreatedAt:       n.now().UTC(),
	}
	if err := n.counters.Put(ctx, counter); err != nil {
		return domain.CounterOffer{}, fmt.Errorf("negotiation: persist counter: %w", err)
	}

	payload, err := json.Marshal(domain.CounterOfferMessage{
		Type:          domain.MsgCounterOffer,
		CounterOffer:  counter,
		OriginalOffer: offer,
	})
	if err != nil {
		return domain.CounterOffer{}, fmt.Errorf("negotiation: marshal counter_offer: %w", err)
	}

	delivered := n.sender.SendTo(offer.BuyerID, payload)

	n.logger.InfoContext(ctx, "counter offer recorded",
		slog.String("offer_id", offer.ID),
		slog.String("counter_id", counter.ID),
		slog.String("seller_id", sellerID),
		slog.Bool("buyer_notified", delivered),
	)
	return counter, nil
}

// AcceptOffer transitions a pending offer to accepted, records the accepting
// seller, and discloses both parties' contact details to each other. A
// second accept on the same offer fails with domain.ErrAlreadyAccepted
// rather than overwriting the first seller.
//
// Contact exchange degrades silently: if the seller has no stored profile
// the accept still stands and no message goes out.
func (n *Negotiation) AcceptOffer(ctx context.Context, offerID, sellerID string) (domain.Offer, error) {
	// The guard below is read-check-write; the mutex makes it atomic so a
	// losing seller sees the accepted status, not a pending one.
	n.acceptMu.Lock()
	offer, err := n.offers.Get(ctx, offerID)
	if err != nil {
		n.acceptMu.Unlock()
		return domain.Offer{}, err
	}
	if offer.Status != domain.OfferStatusPending {
		n.acceptMu.Unlock()
		return domain.Offer{}, domain.ErrAlreadyAccepted
	}

	acceptedAt := n.now().UTC()
	offer.Status = domain.OfferStatusAccepted
	offer.SellerID = sellerID
	offer.AcceptedAt = &acceptedAt

	if err := n.offers.Update(ctx, offer); err != nil {
		n.acceptMu.Unlock()
		return domain.Offer{}, fmt.Errorf("negotiation: persist accept: %w", err)
	}
	n.acceptMu.Unlock()

	seller, err := n.users.GetByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			n.logger.WarnContext(ctx, "accepting seller has no profile, skipping contact exchange",
				slog.String("offer_id", offer.ID),
				slog.String("seller_id", sellerID),
			)
			return offer, nil
		}
		return domain.Offer{}, fmt.Errorf("negotiation: seller profile: %w", err)
	}

	buyerContact := domain.Contact{Name: "Buyer"}
	if buyer, err := n.users.GetByID(ctx, offer.BuyerID); err == nil {
		buyerContact = buyer.Contact()
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Offer{}, fmt.Errorf("negotiation: buyer profile: %w", err)
	}

	payload, err := json.Marshal(domain.OfferAcceptedMessage{
		Type:          domain.MsgOfferAccepted,
		OfferID:       offer.ID,
		SellerContact: seller.Contact(),
		BuyerContact:  buyerContact,
	})
	if err != nil {
		return domain.Offer{}, fmt.Errorf("negotiation: marshal offer_accepted: %w", err)
	}

	// Two independent best-effort deliveries; either party may be offline.
	buyerNotified := n.sender.SendTo(offer.BuyerID, payload)
	sellerNotified := n.sender.SendTo(sellerID, payload)

	n.logger.InfoContext(ctx, "offer accepted",
		slog.String("offer_id", offer.ID),
		slog.String("seller_id", sellerID),
		slog.Bool("buyer_notified", buyerNotified),
		slog.Bool("seller_notified", sellerNotified),
	)
	return offer, nil
}
