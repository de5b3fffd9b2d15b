package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takudzwam/pamsika/internal/domain"
)

func sellerProfile(id string) domain.UserProfile {
	return domain.UserProfile{
		ID:       id,
		Kind:     domain.KindSeller,
		Name:     "John Mukamuri",
		Phone:    "+263 77 123 4567",
		WhatsApp: "+263 77 123 4567",
		Rating:   4.8,
		Category: "Food & Groceries",
		Home:     origin,
	}
}

type negotiationFixture struct {
	offers   *memOffers
	counters *memCounters
	users    *memUsers
	conns    *memConns
	neg      *Negotiation
}

func newNegotiationFixture(t *testing.T, users *memUsers, conns *memConns, presence *memPresence) *negotiationFixture {
	t.Helper()
	offers := newMemOffers()
	counters := newMemCounters()
	b := NewBroadcaster(conns, presence, testLogger())
	neg := NewNegotiation(offers, counters, users, &stubMedia{}, b, conns, 5.0, testLogger())
	return &negotiationFixture{
		offers:   offers,
		counters: counters,
		users:    users,
		conns:    conns,
		neg:      neg,
	}
}

func validInput() CreateOfferInput {
	return CreateOfferInput{
		BuyerID:     "buyer_1",
		ProductName: "tomatoes",
		Description: "box of tomatoes",
		Price:       12.5,
		Quantity:    3,
		Images:      [][]byte{[]byte("img-a"), []byte("img-b")},
		Location:    origin,
	}
}

func TestCreateOfferValidatesImageCount(t *testing.T) {
	ctx := context.Background()
	f := newNegotiationFixture(t, newMemUsers(), newMemConns(), newMemPresence())

	for _, images := range [][][]byte{nil, {[]byte("only-one")}} {
		in := validInput()
		in.Images = images
		_, err := f.neg.CreateOffer(ctx, in)
		assert.ErrorIs(t, err, domain.ErrTooFewImages)
	}

	// Nothing persisted, nothing broadcast.
	assert.Empty(t, f.offers.data)
}

func TestCreateOfferWithTwoImagesSucceeds(t *testing.T) {
	ctx := context.Background()
	presence := newMemPresence()
	presence.put(domain.SellerPresence{SellerID: "seller_1", Location: nearLoc, IsOnline: true})
	conns := newMemConns("seller_1")
	f := newNegotiationFixture(t, newMemUsers(), conns, presence)

	offer, err := f.neg.CreateOffer(ctx, validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, offer.ID)
	assert.Equal(t, domain.OfferStatusPending, offer.Status)
	assert.Len(t, offer.Images, 2)
	assert.Equal(t, offer.CreatedAt.Add(domain.OfferTTL), offer.ExpiresAt)

	// The nearby connected seller got the fan-out exactly once.
	msgs := conns.received("seller_1")
	require.Len(t, msgs, 1)

	var env domain.NewOfferMessage
	require.NoError(t, json.Unmarshal(msgs[0], &env))
	assert.Equal(t, domain.MsgNewOffer, env.Type)
	assert.Equal(t, offer.ID, env.Offer.ID)
}

func TestCreateOfferValidatesPriceAndQuantity(t *testing.T) {
	ctx := context.Background()
	f := newNegotiationFixture(t, newMemUsers(), newMemConns(), newMemPresence())

	in := validInput()
	in.Price = 0
	_, err := f.neg.CreateOffer(ctx, in)
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	in = validInput()
	in.Quantity = -1
	_, err = f.neg.CreateOffer(ctx, in)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestCounterOfferNotifiesBuyerAndKeepsStatus(t *testing.T) {
	ctx := context.Background()
	conns := newMemConns("seller_1")
	f := newNegotiationFixture(t, newMemUsers(), conns, newMemPresence())

	offer, err := f.neg.CreateOffer(ctx, validInput())
	require.NoError(t, err)

	counter, err := f.neg.CounterOffer(ctx, offer.ID, "seller_1", 10.0, "can do 10")
	require.NoError(t, err)
	assert.Equal(t, offer.ID, counter.OriginalOfferID)

	// Offer status is untouched by counters.
	got, err := f.neg.GetOffer(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OfferStatusPending, got.Status)

	// The buyer received the counter together with the original offer.
	msgs := conns.received("buyer_1")
	require.Len(t, msgs, 1)
	var env domain.CounterOfferMessage
	require.NoError(t, json.Unmarshal(msgs[0], &env))
	assert.Equal(t, domain.MsgCounterOffer, env.Type)
	assert.Equal(t, counter.ID, env.CounterOffer.ID)
	assert.Equal(t, offer.ID, env.OriginalOffer.ID)
}

func TestCounterOfferUnknownOffer(t *testing.T) {
	ctx := context.Background()
	f := newNegotiationFixture(t, newMemUsers(), newMemConns(), newMemPresence())

	_, err := f.neg.CounterOffer(ctx, "nope", "seller_1", 10.0, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.counters.data)
}

func TestCounterOfferRecordedEvenWhenBuyerOffline(t *testing.T) {
	ctx := context.Background()
	conns := newMemConns("seller_1")
	f := newNegotiationFixture(t, newMemUsers(), conns, newMemPresence())

	offer, err := f.neg.CreateOffer(ctx, validInput())
	require.NoError(t, err)

	conns.offline["buyer_1"] = true
	counter, err := f.neg.CounterOffer(ctx, offer.ID, "seller_1", 9.0, "")
	require.NoError(t, err)

	stored, err := f.counters.Get(ctx, counter.ID)
	require.NoError(t, err)
	assert.Equal(t, 9.0, stored.NewPrice)
}

func TestAcceptOfferExchangesContacts(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers(
		sellerProfile("seller_1"),
		domain.UserProfile{ID: "buyer_1", Kind: domain.KindBuyer, Name: "Rudo", Phone: "+263 71 000 1111"},
	)
	conns := newMemConns("seller_1")
	f := newNegotiationFixture(t, users, conns, newMemPresence())

	offer, err := f.neg.CreateOffer(ctx, validInput())
	require.NoError(t, err)

	accepted, err := f.neg.AcceptOffer(ctx, offer.ID, "seller_1")
	require.NoError(t, err)
	assert.Equal(t, domain.OfferStatusAccepted, accepted.Status)
	assert.Equal(t, "seller_1", accepted.SellerID)
	require.NotNil(t, accepted.AcceptedAt)

	// Both parties got the same contact-exchange payload.
	for _, id := range []string{"buyer_1", "seller_1"} {
		msgs := conns.received(id)
		require.Len(t, msgs, 1, "party %s", id)
		var env domain.OfferAcceptedMessage
		require.NoError(t, json.Unmarshal(msgs[0], &env))
		assert.Equal(t, domain.MsgOfferAccepted, env.Type)
		assert.Equal(t, offer.ID, env.OfferID)
		assert.Equal(t, "John Mukamuri", env.SellerContact.Name)
		assert.Equal(t, "Rudo", env.BuyerContact.Name)
	}
}

func TestAcceptOfferUnknownID(t *testing.T) {
	ctx := context.Background()
	f := newNegotiationFixture(t, newMemUsers(), newMemConns(), newMemPresence())

	_, err := f.neg.AcceptOffer(ctx, "missing", "seller_1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAcceptOfferSecondAcceptFails(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers(sellerProfile("seller_1"), sellerProfile("seller_2"))
	f := newNegotiationFixture(t, users, newMemConns(), newMemPresence())

	offer, err := f.neg.CreateOffer(ctx, validInput())
	require.NoError(t, err)

	_, err = f.neg.AcceptOffer(ctx, offer.ID, "seller_1")
	require.NoError(t, err)

	_, err = f.neg.AcceptOffer(ctx, offer.ID, "seller_2")
	assert.ErrorIs(t, err, domain.ErrAlreadyAccepted)

	// The first seller keeps the deal.
	got, err := f.neg.GetOffer(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, "seller_1", got.SellerID)
}

func TestAcceptOfferConcurrentAcceptsOneWinner(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers(sellerProfile("seller_1"), sellerProfile("seller_2"))
	f := newNegotiationFixture(t, users, newMemConns(), newMemPresence())

	offer, err := f.neg.CreateOffer(ctx, validInput())
	require.NoError(t, err)

	// Two sellers race on the same pending offer. Exactly one transition
	// must land; the loser gets ErrAlreadyAccepted, never a silent
	// overwrite of the winner.
	sellers := []string{"seller_1", "seller_2"}
	errs := make([]error, len(sellers))

	var wg sync.WaitGroup
	for i, id := range sellers {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = f.neg.AcceptOffer(ctx, offer.ID, id)
		}(i, id)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrAlreadyAccepted):
			losses++
		default:
			t.Fatalf("unexpected accept error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)

	got, err := f.neg.GetOffer(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OfferStatusAccepted, got.Status)
	assert.Contains(t, sellers, got.SellerID)
}

func TestAcceptOfferMissingSellerProfileDegradesSilently(t *testing.T) {
	ctx := context.Background()
	conns := newMemConns("seller_1")
	f := newNegotiationFixture(t, newMemUsers(), conns, newMemPresence())

	offer, err := f.neg.CreateOffer(ctx, validInput())
	require.NoError(t, err)

	accepted, err := f.neg.AcceptOffer(ctx, offer.ID, "seller_1")
	require.NoError(t, err)
	assert.Equal(t, domain.OfferStatusAccepted, accepted.Status)

	// Accept stands, but no contact exchange went out.
	assert.Empty(t, conns.received("buyer_1"))
	assert.Empty(t, conns.received("seller_1"))
}

func TestOfferExpiresToNotFound(t *testing.T) {
	ctx := context.Background()
	f := newNegotiationFixture(t, newMemUsers(sellerProfile("seller_1")), newMemConns(), newMemPresence())

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := start
	f.offers.now = func() time.Time { return clock }
	f.neg.now = func() time.Time { return clock }

	offer, err := f.neg.CreateOffer(ctx, validInput())
	require.NoError(t, err)

	clock = start.Add(domain.OfferTTL + time.Second)

	_, err = f.neg.GetOffer(ctx, offer.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.neg.CounterOffer(ctx, offer.ID, "seller_1", 10, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.neg.AcceptOffer(ctx, offer.ID, "seller_1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
