package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/takudzwam/pamsika/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memPresence is an in-memory domain.PresenceStore.
type memPresence struct {
	mu   sync.Mutex
	data map[string]domain.SellerPresence
}

func newMemPresence() *memPresence {
	return &memPresence{data: map[string]domain.SellerPresence{}}
}

func (m *memPresence) put(p domain.SellerPresence) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[p.SellerID] = p
}

func (m *memPresence) SetLocation(_ context.Context, id string, lat, lng float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.data[id]
	p.SellerID = id
	p.Location = domain.Location{Lat: lat, Lng: lng}
	m.data[id] = p
	return nil
}

func (m *memPresence) SetOnline(_ context.Context, id string, online bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.data[id]
	p.SellerID = id
	p.IsOnline = online
	m.data[id] = p
	return nil
}

func (m *memPresence) TouchLastSeen(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.data[id]
	p.SellerID = id
	p.LastSeen = time.Now().UTC()
	m.data[id] = p
	return nil
}

func (m *memPresence) Get(_ context.Context, id string) (domain.SellerPresence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[id]
	if !ok {
		return domain.SellerPresence{}, domain.ErrNotFound
	}
	return p, nil
}

func (m *memPresence) ListAll(_ context.Context) ([]domain.SellerPresence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.SellerPresence, 0, len(m.data))
	for _, p := range m.data {
		out = append(out, p)
	}
	return out, nil
}

// memConns fakes the connection registry: a fixed seller set with recorded
// deliveries and configurable per-id delivery failure.
type memConns struct {
	mu        sync.Mutex
	sellers   []string
	offline   map[string]bool
	delivered map[string][][]byte
}

func newMemConns(sellers ...string) *memConns {
	return &memConns{
		sellers:   sellers,
		offline:   map[string]bool{},
		delivered: map[string][][]byte{},
	}
}

func (m *memConns) SellerIDs() []string {
	return append([]string(nil), m.sellers...)
}

func (m *memConns) SendTo(id string, payload []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline[id] {
		return false
	}
	m.delivered[id] = append(m.delivered[id], payload)
	return true
}

func (m *memConns) received(id string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.delivered[id]
}

// memOffers is an in-memory domain.OfferStore with an injectable clock so
// tests can drive TTL expiry.
type memOffers struct {
	mu   sync.Mutex
	data map[string]domain.Offer
	dead map[string]time.Time
	now  func() time.Time
}

func newMemOffers() *memOffers {
	return &memOffers{
		data: map[string]domain.Offer{},
		dead: map[string]time.Time{},
		now:  time.Now,
	}
}

func (m *memOffers) live(id string) (domain.Offer, bool) {
	o, ok := m.data[id]
	if !ok {
		return domain.Offer{}, false
	}
	if deadline, armed := m.dead[id]; armed && !m.now().Before(deadline) {
		return domain.Offer{}, false
	}
	return o, true
}

func (m *memOffers) Put(_ context.Context, offer domain.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[offer.ID] = offer
	m.dead[offer.ID] = m.now().Add(domain.OfferTTL)
	return nil
}

func (m *memOffers) Get(_ context.Context, id string) (domain.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.live(id)
	if !ok {
		return domain.Offer{}, domain.ErrNotFound
	}
	return o, nil
}

func (m *memOffers) Update(_ context.Context, offer domain.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live(offer.ID); !ok {
		return domain.ErrNotFound
	}
	m.data[offer.ID] = offer // deadline untouched
	return nil
}

// memCounters is an in-memory domain.CounterOfferStore.
type memCounters struct {
	mu   sync.Mutex
	data map[string]domain.CounterOffer
}

func newMemCounters() *memCounters {
	return &memCounters{data: map[string]domain.CounterOffer{}}
}

func (m *memCounters) Put(_ context.Context, c domain.CounterOffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[c.ID] = c
	return nil
}

func (m *memCounters) Get(_ context.Context, id string) (domain.CounterOffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.data[id]
	if !ok {
		return domain.CounterOffer{}, domain.ErrNotFound
	}
	return c, nil
}

// memUsers is an in-memory domain.UserStore.
type memUsers struct {
	data map[string]domain.UserProfile
}

func newMemUsers(profiles ...domain.UserProfile) *memUsers {
	m := &memUsers{data: map[string]domain.UserProfile{}}
	for _, p := range profiles {
		m.data[p.ID] = p
	}
	return m
}

func (m *memUsers) Upsert(_ context.Context, p domain.UserProfile) error {
	m.data[p.ID] = p
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (domain.UserProfile, error) {
	p, ok := m.data[id]
	if !ok {
		return domain.UserProfile{}, domain.ErrNotFound
	}
	return p, nil
}

func (m *memUsers) ListSellers(_ context.Context) ([]domain.UserProfile, error) {
	var out []domain.UserProfile
	for _, p := range m.data {
		if p.Kind == domain.KindSeller {
			out = append(out, p)
		}
	}
	return out, nil
}

// memReports is an in-memory domain.ReportStore.
type memReports struct {
	reports []domain.Report
}

func (m *memReports) Put(_ context.Context, r domain.Report) error {
	m.reports = append(m.reports, r)
	return nil
}

// stubMedia returns deterministic refs without touching storage.
type stubMedia struct {
	n int
}

func (s *stubMedia) Encode(_ context.Context, raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", domain.ErrUnsupportedImage
	}
	s.n++
	return fmt.Sprintf("images/stub-%d.jpg", s.n), nil
}
