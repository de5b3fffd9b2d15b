package registry

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takudzwam/pamsika/internal/domain"
)

type fakePresence struct {
	mu     sync.Mutex
	online map[string]bool
	seen   map[string]int
}

func newFakePresence() *fakePresence {
	return &fakePresence{online: map[string]bool{}, seen: map[string]int{}}
}

func (f *fakePresence) SetOnline(_ context.Context, id string, online bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[id] = online
	return nil
}

func (f *fakePresence) TouchLastSeen(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen[id]++
	return nil
}

func (f *fakePresence) isOnline(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online[id]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConnectSendDisconnect(t *testing.T) {
	ctx := context.Background()
	presence := newFakePresence()
	r := New(presence, testLogger())

	ch := make(chan []byte, 4)
	r.Connect(ctx, "seller_1", domain.KindSeller, ch)
	assert.True(t, presence.isOnline("seller_1"))
	assert.ElementsMatch(t, []string{"seller_1"}, r.SellerIDs())

	require.True(t, r.SendTo("seller_1", []byte("hello")))
	assert.Equal(t, []byte("hello"), <-ch)

	r.Disconnect(ctx, "seller_1")
	assert.False(t, presence.isOnline("seller_1"))
	assert.Empty(t, r.SellerIDs())
	assert.False(t, r.SendTo("seller_1", []byte("gone")))
}

func TestDisconnectIdempotent(t *testing.T) {
	ctx := context.Background()
	presence := newFakePresence()
	r := New(presence, testLogger())

	r.Connect(ctx, "seller_1", domain.KindSeller, make(chan []byte, 1))
	r.Disconnect(ctx, "seller_1")
	r.Disconnect(ctx, "seller_1") // second call is a no-op
	r.Disconnect(ctx, "never_connected")

	assert.False(t, presence.isOnline("seller_1"))
	assert.Empty(t, r.SellerIDs())
	assert.Zero(t, r.ClientCount())
}

func TestConnectLastWriterWins(t *testing.T) {
	ctx := context.Background()
	r := New(newFakePresence(), testLogger())

	first := make(chan []byte, 1)
	second := make(chan []byte, 1)

	r.Connect(ctx, "seller_1", domain.KindSeller, first)
	r.Connect(ctx, "seller_1", domain.KindSeller, second)

	// The superseded channel is closed so its writer unwinds.
	_, open := <-first
	assert.False(t, open)

	// Delivery now goes to the replacement connection only.
	require.True(t, r.SendTo("seller_1", []byte("x")))
	assert.Len(t, second, 1)
	assert.Equal(t, 1, r.ClientCount())
}

func TestReconnectAsBuyerLeavesSellerPartition(t *testing.T) {
	ctx := context.Background()
	r := New(newFakePresence(), testLogger())

	r.Connect(ctx, "u1", domain.KindSeller, make(chan []byte, 1))
	require.ElementsMatch(t, []string{"u1"}, r.SellerIDs())

	r.Connect(ctx, "u1", domain.KindBuyer, make(chan []byte, 1))
	assert.Empty(t, r.SellerIDs())
	assert.Equal(t, 1, r.ClientCount())
}

func TestDisconnectSessionIgnoresSupersededChannel(t *testing.T) {
	ctx := context.Background()
	presence := newFakePresence()
	r := New(presence, testLogger())

	old := make(chan []byte, 1)
	replacement := make(chan []byte, 1)
	r.Connect(ctx, "seller_1", domain.KindSeller, old)
	r.Connect(ctx, "seller_1", domain.KindSeller, replacement)

	// The superseded pump winding down must not evict the live session.
	r.DisconnectSession(ctx, "seller_1", old)
	assert.True(t, r.SendTo("seller_1", []byte("still here")))
	assert.True(t, presence.isOnline("seller_1"))

	r.DisconnectSession(ctx, "seller_1", replacement)
	assert.False(t, r.SendTo("seller_1", []byte("gone")))
	assert.False(t, presence.isOnline("seller_1"))
}

func TestSendToFullBufferReportsMiss(t *testing.T) {
	ctx := context.Background()
	r := New(newFakePresence(), testLogger())

	ch := make(chan []byte, 1)
	r.Connect(ctx, "buyer_1", domain.KindBuyer, ch)

	require.True(t, r.SendTo("buyer_1", []byte("a")))
	assert.False(t, r.SendTo("buyer_1", []byte("b"))) // buffer full, dropped
}

func TestSendToDuringReconnectNeverPanics(t *testing.T) {
	ctx := context.Background()
	r := New(newFakePresence(), testLogger())

	r.Connect(ctx, "seller_1", domain.KindSeller, make(chan []byte, 1))

	// Each reconnect closes the superseded channel. Deliveries racing the
	// reconnects must never land on a closed channel.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5000; i++ {
			r.Connect(ctx, "seller_1", domain.KindSeller, make(chan []byte, 1))
		}
	}()

	for {
		select {
		case <-done:
			assert.Equal(t, 1, r.ClientCount())
			return
		default:
			r.SendTo("seller_1", []byte("ping"))
		}
	}
}

func TestConcurrentConnectDisconnect(t *testing.T) {
	ctx := context.Background()
	r := New(newFakePresence(), testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n%26))
			r.Connect(ctx, id, domain.KindSeller, make(chan []byte, 1))
			r.SendTo(id, []byte("ping"))
			r.SellerIDs()
			r.Disconnect(ctx, id)
		}(i)
	}
	wg.Wait()

	assert.Zero(t, r.ClientCount())
	assert.Empty(t, r.SellerIDs())
}
