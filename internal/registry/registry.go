// Package registry tracks live client connections and routes outbound
// payloads to them. It is the single shared-mutable-state boundary of the
// system: connection handlers and request handlers all go through it.
package registry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/takudzwam/pamsika/internal/domain"
)

// PresenceWriter is the slice of the presence store the registry drives on
// seller connect/disconnect.
type PresenceWriter interface {
	SetOnline(ctx context.Context, sellerID string, online bool) error
	TouchLastSeen(ctx context.Context, sellerID string) error
}

type entry struct {
	kind domain.ClientKind
	send chan []byte
}

// Registry maps client identities to their outbound channels, partitioned
// into all clients and sellers only. All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*entry
	sellers map[string]*entry

	presence PresenceWriter
	logger   *slog.Logger
}

// New creates an empty Registry that flips seller presence through the given
// writer.
func New(presence PresenceWriter, logger *slog.Logger) *Registry {
	return &Registry{
		clients:  make(map[string]*entry),
		sellers:  make(map[string]*entry),
		presence: presence,
		logger:   logger.With(slog.String("component", "registry")),
	}
}

// Connect registers a connection under id, replacing any existing entry.
// Replacement is deliberate last-writer-wins: a reconnect supersedes the
// stale session without error. The superseded session's send channel is
// closed here, under the write lock, which unwinds its writer; SendTo holds
// the read lock across delivery, so a close can never race a send.
//
// For seller connections the registry marks the seller online and touches
// last-seen; presence write failures are logged, not propagated, since the
// connection itself is already live.
func (r *Registry) Connect(ctx context.Context, id string, kind domain.ClientKind, send chan []byte) {
	e := &entry{kind: kind, send: send}

	r.mu.Lock()
	superseded := false
	if prev, ok := r.clients[id]; ok {
		close(prev.send)
		superseded = true
	}
	r.clients[id] = e
	if kind == domain.KindSeller {
		r.sellers[id] = e
	} else {
		// A seller identity reconnecting as a buyer must not linger in the
		// seller partition.
		delete(r.sellers, id)
	}
	total := len(r.clients)
	r.mu.Unlock()

	if kind == domain.KindSeller {
		r.markSeller(ctx, id, true)
	}

	r.logger.InfoContext(ctx, "client connected",
		slog.String("client_id", id),
		slog.String("kind", string(kind)),
		slog.Bool("superseded", superseded),
		slog.Int("total_clients", total),
	)
}

// Disconnect removes the connection registered under id from both
// partitions. Unknown ids are a no-op, so calling it twice is safe. If the
// removed entry was a seller, presence is flipped offline.
func (r *Registry) Disconnect(ctx context.Context, id string) {
	r.disconnect(ctx, id, nil)
}

// DisconnectSession removes id's entry only while it still owns send. A pump
// whose connection was superseded by a reconnect must not unregister its
// replacement.
func (r *Registry) DisconnectSession(ctx context.Context, id string, send chan []byte) {
	r.disconnect(ctx, id, send)
}

func (r *Registry) disconnect(ctx context.Context, id string, send chan []byte) {
	r.mu.Lock()
	e, ok := r.clients[id]
	if ok && send != nil && e.send != send {
		// Superseded session; the live entry belongs to someone else.
		ok = false
	}
	if ok {
		delete(r.clients, id)
		delete(r.sellers, id)
	}
	total := len(r.clients)
	r.mu.Unlock()

	if !ok {
		return
	}

	if e.kind == domain.KindSeller {
		r.markSeller(ctx, id, false)
	}

	r.logger.InfoContext(ctx, "client disconnected",
		slog.String("client_id", id),
		slog.String("kind", string(e.kind)),
		slog.Int("total_clients", total),
	)
}

// SendTo delivers payload to id's connection, best effort. It returns false
// when id has no live connection or when the connection's buffer is full; a
// false return is never an error condition, just "not delivered".
//
// The read lock is held across the send: Connect closes a superseded
// channel only under the write lock, so the channel cannot close between
// the lookup and the send.
func (r *Registry) SendTo(id string, payload []byte) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.clients[id]
	if !ok {
		return false
	}

	select {
	case e.send <- payload:
		return true
	default:
		r.logger.Warn("dropping message for slow client",
			slog.String("client_id", id),
		)
		return false
	}
}

// SellerIDs returns a snapshot of the currently registered seller
// identities.
func (r *Registry) SellerIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.sellers))
	for id := range r.sellers {
		ids = append(ids, id)
	}
	return ids
}

// ClientCount returns the number of currently registered connections.
func (r *Registry) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Registry) markSeller(ctx context.Context, id string, online bool) {
	if err := r.presence.SetOnline(ctx, id, online); err != nil {
		r.logger.WarnContext(ctx, "presence online update failed",
			slog.String("seller_id", id),
			slog.Bool("online", online),
			slog.String("error", err.Error()),
		)
	}
	if err := r.presence.TouchLastSeen(ctx, id); err != nil {
		r.logger.WarnContext(ctx, "presence last_seen update failed",
			slog.String("seller_id", id),
			slog.String("error", err.Error()),
		)
	}
}
