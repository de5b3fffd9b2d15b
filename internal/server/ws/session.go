// Package ws binds WebSocket connections to the connection registry and runs
// the per-connection inbound and outbound pumps.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/takudzwam/pamsika/internal/domain"
	"github.com/takudzwam/pamsika/internal/registry"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum size of an incoming message.
	maxMessageSize = 4096

	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 256
)

// upgrader configures the WebSocket upgrade parameters.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins. In production, restrict this to known origins.
		return true
	},
}

// Handler upgrades HTTP requests to client sessions.
type Handler struct {
	registry *registry.Registry
	presence domain.PresenceStore
	logger   *slog.Logger
}

// NewHandler creates a Handler over the given registry and presence store.
func NewHandler(reg *registry.Registry, presence domain.PresenceStore, logger *slog.Logger) *Handler {
	return &Handler{
		registry: reg,
		presence: presence,
		logger:   logger.With(slog.String("component", "ws")),
	}
}

// HandleWS upgrades the request and registers the session. A reconnect for
// an already-registered identity supersedes the previous session: the
// registry closes the old send channel, which unwinds the old writer and
// its connection.
// GET /ws/{client_id}/{kind}
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("client_id")
	kind := domain.ClientKind(r.PathValue("kind"))

	if id == "" || (kind != domain.KindBuyer && kind != domain.KindSeller) {
		http.Error(w, "invalid client id or kind", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("upgrade failed",
			slog.String("client_id", id),
			slog.String("error", err.Error()),
		)
		return
	}

	s := &session{
		id:       id,
		kind:     kind,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		registry: h.registry,
		presence: h.presence,
		logger:   h.logger,
	}

	h.registry.Connect(r.Context(), id, kind, s.send)

	go s.writePump()
	go s.readPump()
}

// session is one live client connection.
type session struct {
	id       string
	kind     domain.ClientKind
	conn     *websocket.Conn
	send     chan []byte
	registry *registry.Registry
	presence domain.PresenceStore
	logger   *slog.Logger
}

// readPump reads inbound messages until the transport closes, then
// unregisters the session. Only location_update from seller sessions has any
// effect; every other message type is read and dropped. The pump is
// terminal: a closed session never resumes.
func (s *session) readPump() {
	defer func() {
		s.registry.DisconnectSession(context.Background(), s.id, s.send)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("unexpected close",
					slog.String("client_id", s.id),
					slog.String("error", err.Error()),
				)
			}
			return
		}

		var msg domain.InboundMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if msg.Type == domain.MsgLocationUpdate && s.kind == domain.KindSeller {
			s.handleLocationUpdate(msg)
		}
	}
}

func (s *session) handleLocationUpdate(msg domain.InboundMessage) {
	ctx := context.Background()
	if err := s.presence.SetLocation(ctx, s.id, msg.Lat, msg.Lng); err != nil {
		s.logger.Warn("location update failed",
			slog.String("seller_id", s.id),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.presence.TouchLastSeen(ctx, s.id); err != nil {
		s.logger.Warn("last_seen update failed",
			slog.String("seller_id", s.id),
			slog.String("error", err.Error()),
		)
	}
}

// writePump pumps payloads from the send channel to the connection as text
// frames and keeps the connection alive with periodic pings. It exits when
// the send channel is closed (session superseded) or a write fails.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
