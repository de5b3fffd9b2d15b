package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/takudzwam/pamsika/internal/server/handler"
	"github.com/takudzwam/pamsika/internal/server/middleware"
	"github.com/takudzwam/pamsika/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health  *handler.HealthHandler
	Sellers *handler.SellerHandler
	Offers  *handler.OfferHandler
	Reports *handler.ReportHandler
}

// Server is the HTTP + WebSocket API server for the marketplace.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, auth) and attaches the WebSocket
// session handler.
func NewServer(cfg Config, handlers Handlers, wsHandler *ws.Handler, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Seller discovery.
	mux.HandleFunc("GET /api/sellers/nearby", handlers.Sellers.ListNearby)

	// Offer negotiation.
	mux.HandleFunc("POST /api/offers", handlers.Offers.CreateOffer)
	mux.HandleFunc("GET /api/offers/{id}", handlers.Offers.GetOffer)
	mux.HandleFunc("POST /api/offers/{id}/counter", handlers.Offers.CounterOffer)
	mux.HandleFunc("POST /api/offers/{id}/accept", handlers.Offers.AcceptOffer)

	// Reports.
	mux.HandleFunc("POST /api/reports", handlers.Reports.File)

	// WebSocket endpoint for buyers and sellers.
	if wsHandler != nil {
		mux.HandleFunc("GET /ws/{client_id}/{kind}", wsHandler.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux

	// Apply auth middleware (skips if APIKey is empty).
	h = middleware.Auth(cfg.APIKey)(h)

	// Apply request logging middleware.
	h = middleware.Logging(logger)(h)

	// Apply CORS middleware.
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
