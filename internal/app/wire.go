package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/takudzwam/pamsika/internal/blob/s3"
	"github.com/takudzwam/pamsika/internal/cache/redis"
	"github.com/takudzwam/pamsika/internal/config"
	"github.com/takudzwam/pamsika/internal/domain"
	"github.com/takudzwam/pamsika/internal/media"
	"github.com/takudzwam/pamsika/internal/registry"
	"github.com/takudzwam/pamsika/internal/server"
	"github.com/takudzwam/pamsika/internal/server/handler"
	"github.com/takudzwam/pamsika/internal/server/ws"
	"github.com/takudzwam/pamsika/internal/service"
	"github.com/takudzwam/pamsika/internal/store/postgres"
)

// Dependencies bundles everything the running application needs. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Stores
	Users    domain.UserStore
	Presence domain.PresenceStore
	Offers   domain.OfferStore
	Counters domain.CounterOfferStore
	Reports  domain.ReportStore

	// Connections
	Registry *registry.Registry

	// Services
	Broadcaster *service.Broadcaster
	Negotiation *service.Negotiation
	Sellers     *service.Sellers
	ReportsSvc  *service.Reports

	// HTTP
	Server *server.Server
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL (durable user profiles) ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}
	deps.Users = postgres.NewUserStore(pgClient.Pool())

	// --- Redis (presence, offers, counters, reports) ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	offerTTL := domain.OfferTTL
	if cfg.Marketplace.OfferTTLHours > 0 {
		offerTTL = time.Duration(cfg.Marketplace.OfferTTLHours) * time.Hour
	}

	deps.Presence = redis.NewPresenceStore(redisClient)
	deps.Offers = redis.NewOfferStore(redisClient, offerTTL)
	deps.Counters = redis.NewCounterOfferStore(redisClient)
	deps.Reports = redis.NewReportStore(redisClient)

	// --- S3 (offer images) ---
	s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
		Endpoint:       cfg.S3.Endpoint,
		Region:         cfg.S3.Region,
		Bucket:         cfg.S3.Bucket,
		AccessKey:      cfg.S3.AccessKey,
		SecretKey:      cfg.S3.SecretKey,
		UseSSL:         cfg.S3.UseSSL,
		ForcePathStyle: cfg.S3.ForcePathStyle,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: s3: %w", err)
	}
	closers = append(closers, func() { _ = s3Client.Close() })

	mediaProc := media.NewProcessor(s3blob.NewWriter(s3Client), logger)

	// --- Connection registry and services ---
	deps.Registry = registry.New(deps.Presence, logger)
	deps.Broadcaster = service.NewBroadcaster(deps.Registry, deps.Presence, logger)
	deps.Negotiation = service.NewNegotiation(
		deps.Offers,
		deps.Counters,
		deps.Users,
		mediaProc,
		deps.Broadcaster,
		deps.Registry,
		cfg.Marketplace.DefaultRadiusKm,
		logger,
	)
	deps.Sellers = service.NewSellers(deps.Users, deps.Presence, logger)
	deps.ReportsSvc = service.NewReports(deps.Reports, logger)

	// --- HTTP server ---
	wsHandler := ws.NewHandler(deps.Registry, deps.Presence, logger)
	deps.Server = server.NewServer(
		server.Config{
			Port:        cfg.Server.Port,
			CORSOrigins: cfg.Server.CORSOrigins,
			APIKey:      cfg.Server.APIKey,
		},
		server.Handlers{
			Health:  handler.NewHealthHandler(logger),
			Sellers: handler.NewSellerHandler(deps.Sellers, logger),
			Offers:  handler.NewOfferHandler(deps.Negotiation, logger),
			Reports: handler.NewReportHandler(deps.ReportsSvc, logger),
		},
		wsHandler,
		logger,
	)

	return deps, cleanup, nil
}
