package main

import (
	"context"
	"database/sql"
	"errors"
	"ev-route-planner/internal/adapters/cache"
	"ev-route-planner/internal/adapters/ocm"
	"ev-route-planner/internal/adapters/ors"
	"ev-route-planner/internal/adapters/repositories"
	"ev-route-planner/internal/api"
	"ev-route-planner/internal/api/handlers"
	"ev-route-planner/internal/config"
	"ev-route-planner/internal/platform/db"
	"ev-route-planner/internal/platform/logging"
	"ev-route-planner/internal/ports"
	"ev-route-planner/internal/services"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"
)

// main is the application composition root.
// It wires concrete adapters (ORS, OpenChargeMap, storage) behind ports and
// starts the HTTP server.
func main() {
	envErr := godotenv.Load()

	cfg := config.Load()

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Info("no .env file found (using environment variables)")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nrApp := newRelicApp(cfg.NewRelic, logger)

	store, err := openStorage(ctx, cfg)
	if err != nil {
		logger.Fatal("open storage", zap.Error(err))
	}
	defer store.Close()

	srv, err := wireServer(ctx, cfg, store, nrApp, logger)
	if err != nil {
		logger.Fatal("wire server", zap.Error(err))
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}
	logger.Info("server exited")
}

func newRelicApp(cfg config.NewRelicConfig, logger *zap.Logger) *newrelic.Application {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return nil
	}
	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
	)
	if err != nil {
		logger.Warn("failed to initialize New Relic", zap.Error(err))
		return nil
	}
	logger.Info("New Relic enabled", zap.String("app", cfg.AppName))
	return app
}

// storage holds the database handles the server opened. Trips go to
// Postgres when DATABASE_URL is set and to SQLite otherwise.
type storage struct {
	postgres *sql.DB
	sqlite   *sql.DB
	trips    ports.TripRepository
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	s := &storage{}

	if cfg.Database.URL != "" {
		pg, err := db.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		if err := repositories.InitPostgresSchema(ctx, pg); err != nil {
			pg.Close()
			return nil, err
		}
		s.postgres = pg
		s.trips = repositories.NewPostgresTripRepository(pg)
	}

	if s.postgres == nil || cfg.Cache.Backend == "sqlite" {
		path := cfg.Database.SQLitePath
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				s.Close()
				return nil, fmt.Errorf("create %s: %w", dir, err)
			}
		}
		lite, err := db.OpenSqlite(ctx, path)
		if err != nil {
			s.Close()
			return nil, err
		}
		if err := repositories.InitSchema(ctx, lite); err != nil {
			lite.Close()
			s.Close()
			return nil, err
		}
		s.sqlite = lite
		if s.trips == nil {
			s.trips = repositories.NewSqliteTripRepository(lite)
		}
	}

	return s, nil
}

func (s *storage) Close() {
	if s.postgres != nil {
		_ = s.postgres.Close()
	}
	if s.sqlite != nil {
		_ = s.sqlite.Close()
	}
}

// cacheStore picks the response cache backend. A nil store disables caching.
func cacheStore(ctx context.Context, cfg *config.Config, st *storage, nrApp *newrelic.Application) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "none":
		return nil, nil
	case "redis":
		client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, nrApp)
		if err != nil {
			return nil, err
		}
		return cache.NewRedisStore(client), nil
	case "postgres":
		return cache.NewSQLStore(st.postgres), nil
	case "sqlite":
		return cache.NewSqliteStore(st.sqlite), nil
	default:
		mem := cache.NewMemoryStore()
		go sweepEvery(ctx, 10*time.Minute, func() { mem.Sweep() })
		return mem, nil
	}
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(
	ctx context.Context,
	cfg *config.Config,
	st *storage,
	nrApp *newrelic.Application,
	logger *zap.Logger,
) (*http.Server, error) {
	orsClient, err := ors.NewClient(ors.Options{
		APIKey:     cfg.ORS.APIKey,
		BaseURL:    cfg.ORS.BaseURL,
		Profile:    cfg.ORS.Profile,
		Country:    cfg.ORS.Country,
		SearchSize: cfg.ORS.SearchSize,
		Timeout:    cfg.ORS.Timeout,
	})
	if err != nil {
		return nil, err
	}
	ocmClient := ocm.NewClient(ocm.Options{
		APIKey:     cfg.OCM.APIKey,
		BaseURL:    cfg.OCM.BaseURL,
		MaxResults: cfg.OCM.MaxResults,
		Timeout:    cfg.OCM.Timeout,
		Logger:     logger,
	})

	var (
		geocoder   ports.Geocoder      = orsClient
		directions ports.Directions    = orsClient
		chargers   ports.ChargerLookup = ocmClient
	)

	store, err := cacheStore(ctx, cfg, st, nrApp)
	if err != nil {
		return nil, fmt.Errorf("cache backend %s: %w", cfg.Cache.Backend, err)
	}
	if store != nil {
		geocoder = cache.NewCachingGeocoder(geocoder, store, cfg.Cache.TTL, logger)
		directions = cache.NewCachingDirections(directions, store, cfg.Cache.TTL, logger)
		chargers = cache.NewCachingChargers(chargers, store, cfg.Cache.TTL, logger)
		logger.Info("response cache enabled", zap.String("backend", cfg.Cache.Backend), zap.Duration("ttl", cfg.Cache.TTL))
	}

	policy, err := services.ParseAcceptancePolicy(cfg.Planner.Policy)
	if err != nil {
		return nil, err
	}

	planner := services.NewTripPlanner(geocoder, directions, chargers, services.PlannerConfig{
		Country:         cfg.ORS.Country,
		ChargerRadiusKm: cfg.OCM.RadiusKm,
		MaxStages:       cfg.Planner.MaxStages,
		Policy:          policy,
	}, logger)

	sessions := handlers.NewSessionStore(cfg.Server.SessionTTL)
	go sweepEvery(ctx, time.Minute, func() {
		if n := sessions.Sweep(); n > 0 {
			logger.Debug("expired trip sessions removed", zap.Int("count", n))
		}
	})

	router := api.NewRouter(api.RouterDeps{
		TripHandler: handlers.NewTripHandler(planner, st.trips, sessions, cfg.Planner.DefaultMaxDailyKm, logger),
		NewRelicApp: nrApp,
		Logger:      logger,
	})

	// Timeouts are tuned for cold-cache trip planning (external API latency).
	return &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}, nil
}

func sweepEvery(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
