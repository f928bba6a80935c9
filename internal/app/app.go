package app

import (
	"fmt"
	"net/http"

	_ "github.com/lib/pq"

	"github.com/openfooty/matchday/external/sportsdata"
	"github.com/openfooty/matchday/internal/config"
	"github.com/openfooty/matchday/internal/domain/fixture"
	"github.com/openfooty/matchday/internal/domain/season"
	"github.com/openfooty/matchday/internal/infrastructure/repository/memory"
	"github.com/openfooty/matchday/internal/infrastructure/repository/postgres"
	"github.com/openfooty/matchday/internal/interfaces/httpapi"
	"github.com/openfooty/matchday/internal/platform/cache"
	"github.com/openfooty/matchday/internal/platform/logging"
	"github.com/openfooty/matchday/internal/platform/resilience"
	"github.com/openfooty/matchday/internal/usecase"
)

// NewHTTPServer wires the full object graph: storage, provider client,
// services, and the HTTP router. Without DB_URL the server falls back to
// in-memory repositories, which is the mode local development runs in.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var (
		seasonRepo  season.Repository
		fixtureRepo fixture.Repository
	)
	if cfg.DBURL != "" {
		db, err := openDatabase(cfg)
		if err != nil {
			return nil, err
		}
		seasonRepo = postgres.NewSeasonRepository(db, nil)
		fixtureRepo = postgres.NewFixtureRepository(db, nil)
		logger.Info("storage configured", "kind", "postgres", "database", dbNameFromURL(cfg.DBURL))
	} else {
		seasonRepo = memory.NewSeasonRepository(nil)
		fixtureRepo = memory.NewFixtureRepository(nil)
		logger.Info("storage configured", "kind", "memory")
	}

	var store *cache.Store
	if cfg.CacheEnabled {
		store = cache.NewStore(cfg.CacheTTL)
	}

	provider := sportsdata.NewClient(sportsdata.ClientConfig{
		BaseURL:    cfg.SportsDataBaseURL,
		APIKey:     cfg.SportsDataKey,
		Timeout:    cfg.SportsDataTimeout,
		MaxRetries: cfg.SportsDataMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.SportsDataCircuitEnabled,
			FailureThreshold: cfg.SportsDataCircuitFailureCount,
			OpenTimeout:      cfg.SportsDataCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.SportsDataCircuitHalfOpenMaxReq,
		},
	})

	syncService := usecase.NewSyncService(seasonRepo, fixtureRepo, provider, store, logger, cfg.SyncFetchWorkers)
	queryService := usecase.NewQueryService(seasonRepo, fixtureRepo, store)

	handler := httpapi.NewHandler(syncService, queryService, logger)
	router := httpapi.NewRouter(handler, logger, httpapi.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}
