package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/athlete-network/internal/config"
	"github.com/riskibarqy/athlete-network/internal/domain/affiliation"
	"github.com/riskibarqy/athlete-network/internal/domain/club"
	"github.com/riskibarqy/athlete-network/internal/domain/notification"
	"github.com/riskibarqy/athlete-network/internal/domain/opportunity"
	"github.com/riskibarqy/athlete-network/internal/domain/user"
	"github.com/riskibarqy/athlete-network/internal/infrastructure/account/anubis"
	"github.com/riskibarqy/athlete-network/internal/infrastructure/account/devauth"
	"github.com/riskibarqy/athlete-network/internal/infrastructure/account/directory"
	"github.com/riskibarqy/athlete-network/internal/infrastructure/notifier"
	"github.com/riskibarqy/athlete-network/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/athlete-network/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/athlete-network/internal/interfaces/httpapi"
	"github.com/riskibarqy/athlete-network/internal/platform/database"
	idgen "github.com/riskibarqy/athlete-network/internal/platform/id"
	"github.com/riskibarqy/athlete-network/internal/platform/logging"
	"github.com/riskibarqy/athlete-network/internal/platform/resilience"
	"github.com/riskibarqy/athlete-network/internal/usecase"
)

// App owns the HTTP server and every resource that must be released on shutdown.
type App struct {
	Server *http.Server

	db         *sqlx.DB
	dispatcher *notifier.AsyncDispatcher
	logger     *logging.Logger
}

type repositories struct {
	clubs         club.Repository
	opportunities opportunity.Repository
	affiliations  affiliation.Repository
}

func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	out := &App{logger: logger}

	onBreakerChange := logBreakerTransitions(logger)
	cfg.AnubisCircuit = cfg.AnubisCircuit.WithStateChange(onBreakerChange)
	cfg.DirectoryCircuit = cfg.DirectoryCircuit.WithStateChange(onBreakerChange)
	cfg.QStashCircuit = cfg.QStashCircuit.WithStateChange(onBreakerChange)

	repos, db, err := buildRepositories(cfg, logger)
	if err != nil {
		return nil, err
	}
	out.db = db

	dir := buildDirectory(cfg, logger)
	verifier := buildVerifier(cfg, dir, logger)

	publisher, dispatcher, err := buildPublisher(cfg, logger)
	if err != nil {
		_ = out.Close(context.Background())
		return nil, err
	}
	out.dispatcher = dispatcher

	ids := idgen.NewUUIDGenerator()
	clubLocks := &resilience.KeyedMutex{}
	pairLocks := &resilience.KeyedMutex{}

	affiliationSvc := usecase.NewAffiliationService(repos.affiliations, dir, ids, pairLocks, publisher, logger)
	handler := httpapi.NewHandler(
		usecase.NewClubService(repos.clubs, ids, clubLocks, logger),
		usecase.NewJoinRequestService(repos.clubs, ids, clubLocks, publisher, logger),
		usecase.NewOpportunityService(repos.clubs, repos.opportunities, ids, logger),
		usecase.NewApplicationService(repos.clubs, repos.opportunities, affiliationSvc, dir, ids, pairLocks, publisher, logger),
		affiliationSvc,
		logger,
	)

	out.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(handler, verifier, logger, cfg.CORSAllowedOrigins, cfg.ServiceName),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return out, nil
}

// Close drains pending notifications and releases the database pool.
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	if a.dispatcher != nil {
		if err := a.dispatcher.Close(ctx); err != nil {
			a.logger.Warn("drain notifications failed", "error", err)
			firstErr = err
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func buildRepositories(cfg config.Config, logger *logging.Logger) (repositories, *sqlx.DB, error) {
	if cfg.StorageDriver != config.StoragePostgres {
		logger.Info("using in-memory storage")
		return repositories{
			clubs:         memory.NewClubRepository(),
			opportunities: memory.NewOpportunityRepository(),
			affiliations:  memory.NewAffiliationRepository(),
		}, nil, nil
	}

	db, err := database.Open(context.Background(), database.Options{
		URL:                         cfg.DBURL,
		DisablePreparedBinaryResult: cfg.DBDisablePreparedBinary,
		MaxOpenConns:                cfg.DBMaxOpenConns,
		ServiceName:                 cfg.ServiceName,
	})
	if err != nil {
		return repositories{}, nil, err
	}
	logger.Info("using postgres storage", "db_name", database.NameFromURL(cfg.DBURL), "max_open_conns", cfg.DBMaxOpenConns)

	return repositories{
		clubs:         postgres.NewClubRepository(db, cfg.DBWriteMaxRetries),
		opportunities: postgres.NewOpportunityRepository(db, cfg.DBWriteMaxRetries),
		affiliations:  postgres.NewAffiliationRepository(db, cfg.DBWriteMaxRetries),
	}, db, nil
}

func buildDirectory(cfg config.Config, logger *logging.Logger) user.Directory {
	if cfg.DirectoryMode != config.DirectoryModeHTTP {
		logger.Info("using seeded user directory")
		return memory.NewUserDirectory(memory.SeedProfiles())
	}

	var dir user.Directory = directory.NewClient(directory.ClientConfig{
		BaseURL:        cfg.DirectoryBaseURL,
		ProfilePath:    cfg.DirectoryProfilePath,
		APIKey:         cfg.DirectoryAPIKey,
		Timeout:        cfg.DirectoryTimeout,
		MaxRetries:     cfg.DirectoryMaxRetries,
		Logger:         logger.Named("directory"),
		CircuitBreaker: cfg.DirectoryCircuit,
	})
	if cfg.CacheEnabled {
		dir = directory.NewCachedDirectory(dir, cfg.CacheTTL)
	}
	return dir
}

func buildVerifier(cfg config.Config, dir user.Directory, logger *logging.Logger) httpapi.TokenVerifier {
	if cfg.AuthMode == config.AuthModeDev {
		logger.Warn("dev auth enabled: bearer tokens are treated as user ids")
		return devauth.NewVerifier(dir, logger.Named("devauth"))
	}

	return anubis.NewClient(
		&http.Client{Timeout: cfg.AnubisTimeout},
		anubis.Config{
			BaseURL:        cfg.AnubisBaseURL,
			IntrospectPath: cfg.AnubisIntrospectPath,
			AdminKey:       cfg.AnubisAdminKey,
			Timeout:        cfg.AnubisTimeout,
			CacheTTL:       cfg.AnubisCacheTTL,
			CircuitBreaker: cfg.AnubisCircuit,
		},
		logger.Named("anubis"),
	)
}

func buildPublisher(cfg config.Config, logger *logging.Logger) (notification.Publisher, *notifier.AsyncDispatcher, error) {
	if !cfg.NotifyEnabled {
		logger.Info("notifications disabled", "reason", "NOTIFY_ENABLED=false")
		return nil, nil, nil
	}

	logger = logger.Named("notifier")
	var next notification.Publisher = notifier.NewLogPublisher(logger)
	if cfg.QStashEnabled {
		next = notifier.NewQStashPublisher(notifier.QStashPublisherConfig{
			BaseURL:        cfg.QStashBaseURL,
			Token:          cfg.QStashToken,
			TargetBaseURL:  cfg.QStashTargetBaseURL,
			TargetPath:     cfg.QStashTargetPath,
			Retries:        cfg.QStashRetries,
			ForwardToken:   cfg.QStashForwardToken,
			Timeout:        cfg.NotifyDeliveryTimeout,
			CircuitBreaker: cfg.QStashCircuit,
		}, logger)
	}

	dispatcher, err := notifier.NewAsyncDispatcher(next, cfg.NotifyWorkers, cfg.NotifyDeliveryTimeout, logger)
	if err != nil {
		return nil, nil, err
	}
	return dispatcher, dispatcher, nil
}

func logBreakerTransitions(logger *logging.Logger) resilience.StateChangeFunc {
	return func(name string, from, to resilience.CircuitState) {
		if to == resilience.CircuitStateOpen {
			logger.Warn("circuit breaker opened", "breaker", name, "from", string(from))
			return
		}
		logger.Info("circuit breaker state changed", "breaker", name, "from", string(from), "to", string(to))
	}
}
