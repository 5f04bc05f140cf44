package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/courtsync/booking/external/mercadopago"
	"github.com/courtsync/booking/internal/config"
	"github.com/courtsync/booking/internal/domain/booking"
	"github.com/courtsync/booking/internal/domain/court"
	"github.com/courtsync/booking/internal/domain/venue"
	"github.com/courtsync/booking/internal/infrastructure/account/introspect"
	"github.com/courtsync/booking/internal/infrastructure/credential"
	"github.com/courtsync/booking/internal/infrastructure/notification"
	"github.com/courtsync/booking/internal/infrastructure/repository/memory"
	"github.com/courtsync/booking/internal/infrastructure/repository/postgres"
	"github.com/courtsync/booking/internal/interfaces/httpapi"
	"github.com/courtsync/booking/internal/platform/cache"
	idgen "github.com/courtsync/booking/internal/platform/id"
	"github.com/courtsync/booking/internal/platform/logging"
	"github.com/courtsync/booking/internal/platform/resilience"
	"github.com/courtsync/booking/internal/usecase"
)

// App owns the wired service graph: repositories, use cases, the HTTP
// server and the background expiry sweeper.
type App struct {
	Server *http.Server

	cfg       config.Config
	logger    *logging.Logger
	db        *sqlx.DB
	scheduler gocron.Scheduler
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	a := &App{cfg: cfg, logger: logger}

	venueRepo, courtRepo, bookingRepo, err := a.buildRepositories()
	if err != nil {
		return nil, err
	}

	decrypter, err := credential.NewAESGCM(cfg.CredentialMasterKey)
	if err != nil {
		return nil, fmt.Errorf("build credential decrypter: %w", err)
	}

	gateway := mercadopago.NewClient(mercadopago.ClientConfig{
		BaseURL:         cfg.MercadoPagoBaseURL,
		Currency:        cfg.MercadoPagoCurrency,
		NotificationURL: cfg.MercadoPagoNotificationURL,
		Timeout:         cfg.MercadoPagoTimeout,
		MaxRetries:      cfg.MercadoPagoMaxRetries,
		Logger:          logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.MercadoPagoCircuitEnabled,
			FailureThreshold: cfg.MercadoPagoCircuitFailureCount,
			OpenTimeout:      cfg.MercadoPagoCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.MercadoPagoCircuitHalfOpenMaxReq,
		},
	})

	var notifier usecase.Notifier
	if cfg.WebhookEnabled {
		notifier = notification.NewWebhookNotifier(notification.WebhookNotifierConfig{
			TargetURL:    cfg.WebhookTargetURL,
			SigningToken: cfg.WebhookSigningToken,
			Retries:      cfg.WebhookRetries,
			Timeout:      cfg.WebhookTimeout,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.WebhookCircuitEnabled,
				FailureThreshold: cfg.WebhookCircuitFailureCount,
				OpenTimeout:      cfg.WebhookCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.WebhookCircuitHalfOpenMaxReq,
			},
		}, logger)
	}

	availabilityService := usecase.NewAvailabilityService(venueRepo, courtRepo, bookingRepo, cfg.PricingTieBreak, cfg.AvailabilityFanOut)
	reservationService := usecase.NewReservationService(
		venueRepo, courtRepo, bookingRepo,
		idgen.NewRandomGenerator(), notifier, logger,
		cfg.PricingTieBreak, cfg.BookingPaymentWindow,
	)
	settlementService := usecase.NewSettlementService(
		venueRepo, bookingRepo, gateway, decrypter, notifier, logger,
		usecase.SettlementConfig{VerifyCallbacks: cfg.CallbackVerifyEnabled},
	)
	expiryService := usecase.NewExpiryService(bookingRepo, notifier, logger, usecase.ExpiryConfig{
		BatchSize: cfg.ExpirySweepBatchSize,
		Workers:   cfg.ExpirySweepWorkers,
	})

	var verifier httpapi.TokenVerifier = introspect.NewClient(
		&http.Client{Timeout: cfg.AccountTimeout},
		cfg.AccountBaseURL,
		cfg.AccountIntrospectPath,
		logger,
	)
	if cfg.CacheEnabled {
		verifier = newCachingVerifier(verifier, cache.NewStore(cfg.CacheTTL))
	}

	handler := httpapi.NewHandler(availabilityService, reservationService, settlementService, expiryService, logger)
	router := httpapi.NewRouter(handler, verifier, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	a.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if a.Server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	if err := a.buildScheduler(expiryService); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *App) buildRepositories() (venue.Repository, court.Repository, booking.Repository, error) {
	if a.cfg.StorageDriver == config.StorageDriverMemory {
		a.logger.Info("storage driver: in-memory with seed data")
		return memory.SeedVenueRepository(),
			memory.NewCourtRepository(memory.SeedCourts(), memory.SeedPriceRules()),
			memory.NewBookingRepository(nil),
			nil
	}

	dsn := normalizeDBURL(a.cfg.DBURL, a.cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBName(dbNameFromURL(a.cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("ping database: %w", err)
	}

	a.db = db
	return postgres.NewVenueRepository(db), postgres.NewCourtRepository(db), postgres.NewBookingRepository(db), nil
}

func (a *App) buildScheduler(expiryService *usecase.ExpiryService) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("build scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(a.cfg.ExpirySweepInterval),
		gocron.NewTask(func(ctx context.Context) {
			if _, err := expiryService.Sweep(ctx); err != nil {
				a.logger.ErrorContext(ctx, "scheduled expiry sweep failed", "error", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("schedule expiry sweep: %w", err)
	}

	a.scheduler = scheduler
	return nil
}

// Start launches the background sweeper. The HTTP server is started by
// the caller so it controls the listen error path.
func (a *App) Start() {
	a.scheduler.Start()
	a.logger.Info("expiry sweep scheduled", "interval", a.cfg.ExpirySweepInterval.String())
}

func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error

	if a.scheduler != nil {
		if err := a.scheduler.Shutdown(); err != nil {
			firstErr = fmt.Errorf("stop scheduler: %w", err)
		}
	}
	if err := a.Server.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("stop http server: %w", err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close database: %w", err)
		}
	}

	return firstErr
}
