package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/agencyops/staffing-engine/internal/api"
	"github.com/agencyops/staffing-engine/internal/config"
	"github.com/agencyops/staffing-engine/internal/docstore"
	"github.com/agencyops/staffing-engine/internal/health"
	"github.com/agencyops/staffing-engine/internal/metrics"
	"github.com/agencyops/staffing-engine/internal/notify"
	"github.com/agencyops/staffing-engine/internal/store"
	"github.com/agencyops/staffing-engine/internal/suggest"
	"github.com/agencyops/staffing-engine/internal/synthesis"
	"github.com/agencyops/staffing-engine/internal/taxonomy"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("listen_addr", cfg.ListenAddr).
		Bool("store_enabled", cfg.StoreEnabled()).
		Bool("suggest_enabled", cfg.SuggestEnabled()).
		Bool("docstore_enabled", cfg.DocStoreEnabled()).
		Bool("notify_enabled", cfg.NotifyEnabled()).
		Msg("starting staffing engine")

	// Context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Role registry
	registry, err := taxonomy.Load(cfg.TaxonomyPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load role registry")
	}
	logger.Info().Int("roles", len(registry.Entries())).Msg("role registry loaded")

	// Synthesis engine
	engine, err := synthesis.New(registry, cfg.Policy, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build synthesis engine")
	}

	// Health checker
	checker := health.NewChecker(logger)

	// Plan store (if configured)
	var plans *store.Store
	if cfg.StoreEnabled() {
		plans, err = store.Open(cfg.PlanDBPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open plan store")
		}
		defer plans.Close()
		logger.Info().Str("path", cfg.PlanDBPath).Msg("plan store opened")
		checker.Register("plan_store", func(ctx context.Context) health.Status {
			if err := plans.Ping(ctx); err != nil {
				return health.StatusDown
			}
			return health.StatusOK
		})
	} else {
		logger.Info().Msg("plan store not configured — running stateless")
	}

	// Candidate suggestion collaborator (if configured)
	var suggester api.Suggester
	if cfg.SuggestEnabled() {
		client, sErr := suggest.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if sErr != nil {
			logger.Warn().Err(sErr).Msg("failed to init suggestion client (non-fatal)")
		} else {
			suggester = client
			logger.Info().Str("model", cfg.GeminiModel).Msg("suggestion client initialized")
		}
	} else {
		logger.Info().Msg("suggestion model not configured — skipping")
	}

	// Document storage (if configured)
	var docs api.DocumentStore
	if cfg.DocStoreEnabled() {
		ds, dErr := docstore.New(docstore.Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		}, logger)
		if dErr != nil {
			logger.Warn().Err(dErr).Msg("failed to init document store (non-fatal)")
		} else {
			docs = ds
			logger.Info().Str("endpoint", cfg.S3Endpoint).Msg("document store initialized")
		}
	} else {
		logger.Info().Msg("document store not configured — skipping")
	}

	// Review notifications (if configured)
	var notifier api.ReviewNotifier
	if cfg.NotifyEnabled() {
		notifier = notify.New(cfg.SlackBotToken, cfg.SlackReviewChannel, logger)
		logger.Info().Str("channel", cfg.SlackReviewChannel).Msg("review notifications enabled")
	}

	// Metrics
	m := metrics.New()

	// HTTP API
	handlers := api.NewHandlers(engine, plans, suggester, docs, notifier, m, checker, logger)
	server := api.NewServer(api.ServerConfig{
		ListenAddr: cfg.ListenAddr,
		AuthConfig: api.AuthConfig{
			Mode:      cfg.AuthMode,
			APIKey:    cfg.APIKey,
			JWTSecret: cfg.JWTSecret,
		},
		RateLimit: api.RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
		CORSOrigins: cfg.CORSOrigins,
		TLSCert:     cfg.TLSCert,
		TLSKey:      cfg.TLSKey,
	}, handlers, m.Handler(), logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("API server error")
		}
	}()

	// Wait for shutdown signal
	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutting down")
	cancel()

	if err := server.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	wg.Wait()

	logger.Info().Msg("staffing engine stopped")
}
