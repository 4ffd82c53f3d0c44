package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"invoicedash/internal/config"
	"invoicedash/internal/domain"
	natsevents "invoicedash/internal/events/nats"
	"invoicedash/internal/events/noop"
	"invoicedash/internal/extraction"
	extractmock "invoicedash/internal/extraction/mock"
	"invoicedash/internal/handler"
	"invoicedash/internal/logging"
	"invoicedash/internal/observability/metrics"
	"invoicedash/internal/port"
	"invoicedash/internal/router"
	"invoicedash/internal/service"
	"invoicedash/internal/storage/memory"
	s3storage "invoicedash/internal/storage/s3"
	"invoicedash/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logging.New(cfg.Log, "invoicedash")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	thresholds := domain.ConfidenceThresholds{AutoApprove: cfg.Thresholds.AutoApprove, Review: cfg.Thresholds.Review}
	if err := thresholds.Validate(); err != nil {
		return fmt.Errorf("invalid threshold config: %w", err)
	}
	repo := store.New(store.WithThresholds(thresholds), store.WithMetricsHook(m.ObserveDashboard))

	// Initialize extraction provider
	provider, err := extraction.NewProvider(&cfg.Extraction)
	if err != nil {
		return fmt.Errorf("failed to initialize extraction provider: %w", err)
	}
	if cfg.Seed.Count > 0 {
		seeder := extractmock.NewProvider(extractmock.Options{Seed: cfg.Seed.Seed})
		for _, inv := range seeder.SeedInvoices(cfg.Seed.Count, thresholds, cfg.Intake.EngineName) {
			if _, err := repo.Add(inv); err != nil {
				return fmt.Errorf("failed to seed invoice %s: %w", inv.ID, err)
			}
		}
		log.Info().Int("count", cfg.Seed.Count).Msg("seeded demo invoices")
	}
	resilient := extraction.NewResilientProvider(provider, extraction.Policy{
		MaxAttempts:    cfg.Extraction.MaxRetries + 1,
		InitialBackoff: cfg.Extraction.RetryBackoff,
		Timeout:        cfg.Extraction.Timeout,
		BreakerEnabled: cfg.Extraction.BreakerEnabled,
	}, log, m.RecordRetry)

	var checkers []port.HealthChecker

	// Initialize storage
	var storage port.ObjectStorage
	switch cfg.Storage.Provider {
	case "s3":
		s3Client, err := s3storage.NewS3Client(&cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		storage = s3Client
		checkers = append(checkers, s3Client)
	case "memory", "":
		storage = memory.New(cfg.Storage.Bucket)
	default:
		return fmt.Errorf("unknown storage provider: %s", cfg.Storage.Provider)
	}

	// Initialize event publisher
	var publisher port.EventPublisher
	switch cfg.Events.Provider {
	case "nats":
		natsPub, err := natsevents.Connect(cfg.Events.URL, cfg.Events.SubjectPrefix, natsevents.Options{}, log)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		publisher = natsPub
		checkers = append(checkers, natsPub)
	case "noop", "":
		publisher = noop.NewPublisher(log)
	default:
		return fmt.Errorf("unknown events provider: %s", cfg.Events.Provider)
	}
	publisher = metrics.NewCountingPublisher(publisher, m)
	defer publisher.Close()

	// Initialize services
	invoiceSvc := service.NewInvoiceService(repo, publisher, log)
	intakeSvc := service.NewIntakeService(repo, resilient, storage, publisher, service.IntakeConfig{
		SLAWindow:     cfg.Intake.SLAWindow,
		EngineName:    cfg.Intake.EngineName,
		MaxFileSize:   cfg.Server.MaxUploadSizeMB << 20,
		PresignExpiry: cfg.Storage.PresignExpiry,
		JobRetention:  cfg.Intake.JobRetention,
		Worker: service.UploadWorkerConfig{
			Concurrency: cfg.Intake.Concurrency,
		},
	}, log)
	dashboardSvc := service.NewDashboardService(repo)
	settingsSvc := service.NewSettingsService(repo, log)

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		intakeSvc.Run(ctx)
	}()

	// Setup router
	r := router.Setup(cfg, log, m, router.Handlers{
		Invoice:   handler.NewInvoiceHandler(invoiceSvc, intakeSvc),
		Upload:    handler.NewUploadHandler(intakeSvc),
		Dashboard: handler.NewDashboardHandler(dashboardSvc),
		Settings:  handler.NewSettingsHandler(settingsSvc),
		Health:    handler.NewHealthHandler(checkers...),
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Port).Str("environment", cfg.Server.Environment).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			stop()
			<-workerDone
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	return shutdown(server, workerDone, cfg, log)
}

func shutdown(server *http.Server, workerDone <-chan struct{}, cfg *config.Config, log zerolog.Logger) error {
	log.Info().Dur("timeout", cfg.Server.ShutdownTimeout).Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("upload worker did not drain before the shutdown timeout")
	}
	log.Info().Msg("shutdown complete")
	return nil
}
