// Package app wires configuration into the running ingestion service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"itinera/internal/airport"
	"itinera/internal/cache"
	"itinera/internal/classifier"
	"itinera/internal/config"
	"itinera/internal/consolidator"
	"itinera/internal/domain"
	"itinera/internal/email/noop"
	"itinera/internal/email/ses"
	"itinera/internal/extractor"
	"itinera/internal/extractor/providers"
	"itinera/internal/handler"
	"itinera/internal/middleware"
	"itinera/internal/port"
	"itinera/internal/repository/postgres"
	"itinera/internal/router"
	"itinera/internal/service"
	s3storage "itinera/internal/storage/s3"
	"itinera/internal/validator"
)

// Pipeline holds the services built from one configuration.
type Pipeline struct {
	Ingestion service.IngestionService
	Trips     service.TripService
	Replay    *service.ReplayService
}

// BuildPipeline constructs the ingestion and trip services on top of db.
func BuildPipeline(cfg *config.Config, db *sqlx.DB, logger *slog.Logger) (*Pipeline, error) {
	providers.RegisterAll()

	ext, err := extractor.Build(&cfg.Extractor, logger)
	if err != nil {
		return nil, fmt.Errorf("app.BuildPipeline: extractor: %w", err)
	}

	engine, err := validator.NewDefaultEngine(validator.Options{
		MinConfidence: cfg.Validation.MinConfidence,
		MaxExcerptLen: cfg.Validation.MaxExcerptLen,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("app.BuildPipeline: validator: %w", err)
	}

	tripRepo := postgres.NewTripRepo(db)
	docRepo := postgres.NewIngestedDocumentRepo(db)
	airports := airport.NewCachedDirectory(
		postgres.NewAirportRepo(db),
		cache.NewTTL[string, *domain.Airport](cfg.Cache.MaxEntries, cfg.Cache.AirportTTL),
		logger,
	)

	cons := consolidator.New(tripRepo,
		consolidator.WithGapDays(cfg.Consolidation.GapDays),
		consolidator.WithAirportDirectory(airports),
		consolidator.WithOwnerLocks(consolidator.NewOwnerLocks()),
		consolidator.WithLogger(logger),
	)

	var archive port.SourceArchive
	if cfg.Ingest.ArchiveSources {
		archive, err = s3storage.NewSourceArchive(&cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("app.BuildPipeline: s3: %w", err)
		}
	}

	notifier, err := newNotifier(&cfg.Email, logger)
	if err != nil {
		return nil, fmt.Errorf("app.BuildPipeline: notifier: %w", err)
	}

	ingest := service.NewIngestionService(service.IngestionConfig{
		MaxDocumentBytes:  cfg.Ingest.MaxDocumentBytes(),
		MaxPDFPages:       cfg.Ingest.MaxPDFPages,
		ExtractionTimeout: cfg.Ingest.ExtractionTimeout,
		TranscribeTimeout: cfg.Ingest.TranscribeTimeout,
		BatchConcurrency:  cfg.Ingest.BatchConcurrency,
		ArchiveSources:    cfg.Ingest.ArchiveSources,
	}, service.IngestionDeps{
		Extractor:    ext,
		Validator:    engine,
		Classifier:   classifier.New(cfg.Classifier.Threshold),
		Consolidator: cons,
		Documents:    docRepo,
		Archive:      archive,
		Notifier:     notifier,
		Logger:       logger,
	})

	return &Pipeline{
		Ingestion: ingest,
		Trips:     service.NewTripService(tripRepo, logger),
		Replay:    service.NewReplayService(ingest, docRepo, archive, logger),
	}, nil
}

func newNotifier(cfg *config.EmailConfig, logger *slog.Logger) (port.Notifier, error) {
	switch cfg.Provider {
	case "ses":
		return ses.NewSESSender(cfg)
	case "", "noop":
		return noop.NewNoopSender(cfg.FrontendURL, logger), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// NewServer builds the HTTP server for p.
func NewServer(cfg *config.Config, db *sqlx.DB, p *Pipeline, logger *slog.Logger) *http.Server {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.Setup(
		router.Config{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			WebhookSecret:  cfg.Ingest.WebhookSecret,
			Logger:         logger,
		},
		middleware.NewTokenVerifier(cfg.JWT.Secret, cfg.JWT.Issuer),
		handler.NewIngestHandler(p.Ingestion, cfg.Ingest.MaxDocumentBytes()),
		handler.NewTripHandler(p.Trips),
		handler.NewHealthHandler(db),
	)

	return &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           r,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
}

// Serve runs srv until ctx is cancelled, then shuts it down within
// shutdownTimeout.
func Serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	logger.Info("http server stopped")
	return nil
}
