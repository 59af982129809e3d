package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/acmg-evidence-engine/internal/api"
	"github.com/acmg-evidence-engine/internal/config"
	"github.com/acmg-evidence-engine/internal/database"
	"github.com/acmg-evidence-engine/internal/domain"
	"github.com/acmg-evidence-engine/internal/engine"
	"github.com/acmg-evidence-engine/internal/repository"
	"github.com/acmg-evidence-engine/internal/review"
	"github.com/acmg-evidence-engine/pkg/external"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger := newLogger(cfg.Logging)
	logger.WithFields(logrus.Fields{
		"host":        cfg.Server.Host,
		"port":        cfg.Server.Port,
		"environment": cfg.Environment,
	}).Info("Starting ACMG evidence engine")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The audit store is optional outside production: classification still
	// works, outcomes are just not persisted.
	outcomes := connectAuditStore(ctx, configManager, logger)

	reviews := connectReviewStore(cfg.Review, logger)
	if reviews != nil {
		defer reviews.Close()
	}

	cache := connectCache(cfg.Cache, logger)
	if cache != nil {
		defer cache.Close()
	}

	frequency, err := external.NewFrequencyClient(external.FrequencyClientConfig{
		BaseURL:        cfg.Providers.Frequency.BaseURL,
		Timeout:        cfg.Providers.Frequency.Timeout,
		RateLimit:      cfg.Providers.Frequency.RateLimit,
		LocalCacheSize: cfg.Cache.LocalSize,
	}, cache, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create frequency client")
	}

	predictions, err := external.NewPredictionClient(external.PredictionClientConfig{
		BaseURL:        cfg.Providers.Predictions.BaseURL,
		Timeout:        cfg.Providers.Predictions.Timeout,
		LocalCacheSize: cfg.Cache.LocalSize,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create prediction client")
	}

	registry, err := engine.NewRegistryWithDisabled(cfg.Engine.DisabledCodes...)
	if err != nil {
		logger.WithError(err).Fatal("Invalid disabled evidence code in configuration")
	}

	resources := &domain.Resources{
		Frequency:   frequency,
		Predictions: predictions,
	}

	classifier := engine.NewClassifier(logger, registry, resources, engine.Thresholds{
		PM2Dominant:        cfg.Engine.PM2DominantCutoff,
		PM2Recessive:       cfg.Engine.PM2RecessiveCutoff,
		PM2Default:         cfg.Engine.PM2DefaultCutoff,
		BA1MinFrequency:    cfg.Engine.BA1MinFrequency,
		BS1MinFrequency:    cfg.Engine.BS1MinFrequency,
		PredictorAgreement: cfg.Engine.PredictorAgreement,
		SpliceHighImpact:   cfg.Engine.SpliceHighImpact,
	})

	server := api.NewServer(cfg.Server, logger, classifier, registry, outcomes, reviews, !configManager.IsProduction())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.WithField("signal", sig.String()).Info("Shutdown signal received")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
	logger.Info("Server stopped")
}

func newLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.ToLower(cfg.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// connectAuditStore connects to Postgres and runs migrations. Failures are
// fatal in production and degrade to no persistence elsewhere.
func connectAuditStore(ctx context.Context, configManager *config.Manager, logger *logrus.Logger) api.OutcomeStore {
	cfg := configManager.GetConfig()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := database.NewConnection(connectCtx, database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		Database:    cfg.Database.Database,
		Username:    cfg.Database.Username,
		Password:    cfg.Database.Password,
		SSLMode:     cfg.Database.SSLMode,
		MaxConns:    int32(cfg.Database.MaxOpenConns),
		MinConns:    int32(cfg.Database.MaxIdleConns),
		MaxConnLife: cfg.Database.ConnMaxLifetime,
		MaxConnIdle: 5 * time.Minute,
	}, logger)
	if err != nil {
		if configManager.IsProduction() {
			logger.WithError(err).Fatal("Failed to connect to the audit store")
		}
		logger.WithError(err).Warn("Audit store unavailable; outcomes will not be persisted")
		return nil
	}

	migrationURL := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port,
		cfg.Database.Database, cfg.Database.SSLMode)
	runner, err := database.NewMigrationRunner(migrationURL, "migrations", logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize migrations")
	}
	defer runner.Close()
	if err := runner.Up(); err != nil {
		logger.WithError(err).Fatal("Failed to apply migrations")
	}

	return repository.NewOutcomeRepository(db.Pool, logger)
}

func connectReviewStore(cfg config.ReviewConfig, logger *logrus.Logger) review.Store {
	var (
		store review.Store
		err   error
	)
	switch cfg.Driver {
	case "postgres":
		store, err = review.NewPostgresStoreFromURL(cfg.DSN)
	default:
		store, err = review.NewSQLiteStore(cfg.Path)
	}
	if err != nil {
		logger.WithError(err).Warn("Review store unavailable; conflicts will not be queued")
		return nil
	}
	logger.WithField("driver", cfg.Driver).Info("Review store ready")
	return store
}

func connectCache(cfg config.CacheConfig, logger *logrus.Logger) *external.RedisCache {
	cache, err := external.NewRedisCache(cfg.RedisURL, cfg.DefaultTTL)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable; falling back to in-process caching only")
		return nil
	}
	logger.Info("Redis cache connected")
	return cache
}
