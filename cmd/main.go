package main

import (
	"context"
	"net/http"
	"time"

	"github.com/senyabanana/procurement-portal/internal/auth"
	"github.com/senyabanana/procurement-portal/internal/cache"
	"github.com/senyabanana/procurement-portal/internal/db"
	"github.com/senyabanana/procurement-portal/internal/events"
	"github.com/senyabanana/procurement-portal/internal/handlers"
	"github.com/senyabanana/procurement-portal/internal/repository"
	"github.com/senyabanana/procurement-portal/internal/router"
	"github.com/senyabanana/procurement-portal/internal/router/config"
	"github.com/senyabanana/procurement-portal/internal/services"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

const (
	requestTimeout = 5 * time.Second
	sweepInterval  = time.Minute
	tokenTTL       = 24 * time.Hour
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Fatalf("cannot load config: %v", err)
	}

	runDBMigration(logger, cfg.MigrationURL, cfg.PostgresConn)

	dbPool, err := db.InitDb(cfg)
	if err != nil {
		logger.Fatalf("error initializing database: %v", err)
	}
	defer dbPool.Close()

	// Кеш и события не обязательны: без redis и NATS портал продолжает работать.
	var cacheClient *cache.Client
	if cfg.RedisAddr != "" {
		cacheClient, err = cache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warnf("redis unavailable, serving without cache: %v", err)
		} else {
			defer cacheClient.Close()
		}
	}

	var publisher *events.Publisher
	if cfg.NatsURL != "" {
		publisher, err = events.NewPublisher(cfg.NatsURL)
		if err != nil {
			logger.Warnf("nats unavailable, serving without lifecycle events: %v", err)
		} else {
			defer publisher.Close()
		}
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, tokenTTL)

	tenderRepo := repository.NewPostgresTenderRepository(dbPool)
	bidRepo := repository.NewPostgresBidRepository(dbPool)
	userRepo := repository.NewPostgresUserRepository(dbPool)

	tenderService := services.NewTenderService(tenderRepo, bidRepo, cacheClient, publisher, logger)
	bidService := services.NewBidService(bidRepo, tenderRepo, publisher, logger)
	authService := services.NewAuthService(userRepo, tokens, logger)

	authHandler := handlers.NewAuthHandler(authService, logger, requestTimeout)
	tenderHandler := handlers.NewTenderHandler(tenderService, logger, requestTimeout)
	bidHandler := handlers.NewBidHandler(bidService, logger, requestTimeout)

	routes := router.InitRoutes(tokens, authHandler, tenderHandler, bidHandler)

	go runDeadlineSweep(logger, tenderService)

	logger.Infof("server is listening on %s...", cfg.ServerAddress)
	if err := http.ListenAndServe(cfg.ServerAddress, routes); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}

func runDBMigration(logger *logrus.Logger, migrationURL string, dbSource string) {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		logger.Fatalf("cannot create a new migrate instance: %v", err)
	}

	if err = migration.Up(); err != nil && err != migrate.ErrNoChange {
		logger.Fatalf("failed to run migrate up: %v", err)
	}
	logger.Info("db migrated successfully")
}

// runDeadlineSweep периодически закрывает открытые тендеры с истёкшим сроком
// подачи. Переход по сроку инициирует шлюз, движок сам его не отслеживает.
func runDeadlineSweep(logger *logrus.Logger, tenderService *services.TenderService) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		if err := tenderService.CloseExpired(ctx); err != nil {
			logger.WithError(err).Warn("deadline sweep failed")
		}
		cancel()
	}
}
