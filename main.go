// main.go
package main

import (
	"context"
	"log"

	"flexsession/cmd"
	"flexsession/internal/data/migrations"
	"flexsession/internal/data/repository"
	"flexsession/internal/events"
	"flexsession/internal/gateway"
	"flexsession/internal/wire"
	"flexsession/internal/worker"
	"flexsession/pkg/cache"
	"flexsession/pkg/database"
	"flexsession/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("storage", config.App.StorageDriver),
		zap.String("payment_gateway", config.Payment.Gateway),
		zap.Bool("debug", config.App.Debug),
	)

	// Initialize all repositories
	var repos *repository.Repository
	switch config.App.StorageDriver {
	case "memory":
		logger.Warn("Using in-memory storage, data is lost on restart")
		repos = repository.NewMemoryRepository()

	default:
		db, err := database.InitDB(ctx, config.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		logger.Info("Database connected successfully")

		if config.Database.Migrate {
			if err := database.Migrate(ctx, db, migrations.FS, logger); err != nil {
				logger.Fatal("Failed to run migrations", zap.Error(err))
			}
		}

		rdb, err := cache.NewRedis(ctx, config.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		logger.Info("Redis connected successfully")

		repos = repository.NewRepository(db, rdb, config.Payment.EventTTL, logger)
	}

	// Payment gateway
	gw, err := gateway.NewPaymentGateway(config.Payment.Gateway, &gateway.GatewayConfig{
		SecretKey: config.Payment.StripeKey,
		AppURL:    config.App.URL,
	})
	if err != nil {
		logger.Fatal("Failed to init payment gateway", zap.Error(err))
	}

	// Session events
	var publisher events.EventPublisher = events.NoopPublisher{}
	if config.NATS.URL != "" {
		natsPublisher, err := events.NewNatsPublisher(config.NATS.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		publisher = natsPublisher
		logger.Info("NATS connected successfully")
	}
	defer publisher.Close()

	// Wire all dependencies
	app := wire.Wiring(repos, gw, publisher, config, logger)

	lifecycle := worker.NewLifecycleWorker(app.Service.Session, config.Worker.Interval, logger)
	lifecycle.Start(ctx)
	defer lifecycle.Stop()

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	if err := cmd.APIServer(app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped", zap.Error(err))
	}
}
