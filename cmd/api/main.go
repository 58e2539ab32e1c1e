package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/fixtures"
	"storefront/internal/logger"
	"storefront/internal/repository"
	"storefront/internal/server"
	"storefront/pkg/rabbitmq"
)

func gracefulShutdown(apiServer *server.Server, mqClient *rabbitmq.Client, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The context is used to inform the server it has 30 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Close server resources
	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	if mqClient != nil {
		if err := mqClient.Close(); err != nil {
			logger.Error("Error closing RabbitMQ client", zap.Error(err))
		}
	}

	logger.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting storefront API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	// Initialize database
	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	db := dbService.DB()

	// Check database health
	health := dbService.Health()
	log.Info("Database health check", zap.Any("health", health))

	// Run migrations
	if err := database.RunMigrations(db, "migrations", log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Seed demo data outside production
	if cfg.Server.IsDevelopment() {
		loader := fixtures.NewLoader(
			repository.NewUserRepository(db),
			repository.NewCategoryRepository(db),
			repository.NewProductRepository(db),
			repository.NewCommentRepository(db),
			auth.NewHasher(),
			log,
		)
		if err := loader.Load(context.Background()); err != nil {
			log.Fatal("Failed to load fixtures", zap.Error(err))
		}
	}

	// Initialize Redis for rate limiting; the API runs without it
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Warn("Redis unavailable, rate limiting disabled", zap.Error(err))
		redisClient.Close()
		redisClient = nil
	}

	// Connect to RabbitMQ; order events are best-effort when the broker is down
	mqClient, err := rabbitmq.NewClient(context.Background(), rabbitmq.Config{
		URL:        cfg.AMQP.URL,
		OrderQueue: cfg.AMQP.OrderQueue,
	}, log)
	if err != nil {
		log.Warn("RabbitMQ unavailable, order events disabled", zap.Error(err))
		mqClient = nil
	}

	// Drain order events in the background
	if mqClient != nil {
		err := mqClient.ConsumeOrderEvents(func(msg amqp.Delivery) error {
			log.Info("Order event received", zap.ByteString("body", msg.Body))
			return nil
		})
		if err != nil {
			log.Error("Failed to start order event consumer", zap.Error(err))
		}
	}

	// Create server
	srv := newServer(cfg, log, db, redisClient, mqClient)

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(srv, mqClient, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info("Graceful shutdown complete")
}

// newServer keeps the nil-publisher case a true nil interface.
func newServer(cfg *config.Config, log *zap.Logger, db *sql.DB, redisClient *redis.Client, publisher *rabbitmq.Client) *server.Server {
	if publisher == nil {
		return server.NewServer(cfg, log, db, redisClient, nil)
	}
	return server.NewServer(cfg, log, db, redisClient, publisher)
}
