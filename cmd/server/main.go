package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/trogers1052/signal-picks-service/internal/api"
	"github.com/trogers1052/signal-picks-service/internal/config"
	"github.com/trogers1052/signal-picks-service/internal/database"
	"github.com/trogers1052/signal-picks-service/internal/kafka"
	"github.com/trogers1052/signal-picks-service/internal/picks"
	"github.com/trogers1052/signal-picks-service/internal/redis"
	"github.com/trogers1052/signal-picks-service/internal/scheduler"
	"github.com/trogers1052/signal-picks-service/internal/scorer"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to database
	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := runMigrations(cfg.Database.ConnectionString()); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	defer db.Close()
	log.Println("Connected to PostgreSQL database")

	// Connect to Redis
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v (continuing without cache)", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Println("Connected to Redis cache")
	}

	// Create Kafka producer for selection events
	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.PicksTopic)
	defer producer.Close()
	log.Printf("Kafka producer initialized (brokers: %v)", cfg.Kafka.Brokers)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create and start Kafka consumer maintaining the candidate pool
	watchlistConsumer := kafka.NewWatchlistConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.WatchlistTopic,
		cfg.Kafka.ConsumerGroup,
		db,
	)
	go func() {
		log.Printf("Starting Kafka watchlist consumer for topic: %s (group: %s)",
			cfg.Kafka.WatchlistTopic, cfg.Kafka.ConsumerGroup)
		if err := watchlistConsumer.Start(ctx); err != nil {
			log.Printf("Kafka watchlist consumer error: %v", err)
		}
	}()

	// Create the selection engine
	scorerClient := scorer.New(cfg.Scorer.BaseURL, time.Duration(cfg.Scorer.TimeoutSeconds)*time.Second)
	engine := picks.NewEngine(picks.Options{
		Store:          db,
		Scorer:         scorerClient,
		Sampler:        picks.NewRandomSampler(time.Now().UnixNano()),
		Publisher:      producer,
		MaxPoolSize:    cfg.Generation.MaxPoolSize,
		WinnersPerHour: cfg.Generation.WinnersPerHour,
		BestOfDayCount: cfg.Generation.BestOfDayCount,
	})

	// Start the hourly trigger
	sched := scheduler.New(engine)
	sched.Start(ctx)
	defer sched.Stop()

	// Set up HTTP handler and routes
	handler := api.NewHandler(db, redisClient, cfg.Generation.BestOfDayCount)
	router := api.SetupRoutes(handler)

	// Create HTTP server
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Cancel context to stop the Kafka consumer
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Close the Kafka consumer
	if err := watchlistConsumer.Close(); err != nil {
		log.Printf("Error closing Kafka watchlist consumer: %v", err)
	}

	log.Println("Server stopped")
}

func runMigrations(databaseUrl string) error {
	m, err := migrate.New("file://./db/migrations", databaseUrl)
	if err != nil {
		return err
	}

	// Apply all available migrations up to the latest version
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}
