package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"canteen/internal/config"
	"canteen/internal/database"
	"canteen/internal/events"
	"canteen/internal/metrics"
	"canteen/internal/repositories"
	"canteen/internal/server"
	"canteen/internal/session"
	"canteen/internal/storage"
	"canteen/pkg/kafka"
	"canteen/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// --- Database ---
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	store := repositories.NewGORMStore(db)

	// --- Sessions ---
	sessions, closeSessions, err := newSessionStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize session store: %v", err)
	}
	defer closeSessions()

	// --- Event publisher ---
	publisher, consumer, err := newPublisher(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize %s publisher: %v", cfg.EventsDriver, err)
	}
	defer publisher.Close()

	images, err := storage.NewLocalImageStore(cfg.ImageDir)
	if err != nil {
		log.Fatalf("Failed to prepare image directory: %v", err)
	}

	m := metrics.New()
	srv := server.New(server.Deps{
		Config:   cfg,
		Store:    store,
		Sessions: sessions,
		Images:   images,
		Metrics:  m,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Auth.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to create admin account: %v", err)
	}

	relay := events.NewRelay(store.Outbox(), publisher, cfg.OutboxInterval, cfg.OutboxBatch, m)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Starting outbox relay (%s, every %s)", cfg.EventsDriver, cfg.OutboxInterval)
		return relay.Run(ctx)
	})
	if consumer != nil {
		log.Println("Starting merchant notification consumer...")
		if err := consumer(); err != nil {
			log.Printf("Failed to start merchant notification consumer: %v", err)
		}
	}
	g.Go(func() error {
		log.Printf("Starting server on port %s", cfg.AppPort)
		return srv.App.Listen(cfg.AppPort)
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Println("Shutting down server...")
		return srv.App.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil {
		log.Printf("Server stopped with error: %v", err)
	}

	// Deliver whatever was committed before shutdown.
	drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := relay.Drain(drainCtx); err != nil {
		log.Printf("Final outbox drain failed: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// newSessionStore returns a Redis-backed store when REDIS_ADDR is set and an
// in-process one otherwise.
func newSessionStore(cfg config.Config) (session.Store, func(), error) {
	if cfg.RedisAddr == "" {
		log.Println("REDIS_ADDR not set, keeping sessions in memory.")
		return session.NewMemoryStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}
	return session.NewRedisStore(client), func() { client.Close() }, nil
}

// newPublisher connects the configured broker. For RabbitMQ it also returns
// the consumer of the merchant notification queue.
func newPublisher(cfg config.Config) (events.Publisher, func() error, error) {
	switch cfg.EventsDriver {
	case "rabbitmq":
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			return nil, nil, err
		}
		consume := func() error {
			return client.Consume(rabbitmq.MerchantQueue, events.LogMerchantNotification)
		}
		return client, consume, nil
	case "kafka":
		return kafka.NewPublisher(cfg.KafkaBrokers), nil, nil
	default:
		return events.LogPublisher{}, nil, nil
	}
}
