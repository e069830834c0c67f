package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yemenmarket/marketplace-api/cache"
	"github.com/yemenmarket/marketplace-api/config"
	"github.com/yemenmarket/marketplace-api/events"
	"github.com/yemenmarket/marketplace-api/logging"
	"github.com/yemenmarket/marketplace-api/middleware"
	"github.com/yemenmarket/marketplace-api/routes"
	"github.com/yemenmarket/marketplace-api/services"
	"github.com/yemenmarket/marketplace-api/storage"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)
	log.Info("✅ Starting application...")

	if err := run(cfg, log); err != nil {
		log.Error("❌ Server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init storage
	store, closeStore, err := initStorage(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.SeedSampleData {
		if err := storage.Seed(ctx, store); err != nil {
			return fmt.Errorf("seed sample data: %w", err)
		}
		log.Info("🌱 Sample data ready")
	}

	cartCache, closeCache := initCache(ctx, cfg, log)
	defer closeCache()

	hub := events.NewHub(log)
	defer hub.Close()
	publisher := events.Multi{hub}
	if len(cfg.KafkaBrokers) > 0 {
		writer := events.NewKafkaWriter(cfg.KafkaBrokers)
		defer writer.Close()
		publisher = append(publisher, events.NewKafkaPublisher(log, writer, cfg.KafkaOrderTopic))
		log.Info("✅ Publishing order events to Kafka", "topic", cfg.KafkaOrderTopic)
	}

	// events leave the request path; queued ones are flushed on shutdown
	dispatcher := events.NewDispatcher(log, publisher, events.DefaultQueueSize)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := dispatcher.Close(flushCtx); err != nil {
			log.Warn("⚠️ Undelivered order events dropped", "err", err)
		}
	}()

	pricing := services.Pricing{ShippingCost: cfg.ShippingCost, TaxRate: cfg.TaxRate}
	carts := services.NewCartService(log, store, cartCache, pricing)
	deps := routes.Deps{
		Log:         log,
		Store:       store,
		Carts:       carts,
		Orders:      services.NewOrderService(log, store, carts, dispatcher, pricing),
		Catalog:     services.NewCatalogService(log, store),
		Hub:         hub,
		JWTSecret:   cfg.JWTSecret,
		AdminAPIKey: cfg.AdminAPIKey,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("🚀 Server running", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("🛑 Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(cfg *config.Config, deps routes.Deps) *gin.Engine {
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(deps.Log))

	// CORS settings
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r, deps)
	return r
}

// initStorage connects to Postgres when configured and falls back to the
// in-memory store otherwise.
func initStorage(cfg *config.Config, log *slog.Logger) (storage.Storage, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("⚠️ No database configured, using in-memory storage")
		return storage.NewMemStorage(), func() {}, nil
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("database handle: %w", err)
	}

	store := storage.NewGormStorage(db)
	if err := store.AutoMigrate(); err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("auto-migrate: %w", err)
	}
	log.Info("✅ Database connected and migrated")

	return store, func() {
		if err := sqlDB.Close(); err != nil {
			log.Error("❌ Failed to close database", "err", err)
		}
	}, nil
}

// initCache returns the Redis cart cache, or a no-op cache when Redis is not
// configured or not reachable at startup.
func initCache(ctx context.Context, cfg *config.Config, log *slog.Logger) (cache.CartCache, func()) {
	if cfg.RedisAddr == "" {
		return cache.Noop{}, func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("⚠️ Redis unreachable, cart cache disabled", "addr", cfg.RedisAddr, "err", err)
		client.Close()
		return cache.Noop{}, func() {}
	}

	log.Info("✅ Cart cache connected", "addr", cfg.RedisAddr)
	return cache.NewRedisCache(client), func() { client.Close() }
}
