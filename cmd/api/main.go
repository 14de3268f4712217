package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/robertarktes/party-bookings/internal/adapters/crdb"
	"github.com/robertarktes/party-bookings/internal/adapters/memory"
	mongoadapter "github.com/robertarktes/party-bookings/internal/adapters/mongo"
	redisadapter "github.com/robertarktes/party-bookings/internal/adapters/redis"
	"github.com/robertarktes/party-bookings/internal/availability"
	"github.com/robertarktes/party-bookings/internal/booking"
	"github.com/robertarktes/party-bookings/internal/config"
	"github.com/robertarktes/party-bookings/internal/content"
	"github.com/robertarktes/party-bookings/internal/domain"
	httphandler "github.com/robertarktes/party-bookings/internal/http"
	"github.com/robertarktes/party-bookings/internal/idempotency"
	"github.com/robertarktes/party-bookings/internal/observability"
	"github.com/robertarktes/party-bookings/internal/rateLimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg, "party-bookings-api")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger(cfg.LogLevel)
	ctx := context.Background()

	var (
		bookingStore domain.BookingStore
		contentStore domain.ContentStore
		checks       = map[string]httphandler.Check{}
	)

	switch cfg.Store {
	case config.StoreCRDB:
		pool, err := pgxpool.New(ctx, cfg.CRDBDSN)
		if err != nil {
			log.Fatalf("failed to connect to crdb: %v", err)
		}
		defer pool.Close()
		repo := crdb.NewRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("failed to ensure schema: %v", err)
		}
		bookingStore = repo
		checks["crdb"] = repo.Ping
	default:
		mem := memory.NewStore()
		bookingStore, contentStore = mem, mem
		logger.Warn("using in-memory store, data is lost on restart")
	}

	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatalf("failed to connect to mongo: %v", err)
		}
		defer mongoClient.Disconnect(context.Background())
		contentStore = mongoadapter.NewContentRepository(mongoClient.Database(cfg.MongoDB), logger)
		checks["mongo"] = func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }
	}
	if contentStore == nil {
		logger.Warn("MONGO_URI not set, site content is kept in memory")
		contentStore = memory.NewStore()
	}

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	redisCache := redisadapter.NewCache(redisClient)
	checks["redis"] = redisCache.Ping
	idemp := idempotency.NewIdempotency(redisadapter.NewIdempotency(redisClient), cfg.IdempotencyTTL)
	rl := rateLimit.NewRateLimiter(redisCache)

	bookings, err := booking.NewService(bookingStore, booking.Options{
		Slots:     cfg.TimeSlots,
		Exclusive: cfg.Exclusive(),
		Locker:    redisCache,
		LockTTL:   cfg.SlotLockTTL,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create booking service: %v", err)
	}
	avail := availability.NewService(bookingStore, cfg.TimeSlots, logger)

	siteContent := content.NewService(contentStore, logger)
	if cfg.SeedContent {
		if err := siteContent.Seed(ctx); err != nil {
			logger.WithError(err).Error("content seeding failed")
		}
	}
	loadCtx, cancelLoad := context.WithTimeout(ctx, 10*time.Second)
	if err := siteContent.Load(loadCtx); err != nil {
		logger.WithError(err).Warn("content load interrupted")
	}
	cancelLoad()

	handlers := httphandler.NewHandlers(cfg, bookings, avail, siteContent, logger)
	for name, check := range checks {
		handlers.AddCheck(name, check)
	}

	r := httphandler.SetupRouter(handlers, logger, rl, idemp)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).WithField("policy", cfg.BookingPolicy).Info("API listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	logger.Info("Server exiting")
}
