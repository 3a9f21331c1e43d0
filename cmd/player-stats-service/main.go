package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fortuna/services/player-stats-service/internal/audit"
	"github.com/fortuna/services/player-stats-service/internal/bot"
	"github.com/fortuna/services/player-stats-service/internal/cache"
	"github.com/fortuna/services/player-stats-service/internal/config"
	"github.com/fortuna/services/player-stats-service/internal/consumer"
	"github.com/fortuna/services/player-stats-service/internal/handlers"
	"github.com/fortuna/services/player-stats-service/internal/hub"
	"github.com/fortuna/services/player-stats-service/internal/ingest"
	"github.com/fortuna/services/player-stats-service/internal/logger"
	"github.com/fortuna/services/player-stats-service/internal/middleware"
	"github.com/fortuna/services/player-stats-service/internal/publisher"
	"github.com/fortuna/services/player-stats-service/internal/ratelimit"
	"github.com/fortuna/services/player-stats-service/internal/retry"
	"github.com/fortuna/services/player-stats-service/internal/scheduler"
	"github.com/fortuna/services/player-stats-service/internal/service"
	"github.com/fortuna/services/player-stats-service/internal/store/memory"
	"github.com/fortuna/services/player-stats-service/internal/store/postgres"
	"github.com/fortuna/services/player-stats-service/pkg/contracts"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startup := retry.NewRetryPolicy(cfg.StartupRetries+1, time.Second)

	// Store
	var (
		store    contracts.StatsStore
		recorder ingest.BatchRecorder
	)
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pg, err := postgres.New(cfg.Store.DatabaseURL)
		if err != nil {
			log.Fatal("failed to open postgres", "error", err)
		}
		defer pg.Close()

		if err := startup.Execute(ctx, pg.Ping); err != nil {
			log.Fatal("failed to reach postgres", "error", err)
		}
		log.Info("connected to postgres")

		store = pg
		recorder = audit.NewBatchLogger(pg.DB())
	default:
		store = memory.New()
		log.Info("using in-memory store")
	}

	// Live updates
	h := hub.NewHub(log)
	go h.Run(ctx)

	var (
		reportCache contracts.ReportCache
		notifier    contracts.IngestNotifier
		redisClient *redis.Client
		ingestLimit middleware.Allower
	)

	if cfg.RedisEnabled() {
		redisClient, err = newRedisClient(cfg.Redis.URL)
		if err != nil {
			log.Fatal("invalid REDIS_URL", "error", err)
		}
		defer redisClient.Close()

		if err := startup.Execute(ctx, func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}); err != nil {
			log.Fatal("failed to reach redis", "error", err)
		}
		log.Info("connected to redis")

		rc := cache.NewReportCache(redisClient, cfg.Redis.ReportCacheTTL)
		reportCache = rc

		// events from any ingester (server or stats-ingest) come back through the stream
		dispatcher := consumer.NewDispatcher(rc, h, log)
		streamConsumer := consumer.NewStreamConsumer(redisClient, dispatcher, consumer.StreamConfig{
			Stream:        cfg.Redis.Stream,
			ConsumerGroup: cfg.Redis.ConsumerGroup,
			ConsumerID:    cfg.Redis.ConsumerID,
		}, log)
		go func() {
			if err := streamConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("stream consumer stopped", "error", err)
			}
		}()

		notifier = publisher.NewStreamPublisher(redisClient, cfg.Redis.Stream)

		if cfg.Redis.IngestRateLimit > 0 {
			ingestLimit = ratelimit.NewLimiter(redisClient, "ratelimit:ingest", cfg.Redis.IngestRateLimit, time.Minute)
		}
	} else {
		notifier = consumer.NewDispatcher(nil, h, log)
	}

	ingester := ingest.New(store, notifier, log)
	if recorder != nil {
		ingester = ingester.WithRecorder(recorder)
	}
	stats := service.New(store, reportCache, cfg.Server.ReportWorkers, log)

	// Scheduled re-ingestion
	if cfg.Ingest.Interval > 0 {
		sched, err := scheduler.NewScheduler(ingester, cfg.Ingest.File, cfg.Ingest.Interval, log)
		if err != nil {
			log.Fatal("failed to create scheduler", "error", err)
		}
		if err := sched.Start(ctx); err != nil {
			log.Fatal("failed to start scheduler", "error", err)
		}
		defer func() {
			if err := sched.Shutdown(); err != nil {
				log.Warn("scheduler shutdown error", "error", err)
			}
		}()
	}

	// Chat bot
	if cfg.TelegramEnabled() {
		tg, err := bot.NewTelegramBot(cfg.Telegram.Token, stats, log)
		if err != nil {
			log.Error("telegram bot disabled", "error", err)
		} else {
			go func() {
				if err := tg.Start(ctx); err != nil {
					log.Error("telegram bot stopped", "error", err)
				}
			}()
		}
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		API:         handlers.NewHandler(stats, ingester, log),
		WS:          handlers.NewWSHandler(ctx, h, cfg.Server.CORSOrigins, log),
		IngestLimit: ingestLimit,
		CORSOrigins: cfg.Server.CORSOrigins,
		Log:         log,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
	}

	go func() {
		log.Info("player stats service listening", "addr", cfg.Server.Addr, "store", cfg.Store.Driver, "redis", cfg.RedisEnabled())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}

	log.Info("player stats service stopped")
}

// newRedisClient accepts redis:// URLs and bare host:port addresses
func newRedisClient(raw string) (*redis.Client, error) {
	if !strings.Contains(raw, "://") {
		return redis.NewClient(&redis.Options{Addr: raw}), nil
	}
	opts, err := redis.ParseURL(raw)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}
