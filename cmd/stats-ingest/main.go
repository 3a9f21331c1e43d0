// Command stats-ingest migrates the schema and loads box score files
// without running the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fortuna/services/player-stats-service/internal/audit"
	"github.com/fortuna/services/player-stats-service/internal/config"
	"github.com/fortuna/services/player-stats-service/internal/ingest"
	"github.com/fortuna/services/player-stats-service/internal/logger"
	"github.com/fortuna/services/player-stats-service/internal/publisher"
	"github.com/fortuna/services/player-stats-service/internal/retry"
	"github.com/fortuna/services/player-stats-service/internal/store/postgres"
	"github.com/fortuna/services/player-stats-service/pkg/contracts"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		migrate = flag.Bool("migrate", false, "create or update the schema before ingesting")
		file    = flag.String("file", "", "CSV box score file to ingest")
		source  = flag.String("source", "", "source name to record rows under (default: base name of -file)")
		envFile = flag.String("env", ".env", "optional .env file")
	)
	flag.Parse()

	if err := run(*envFile, *migrate, *file, *source); err != nil {
		fmt.Fprintf(os.Stderr, "stats-ingest: %v\n", err)
		os.Exit(1)
	}
}

func run(envFile string, migrate bool, file, source string) error {
	if !migrate && file == "" {
		return fmt.Errorf("nothing to do: pass -migrate and/or -file")
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Store.Driver != config.DriverPostgres || cfg.Store.DatabaseURL == "" {
		return fmt.Errorf("STORE_DRIVER=postgres and DATABASE_URL are required")
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := postgres.New(cfg.Store.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer store.Close()

	startup := retry.NewRetryPolicy(cfg.StartupRetries+1, time.Second)
	if err := startup.Execute(ctx, store.Ping); err != nil {
		return fmt.Errorf("reach postgres: %w", err)
	}

	batchLog := audit.NewBatchLogger(store.DB())

	if migrate {
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate stats schema: %w", err)
		}
		if err := batchLog.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate audit schema: %w", err)
		}
		log.Info("schema migrated")
	}

	if file == "" {
		return nil
	}

	// running servers learn about the batch through the stream
	var notifier contracts.IngestNotifier
	if cfg.RedisEnabled() {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			opts = &redis.Options{Addr: cfg.Redis.URL}
		}
		client := redis.NewClient(opts)
		defer client.Close()
		notifier = publisher.NewStreamPublisher(client, cfg.Redis.Stream)
	}

	ingester := ingest.New(store, notifier, log).WithRecorder(batchLog)

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open stats file: %w", err)
	}
	defer f.Close()

	if source == "" {
		source = filepath.Base(file)
	}

	event, err := ingester.Ingest(ctx, f, source)
	if err != nil {
		return err
	}

	log.Info("ingestion complete", "batch_id", event.BatchID, "source", event.Source, "rows", event.Rows, "players", len(event.Players))
	return nil
}
