package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Server   Server
	Store    Store
	Redis    Redis
	Ingest   Ingest
	Telegram Telegram

	LogMode        string `envconfig:"LOG_MODE" default:"development"`
	StartupRetries int    `envconfig:"STARTUP_RETRIES" default:"5"`
}

type Server struct {
	Addr          string   `envconfig:"SERVER_ADDR" default:":8080"`
	CORSOrigins   []string `envconfig:"CORS_ORIGINS" default:"*"`
	ReportWorkers int      `envconfig:"REPORT_WORKERS" default:"8"`
}

type Store struct {
	Driver      string `envconfig:"STORE_DRIVER" default:"memory"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
}

// Redis is optional; without a URL reports are not cached and ingest
// events are dispatched in process
type Redis struct {
	URL            string        `envconfig:"REDIS_URL"`
	ReportCacheTTL time.Duration `envconfig:"REPORT_CACHE_TTL" default:"10m"`
	Stream         string        `envconfig:"STATS_STREAM" default:"stats.ingested"`

	// ConsumerGroup defaults to one group per instance so every replica's
	// WebSocket subscribers see every event. Replicas sharing a group split
	// the stream between them.
	ConsumerGroup string `envconfig:"CONSUMER_GROUP"`
	ConsumerID    string `envconfig:"CONSUMER_ID" default:"stats-1"`

	// IngestRateLimit caps POST /api/v1/ingest calls per client per minute; 0 disables it
	IngestRateLimit int `envconfig:"INGEST_RATE_LIMIT" default:"30"`
}

// Ingest configures the scheduled re-ingestion of a stats file
type Ingest struct {
	File     string        `envconfig:"INGEST_FILE"`
	Interval time.Duration `envconfig:"INGEST_INTERVAL" default:"0s"`
}

type Telegram struct {
	Token string `envconfig:"TELEGRAM_TOKEN"`
}

// Load reads envFile into the environment when it exists, then processes
// the environment. Variables already set win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	if c.Redis.ConsumerGroup == "" {
		c.Redis.ConsumerGroup = instanceConsumerGroup()
	}
	return &c, nil
}

const consumerGroupPrefix = "player-stats-service-"

func instanceConsumerGroup() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = uuid.NewString()
	}
	return consumerGroupPrefix + host
}

// Validate rejects inconsistent settings
func (c *Config) Validate() error {
	var problems []error

	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			problems = append(problems, errors.New("DATABASE_URL is required when STORE_DRIVER=postgres"))
		}
	default:
		problems = append(problems, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}

	if c.Server.ReportWorkers < 1 {
		problems = append(problems, fmt.Errorf("REPORT_WORKERS must be at least 1, got %d", c.Server.ReportWorkers))
	}
	if c.Ingest.Interval < 0 {
		problems = append(problems, fmt.Errorf("INGEST_INTERVAL must not be negative, got %s", c.Ingest.Interval))
	}
	if c.Ingest.Interval > 0 && c.Ingest.File == "" {
		problems = append(problems, errors.New("INGEST_INTERVAL requires INGEST_FILE"))
	}
	if c.StartupRetries < 0 {
		problems = append(problems, fmt.Errorf("STARTUP_RETRIES must not be negative, got %d", c.StartupRetries))
	}
	if c.Redis.IngestRateLimit < 0 {
		problems = append(problems, fmt.Errorf("INGEST_RATE_LIMIT must not be negative, got %d", c.Redis.IngestRateLimit))
	}
	if c.RedisEnabled() && (c.Redis.Stream == "" || c.Redis.ConsumerGroup == "" || c.Redis.ConsumerID == "") {
		problems = append(problems, errors.New("STATS_STREAM, CONSUMER_GROUP and CONSUMER_ID must be set when REDIS_URL is"))
	}

	return errors.Join(problems...)
}

// RedisEnabled reports whether a Redis URL was configured
func (c *Config) RedisEnabled() bool {
	return c.Redis.URL != ""
}

// TelegramEnabled reports whether the chat bot should run
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.Token != ""
}
