package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/fortuna/services/player-stats-service/internal/logger"
	"github.com/fortuna/services/player-stats-service/pkg/models"
	"github.com/go-co-op/gocron/v2"
)

// FileIngester ingests a stats file from disk
type FileIngester interface {
	IngestFile(ctx context.Context, path string) (models.IngestEvent, error)
}

// Scheduler re-ingests one stats file on a fixed interval. Ingestion is
// idempotent per source, so each run replaces the previous one's rows.
type Scheduler struct {
	s        gocron.Scheduler
	ingester FileIngester
	path     string
	interval time.Duration
	log      *logger.Logger
}

func NewScheduler(ingester FileIngester, path string, interval time.Duration, log *logger.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", interval)
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		s:        s,
		ingester: ingester,
		path:     path,
		interval: interval,
		log:      log.With("file", path),
	}, nil
}

// Start registers the job and starts the scheduler. The first run happens
// immediately; runs never overlap.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.s.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.reingest, ctx),
		gocron.WithName("reingest "+s.path),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to create reingest job: %w", err)
	}

	s.s.Start()
	s.log.Info("scheduled re-ingestion", "interval", s.interval)
	return nil
}

// Shutdown stops the scheduler and waits for a running job
func (s *Scheduler) Shutdown() error {
	return s.s.Shutdown()
}

func (s *Scheduler) reingest(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	event, err := s.ingester.IngestFile(ctx, s.path)
	if err != nil {
		s.log.Error("scheduled ingestion failed", "error", err)
		return
	}
	s.log.Info("scheduled ingestion complete", "batch_id", event.BatchID, "rows", event.Rows)
}
