package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fortuna/services/player-stats-service/internal/logger"
	"github.com/fortuna/services/player-stats-service/pkg/contracts"
	"github.com/fortuna/services/player-stats-service/pkg/models"
	"github.com/google/uuid"
)

// BatchRecorder keeps an audit trail of ingestion attempts
type BatchRecorder interface {
	LogStart(ctx context.Context, batchID, source string) error
	LogSuccess(ctx context.Context, event models.IngestEvent, latency time.Duration) error
	LogFailure(ctx context.Context, batchID, source string, latency time.Duration, cause error) error
}

// Ingester parses stats files, replaces their rows in the store and
// announces the result
type Ingester struct {
	store    contracts.StatsStore
	notifier contracts.IngestNotifier
	recorder BatchRecorder
	log      *logger.Logger
	now      func() time.Time
}

// New creates an ingester. notifier may be nil.
func New(store contracts.StatsStore, notifier contracts.IngestNotifier, log *logger.Logger) *Ingester {
	return &Ingester{
		store:    store,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// WithRecorder attaches an audit recorder
func (i *Ingester) WithRecorder(r BatchRecorder) *Ingester {
	i.recorder = r
	return i
}

// Ingest parses r as source and stores it, replacing any rows that source
// produced before. Nothing is stored when the file has any invalid row.
func (i *Ingester) Ingest(ctx context.Context, r io.Reader, source string) (models.IngestEvent, error) {
	if source == "" {
		return models.IngestEvent{}, fmt.Errorf("ingest: source name is required")
	}

	batchID := uuid.New().String()
	start := i.now()
	log := i.log.With("batch_id", batchID, "source", source)

	i.recordStart(ctx, log, batchID, source)

	batch, err := Parse(r, source)
	if err != nil {
		i.recordFailure(ctx, log, batchID, source, start, err)
		return models.IngestEvent{}, err
	}

	previous, err := i.store.ReplaceSource(ctx, source, batch.Players, batch.Rows)
	if err != nil {
		err = fmt.Errorf("store %s: %w", source, err)
		i.recordFailure(ctx, log, batchID, source, start, err)
		return models.IngestEvent{}, err
	}

	players := batch.PlayerNames()
	removed := dropped(previous, players)

	event := models.IngestEvent{
		BatchID:    batchID,
		Source:     source,
		Players:    append(players, removed...),
		Removed:    removed,
		Rows:       len(batch.Rows),
		IngestedAt: i.now().UTC(),
	}

	log.Info("batch ingested", "rows", event.Rows, "players", len(players), "removed", len(removed))

	if i.recorder != nil {
		if err := i.recorder.LogSuccess(ctx, event, i.now().Sub(start)); err != nil {
			log.Warn("failed to record batch success", "error", err)
		}
	}

	// rows are committed; a failed notification only delays cache refresh
	if i.notifier != nil {
		if err := i.notifier.NotifyIngested(ctx, event); err != nil {
			log.Warn("failed to announce ingested batch", "error", err)
		}
	}

	return event, nil
}

// IngestFile ingests a file on disk using its base name as the source
func (i *Ingester) IngestFile(ctx context.Context, path string) (models.IngestEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.IngestEvent{}, fmt.Errorf("open stats file: %w", err)
	}
	defer f.Close()

	return i.Ingest(ctx, f, filepath.Base(path))
}

func (i *Ingester) recordStart(ctx context.Context, log *logger.Logger, batchID, source string) {
	if i.recorder == nil {
		return
	}
	if err := i.recorder.LogStart(ctx, batchID, source); err != nil {
		log.Warn("failed to record batch start", "error", err)
	}
}

func (i *Ingester) recordFailure(ctx context.Context, log *logger.Logger, batchID, source string, start time.Time, cause error) {
	log.Warn("batch rejected", "error", cause)
	if i.recorder == nil {
		return
	}
	if err := i.recorder.LogFailure(ctx, batchID, source, i.now().Sub(start), cause); err != nil {
		log.Warn("failed to record batch failure", "error", err)
	}
}

// dropped returns the names in previous that are missing from current
func dropped(previous, current []string) []string {
	if len(previous) == 0 {
		return nil
	}
	still := make(map[string]struct{}, len(current))
	for _, name := range current {
		still[name] = struct{}{}
	}

	var out []string
	for _, name := range previous {
		if _, ok := still[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}
