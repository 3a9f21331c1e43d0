package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fortuna/services/player-stats-service/internal/logger"
	"github.com/fortuna/services/player-stats-service/internal/scheduler"
	"github.com/fortuna/services/player-stats-service/pkg/models"
)

type countingIngester struct {
	calls atomic.Int32
	err   error
}

func (c *countingIngester) IngestFile(ctx context.Context, path string) (models.IngestEvent, error) {
	c.calls.Add(1)
	return models.IngestEvent{Source: path}, c.err
}

func waitForCalls(t *testing.T, ing *countingIngester, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ing.calls.Load() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("got %d ingest calls, want at least %d", ing.calls.Load(), want)
}

func TestSchedulerRunsImmediatelyAndRepeats(t *testing.T) {
	ing := &countingIngester{}
	s, err := scheduler.NewScheduler(ing, "season.csv", 20*time.Millisecond, logger.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Shutdown()

	waitForCalls(t, ing, 2)
}

func TestSchedulerKeepsRunningAfterFailure(t *testing.T) {
	ing := &countingIngester{err: errors.New("bad file")}
	s, err := scheduler.NewScheduler(ing, "season.csv", 20*time.Millisecond, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer s.Shutdown()

	waitForCalls(t, ing, 2)
}

func TestNewSchedulerRejectsNonPositiveInterval(t *testing.T) {
	if _, err := scheduler.NewScheduler(&countingIngester{}, "season.csv", 0, logger.NewNop()); err == nil {
		t.Error("expected error for zero interval")
	}
}
