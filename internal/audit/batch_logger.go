package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fortuna/services/player-stats-service/pkg/models"
	"github.com/lib/pq"
)

// Schema creates the ingest_batches table
const Schema = `
CREATE TABLE IF NOT EXISTS ingest_batches (
    id            BIGSERIAL PRIMARY KEY,
    batch_id      UUID NOT NULL,
    source        TEXT NOT NULL,
    status        TEXT NOT NULL,
    row_count     INTEGER NOT NULL DEFAULT 0,
    players       TEXT[] NOT NULL DEFAULT '{}',
    latency_ms    INTEGER NOT NULL DEFAULT 0,
    error_message TEXT NOT NULL DEFAULT '',
    logged_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS ingest_batches_source_idx ON ingest_batches (source, logged_at DESC);
`

// Batch statuses
const (
	StatusStarted  = "started"
	StatusSuccess  = "success"
	StatusRejected = "rejected"
)

// BatchLogger logs ingestion attempts to the ingest_batches table
type BatchLogger struct {
	db *sql.DB
}

// Entry represents one ingest_batches row
type Entry struct {
	BatchID      string
	Source       string
	Status       string
	Rows         int
	Players      []string
	LatencyMs    int
	ErrorMessage string
	LoggedAt     time.Time
}

// NewBatchLogger creates a new batch logger
func NewBatchLogger(db *sql.DB) *BatchLogger {
	return &BatchLogger{db: db}
}

// Migrate creates the audit table when missing
func (l *BatchLogger) Migrate(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply audit schema: %w", err)
	}
	return nil
}

// Log inserts an audit entry
func (l *BatchLogger) Log(ctx context.Context, e *Entry) error {
	query := `
		INSERT INTO ingest_batches (
			batch_id, source, status, row_count, players, latency_ms, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	players := e.Players
	if players == nil {
		players = []string{}
	}

	_, err := l.db.ExecContext(ctx, query,
		e.BatchID,
		e.Source,
		e.Status,
		e.Rows,
		pq.Array(players),
		e.LatencyMs,
		e.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to log batch: %w", err)
	}
	return nil
}

// LogStart logs that a batch began parsing
func (l *BatchLogger) LogStart(ctx context.Context, batchID, source string) error {
	return l.Log(ctx, &Entry{
		BatchID: batchID,
		Source:  source,
		Status:  StatusStarted,
	})
}

// LogSuccess logs a stored batch
func (l *BatchLogger) LogSuccess(ctx context.Context, event models.IngestEvent, latency time.Duration) error {
	return l.Log(ctx, &Entry{
		BatchID:   event.BatchID,
		Source:    event.Source,
		Status:    StatusSuccess,
		Rows:      event.Rows,
		Players:   event.Players,
		LatencyMs: int(latency.Milliseconds()),
	})
}

// LogFailure logs a rejected batch
func (l *BatchLogger) LogFailure(ctx context.Context, batchID, source string, latency time.Duration, cause error) error {
	return l.Log(ctx, &Entry{
		BatchID:      batchID,
		Source:       source,
		Status:       StatusRejected,
		LatencyMs:    int(latency.Milliseconds()),
		ErrorMessage: cause.Error(),
	})
}

// Recent returns the latest entries for a source, newest first
func (l *BatchLogger) Recent(ctx context.Context, source string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT batch_id, source, status, row_count, players, latency_ms, error_message, logged_at
		FROM ingest_batches
		WHERE source = $1
		ORDER BY logged_at DESC, id DESC
		LIMIT $2`,
		source, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.BatchID, &e.Source, &e.Status, &e.Rows, pq.Array(&e.Players),
			&e.LatencyMs, &e.ErrorMessage, &e.LoggedAt); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
