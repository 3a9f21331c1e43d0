package contracts

import (
	"context"

	"github.com/fortuna/services/player-stats-service/pkg/models"
)

// StatsStore persists player identities and their per-game stat rows.
// Implementations return copies; callers may keep what they receive.
type StatsStore interface {
	// Health
	Ping(ctx context.Context) error

	// Identity
	UpsertPlayer(ctx context.Context, player models.Player) error
	GetPlayer(ctx context.Context, name string) (models.Player, error) // models.ErrUnknownPlayer when absent
	ListPlayers(ctx context.Context) ([]models.PlayerSummary, error)   // sorted by name

	// Rows. ReplaceSource returns the players that held rows from source
	// before the call, sorted by name.
	ReplaceSource(ctx context.Context, source string, players []models.Player, rows []models.StatRow) ([]string, error)
	StatRows(ctx context.Context, name string) ([]models.StatRow, error)
}

// ReportCache memoises computed player reports
type ReportCache interface {
	Get(ctx context.Context, name string) (*models.PlayerStatsReport, bool, error)
	Set(ctx context.Context, report models.PlayerStatsReport) error
	Invalidate(ctx context.Context, names ...string) error
}

// IngestNotifier is told about every batch that reached the store
type IngestNotifier interface {
	NotifyIngested(ctx context.Context, event models.IngestEvent) error
}
