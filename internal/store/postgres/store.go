package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fortuna/services/player-stats-service/pkg/models"
	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

// statColumns is the COPY column order for stat_rows
var statColumns = []string{
	"player_name", "source", "line",
	"ftm", "fta", "two_pm", "two_pa", "three_pm", "three_pa",
	"reb", "blk", "ast", "stl", "tov",
}

// Store implements contracts.StatsStore for PostgreSQL
type Store struct {
	db *sql.DB
}

// New opens a connection pool. It does not touch the schema; call Migrate.
func New(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Store{db: db}, nil
}

// DB exposes the pool for components sharing the database
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the pool
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the tables and indexes when they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// UpsertPlayer registers a player or updates their position
func (s *Store) UpsertPlayer(ctx context.Context, player models.Player) error {
	if err := player.Validate(); err != nil {
		return fmt.Errorf("upsert player: %w", err)
	}
	if err := upsertPlayers(ctx, s.db, []models.Player{player}); err != nil {
		return fmt.Errorf("upsert player: %w", err)
	}
	return nil
}

// GetPlayer looks up a player by exact name
func (s *Store) GetPlayer(ctx context.Context, name string) (models.Player, error) {
	var p models.Player
	err := s.db.QueryRowContext(ctx,
		`SELECT name, position FROM players WHERE name = $1`, name,
	).Scan(&p.Name, &p.Position)

	if errors.Is(err, sql.ErrNoRows) {
		return models.Player{}, fmt.Errorf("%q: %w", name, models.ErrUnknownPlayer)
	}
	if err != nil {
		return models.Player{}, fmt.Errorf("get player: %w", err)
	}
	return p, nil
}

// ListPlayers returns every player with the number of rows recorded for them
func (s *Store) ListPlayers(ctx context.Context) ([]models.PlayerSummary, error) {
	query := `
		SELECT p.name, p.position, COUNT(r.id)
		FROM players p
		LEFT JOIN stat_rows r ON r.player_name = p.name
		GROUP BY p.name, p.position
		ORDER BY p.name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var out []models.PlayerSummary
	for rows.Next() {
		var p models.PlayerSummary
		if err := rows.Scan(&p.Name, &p.Position, &p.GamesPlayed); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ReplaceSource deletes the rows previously ingested from source and copies
// rows in, all inside one transaction. It returns the players whose rows
// were deleted.
func (s *Store) ReplaceSource(ctx context.Context, source string, players []models.Player, rows []models.StatRow) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertPlayers(ctx, tx, players); err != nil {
		return nil, fmt.Errorf("replace source %s: %w", source, err)
	}
	if err := checkPlayersExist(ctx, tx, rows); err != nil {
		return nil, fmt.Errorf("replace source %s: %w", source, err)
	}

	previous, err := deleteSource(ctx, tx, source)
	if err != nil {
		return nil, fmt.Errorf("delete source %s: %w", source, err)
	}

	if len(rows) > 0 {
		if err := copyRows(ctx, tx, source, rows); err != nil {
			return nil, fmt.Errorf("copy rows for %s: %w", source, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return previous, nil
}

// StatRows returns the player's rows in ingestion order
func (s *Store) StatRows(ctx context.Context, name string) ([]models.StatRow, error) {
	if _, err := s.GetPlayer(ctx, name); err != nil {
		return nil, err
	}

	query := `
		SELECT player_name, source, line,
		       ftm, fta, two_pm, two_pa, three_pm, three_pa,
		       reb, blk, ast, stl, tov
		FROM stat_rows
		WHERE player_name = $1
		ORDER BY source, line, id
	`

	rows, err := s.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("query stat rows: %w", err)
	}
	defer rows.Close()

	var out []models.StatRow
	for rows.Next() {
		var r models.StatRow
		if err := rows.Scan(
			&r.PlayerName, &r.Source, &r.Line,
			&r.FTM, &r.FTA, &r.TwoPM, &r.TwoPA, &r.ThreePM, &r.ThreePA,
			&r.REB, &r.BLK, &r.AST, &r.STL, &r.TOV,
		); err != nil {
			return nil, fmt.Errorf("scan stat row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertPlayers(ctx context.Context, db execer, players []models.Player) error {
	for _, p := range players {
		if err := p.Validate(); err != nil {
			return err
		}
		_, err := db.ExecContext(ctx, `
			INSERT INTO players (name, position) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET position = EXCLUDED.position`,
			p.Name, string(p.Position),
		)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", p.Name, err)
		}
	}
	return nil
}

// checkPlayersExist reports the first row whose player is not registered
func checkPlayersExist(ctx context.Context, tx *sql.Tx, rows []models.StatRow) error {
	wanted := make(map[string]bool)
	for _, r := range rows {
		wanted[r.PlayerName] = true
	}
	if len(wanted) == 0 {
		return nil
	}

	names := make([]string, 0, len(wanted))
	for name := range wanted {
		names = append(names, name)
	}
	sort.Strings(names)

	result, err := tx.QueryContext(ctx, `SELECT name FROM players WHERE name = ANY($1)`, pq.Array(names))
	if err != nil {
		return fmt.Errorf("check players: %w", err)
	}
	defer result.Close()

	for result.Next() {
		var name string
		if err := result.Scan(&name); err != nil {
			return fmt.Errorf("scan player name: %w", err)
		}
		delete(wanted, name)
	}
	if err := result.Err(); err != nil {
		return err
	}

	for _, name := range names {
		if wanted[name] {
			return fmt.Errorf("%q: %w", name, models.ErrUnknownPlayer)
		}
	}
	return nil
}

func copyRows(ctx context.Context, tx *sql.Tx, source string, rows []models.StatRow) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("stat_rows", statColumns...))
	if err != nil {
		return fmt.Errorf("prepare copy: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.ExecContext(ctx,
			r.PlayerName, source, r.Line,
			r.FTM, r.FTA, r.TwoPM, r.TwoPA, r.ThreePM, r.ThreePA,
			r.REB, r.BLK, r.AST, r.STL, r.TOV,
		)
		if err != nil {
			return fmt.Errorf("copy line %d: %w", r.Line, err)
		}
	}

	// flush buffered rows
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("flush copy: %w", err)
	}
	return nil
}

// deleteSource removes source's rows and returns the distinct players they belonged to
func deleteSource(ctx context.Context, tx *sql.Tx, source string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `
		WITH deleted AS (
			DELETE FROM stat_rows WHERE source = $1 RETURNING player_name
		)
		SELECT DISTINCT player_name FROM deleted ORDER BY player_name`, source)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
