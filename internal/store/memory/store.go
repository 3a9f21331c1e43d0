package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fortuna/services/player-stats-service/pkg/models"
)

// Store keeps players and stat rows in process memory
type Store struct {
	mu      sync.RWMutex
	players map[string]models.Player
	rows    map[string][]models.StatRow // keyed by player name
}

// New creates an empty in-memory store
func New() *Store {
	return &Store{
		players: make(map[string]models.Player),
		rows:    make(map[string][]models.StatRow),
	}
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// UpsertPlayer registers a player or updates their position
func (s *Store) UpsertPlayer(ctx context.Context, player models.Player) error {
	if err := player.Validate(); err != nil {
		return fmt.Errorf("upsert player: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[player.Name] = player
	return nil
}

// GetPlayer looks up a player by exact name
func (s *Store) GetPlayer(ctx context.Context, name string) (models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	player, ok := s.players[name]
	if !ok {
		return models.Player{}, fmt.Errorf("%q: %w", name, models.ErrUnknownPlayer)
	}
	return player, nil
}

// ListPlayers returns every registered player with their games played
func (s *Store) ListPlayers(ctx context.Context) ([]models.PlayerSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.PlayerSummary, 0, len(s.players))
	for name, p := range s.players {
		out = append(out, models.PlayerSummary{
			Name:        name,
			Position:    p.Position,
			GamesPlayed: len(s.rows[name]),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ReplaceSource swaps every row previously ingested from source for rows.
// Players are upserted first; a row for a player that is neither registered
// nor in players fails the whole call and leaves the store untouched.
// The players that held rows from source beforehand are returned.
func (s *Store) ReplaceSource(ctx context.Context, source string, players []models.Player, rows []models.StatRow) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	incoming := make(map[string]models.Player, len(players))
	for _, p := range players {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("replace source %s: %w", source, err)
		}
		incoming[p.Name] = p
	}
	for _, row := range rows {
		_, known := s.players[row.PlayerName]
		if _, ok := incoming[row.PlayerName]; !ok && !known {
			return nil, fmt.Errorf("replace source %s: %q: %w", source, row.PlayerName, models.ErrUnknownPlayer)
		}
	}

	for name, p := range incoming {
		s.players[name] = p
	}

	var previous []string
	for name, existing := range s.rows {
		kept := existing[:0:0]
		for _, row := range existing {
			if row.Source != source {
				kept = append(kept, row)
			}
		}
		if len(kept) < len(existing) {
			previous = append(previous, name)
		}
		if len(kept) == 0 {
			delete(s.rows, name)
			continue
		}
		s.rows[name] = kept
	}

	for _, row := range rows {
		row.Source = source
		s.rows[row.PlayerName] = append(s.rows[row.PlayerName], row)
	}

	sort.Strings(previous)
	return previous, nil
}

// StatRows returns a copy of the player's rows
func (s *Store) StatRows(ctx context.Context, name string) ([]models.StatRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.players[name]; !ok {
		return nil, fmt.Errorf("%q: %w", name, models.ErrUnknownPlayer)
	}
	return append([]models.StatRow(nil), s.rows[name]...), nil
}
