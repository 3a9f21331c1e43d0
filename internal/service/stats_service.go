package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fortuna/services/player-stats-service/internal/logger"
	"github.com/fortuna/services/player-stats-service/pkg/contracts"
	"github.com/fortuna/services/player-stats-service/pkg/models"
	"github.com/fortuna/services/player-stats-service/pkg/statsmath"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidInput marks requests rejected before touching the store
var ErrInvalidInput = errors.New("invalid input")

// StatsService answers report and player queries on top of a store
type StatsService struct {
	store   contracts.StatsStore
	cache   contracts.ReportCache // may be nil
	workers int
	log     *logger.Logger
}

// New creates a stats service. cache may be nil; workers bounds AllReports.
func New(store contracts.StatsStore, cache contracts.ReportCache, workers int, log *logger.Logger) *StatsService {
	if workers < 1 {
		workers = 1
	}
	return &StatsService{
		store:   store,
		cache:   cache,
		workers: workers,
		log:     log,
	}
}

// Ping checks the store
func (s *StatsService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// PlayerReport returns the aggregated report for one player.
// Unknown names yield models.ErrUnknownPlayer, players without rows
// models.ErrNoGames.
func (s *StatsService) PlayerReport(ctx context.Context, name string) (models.PlayerStatsReport, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.PlayerStatsReport{}, fmt.Errorf("%w: player name is required", ErrInvalidInput)
	}

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, name)
		if err != nil {
			s.log.Warn("report cache read failed", "player", name, "error", err)
		} else if ok {
			return *cached, nil
		}
	}

	report, err := s.computeReport(ctx, name)
	if err != nil {
		return models.PlayerStatsReport{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, report); err != nil {
			s.log.Warn("report cache write failed", "player", name, "error", err)
		}
	}
	return report, nil
}

func (s *StatsService) computeReport(ctx context.Context, name string) (models.PlayerStatsReport, error) {
	player, err := s.store.GetPlayer(ctx, name)
	if err != nil {
		return models.PlayerStatsReport{}, err
	}

	rows, err := s.store.StatRows(ctx, name)
	if err != nil {
		return models.PlayerStatsReport{}, err
	}

	return statsmath.Report(player, rows)
}

// AllReports computes the report of every player with at least one game,
// sorted by name
func (s *StatsService) AllReports(ctx context.Context) ([]models.PlayerStatsReport, error) {
	players, err := s.store.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	var withGames []models.PlayerSummary
	for _, p := range players {
		if p.GamesPlayed > 0 {
			withGames = append(withGames, p)
		}
	}

	reports := make([]*models.PlayerStatsReport, len(withGames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, p := range withGames {
		i, p := i, p
		g.Go(func() error {
			report, err := s.computeReport(gctx, p.Name)
			// a source replaced since the listing can leave a player empty
			if errors.Is(err, models.ErrNoGames) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("report for %s: %w", p.Name, err)
			}
			reports[i] = &report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.PlayerStatsReport, 0, len(reports))
	for _, r := range reports {
		if r != nil {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerName < out[j].PlayerName })
	return out, nil
}

// ListPlayers returns every registered player with games played
func (s *StatsService) ListPlayers(ctx context.Context) ([]models.PlayerSummary, error) {
	players, err := s.store.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	if players == nil {
		players = []models.PlayerSummary{}
	}
	return players, nil
}

// RegisterPlayer records a player identity without any games
func (s *StatsService) RegisterPlayer(ctx context.Context, player models.Player) (models.Player, error) {
	player.Name = strings.TrimSpace(player.Name)
	position, err := models.ParsePosition(string(player.Position))
	if err != nil {
		return models.Player{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	player.Position = position

	if err := player.Validate(); err != nil {
		return models.Player{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.store.UpsertPlayer(ctx, player); err != nil {
		return models.Player{}, fmt.Errorf("register player: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, player.Name); err != nil {
			s.log.Warn("report cache invalidation failed", "player", player.Name, "error", err)
		}
	}

	s.log.Info("player registered", "player", player.Name, "position", player.Position)
	return player, nil
}
