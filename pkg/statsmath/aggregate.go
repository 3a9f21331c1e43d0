package statsmath

import (
	"fmt"
	"slices"

	"github.com/fortuna/services/player-stats-service/pkg/models"
)

// Aggregate averages every raw count over a player's games and derives
// percentages from those averages. Per-game percentages are never averaged:
// a 1-for-1 night and a 2-for-10 night combine to 3-for-11, not 60%.
//
// A player without rows has no averages; ErrNoGames is returned.
func Aggregate(player models.Player, rows []models.StatRow) (models.AggregatedStats, error) {
	if len(rows) == 0 {
		return models.AggregatedStats{}, fmt.Errorf("aggregating %s: %w", player.Name, models.ErrNoGames)
	}

	averages := models.BoxCounts{
		FTM:     mean(rows, func(c models.BoxCounts) float64 { return c.FTM }),
		FTA:     mean(rows, func(c models.BoxCounts) float64 { return c.FTA }),
		TwoPM:   mean(rows, func(c models.BoxCounts) float64 { return c.TwoPM }),
		TwoPA:   mean(rows, func(c models.BoxCounts) float64 { return c.TwoPA }),
		ThreePM: mean(rows, func(c models.BoxCounts) float64 { return c.ThreePM }),
		ThreePA: mean(rows, func(c models.BoxCounts) float64 { return c.ThreePA }),
		REB:     mean(rows, func(c models.BoxCounts) float64 { return c.REB }),
		BLK:     mean(rows, func(c models.BoxCounts) float64 { return c.BLK }),
		AST:     mean(rows, func(c models.BoxCounts) float64 { return c.AST }),
		STL:     mean(rows, func(c models.BoxCounts) float64 { return c.STL }),
		TOV:     mean(rows, func(c models.BoxCounts) float64 { return c.TOV }),
	}

	return models.AggregatedStats{
		Player:      player,
		GamesPlayed: len(rows),
		Averages:    averages,
		Derived:     Derive(averages),
	}, nil
}

// mean sums one field in ascending order so the result does not depend on
// the order rows were stored in
func mean(rows []models.StatRow, field func(models.BoxCounts) float64) float64 {
	values := make([]float64, len(rows))
	for i, row := range rows {
		values[i] = field(row.BoxCounts)
	}
	slices.Sort(values)

	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
