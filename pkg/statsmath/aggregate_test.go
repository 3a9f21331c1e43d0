package statsmath_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/fortuna/services/player-stats-service/pkg/models"
	"github.com/fortuna/services/player-stats-service/pkg/statsmath"
)

var guard = models.Player{Name: "Ana Lopez", Position: models.PositionPointGuard}

func rows(counts ...models.BoxCounts) []models.StatRow {
	out := make([]models.StatRow, len(counts))
	for i, c := range counts {
		out[i] = models.StatRow{PlayerName: guard.Name, Source: "test.csv", Line: i + 2, BoxCounts: c}
	}
	return out
}

func TestAggregateSingleGameMatchesDerive(t *testing.T) {
	agg, err := statsmath.Aggregate(guard, rows(sampleGame))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if agg.GamesPlayed != 1 {
		t.Errorf("GamesPlayed = %d, want 1", agg.GamesPlayed)
	}
	if agg.Averages != sampleGame {
		t.Errorf("Averages = %+v, want %+v", agg.Averages, sampleGame)
	}
	if agg.Derived != statsmath.Derive(sampleGame) {
		t.Errorf("Derived = %+v, want %+v", agg.Derived, statsmath.Derive(sampleGame))
	}
}

func TestAggregateAveragesBeforeDeriving(t *testing.T) {
	// 1/1 and 2/10 from two: pooled 3/11 = 27.3, while the mean of the
	// per-game percentages would be (100 + 20) / 2 = 60
	input := rows(
		models.BoxCounts{TwoPM: 1, TwoPA: 1},
		models.BoxCounts{TwoPM: 2, TwoPA: 10},
	)

	agg, err := statsmath.Aggregate(guard, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if agg.Averages.TwoPM != 1.5 || agg.Averages.TwoPA != 5.5 {
		t.Errorf("Averages = %v/%v, want 1.5/5.5", agg.Averages.TwoPM, agg.Averages.TwoPA)
	}
	if agg.Derived.TwoPointPct != 27.3 {
		t.Errorf("TwoPointPct = %v, want 27.3", agg.Derived.TwoPointPct)
	}

	var perGame float64
	for _, r := range input {
		perGame += statsmath.Derive(r.BoxCounts).TwoPointPct
	}
	if perGame/2 == agg.Derived.TwoPointPct {
		t.Errorf("aggregate should not equal the mean of per-game percentages")
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	input := rows(
		sampleGame,
		models.BoxCounts{FTM: 0.1, FTA: 0.3, TwoPM: 7, TwoPA: 13, ThreePM: 0.7, ThreePA: 3.3, REB: 11.1, AST: 0.2, TOV: 2},
		models.BoxCounts{FTM: 9, FTA: 11, TwoPM: 0.2, TwoPA: 0.9, ThreePM: 4, ThreePA: 9, REB: 0.3, BLK: 4, STL: 0.1},
		models.BoxCounts{FTM: 1e-3, FTA: 2, TwoPM: 3, TwoPA: 3, REB: 1e6, AST: 8.8, TOV: 0.7},
		models.BoxCounts{},
	)

	want, err := statsmath.Aggregate(guard, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := append([]models.StatRow(nil), input...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, err := statsmath.Aggregate(guard, shuffled)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Fatalf("permutation %d changed the aggregate:\n got %+v\nwant %+v", i, got, want)
		}
	}
}

func TestAggregateNoGames(t *testing.T) {
	tests := []struct {
		name string
		rows []models.StatRow
	}{
		{"nil rows", nil},
		{"empty rows", []models.StatRow{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := statsmath.Aggregate(guard, tt.rows)
			if !errors.Is(err, models.ErrNoGames) {
				t.Errorf("err = %v, want ErrNoGames", err)
			}
		})
	}
}

func TestAggregateGamesPlayed(t *testing.T) {
	input := rows(sampleGame, sampleGame, sampleGame, models.BoxCounts{})

	agg, err := statsmath.Aggregate(guard, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agg.GamesPlayed != 4 {
		t.Errorf("GamesPlayed = %d, want 4", agg.GamesPlayed)
	}
	if agg.Averages.FTA != 15 {
		t.Errorf("FTA average = %v, want 15", agg.Averages.FTA)
	}
}
