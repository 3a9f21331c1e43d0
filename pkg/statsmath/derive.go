package statsmath

import "github.com/fortuna/services/player-stats-service/pkg/models"

// freeThrowWeight converts free throw attempts into shooting possessions
const freeThrowWeight = 0.475

// Points returns the points scored for a set of counts
func Points(c models.BoxCounts) float64 {
	return c.FTM + 2*c.TwoPM + 3*c.ThreePM
}

// Valorization rewards made shots and positive plays and subtracts misses
// and turnovers one for one
func Valorization(c models.BoxCounts) float64 {
	positive := Points(c) + c.REB + c.BLK + c.AST + c.STL
	negative := (c.FTA - c.FTM) + (c.TwoPA - c.TwoPM) + (c.ThreePA - c.ThreePM) + c.TOV
	return positive - negative
}

// Derive computes shooting percentages and advanced metrics from box counts.
// It accepts a single game or per-game averages and never fails: every
// zero denominator yields 0.
func Derive(c models.BoxCounts) models.DerivedStats {
	points := Points(c)
	fieldGoalAttempts := c.TwoPA + c.ThreePA
	shootingPossessions := fieldGoalAttempts + freeThrowWeight*c.FTA

	return models.DerivedStats{
		FreeThrowPct:  percentage(c.FTM, c.FTA),
		TwoPointPct:   percentage(c.TwoPM, c.TwoPA),
		ThreePointPct: percentage(c.ThreePM, c.ThreePA),
		Points:        round1(points),
		Valorization:  round1(Valorization(c)),
		// Three pointers are counted once as makes and then weighted by a further
		// 0.5 on top of that. Kept as published in the original stat sheet.
		EffectiveFieldGoalPct: percentage(c.TwoPM+c.ThreePM+0.5*c.ThreePM, fieldGoalAttempts),
		TrueShootingPct:       percentage(points, 2*shootingPossessions),
		HollingerAssistRatio:  percentage(c.AST, shootingPossessions+c.AST+c.TOV),
	}
}
