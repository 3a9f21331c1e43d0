package statsmath

import "github.com/fortuna/services/player-stats-service/pkg/models"

// BuildReport shapes aggregated stats into the public report payload
func BuildReport(player models.Player, agg models.AggregatedStats, gamesPlayed int) models.PlayerStatsReport {
	avg, derived := agg.Averages, agg.Derived

	return models.PlayerStatsReport{
		PlayerName:  player.Name,
		GamesPlayed: gamesPlayed,
		Traditional: models.TraditionalStats{
			FreeThrows: models.ShootingSplit{
				Attempts:           avg.FTA,
				Made:               avg.FTM,
				ShootingPercentage: derived.FreeThrowPct,
			},
			TwoPoints: models.ShootingSplit{
				Attempts:           avg.TwoPA,
				Made:               avg.TwoPM,
				ShootingPercentage: derived.TwoPointPct,
			},
			ThreePoints: models.ShootingSplit{
				Attempts:           avg.ThreePA,
				Made:               avg.ThreePM,
				ShootingPercentage: derived.ThreePointPct,
			},
			Points:    derived.Points,
			Rebounds:  avg.REB,
			Blocks:    avg.BLK,
			Assists:   avg.AST,
			Steals:    avg.STL,
			Turnovers: avg.TOV,
		},
		Advanced: models.AdvancedStats{
			Valorization:                 derived.Valorization,
			EffectiveFieldGoalPercentage: derived.EffectiveFieldGoalPct,
			TrueShootingPercentage:       derived.TrueShootingPct,
			HollingerAssistRatio:         derived.HollingerAssistRatio,
		},
	}
}

// Report aggregates a player's rows and builds the report in one step
func Report(player models.Player, rows []models.StatRow) (models.PlayerStatsReport, error) {
	agg, err := Aggregate(player, rows)
	if err != nil {
		return models.PlayerStatsReport{}, err
	}
	return BuildReport(player, agg, agg.GamesPlayed), nil
}
