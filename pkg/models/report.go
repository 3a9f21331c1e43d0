package models

// DerivedStats holds everything computed from a set of box counts.
// Percentages are on a 0-100 scale, rounded to one decimal.
type DerivedStats struct {
	FreeThrowPct          float64 `json:"free_throw_pct"`
	TwoPointPct           float64 `json:"two_point_pct"`
	ThreePointPct         float64 `json:"three_point_pct"`
	Points                float64 `json:"points"`
	Valorization          float64 `json:"valorization"`
	EffectiveFieldGoalPct float64 `json:"effective_field_goal_pct"`
	TrueShootingPct       float64 `json:"true_shooting_pct"`
	HollingerAssistRatio  float64 `json:"hollinger_assist_ratio"`
}

// AggregatedStats is a player's per-game average counts and the statistics
// derived from those averages
type AggregatedStats struct {
	Player      Player       `json:"player"`
	GamesPlayed int          `json:"games_played"`
	Averages    BoxCounts    `json:"averages"`
	Derived     DerivedStats `json:"derived"`
}

// ShootingSplit is one shot category of the traditional block
type ShootingSplit struct {
	Attempts           float64 `json:"attempts"`
	Made               float64 `json:"made"`
	ShootingPercentage float64 `json:"shootingPercentage"`
}

// TraditionalStats is the counting-stat block of a report
type TraditionalStats struct {
	FreeThrows  ShootingSplit `json:"freeThrows"`
	TwoPoints   ShootingSplit `json:"twoPoints"`
	ThreePoints ShootingSplit `json:"threePoints"`
	Points      float64       `json:"points"`
	Rebounds    float64       `json:"rebounds"`
	Blocks      float64       `json:"blocks"`
	Assists     float64       `json:"assists"`
	Steals      float64       `json:"steals"`
	Turnovers   float64       `json:"turnovers"`
}

// AdvancedStats is the efficiency block of a report
type AdvancedStats struct {
	Valorization                 float64 `json:"valorization"`
	EffectiveFieldGoalPercentage float64 `json:"effectiveFieldGoalPercentage"`
	TrueShootingPercentage       float64 `json:"trueShootingPercentage"`
	HollingerAssistRatio         float64 `json:"hollingerAssistRatio"`
}

// PlayerStatsReport is the public per-player stats payload
type PlayerStatsReport struct {
	PlayerName  string           `json:"playerName"`
	GamesPlayed int              `json:"gamesPlayed"`
	Traditional TraditionalStats `json:"traditional"`
	Advanced    AdvancedStats    `json:"advanced"`
}

// ErrorResponse represents an API error payload
type ErrorResponse struct {
	Error       string              `json:"error"`
	Message     string              `json:"message"`
	Code        int                 `json:"code"`
	Reason      string              `json:"reason,omitempty"`
	Suggestions []string            `json:"suggestions,omitempty"`
	Problems    []*DataQualityError `json:"problems,omitempty"`
}
