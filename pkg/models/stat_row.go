package models

import (
	"fmt"
	"math"
	"strings"
)

// BoxCounts holds the raw counting stats of a box score line.
// The same shape is used for one game and for per-game averages.
type BoxCounts struct {
	FTM     float64 `json:"ftm"`
	FTA     float64 `json:"fta"`
	TwoPM   float64 `json:"two_pm"`
	TwoPA   float64 `json:"two_pa"`
	ThreePM float64 `json:"three_pm"`
	ThreePA float64 `json:"three_pa"`
	REB     float64 `json:"reb"`
	BLK     float64 `json:"blk"`
	AST     float64 `json:"ast"`
	STL     float64 `json:"stl"`
	TOV     float64 `json:"tov"`
}

// StatRow is one player's raw statistics for one game
type StatRow struct {
	PlayerName string `json:"player_name"`
	Source     string `json:"source"` // ingestion source, e.g. "season_2023.csv"
	Line       int    `json:"line"`   // line within the source, 0 when unknown
	BoxCounts
}

// countField pairs a field name with its value for validation
type countField struct {
	name  string
	value float64
}

func (c BoxCounts) fields() []countField {
	return []countField{
		{"FTM", c.FTM}, {"FTA", c.FTA},
		{"2PM", c.TwoPM}, {"2PA", c.TwoPA},
		{"3PM", c.ThreePM}, {"3PA", c.ThreePA},
		{"REB", c.REB}, {"BLK", c.BLK}, {"AST", c.AST},
		{"STL", c.STL}, {"TOV", c.TOV},
	}
}

// Validate checks that every count is a finite non-negative number and that
// makes never exceed attempts. It returns the first problem found.
func (r StatRow) Validate() error {
	if strings.TrimSpace(r.PlayerName) == "" {
		return r.qualityError("PLAYER", "player name is required")
	}

	for _, f := range r.BoxCounts.fields() {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return r.qualityError(f.name, "must be a finite number")
		}
		if f.value < 0 {
			return r.qualityError(f.name, fmt.Sprintf("negative count %g", f.value))
		}
	}

	shots := []struct {
		made, attempted     float64
		madeKey, attemptKey string
	}{
		{r.FTM, r.FTA, "FTM", "FTA"},
		{r.TwoPM, r.TwoPA, "2PM", "2PA"},
		{r.ThreePM, r.ThreePA, "3PM", "3PA"},
	}
	for _, s := range shots {
		if s.made > s.attempted {
			return r.qualityError(s.madeKey,
				fmt.Sprintf("%s %g exceeds %s %g", s.madeKey, s.made, s.attemptKey, s.attempted))
		}
	}

	return nil
}

func (r StatRow) qualityError(field, reason string) *DataQualityError {
	return &DataQualityError{
		Player: r.PlayerName,
		Source: r.Source,
		Line:   r.Line,
		Field:  field,
		Reason: reason,
	}
}
