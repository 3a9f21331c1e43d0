package ingest

import (
	"errors"
	"strings"

	"github.com/fortuna/services/player-stats-service/pkg/models"
)

// ErrMissingColumns is returned when the header lacks a required column
var ErrMissingColumns = errors.New("missing required columns")

const (
	headerPlayer   = "PLAYER"
	headerPosition = "POSITION"
)

// countColumn maps a CSV header to the BoxCounts field it fills
type countColumn struct {
	header string
	set    func(c *models.BoxCounts, v float64)
}

var countColumns = []countColumn{
	{"FTM", func(c *models.BoxCounts, v float64) { c.FTM = v }},
	{"FTA", func(c *models.BoxCounts, v float64) { c.FTA = v }},
	{"2PM", func(c *models.BoxCounts, v float64) { c.TwoPM = v }},
	{"2PA", func(c *models.BoxCounts, v float64) { c.TwoPA = v }},
	{"3PM", func(c *models.BoxCounts, v float64) { c.ThreePM = v }},
	{"3PA", func(c *models.BoxCounts, v float64) { c.ThreePA = v }},
	{"REB", func(c *models.BoxCounts, v float64) { c.REB = v }},
	{"BLK", func(c *models.BoxCounts, v float64) { c.BLK = v }},
	{"AST", func(c *models.BoxCounts, v float64) { c.AST = v }},
	{"STL", func(c *models.BoxCounts, v float64) { c.STL = v }},
	{"TOV", func(c *models.BoxCounts, v float64) { c.TOV = v }},
}

// RequiredColumns lists every header a stats file must carry, in file order
func RequiredColumns() []string {
	cols := []string{headerPlayer, headerPosition}
	for _, c := range countColumns {
		cols = append(cols, c.header)
	}
	return cols
}

// headerIndex maps normalised header names to their column position.
// The first occurrence of a repeated header wins.
type headerIndex map[string]int

func newHeaderIndex(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		key := strings.ToUpper(strings.TrimSpace(h))
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}
	return idx
}

func (h headerIndex) missing() []string {
	var out []string
	for _, col := range RequiredColumns() {
		if _, ok := h[col]; !ok {
			out = append(out, col)
		}
	}
	return out
}
