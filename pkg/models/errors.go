package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownPlayer is returned when no player is registered under a name
	ErrUnknownPlayer = errors.New("unknown player")

	// ErrNoGames is returned when a known player has no recorded games
	ErrNoGames = errors.New("player has no recorded games")
)

// DataQualityError describes an input row that violates the box score invariants
type DataQualityError struct {
	Player string `json:"player,omitempty"`
	Source string `json:"source,omitempty"`
	Line   int    `json:"line,omitempty"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

func (e *DataQualityError) Error() string {
	var b strings.Builder
	b.WriteString("data quality")
	if e.Source != "" {
		b.WriteString(" ")
		b.WriteString(e.Source)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
	} else if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	if e.Player != "" {
		fmt.Fprintf(&b, " (%s)", e.Player)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " %s", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

// DataQualityErrors extracts every DataQualityError from err, walking
// wrapped errors and errors combined with errors.Join.
func DataQualityErrors(err error) []*DataQualityError {
	if err == nil {
		return nil
	}

	if dqe, ok := err.(*DataQualityError); ok {
		return []*DataQualityError{dqe}
	}

	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		var out []*DataQualityError
		for _, e := range u.Unwrap() {
			out = append(out, DataQualityErrors(e)...)
		}
		return out
	case interface{ Unwrap() error }:
		return DataQualityErrors(u.Unwrap())
	}
	return nil
}
