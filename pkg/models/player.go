package models

import (
	"fmt"
	"strings"
)

// Position is a player's listed position
type Position string

const (
	PositionPointGuard    Position = "PG"
	PositionShootingGuard Position = "SG"
	PositionSmallForward  Position = "SF"
	PositionPowerForward  Position = "PF"
	PositionCenter        Position = "C"
)

// positionNames maps each position to its display name
var positionNames = map[Position]string{
	PositionPointGuard:    "Point guard",
	PositionShootingGuard: "Shooting guard",
	PositionSmallForward:  "Small forward",
	PositionPowerForward:  "Power forward",
	PositionCenter:        "Center",
}

// ParsePosition converts a raw position code ("pg", " C ") to a Position
func ParsePosition(raw string) (Position, error) {
	p := Position(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := positionNames[p]; !ok {
		return "", fmt.Errorf("unknown position %q", raw)
	}
	return p, nil
}

// DisplayName returns the long form of the position
func (p Position) DisplayName() string {
	if name, ok := positionNames[p]; ok {
		return name
	}
	return string(p)
}

// Valid reports whether p is one of the known positions
func (p Position) Valid() bool {
	_, ok := positionNames[p]
	return ok
}

// Player identifies a player. Games played is never stored here;
// it is always the number of StatRows recorded for the player.
type Player struct {
	Name     string   `json:"name"`
	Position Position `json:"position"`
}

// Validate checks the identity fields
func (p Player) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("player name is required")
	}
	if !p.Position.Valid() {
		return fmt.Errorf("unknown position %q", p.Position)
	}
	return nil
}

func (p Player) String() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.Position)
}

// PlayerSummary is the listing view of a player
type PlayerSummary struct {
	Name        string   `json:"name"`
	Position    Position `json:"position"`
	GamesPlayed int      `json:"games_played"`
}
