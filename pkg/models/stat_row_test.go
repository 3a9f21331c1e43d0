package models_test

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/fortuna/services/player-stats-service/pkg/models"
)

func TestStatRowValidate(t *testing.T) {
	valid := models.BoxCounts{FTM: 2, FTA: 3, TwoPM: 4, TwoPA: 9, ThreePM: 1, ThreePA: 4, REB: 6}

	tests := []struct {
		name      string
		row       models.StatRow
		wantField string
	}{
		{"valid row", models.StatRow{PlayerName: "Ana", BoxCounts: valid}, ""},
		{"zero row", models.StatRow{PlayerName: "Ana"}, ""},
		{"missing name", models.StatRow{BoxCounts: valid}, "PLAYER"},
		{"blank name", models.StatRow{PlayerName: " \t ", BoxCounts: valid}, "PLAYER"},
		{"free throws exceed attempts", models.StatRow{PlayerName: "Ana", BoxCounts: models.BoxCounts{FTM: 4, FTA: 3}}, "FTM"},
		{"twos exceed attempts", models.StatRow{PlayerName: "Ana", BoxCounts: models.BoxCounts{TwoPM: 1}}, "2PM"},
		{"threes exceed attempts", models.StatRow{PlayerName: "Ana", BoxCounts: models.BoxCounts{ThreePM: 3, ThreePA: 2}}, "3PM"},
		{"negative rebounds", models.StatRow{PlayerName: "Ana", BoxCounts: models.BoxCounts{REB: -1}}, "REB"},
		{"NaN assists", models.StatRow{PlayerName: "Ana", BoxCounts: models.BoxCounts{AST: math.NaN()}}, "AST"},
		{"infinite attempts", models.StatRow{PlayerName: "Ana", BoxCounts: models.BoxCounts{FTA: math.Inf(1)}}, "FTA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.row.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var dqe *models.DataQualityError
			if !errors.As(err, &dqe) {
				t.Fatalf("err = %v, want *DataQualityError", err)
			}
			if dqe.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", dqe.Field, tt.wantField)
			}
		})
	}
}

func TestDataQualityErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  models.DataQualityError
		want string
	}{
		{
			"full location",
			models.DataQualityError{Player: "Ana", Source: "week1.csv", Line: 4, Field: "FTM", Reason: "FTM 4 exceeds FTA 3"},
			"data quality week1.csv:4 (Ana) FTM: FTM 4 exceeds FTA 3",
		},
		{
			"line only",
			models.DataQualityError{Line: 7, Reason: "bad"},
			"data quality line 7: bad",
		},
		{
			"no location",
			models.DataQualityError{Player: "Ana", Reason: "conflicting position"},
			"data quality (Ana): conflicting position",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDataQualityErrorsWalksJoinedErrors(t *testing.T) {
	first := &models.DataQualityError{Line: 2, Reason: "one"}
	second := &models.DataQualityError{Line: 3, Reason: "two"}
	third := &models.DataQualityError{Line: 9, Reason: "three"}

	err := fmt.Errorf("ingest week1.csv: %w",
		errors.Join(first, fmt.Errorf("wrapped: %w", second), errors.Join(third, errors.New("noise"))))

	got := models.DataQualityErrors(err)
	if len(got) != 3 {
		t.Fatalf("got %d errors, want 3", len(got))
	}
	if got[0] != first || got[1] != second || got[2] != third {
		t.Errorf("unexpected order: %v", got)
	}

	if models.DataQualityErrors(nil) != nil {
		t.Errorf("nil error should yield no problems")
	}
	if models.DataQualityErrors(errors.New("plain")) != nil {
		t.Errorf("plain error should yield no problems")
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		raw     string
		want    models.Position
		wantErr bool
	}{
		{"PG", models.PositionPointGuard, false},
		{" sg ", models.PositionShootingGuard, false},
		{"sf", models.PositionSmallForward, false},
		{"Pf", models.PositionPowerForward, false},
		{"c", models.PositionCenter, false},
		{"", "", true},
		{"G", "", true},
		{"center", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := models.ParsePosition(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlayerValidate(t *testing.T) {
	if err := (models.Player{Name: "Ana", Position: models.PositionCenter}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (models.Player{Name: "  ", Position: models.PositionCenter}).Validate(); err == nil {
		t.Error("expected error for blank name")
	}
	err := (models.Player{Name: "Ana", Position: "W"}).Validate()
	if err == nil || !strings.Contains(err.Error(), "unknown position") {
		t.Errorf("err = %v, want unknown position", err)
	}
}

func TestIngestEventTouches(t *testing.T) {
	event := models.IngestEvent{Players: []string{"Ana", "Bea"}}

	if !event.Touches([]string{"Cam", "Bea"}) {
		t.Error("expected event to touch Bea")
	}
	if event.Touches([]string{"Cam"}) {
		t.Error("event should not touch Cam")
	}
	if event.Touches(nil) {
		t.Error("empty filter should not match through Touches")
	}
}
