package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fortuna/services/player-stats-service/pkg/models"
)

// Batch is a parsed and validated stats file
type Batch struct {
	Source  string
	Players []models.Player // in order of first appearance
	Rows    []models.StatRow
}

// PlayerNames returns the distinct player names of the batch
func (b *Batch) PlayerNames() []string {
	names := make([]string, len(b.Players))
	for i, p := range b.Players {
		names[i] = p.Name
	}
	return names
}

// Parse reads a stats CSV. The header is checked before any row is read.
// Every row problem is collected and returned joined; a batch is only
// returned when the whole file is clean.
func Parse(r io.Reader, source string) (*Batch, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w: file is empty", source, ErrMissingColumns)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s header: %w", source, err)
	}

	idx := newHeaderIndex(header)
	if missing := idx.missing(); len(missing) > 0 {
		return nil, fmt.Errorf("parse %s: %w: %s", source, ErrMissingColumns, strings.Join(missing, ", "))
	}

	batch := &Batch{Source: source}
	firstSeen := make(map[string]positionSighting)
	var problems []error

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", source, err)
		}
		line, _ := reader.FieldPos(0)

		row, position, rowProblems := parseRecord(record, idx, source, line)
		if len(rowProblems) > 0 {
			problems = append(problems, rowProblems...)
			continue
		}

		if seen, ok := firstSeen[row.PlayerName]; ok {
			if seen.position != position {
				problems = append(problems, &models.DataQualityError{
					Player: row.PlayerName,
					Source: source,
					Line:   line,
					Field:  headerPosition,
					Reason: fmt.Sprintf("conflicting position %s, listed as %s on line %d", position, seen.position, seen.line),
				})
				continue
			}
		} else {
			firstSeen[row.PlayerName] = positionSighting{position: position, line: line}
			batch.Players = append(batch.Players, models.Player{Name: row.PlayerName, Position: position})
		}

		batch.Rows = append(batch.Rows, row)
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("parse %s: %d invalid rows: %w", source, len(problems), errors.Join(problems...))
	}
	return batch, nil
}

type positionSighting struct {
	position models.Position
	line     int
}

// parseRecord converts one CSV record. Identity problems and malformed numbers
// are all reported; count invariants are checked only on a well-formed row.
func parseRecord(record []string, idx headerIndex, source string, line int) (models.StatRow, models.Position, []error) {
	row := models.StatRow{
		PlayerName: strings.TrimSpace(cell(record, idx[headerPlayer])),
		Source:     source,
		Line:       line,
	}

	var problems []error
	report := func(field, reason string) {
		problems = append(problems, &models.DataQualityError{
			Player: row.PlayerName,
			Source: source,
			Line:   line,
			Field:  field,
			Reason: reason,
		})
	}

	if row.PlayerName == "" {
		report(headerPlayer, "player name is required")
	}

	rawPosition := cell(record, idx[headerPosition])
	position, err := models.ParsePosition(rawPosition)
	if err != nil {
		report(headerPosition, fmt.Sprintf("unknown position %q", strings.TrimSpace(rawPosition)))
	}

	for _, col := range countColumns {
		raw := strings.TrimSpace(cell(record, idx[col.header]))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			report(col.header, fmt.Sprintf("not a number: %q", raw))
			continue
		}
		col.set(&row.BoxCounts, v)
	}

	if len(problems) > 0 {
		return row, position, problems
	}

	if err := row.Validate(); err != nil {
		return row, position, []error{err}
	}
	return row, position, nil
}

func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
