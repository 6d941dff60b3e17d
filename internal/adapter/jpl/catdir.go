package jpl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/specline-etl/internal/domain"
)

// qlogColumns is the number of lg(Q) columns in catdir.cat, one per grid
// temperature.
const qlogColumns = 7

// directoryGrid is the fixed temperature grid of the catdir.cat lg(Q)
// columns, in the catalog's decreasing order.
var directoryGrid = []float64{300, 225, 150, 75, 37.5, 18.75, 9.375}

// ParseCatdir parses the catdir.cat master directory: one species per line
// with the tag in the first six columns, a 13-character name, the catalogued
// line count, and seven lg(Q) values on the standard temperature grid.
// A trailing version field, when present, is ignored.
func ParseCatdir(data []byte) (*domain.JPLSpeciesTable, error) {
	table := &domain.JPLSpeciesTable{
		Temperatures: append([]float64(nil), directoryGrid...),
	}

	for i, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, err := parseCatdirLine(line)
		if err != nil {
			return nil, fmt.Errorf("catdir line %d: %w", i+1, err)
		}
		table.Entries = append(table.Entries, entry)
	}

	if len(table.Entries) == 0 {
		return nil, errors.New("catdir: no entries")
	}
	return table, nil
}

func parseCatdirLine(line string) (domain.JPLSpeciesEntry, error) {
	if len(line) < 20 {
		return domain.JPLSpeciesEntry{}, fmt.Errorf("short line %q", line)
	}

	tag, err := strconv.Atoi(strings.TrimSpace(line[:6]))
	if err != nil {
		return domain.JPLSpeciesEntry{}, fmt.Errorf("tag: %w", err)
	}
	name := strings.TrimSpace(line[6:20])
	if name == "" {
		return domain.JPLSpeciesEntry{}, errors.New("blank species name")
	}

	fields := strings.Fields(line[20:])
	if len(fields) < 1+qlogColumns {
		return domain.JPLSpeciesEntry{}, fmt.Errorf("want line count and %d lg(Q) values, got %d fields", qlogColumns, len(fields))
	}
	lineCount, err := strconv.Atoi(fields[0])
	if err != nil {
		return domain.JPLSpeciesEntry{}, fmt.Errorf("line count: %w", err)
	}

	logQ := make([]float64, qlogColumns)
	for i := range qlogColumns {
		v, err := strconv.ParseFloat(fields[1+i], 64)
		if err != nil {
			return domain.JPLSpeciesEntry{}, fmt.Errorf("lg(Q) column %d: %w", i+1, err)
		}
		logQ[i] = v
	}

	return domain.JPLSpeciesEntry{Tag: tag, Name: name, LineCount: lineCount, LogQ: logQ}, nil
}
