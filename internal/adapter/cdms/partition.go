package cdms

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/specline-etl/internal/domain"
)

const (
	tagEnd  = 6
	nameEnd = 37
)

// ParsePartitionFunctions parses the classic partition function listing.
// The header row names the temperature columns as lg(Q(T)) tokens; entry
// rows carry the six-digit tag, a species label, the catalogued line count,
// and one lg(Q) value per column, with --- marking untabulated points.
// Preamble lines before the header are skipped.
func ParsePartitionFunctions(data []byte) (*domain.CDMSSpeciesTable, error) {
	table := &domain.CDMSSpeciesTable{}

	for i, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "<") {
			// blank or markup around the <pre> listing
			continue
		}
		if strings.Contains(line, "lg(Q(") {
			temps, err := parseHeaderTemperatures(line)
			if err != nil {
				return nil, fmt.Errorf("partition header: %w", err)
			}
			table.Temperatures = temps
			continue
		}
		if table.Temperatures == nil {
			continue
		}
		entry, err := parsePartitionLine(line, len(table.Temperatures))
		if err != nil {
			return nil, fmt.Errorf("partition line %d: %w", i+1, err)
		}
		table.Entries = append(table.Entries, entry)
	}

	if table.Temperatures == nil {
		return nil, errors.New("partition listing: no lg(Q(T)) header")
	}
	if len(table.Entries) == 0 {
		return nil, errors.New("partition listing: no entries")
	}
	return table, nil
}

// parseHeaderTemperatures pulls the grid out of tokens like lg(Q(1000.))
// and lg(Q(2.725)).
func parseHeaderTemperatures(line string) ([]float64, error) {
	var temps []float64
	for _, tok := range strings.Fields(line) {
		if !strings.HasPrefix(tok, "lg(Q(") {
			continue
		}
		open := strings.LastIndex(tok, "(")
		end := strings.Index(tok[open+1:], ")")
		if end < 0 {
			return nil, fmt.Errorf("malformed column %q", tok)
		}
		v, err := strconv.ParseFloat(tok[open+1:open+1+end], 64)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", tok, err)
		}
		temps = append(temps, v)
	}
	if len(temps) == 0 {
		return nil, errors.New("no lg(Q(T)) columns")
	}
	return temps, nil
}

func parsePartitionLine(line string, columns int) (domain.CDMSSpeciesEntry, error) {
	if len(line) < nameEnd {
		return domain.CDMSSpeciesEntry{}, fmt.Errorf("short line %q", line)
	}

	tag, err := strconv.Atoi(strings.TrimSpace(line[:tagEnd]))
	if err != nil {
		return domain.CDMSSpeciesEntry{}, fmt.Errorf("tag: %w", err)
	}
	name := strings.TrimSpace(line[tagEnd:nameEnd])
	if name == "" {
		return domain.CDMSSpeciesEntry{}, errors.New("blank species name")
	}

	fields := strings.Fields(line[nameEnd:])
	if len(fields) < 1 {
		return domain.CDMSSpeciesEntry{}, errors.New("missing line count")
	}
	lineCount, err := strconv.Atoi(fields[0])
	if err != nil {
		return domain.CDMSSpeciesEntry{}, fmt.Errorf("line count: %w", err)
	}

	// Rows may end before the last columns; the shorter lg(Q) slice simply
	// seeds fewer partition samples.
	logQ := make([]float64, 0, columns)
	for _, f := range fields[1:] {
		if len(logQ) == columns {
			break
		}
		if f == "---" {
			logQ = append(logQ, math.NaN())
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return domain.CDMSSpeciesEntry{}, fmt.Errorf("lg(Q) value %q: %w", f, err)
		}
		logQ = append(logQ, v)
	}

	return domain.CDMSSpeciesEntry{Tag: tag, Name: name, LineCount: lineCount, LogQ: logQ}, nil
}
