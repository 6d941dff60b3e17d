package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SchemaField names one column of a fixed-width catalog line and the byte
// offset it starts at. A column ends where the next column begins; the last
// column runs to the end of the line.
type SchemaField struct {
	Name  string
	Start int
}

// Schema describes the column layout of a fixed-width catalog payload.
// Both legacy services emit the same physical quantities at different
// offsets, so parsing takes the schema as a parameter and callers with
// non-standard exports can supply their own.
type Schema []SchemaField

// DefaultJPLSchema is the classic JPL catalog line layout.
var DefaultJPLSchema = Schema{
	{"FREQ", 0},
	{"ERR", 13},
	{"LGINT", 21},
	{"DR", 29},
	{"ELO", 31},
	{"GUP", 41},
	{"TAG", 44},
	{"QNFMT", 51},
	{"QNUP", 55},
	{"QNLOW", 67},
}

// DefaultCDMSSchema is the CDMS catalog line layout. The intensity column
// is named LGAIJ: queries request zero-temperature intensities, which makes
// the service emit lg(A_ul) in that column instead of lg(intensity).
var DefaultCDMSSchema = Schema{
	{"FREQ", 0},
	{"ERR", 14},
	{"LGAIJ", 25},
	{"DR", 36},
	{"ELO", 38},
	{"GUP", 47},
	{"MOLWT", 51},
	{"TAG", 54},
	{"QNFMT", 57},
	{"JU", 61},
	{"KU", 63},
	{"VU", 65},
	{"F1U", 67},
	{"F2U", 69},
	{"F3U", 71},
	{"JL", 73},
	{"KL", 75},
	{"VL", 77},
	{"F1L", 79},
	{"F2L", 81},
	{"F3L", 83},
	{"NAME", 89},
}

// Cut slices one payload line into trimmed cells keyed by field name.
// Offsets at or past the end of the line yield empty cells, so short
// lines parse as long lines with trailing blanks.
func (s Schema) Cut(line string) map[string]string {
	fields := s.sorted()
	cells := make(map[string]string, len(fields))
	for i, f := range fields {
		if f.Start >= len(line) {
			cells[f.Name] = ""
			continue
		}
		end := len(line)
		if i+1 < len(fields) && fields[i+1].Start < end {
			end = fields[i+1].Start
		}
		cells[f.Name] = strings.TrimSpace(line[f.Start:end])
	}
	return cells
}

func (s Schema) sorted() Schema {
	out := make(Schema, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// requires verifies the schema names every column a format's parser reads.
func (s Schema) requires(names ...string) error {
	have := make(map[string]bool, len(s))
	for _, f := range s {
		have[f.Name] = true
	}
	var missing []string
	for _, name := range names {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("schema missing fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ParseJPLPayload parses raw JPL catalog text into records. A nil schema
// uses DefaultJPLSchema. Blank lines are skipped; a malformed cell fails
// the whole payload with an error naming the line and field.
func ParseJPLPayload(payload []byte, schema Schema) ([]JPLRecord, error) {
	if schema == nil {
		schema = DefaultJPLSchema
	}
	if err := schema.requires("FREQ", "ERR", "LGINT", "DR", "ELO", "GUP", "TAG", "QNFMT", "QNUP", "QNLOW"); err != nil {
		return nil, fmt.Errorf("jpl payload: %w", err)
	}

	lines := strings.Split(string(payload), "\n")
	records := make([]JPLRecord, 0, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		r := cellReader{cells: schema.Cut(line)}
		rec := JPLRecord{
			FrequencyMHz:         r.float("FREQ"),
			FrequencyErrMHz:      r.optFloat("ERR"),
			LogIntensity:         r.float("LGINT"),
			DegreesOfFreedom:     r.optInt("DR"),
			LowerStateEnergy:     r.float("ELO"),
			UpperStateDegeneracy: r.integer("GUP"),
			Tag:                  r.optInt("TAG"),
			QuantumFormat:        r.optInt("QNFMT"),
			UpperQuanta:          r.cells["QNUP"],
			LowerQuanta:          r.cells["QNLOW"],
		}
		if r.err != nil {
			return nil, fmt.Errorf("jpl payload line %d: %w", i+1, r.err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ParseCDMSPayload parses raw CDMS catalog text into records. A nil schema
// uses DefaultCDMSSchema.
func ParseCDMSPayload(payload []byte, schema Schema) ([]CDMSRecord, error) {
	if schema == nil {
		schema = DefaultCDMSSchema
	}
	if err := schema.requires("FREQ", "ERR", "LGAIJ", "DR", "ELO", "GUP", "MOLWT", "TAG", "QNFMT",
		"JU", "KU", "VU", "F1U", "F2U", "F3U", "JL", "KL", "VL", "F1L", "F2L", "F3L", "NAME"); err != nil {
		return nil, fmt.Errorf("cdms payload: %w", err)
	}

	lines := strings.Split(string(payload), "\n")
	records := make([]CDMSRecord, 0, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		r := cellReader{cells: schema.Cut(line)}
		rec := CDMSRecord{
			FrequencyMHz:         r.float("FREQ"),
			FrequencyErrMHz:      r.optFloat("ERR"),
			LogEinsteinA:         r.float("LGAIJ"),
			DegreesOfFreedom:     r.optInt("DR"),
			LowerStateEnergy:     r.float("ELO"),
			UpperStateDegeneracy: r.integer("GUP"),
			MolecularWeight:      r.optInt("MOLWT"),
			Tag:                  r.optInt("TAG"),
			QuantumFormat:        r.optInt("QNFMT"),
			UpperQuanta: CDMSQuanta{
				J:  r.cells["JU"],
				K:  r.cells["KU"],
				V:  r.cells["VU"],
				F1: r.cells["F1U"],
				F2: r.cells["F2U"],
				F3: r.cells["F3U"],
			},
			LowerQuanta: CDMSQuanta{
				J:  r.cells["JL"],
				K:  r.cells["KL"],
				V:  r.cells["VL"],
				F1: r.cells["F1L"],
				F2: r.cells["F2L"],
				F3: r.cells["F3L"],
			},
			Name: r.cells["NAME"],
		}
		if r.err != nil {
			return nil, fmt.Errorf("cdms payload line %d: %w", i+1, r.err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// cellReader parses typed values out of cut cells, keeping the first error.
// Physically required quantities treat a blank cell as an error; bookkeeping
// columns fall back to zero so sparse exports still parse.
type cellReader struct {
	cells map[string]string
	err   error
}

func (r *cellReader) float(name string) float64 {
	if r.err != nil {
		return 0
	}
	cell := r.cells[name]
	if cell == "" {
		r.err = fmt.Errorf("missing %s", name)
		return 0
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		r.err = fmt.Errorf("parse %s %q", name, cell)
		return 0
	}
	return v
}

func (r *cellReader) optFloat(name string) *float64 {
	if r.err != nil {
		return nil
	}
	cell := r.cells[name]
	if cell == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		r.err = fmt.Errorf("parse %s %q", name, cell)
		return nil
	}
	return &v
}

func (r *cellReader) integer(name string) int {
	if r.err != nil {
		return 0
	}
	cell := r.cells[name]
	if cell == "" {
		r.err = fmt.Errorf("missing %s", name)
		return 0
	}
	v, err := strconv.Atoi(cell)
	if err != nil {
		r.err = fmt.Errorf("parse %s %q", name, cell)
		return 0
	}
	return v
}

func (r *cellReader) optInt(name string) int {
	if r.err != nil {
		return 0
	}
	cell := r.cells[name]
	if cell == "" {
		return 0
	}
	v, err := strconv.Atoi(cell)
	if err != nil {
		r.err = fmt.Errorf("parse %s %q", name, cell)
		return 0
	}
	return v
}
