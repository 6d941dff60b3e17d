package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Format identifies which legacy catalog convention a payload follows.
type Format string

const (
	// FormatJPL is the JPL Molecular Spectroscopy catalog convention:
	// intensities as base-10 log of integrated intensity at 300 K.
	FormatJPL Format = "jpl"

	// FormatCDMS is the Cologne Database for Molecular Spectroscopy
	// convention: intensities as base-10 log of the Einstein A coefficient.
	FormatCDMS Format = "cdms"
)

// ParseFormat normalizes a format label, matching case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(FormatJPL):
		return FormatJPL, nil
	case string(FormatCDMS):
		return FormatCDMS, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// CatalogRequest is the JSON envelope produced by the collector. Payload
// holds the raw fixed-width catalog text exactly as the upstream service
// returned it.
//
// Species and the partition arrays are only set when the collector already
// knows the molecule and its partition function; they bypass master-table
// resolution. MinFrequencyMHz/MaxFrequencyMHz record the query window for
// provenance and are not re-applied as a filter.
type CatalogRequest struct {
	Format                string    `json:"format"`
	Payload               string    `json:"payload"`
	Species               string    `json:"species,omitempty"`
	PartitionTemperatures []float64 `json:"partition_temperatures,omitempty"`
	PartitionValues       []float64 `json:"partition_values,omitempty"`
	DropFrequencyError    bool      `json:"drop_frequency_error,omitempty"`
	MinFrequencyMHz       float64   `json:"min_frequency_mhz,omitempty"`
	MaxFrequencyMHz       float64   `json:"max_frequency_mhz,omitempty"`
}

// JPLRecord is one parsed row of a JPL-convention catalog payload.
// Frequencies are in MHz, lower-state energy in wavenumbers (cm^-1),
// intensity as lg of the 300 K integrated intensity (nm^2 MHz).
type JPLRecord struct {
	FrequencyMHz         float64
	FrequencyErrMHz      *float64 // nil when the cell is masked
	LogIntensity         float64
	DegreesOfFreedom     int
	LowerStateEnergy     float64 // cm^-1
	UpperStateDegeneracy int
	Tag                  int // negative when the frequency is measured, not predicted
	QuantumFormat        int
	UpperQuanta          string
	LowerQuanta          string
}

// CDMSQuanta holds the six two-character quantum number cells of one state.
// They are kept verbatim: CDMS encodes J>99 and half-integer values with
// letter codes that only a format-aware consumer can interpret.
type CDMSQuanta struct {
	J  string
	K  string
	V  string
	F1 string
	F2 string
	F3 string
}

// CDMSRecord is one parsed row of a CDMS-convention catalog payload.
// The intensity column carries lg of the Einstein A coefficient because
// queries against the service request zero-temperature intensities.
type CDMSRecord struct {
	FrequencyMHz         float64
	FrequencyErrMHz      *float64 // nil when the cell is masked
	LogEinsteinA         float64
	DegreesOfFreedom     int
	LowerStateEnergy     float64 // cm^-1
	UpperStateDegeneracy int
	MolecularWeight      int
	Tag                  int
	QuantumFormat        int
	UpperQuanta          CDMSQuanta
	LowerQuanta          CDMSQuanta
	Name                 string // per-row species label, e.g. "CO, v=0"
}

// SpeciesIdentity describes the molecule a line list belongs to. Tag is
// zero when the caller supplied the species instead of resolving it from
// a master table.
type SpeciesIdentity struct {
	Tag             int    `json:"tag,omitempty"`
	Name            string `json:"name"`
	MolecularWeight *int   `json:"molecular_weight,omitempty"` // amu, CDMS only
	LineCount       *int   `json:"line_count,omitempty"`       // catalogued lines per the master table
}

// Line is one normalized spectral line in canonical units.
type Line struct {
	Species              string   `json:"species"`
	FrequencyGHz         float64  `json:"frequency_ghz"`
	FrequencyErrGHz      *float64 `json:"frequency_err_ghz,omitempty"`
	EinsteinA            float64  `json:"a_ul"` // s^-1
	UpperStateDegeneracy int      `json:"g_up"`
	UpperStateEnergyK    float64  `json:"e_up_k"` // K
}

// LineList is the canonical output: a normalized set of lines plus the
// species identity and partition function they were derived with. Partition
// is nil only for an empty list, where no resolution took place.
type LineList struct {
	ID           string             `json:"id"`
	Format       Format             `json:"format"`
	Species      SpeciesIdentity    `json:"species"`
	Partition    *PartitionFunction `json:"partition_function,omitempty"`
	Lines        []Line             `json:"lines"`
	NormalizedAt time.Time          `json:"normalized_at"`
}
