package domain

import (
	"fmt"
	"math"
)

// JPLSpeciesEntry is one row of the JPL master directory.
type JPLSpeciesEntry struct {
	Tag       int
	Name      string
	LineCount int
	LogQ      []float64 // lg(Q) aligned with the table's temperature grid; NaN marks untabulated
}

// JPLSpeciesTable is the parsed JPL master directory. Temperatures is the
// catalog's standard grid in its native decreasing order, 300 K first.
type JPLSpeciesTable struct {
	Temperatures []float64
	Entries      []JPLSpeciesEntry
}

// ResolveTag finds the directory entry for a catalog tag. Lookups use the
// absolute value: a line tag's sign encodes measured versus predicted
// frequency, not identity.
func (t *JPLSpeciesTable) ResolveTag(tag int) (JPLSpeciesEntry, error) {
	if tag < 0 {
		tag = -tag
	}
	for _, e := range t.Entries {
		if e.Tag == tag {
			return e, nil
		}
	}
	return JPLSpeciesEntry{}, fmt.Errorf("%w: jpl tag %d", ErrSpeciesNotFound, tag)
}

// PartitionSeed extracts an entry's (temperature, Q) samples in increasing
// temperature order, undoing the grid's decreasing layout.
func (t *JPLSpeciesTable) PartitionSeed(entry JPLSpeciesEntry) (temps, values []float64) {
	return partitionSeed(t.Temperatures, entry.LogQ)
}

// CDMSSpeciesEntry is one row of the CDMS partition function listing.
// Tag is the composite key molweight*1000 + catalog tag.
type CDMSSpeciesEntry struct {
	Tag       int
	Name      string
	LineCount int
	LogQ      []float64 // lg(Q) aligned with the table's temperature grid; NaN marks untabulated
}

// CDMSSpeciesTable is the parsed CDMS partition function listing.
// Temperatures comes from the lg(Q(T)) column headers, in header order.
type CDMSSpeciesTable struct {
	Temperatures []float64
	Entries      []CDMSSpeciesEntry
}

// ResolveWeightTag finds the entry for a molecular weight and species tag.
// CDMS keys species by molweight*1000 + |tag|, which disambiguates tags
// that repeat across weights.
func (t *CDMSSpeciesTable) ResolveWeightTag(molWeight, tag int) (CDMSSpeciesEntry, error) {
	if tag < 0 {
		tag = -tag
	}
	key := molWeight*1000 + tag
	for _, e := range t.Entries {
		if e.Tag == key {
			return e, nil
		}
	}
	return CDMSSpeciesEntry{}, fmt.Errorf("%w: cdms tag %d (weight %d)", ErrSpeciesNotFound, key, molWeight)
}

// PartitionSeed extracts an entry's (temperature, Q) samples in increasing
// temperature order.
func (t *CDMSSpeciesTable) PartitionSeed(entry CDMSSpeciesEntry) (temps, values []float64) {
	return partitionSeed(t.Temperatures, entry.LogQ)
}

// partitionSeed converts a lg(Q) row on a decreasing temperature grid into
// increasing (T, Q) samples. Untabulated values are dropped: NaN, and an
// exact 0.0, which the legacy catalogs use as a "not tabulated" marker
// rather than lg(Q)=0.
func partitionSeed(grid, logQ []float64) (temps, values []float64) {
	n := min(len(grid), len(logQ))
	temps = make([]float64, 0, n)
	values = make([]float64, 0, n)
	for i := n - 1; i >= 0; i-- {
		lq := logQ[i]
		if lq == 0 || math.IsNaN(lq) {
			continue
		}
		temps = append(temps, grid[i])
		values = append(values, math.Pow(10, lq))
	}
	return temps, values
}
