package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
)

// ParseCatalogRequest deserializes a RawEvent's value into a CatalogRequest.
// It expects the JSON envelope produced by the collector service.
func ParseCatalogRequest(raw RawEvent) (CatalogRequest, error) {
	var req CatalogRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return CatalogRequest{}, fmt.Errorf("parse catalog request: %w", err)
	}
	return req, nil
}

// Normalizer converts raw catalog payloads into canonical line lists.
// Either master table may be nil when that catalog is not being served;
// requests that need the missing table fail with ErrSpeciesNotFound.
//
// Normalization is pure computation: values are converted, not validated,
// and rows pass through even when a negative intensity or inverted energy
// ordering makes the derived quantities non-physical. Upstream catalogs are
// treated as authoritative.
type Normalizer struct {
	jpl    *JPLSpeciesTable
	cdms   *CDMSSpeciesTable
	notice func(ExtrapolationNotice)
}

// NormalizerOption configures a Normalizer at construction.
type NormalizerOption func(*Normalizer)

// WithPartitionNotice registers fn on every partition function the
// normalizer builds, reporting evaluations outside the sampled domain.
func WithPartitionNotice(fn func(ExtrapolationNotice)) NormalizerOption {
	return func(n *Normalizer) { n.notice = fn }
}

// NewNormalizer builds a Normalizer over the given master tables.
func NewNormalizer(jpl *JPLSpeciesTable, cdms *CDMSSpeciesTable, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{jpl: jpl, cdms: cdms}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NormalizeOption adjusts a single normalization call.
type NormalizeOption func(*normalizeOptions)

type normalizeOptions struct {
	species     string
	partition   *PartitionFunction
	schema      Schema
	dropFreqErr bool
}

// WithSpecies labels the output with an explicit species name instead of
// resolving the rows' tag against a master table. A partition function
// must be supplied alongside it; a bare name cannot seed the derivation.
func WithSpecies(name string) NormalizeOption {
	return func(o *normalizeOptions) { o.species = name }
}

// WithPartitionFunction supplies the partition function directly, skipping
// the master-table seed.
func WithPartitionFunction(pf *PartitionFunction) NormalizeOption {
	return func(o *normalizeOptions) { o.partition = pf }
}

// WithSchema overrides the format's default fixed-width layout.
func WithSchema(s Schema) NormalizeOption {
	return func(o *normalizeOptions) { o.schema = s }
}

// WithoutFrequencyError drops the frequency uncertainty column even when
// the payload tabulates it.
func WithoutFrequencyError() NormalizeOption {
	return func(o *normalizeOptions) { o.dropFreqErr = true }
}

// NormalizeRequest normalizes a collector envelope. Envelope fields map
// onto the equivalent per-call options.
func (n *Normalizer) NormalizeRequest(req CatalogRequest) (*LineList, error) {
	format, err := ParseFormat(req.Format)
	if err != nil {
		return nil, err
	}

	opts := make([]NormalizeOption, 0, 3)
	if req.Species != "" {
		opts = append(opts, WithSpecies(req.Species))
	}
	if len(req.PartitionTemperatures) > 0 || len(req.PartitionValues) > 0 {
		pf, err := NewPartitionFunction(req.PartitionTemperatures, req.PartitionValues, n.partitionOpts()...)
		if err != nil {
			return nil, fmt.Errorf("request partition function: %w", err)
		}
		opts = append(opts, WithPartitionFunction(pf))
	}
	if req.DropFrequencyError {
		opts = append(opts, WithoutFrequencyError())
	}

	return n.NormalizeCatalog(format, []byte(req.Payload), opts...)
}

// NormalizeCatalog parses a raw fixed-width payload and normalizes it.
func (n *Normalizer) NormalizeCatalog(format Format, payload []byte, opts ...NormalizeOption) (*LineList, error) {
	o := applyNormalizeOptions(opts)
	switch format {
	case FormatJPL:
		records, err := ParseJPLPayload(payload, o.schema)
		if err != nil {
			return nil, err
		}
		return n.normalizeJPL(records, o)
	case FormatCDMS:
		records, err := ParseCDMSPayload(payload, o.schema)
		if err != nil {
			return nil, err
		}
		return n.normalizeCDMS(records, o)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// NormalizeJPL normalizes already-parsed JPL rows. The first row's tag
// governs resolution; multi-species payloads are not split.
func (n *Normalizer) NormalizeJPL(records []JPLRecord, opts ...NormalizeOption) (*LineList, error) {
	return n.normalizeJPL(records, applyNormalizeOptions(opts))
}

// NormalizeCDMS normalizes already-parsed CDMS rows.
func (n *Normalizer) NormalizeCDMS(records []CDMSRecord, opts ...NormalizeOption) (*LineList, error) {
	return n.normalizeCDMS(records, applyNormalizeOptions(opts))
}

func (n *Normalizer) normalizeJPL(records []JPLRecord, o normalizeOptions) (*LineList, error) {
	if len(records) == 0 {
		return n.emptyList(FormatJPL, o), nil
	}

	identity, pf, err := n.resolveJPL(records[0], o)
	if err != nil {
		return nil, err
	}

	// JPL tabulates lg(intensity) at 300 K; converting to A_ul needs Q there.
	q300 := pf.Evaluate(referenceTempK)

	lines := make([]Line, len(records))
	for i, r := range records {
		freqGHz := r.FrequencyMHz * mhzToGHz
		lines[i] = Line{
			Species:              identity.Name,
			FrequencyGHz:         freqGHz,
			FrequencyErrGHz:      convertFreqErr(r.FrequencyErrMHz, o.dropFreqErr),
			EinsteinA:            LogIntensityToEinsteinA(r.LogIntensity, r.FrequencyMHz, r.UpperStateDegeneracy, r.LowerStateEnergy, q300),
			UpperStateDegeneracy: r.UpperStateDegeneracy,
			UpperStateEnergyK:    upperStateEnergyK(r.LowerStateEnergy, freqGHz),
		}
	}

	return n.assemble(FormatJPL, identity, pf, lines), nil
}

func (n *Normalizer) normalizeCDMS(records []CDMSRecord, o normalizeOptions) (*LineList, error) {
	if len(records) == 0 {
		return n.emptyList(FormatCDMS, o), nil
	}

	identity, pf, err := n.resolveCDMS(records[0], o)
	if err != nil {
		return nil, err
	}

	lines := make([]Line, len(records))
	for i, r := range records {
		freqGHz := r.FrequencyMHz * mhzToGHz
		species := r.Name
		if species == "" {
			species = identity.Name
		}
		lines[i] = Line{
			Species:              species,
			FrequencyGHz:         freqGHz,
			FrequencyErrGHz:      convertFreqErr(r.FrequencyErrMHz, o.dropFreqErr),
			EinsteinA:            math.Pow(10, r.LogEinsteinA),
			UpperStateDegeneracy: r.UpperStateDegeneracy,
			UpperStateEnergyK:    upperStateEnergyK(r.LowerStateEnergy, freqGHz),
		}
	}

	return n.assemble(FormatCDMS, identity, pf, lines), nil
}

// resolveJPL settles the species identity and partition function for a
// JPL payload from the caller's options or the master table.
func (n *Normalizer) resolveJPL(first JPLRecord, o normalizeOptions) (SpeciesIdentity, *PartitionFunction, error) {
	if o.species != "" {
		if o.partition == nil {
			return SpeciesIdentity{}, nil, fmt.Errorf("%w: %q", ErrMissingPartitionFunction, o.species)
		}
		return SpeciesIdentity{Name: o.species}, o.partition, nil
	}

	if n.jpl == nil {
		return SpeciesIdentity{}, nil, fmt.Errorf("%w: jpl master table not loaded", ErrSpeciesNotFound)
	}
	entry, err := n.jpl.ResolveTag(first.Tag)
	if err != nil {
		return SpeciesIdentity{}, nil, err
	}

	identity := SpeciesIdentity{Tag: entry.Tag, Name: entry.Name, LineCount: &entry.LineCount}
	if o.partition != nil {
		return identity, o.partition, nil
	}
	temps, values := n.jpl.PartitionSeed(entry)
	pf, err := NewPartitionFunction(temps, values, n.partitionOpts()...)
	if err != nil {
		return SpeciesIdentity{}, nil, fmt.Errorf("jpl tag %d: %w", entry.Tag, err)
	}
	return identity, pf, nil
}

func (n *Normalizer) resolveCDMS(first CDMSRecord, o normalizeOptions) (SpeciesIdentity, *PartitionFunction, error) {
	weight := first.MolecularWeight
	if o.species != "" {
		if o.partition == nil {
			return SpeciesIdentity{}, nil, fmt.Errorf("%w: %q", ErrMissingPartitionFunction, o.species)
		}
		return SpeciesIdentity{Name: o.species, MolecularWeight: &weight}, o.partition, nil
	}

	if n.cdms == nil {
		return SpeciesIdentity{}, nil, fmt.Errorf("%w: cdms master table not loaded", ErrSpeciesNotFound)
	}
	entry, err := n.cdms.ResolveWeightTag(weight, first.Tag)
	if err != nil {
		return SpeciesIdentity{}, nil, err
	}

	identity := SpeciesIdentity{Tag: entry.Tag, Name: entry.Name, MolecularWeight: &weight, LineCount: &entry.LineCount}
	if o.partition != nil {
		return identity, o.partition, nil
	}
	temps, values := n.cdms.PartitionSeed(entry)
	pf, err := NewPartitionFunction(temps, values, n.partitionOpts()...)
	if err != nil {
		return SpeciesIdentity{}, nil, fmt.Errorf("cdms tag %d: %w", entry.Tag, err)
	}
	return identity, pf, nil
}

// emptyList is the zero-row result. No resolution happens: a query window
// with no lines in it is a legitimate answer, not a species or partition
// failure.
func (n *Normalizer) emptyList(format Format, o normalizeOptions) *LineList {
	return &LineList{
		ID:           lineListID(format, o.species, nil),
		Format:       format,
		Species:      SpeciesIdentity{Name: o.species},
		Partition:    o.partition,
		Lines:        []Line{},
		NormalizedAt: clock.Now(),
	}
}

func (n *Normalizer) assemble(format Format, identity SpeciesIdentity, pf *PartitionFunction, lines []Line) *LineList {
	return &LineList{
		ID:           lineListID(format, identity.Name, lines),
		Format:       format,
		Species:      identity,
		Partition:    pf,
		Lines:        lines,
		NormalizedAt: clock.Now(),
	}
}

func (n *Normalizer) partitionOpts() []PartitionOption {
	if n.notice == nil {
		return nil
	}
	return []PartitionOption{WithExtrapolationNotice(n.notice)}
}

func applyNormalizeOptions(opts []NormalizeOption) normalizeOptions {
	var o normalizeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// convertFreqErr scales a MHz uncertainty to GHz. Nil stays nil, so a
// column masked on every row never appears in the output; drop forces the
// same collapse when the caller asked for it.
func convertFreqErr(errMHz *float64, drop bool) *float64 {
	if drop || errMHz == nil {
		return nil
	}
	v := *errMHz * mhzToGHz
	return &v
}

// lineListID produces a deterministic ID from the list's key fields.
// Reprocessing the same payload yields the same ID, keeping downstream
// upserts idempotent across replays.
func lineListID(format Format, species string, lines []Line) string {
	var lo, hi float64
	if len(lines) > 0 {
		lo, hi = lines[0].FrequencyGHz, lines[len(lines)-1].FrequencyGHz
	}
	input := fmt.Sprintf("%s|%s|%.6f|%.6f|%d", format, species, lo, hi, len(lines))
	hash := sha256.Sum256([]byte(input))
	return string(format) + "-" + hex.EncodeToString(hash[:8])
}
