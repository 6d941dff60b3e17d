// Command validate performs end-to-end data integrity checks across the mock
// catalog fixtures: raw fixed-width payloads, master-table snapshots, collector
// request envelopes, and the normalization math that ties them together. It
// verifies column layout, species resolution, envelope consistency, and
// canonical-unit correctness.
//
// Usage:
//
//	go run ./cmd/validate -mock-dir data/mock
//	go run ./cmd/validate \
//	  -mock-dir data/mock \
//	  -normalized-json ../spectral-line-api/data/mock/line_lists.json
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/specline-etl/internal/adapter/cdms"
	"github.com/couchcryptid/specline-etl/internal/adapter/jpl"
	"github.com/couchcryptid/specline-etl/internal/domain"
	"github.com/jonboulle/clockwork"
)

// fixedNow matches the clock genmock normalizes under, so recomputed lists
// reproduce the committed fixture exactly.
var fixedNow = time.Date(2026, time.March, 1, 6, 0, 0, 0, time.UTC)

// lightSpeedCmS is the CODATA speed of light in cm/s, used to fold a
// transition frequency into the lower-state wavenumber when recomputing
// upper-state energies.
const lightSpeedCmS = 2.99792458e10

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	mockDir := flag.String("mock-dir", "", "directory containing the committed catalog fixtures")
	normalizedJSON := flag.String("normalized-json", "", "optional path to the normalized line list fixture")
	flag.Parse()

	if *mockDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*mockDir, *normalizedJSON); code != 0 {
		os.Exit(code)
	}
}

func run(mockDir, normalizedPath string) int {
	// Fixed clock matching genmock for NormalizedAt and replay reproducibility.
	domain.SetClock(clockwork.NewFakeClockAt(fixedNow))
	defer domain.SetClock(nil)

	// ── Load all fixtures ──
	fmt.Println("=== Catalog Fixture Integrity Validation ===")
	fmt.Println()

	jplRaw, err := os.ReadFile(filepath.Join(mockDir, "jpl_co.cat"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load jpl payload: %v\n", err)
		return 1
	}
	cdmsRaw, err := os.ReadFile(filepath.Join(mockDir, "cdms_co.cat"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load cdms payload: %v\n", err)
		return 1
	}

	jplRecords, err := domain.ParseJPLPayload(jplRaw, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse jpl payload: %v\n", err)
		return 1
	}
	cdmsRecords, err := domain.ParseCDMSPayload(cdmsRaw, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse cdms payload: %v\n", err)
		return 1
	}

	catdirRaw, err := os.ReadFile(filepath.Join(mockDir, "jpl_catdir.cat"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load catdir snapshot: %v\n", err)
		return 1
	}
	jplTable, err := jpl.ParseCatdir(catdirRaw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse catdir snapshot: %v\n", err)
		return 1
	}

	partfuncRaw, err := os.ReadFile(filepath.Join(mockDir, "cdms_partfunc.cat"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load partition listing: %v\n", err)
		return 1
	}
	cdmsTable, err := cdms.ParsePartitionFunctions(partfuncRaw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse partition listing: %v\n", err)
		return 1
	}

	envelopes, err := loadJSON[domain.CatalogRequest](filepath.Join(mockDir, "catalog_requests.json"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load envelope fixture: %v\n", err)
		return 1
	}
	if len(envelopes) != 5 {
		fmt.Fprintf(os.Stderr, "FATAL: envelope fixture has %d envelopes, want 5\n", len(envelopes))
		return 1
	}

	// ── Run validation phases ──
	normPhase, lists := validateNormalization(envelopes, jplTable, cdmsTable, jplRecords, cdmsRecords)
	phases := []*phase{
		validatePayloadLayout(jplRaw, cdmsRaw, jplRecords, cdmsRecords),
		validateMasterTables(jplTable, cdmsTable),
		validateEnvelopes(envelopes, jplRaw, cdmsRaw, jplTable),
		normPhase,
	}
	if normalizedPath != "" {
		phases = append(phases, validateNormalizedFixture(normalizedPath, lists))
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Fixtures: %d jpl rows, %d cdms rows, %d catdir species, %d partition species, %d envelopes\n",
		len(jplRecords), len(cdmsRecords), len(jplTable.Entries), len(cdmsTable.Entries), len(envelopes))

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ── Phase 1: Payload Layout ──
// Validates the fixed-width fixtures against the default schemas: line
// widths, row counts, and spot-checked cells including the masked
// uncertainty column.

func validatePayloadLayout(jplRaw, cdmsRaw []byte, jplRecords []domain.JPLRecord, cdmsRecords []domain.CDMSRecord) *phase {
	p := &phase{name: "Phase 1: Payload Layout (fixed width)"}

	checkLineWidths(p, "jpl", jplRaw, 69)
	checkLineWidths(p, "cdms", cdmsRaw, 96)

	if len(jplRecords) != 3 {
		p.errorf("jpl payload: %d records, want 3", len(jplRecords))
	} else {
		r := jplRecords[0]
		if !floatEq(r.FrequencyMHz, 115271.2018) {
			p.errorf("jpl row 0: FREQ %.4f, want 115271.2018", r.FrequencyMHz)
		}
		if r.FrequencyErrMHz == nil || !floatEq(*r.FrequencyErrMHz, 0.0005) {
			p.errorf("jpl row 0: ERR cell not parsed as 0.0005")
		}
		if !floatEq(r.LogIntensity, -5.0105) {
			p.errorf("jpl row 0: LGINT %.4f, want -5.0105", r.LogIntensity)
		}
		if r.DegreesOfFreedom != 2 || r.UpperStateDegeneracy != 3 {
			p.errorf("jpl row 0: DR=%d GUP=%d, want DR=2 GUP=3", r.DegreesOfFreedom, r.UpperStateDegeneracy)
		}
		if r.Tag != -28001 {
			p.errorf("jpl row 0: TAG %d, want -28001 (measured-frequency sign)", r.Tag)
		}
		if r.QuantumFormat != 101 || r.UpperQuanta != "1" || r.LowerQuanta != "0" {
			p.errorf("jpl row 0: quanta QNFMT=%d up=%q low=%q", r.QuantumFormat, r.UpperQuanta, r.LowerQuanta)
		}
		if jplRecords[2].Tag != 28001 {
			p.errorf("jpl row 2: TAG %d, want 28001 (predicted-frequency sign)", jplRecords[2].Tag)
		}
	}

	if len(cdmsRecords) != 3 {
		p.errorf("cdms payload: %d records, want 3", len(cdmsRecords))
	} else {
		r := cdmsRecords[0]
		if !floatEq(r.FrequencyMHz, 115271.2018) {
			p.errorf("cdms row 0: FREQ %.4f, want 115271.2018", r.FrequencyMHz)
		}
		if !floatEq(r.LogEinsteinA, -7.1425) {
			p.errorf("cdms row 0: LGAIJ %.4f, want -7.1425", r.LogEinsteinA)
		}
		if r.MolecularWeight != 28 || r.Tag != 503 {
			p.errorf("cdms row 0: MOLWT=%d TAG=%d, want 28/503", r.MolecularWeight, r.Tag)
		}
		if r.Name != "CO, v=0" {
			p.errorf("cdms row 0: NAME %q, want \"CO, v=0\"", r.Name)
		}
		if r.UpperQuanta.J != "1" || r.LowerQuanta.J != "0" {
			p.errorf("cdms row 0: J quanta %q/%q, want 1/0", r.UpperQuanta.J, r.LowerQuanta.J)
		}
		if cdmsRecords[2].FrequencyErrMHz != nil {
			p.errorf("cdms row 2: masked ERR cell parsed as %v, want nil", *cdmsRecords[2].FrequencyErrMHz)
		}
		if cdmsRecords[1].FrequencyErrMHz == nil {
			p.errorf("cdms row 1: ERR cell unexpectedly masked")
		}
	}

	return p
}

func checkLineWidths(p *phase, label string, raw []byte, want int) {
	for i, line := range strings.Split(string(raw), "\n") {
		if line == "" {
			continue
		}
		if len(line) != want {
			p.errorf("%s payload line %d: %d chars, want %d", label, i+1, len(line), want)
		}
	}
}

// ── Phase 2: Master Tables ──
// Validates the snapshot grids and species lookup semantics, including the
// sign-insensitive JPL lookup, the composite CDMS key, and untabulated
// partition cells.

func validateMasterTables(jplTable *domain.JPLSpeciesTable, cdmsTable *domain.CDMSSpeciesTable) *phase {
	p := &phase{name: "Phase 2: Master Tables (species lookup)"}

	checkCatdir(p, jplTable)
	checkPartfunc(p, cdmsTable)

	// Both snapshots tabulate CO at 300 K as lg(Q)=2.0369; the fitted
	// partition functions must agree there.
	qJPL, okJPL := masterQ300(p, "catdir", func() (temps, values []float64, err error) {
		entry, err := jplTable.ResolveTag(28001)
		if err != nil {
			return nil, nil, err
		}
		t, v := jplTable.PartitionSeed(entry)
		return t, v, nil
	})
	qCDMS, okCDMS := masterQ300(p, "partfunc", func() (temps, values []float64, err error) {
		entry, err := cdmsTable.ResolveWeightTag(28, 503)
		if err != nil {
			return nil, nil, err
		}
		t, v := cdmsTable.PartitionSeed(entry)
		return t, v, nil
	})
	if okJPL && okCDMS {
		want := math.Pow(10, 2.0369)
		if !relEq(qJPL, want, 1e-9) {
			p.errorf("catdir Q(300)=%.6f, want %.6f", qJPL, want)
		}
		if !relEq(qCDMS, qJPL, 1e-9) {
			p.errorf("CO Q(300) disagrees across snapshots: catdir %.6f, partfunc %.6f", qJPL, qCDMS)
		}
	}

	return p
}

func checkCatdir(p *phase, t *domain.JPLSpeciesTable) {
	wantGrid := []float64{300, 225, 150, 75, 37.5, 18.75, 9.375}
	if len(t.Temperatures) != len(wantGrid) {
		p.errorf("catdir grid: %d temperatures, want %d", len(t.Temperatures), len(wantGrid))
	} else {
		for i, want := range wantGrid {
			if !floatEq(t.Temperatures[i], want) {
				p.errorf("catdir grid[%d]: %.4f, want %.4f", i, t.Temperatures[i], want)
			}
		}
	}
	if len(t.Entries) != 4 {
		p.errorf("catdir: %d entries, want 4", len(t.Entries))
	}

	entry, err := t.ResolveTag(28001)
	if err != nil {
		p.errorf("catdir: resolve 28001: %v", err)
	} else {
		if entry.Name != "CO" || entry.LineCount != 91 {
			p.errorf("catdir 28001: %q with %d lines, want CO with 91", entry.Name, entry.LineCount)
		}
	}
	if neg, err := t.ResolveTag(-28001); err != nil || neg.Name != "CO" {
		p.errorf("catdir: negative tag -28001 did not resolve to CO")
	}
	if _, err := t.ResolveTag(99999); !errors.Is(err, domain.ErrSpeciesNotFound) {
		p.errorf("catdir: unknown tag error is %v, want ErrSpeciesNotFound", err)
	}
}

func checkPartfunc(p *phase, t *domain.CDMSSpeciesTable) {
	if len(t.Temperatures) != 11 {
		p.errorf("partfunc grid: %d temperatures, want 11", len(t.Temperatures))
	} else {
		if !floatEq(t.Temperatures[0], 1000) || !floatEq(t.Temperatures[10], 2.725) {
			p.errorf("partfunc grid spans %.3f..%.3f, want 1000..2.725", t.Temperatures[0], t.Temperatures[10])
		}
	}
	if len(t.Entries) != 4 {
		p.errorf("partfunc: %d entries, want 4", len(t.Entries))
	}

	entry, err := t.ResolveWeightTag(28, 503)
	if err != nil {
		p.errorf("partfunc: resolve weight 28 tag 503: %v", err)
		return
	}
	if entry.Name != "CO, v=0" || entry.LineCount != 95 {
		p.errorf("partfunc 28503: %q with %d lines, want \"CO, v=0\" with 95", entry.Name, entry.LineCount)
	}
	composite, err := t.ResolveWeightTag(0, 28503)
	if err != nil || composite.Tag != entry.Tag {
		p.errorf("partfunc: composite key 28503 did not resolve to the same entry")
	}

	// HC3N leaves its two coldest cells untabulated; the seed must drop them.
	hc3n, err := t.ResolveWeightTag(51, 501)
	if err != nil {
		p.errorf("partfunc: resolve weight 51 tag 501: %v", err)
		return
	}
	temps, values := t.PartitionSeed(hc3n)
	if len(temps) != 9 || len(values) != 9 {
		p.errorf("partfunc 51501: seed kept %d samples, want 9 (two untabulated cells)", len(temps))
	}
}

func masterQ300(p *phase, label string, seed func() (temps, values []float64, err error)) (float64, bool) {
	temps, values, err := seed()
	if err != nil {
		p.errorf("%s: seed CO partition function: %v", label, err)
		return 0, false
	}
	pf, err := domain.NewPartitionFunction(temps, values)
	if err != nil {
		p.errorf("%s: fit CO partition function: %v", label, err)
		return 0, false
	}
	return pf.Evaluate(300), true
}

// ── Phase 3: Envelope Integrity ──
// Validates the collector envelope fixture: payloads byte-identical to the
// committed .cat files, and option fields shaped the way the pipeline
// expects to receive them.

func validateEnvelopes(envelopes []domain.CatalogRequest, jplRaw, cdmsRaw []byte, jplTable *domain.JPLSpeciesTable) *phase {
	p := &phase{name: "Phase 3: Envelope Integrity (collector)"}

	wantFormats := []string{"jpl", "cdms", "jpl", "cdms", "jpl"}
	for i, want := range wantFormats {
		if envelopes[i].Format != want {
			p.errorf("envelope %d: format %q, want %q", i, envelopes[i].Format, want)
		}
	}

	wantPayloads := []string{string(jplRaw), string(cdmsRaw), string(jplRaw), string(cdmsRaw), ""}
	for i, want := range wantPayloads {
		if envelopes[i].Payload != want {
			p.errorf("envelope %d: payload diverged from the committed .cat fixture", i)
		}
	}

	for _, i := range []int{0, 1, 3, 4} {
		if envelopes[i].Species != "" || envelopes[i].PartitionTemperatures != nil || envelopes[i].PartitionValues != nil {
			p.errorf("envelope %d: unexpected caller-supplied species fields", i)
		}
	}

	bypass := envelopes[2]
	if bypass.Species != "CO" {
		p.errorf("envelope 2: species %q, want CO", bypass.Species)
	}
	if len(bypass.PartitionTemperatures) != 7 || len(bypass.PartitionValues) != 7 {
		p.errorf("envelope 2: partition arrays %d/%d samples, want 7/7",
			len(bypass.PartitionTemperatures), len(bypass.PartitionValues))
	} else {
		// The bypass arrays mirror the catdir grid, increasing, with Q values
		// rounded from the snapshot's lg cells.
		grid := jplTable.Temperatures
		for i, temp := range bypass.PartitionTemperatures {
			if !floatEq(temp, grid[len(grid)-1-i]) {
				p.errorf("envelope 2: temperature[%d]=%.4f does not mirror the catdir grid", i, temp)
			}
		}
		entry, err := jplTable.ResolveTag(28001)
		if err == nil {
			_, values := jplTable.PartitionSeed(entry)
			for i, v := range bypass.PartitionValues {
				if !relEq(v, values[i], 1e-4) {
					p.errorf("envelope 2: Q[%d]=%.4f drifted from catdir value %.4f", i, v, values[i])
				}
			}
		}
	}

	if !envelopes[3].DropFrequencyError {
		p.errorf("envelope 3: drop_frequency_error not set")
	}
	if envelopes[4].MinFrequencyMHz != 100000 || envelopes[4].MaxFrequencyMHz != 110000 {
		p.errorf("envelope 4: window %.0f-%.0f MHz, want 100000-110000",
			envelopes[4].MinFrequencyMHz, envelopes[4].MaxFrequencyMHz)
	}

	return p
}

// ── Phase 4: Normalization ──
// Re-runs every envelope through the normalizer and validates the canonical
// output: unit conversions recomputed from the parsed rows, literature
// anchors, cross-format agreement, and replay determinism.

func validateNormalization(envelopes []domain.CatalogRequest, jplTable *domain.JPLSpeciesTable, cdmsTable *domain.CDMSSpeciesTable,
	jplRecords []domain.JPLRecord, cdmsRecords []domain.CDMSRecord) (*phase, []*domain.LineList) {
	p := &phase{name: "Phase 4: Normalization (canonical units)"}
	normalizer := domain.NewNormalizer(jplTable, cdmsTable)

	lists := make([]*domain.LineList, len(envelopes))
	for i, req := range envelopes {
		list, err := normalizer.NormalizeRequest(req)
		if err != nil {
			p.errorf("envelope %d: normalize: %v", i, err)
			continue
		}
		lists[i] = list
	}
	for _, l := range lists {
		if l == nil {
			return p, lists
		}
	}

	for i, l := range lists {
		if !l.NormalizedAt.Equal(fixedNow) {
			p.errorf("list %d: NormalizedAt %s, want the fixed clock %s", i, l.NormalizedAt, fixedNow)
		}
	}

	checkResolvedJPL(p, lists[0], jplRecords, jplTable)
	checkResolvedCDMS(p, lists[1], cdmsRecords)
	checkCallerSpecies(p, lists[2], lists[0], envelopes[2])
	checkDroppedUncertainty(p, lists[3], lists[1])
	checkEmptyWindow(p, lists[4])
	checkCrossFormat(p, lists[0], lists[1])

	// Replay determinism: the same envelope yields the same list ID.
	replay, err := normalizer.NormalizeRequest(envelopes[0])
	if err != nil {
		p.errorf("replay envelope 0: %v", err)
	} else if replay.ID != lists[0].ID {
		p.errorf("replay changed the list ID: %s vs %s", replay.ID, lists[0].ID)
	}

	return p, lists
}

func checkResolvedJPL(p *phase, list *domain.LineList, records []domain.JPLRecord, table *domain.JPLSpeciesTable) {
	if list.Format != domain.FormatJPL {
		p.errorf("jpl list: format %q", list.Format)
	}
	if !strings.HasPrefix(list.ID, "jpl-") {
		p.errorf("jpl list: ID %q missing format prefix", list.ID)
	}
	if list.Species.Tag != 28001 || list.Species.Name != "CO" {
		p.errorf("jpl list: resolved species %q (tag %d), want CO (28001)", list.Species.Name, list.Species.Tag)
	}
	if list.Species.LineCount == nil || *list.Species.LineCount != 91 {
		p.errorf("jpl list: line_count not carried from the master table")
	}
	if list.Species.MolecularWeight != nil {
		p.errorf("jpl list: molecular_weight set on a jpl species")
	}
	if len(list.Lines) != len(records) {
		p.errorf("jpl list: %d lines for %d records", len(list.Lines), len(records))
		return
	}
	if list.Partition == nil {
		p.errorf("jpl list: partition function missing")
		return
	}

	// Recompute the conversion from the parsed rows with the same seed the
	// normalizer used.
	entry, err := table.ResolveTag(records[0].Tag)
	if err != nil {
		p.errorf("jpl list: re-resolve tag: %v", err)
		return
	}
	temps, values := table.PartitionSeed(entry)
	pf, err := domain.NewPartitionFunction(temps, values)
	if err != nil {
		p.errorf("jpl list: re-fit partition function: %v", err)
		return
	}
	q300 := pf.Evaluate(300)

	for i, rec := range records {
		line := list.Lines[i]
		if line.Species != "CO" {
			p.errorf("jpl line %d: species %q", i, line.Species)
		}
		if !floatEq(line.FrequencyGHz, rec.FrequencyMHz*1e-3) {
			p.errorf("jpl line %d: frequency %.6f GHz, want %.6f", i, line.FrequencyGHz, rec.FrequencyMHz*1e-3)
		}
		if !errGHzEq(line.FrequencyErrGHz, rec.FrequencyErrMHz) {
			p.errorf("jpl line %d: uncertainty not scaled from the MHz cell", i)
		}
		wantA := domain.LogIntensityToEinsteinA(rec.LogIntensity, rec.FrequencyMHz, rec.UpperStateDegeneracy, rec.LowerStateEnergy, q300)
		if !relEq(line.EinsteinA, wantA, 1e-12) {
			p.errorf("jpl line %d: A_ul %.6e, recomputed %.6e", i, line.EinsteinA, wantA)
		}
		wantE := expectedUpperK(rec.LowerStateEnergy, rec.FrequencyMHz)
		if !relEq(line.UpperStateEnergyK, wantE, 1e-9) {
			p.errorf("jpl line %d: E_up %.6f K, recomputed %.6f", i, line.UpperStateEnergyK, wantE)
		}
		if line.UpperStateDegeneracy != rec.UpperStateDegeneracy {
			p.errorf("jpl line %d: g_up %d, want %d", i, line.UpperStateDegeneracy, rec.UpperStateDegeneracy)
		}
	}

	// Literature anchors for the CO rotational ladder.
	if !relEq(list.Lines[0].EinsteinA, 7.2035e-8, 1e-3) {
		p.errorf("jpl A_ul(1-0)=%.6e drifted from the literature 7.2035e-8", list.Lines[0].EinsteinA)
	}
	wantEUp := []float64{5.5321, 16.5962, 33.1919}
	for i, want := range wantEUp {
		if !within(list.Lines[i].UpperStateEnergyK, want, 0.01) {
			p.errorf("jpl E_up[%d]=%.4f K drifted from %.4f", i, list.Lines[i].UpperStateEnergyK, want)
		}
	}
}

func checkResolvedCDMS(p *phase, list *domain.LineList, records []domain.CDMSRecord) {
	if list.Format != domain.FormatCDMS {
		p.errorf("cdms list: format %q", list.Format)
	}
	if list.Species.Tag != 28503 || list.Species.Name != "CO, v=0" {
		p.errorf("cdms list: resolved species %q (tag %d), want \"CO, v=0\" (28503)", list.Species.Name, list.Species.Tag)
	}
	if list.Species.MolecularWeight == nil || *list.Species.MolecularWeight != 28 {
		p.errorf("cdms list: molecular_weight not carried from the payload")
	}
	if list.Species.LineCount == nil || *list.Species.LineCount != 95 {
		p.errorf("cdms list: line_count not carried from the master table")
	}
	if len(list.Lines) != len(records) {
		p.errorf("cdms list: %d lines for %d records", len(list.Lines), len(records))
		return
	}

	for i, rec := range records {
		line := list.Lines[i]
		if line.Species != "CO, v=0" {
			p.errorf("cdms line %d: species %q", i, line.Species)
		}
		if !floatEq(line.FrequencyGHz, rec.FrequencyMHz*1e-3) {
			p.errorf("cdms line %d: frequency %.6f GHz, want %.6f", i, line.FrequencyGHz, rec.FrequencyMHz*1e-3)
		}
		if !errGHzEq(line.FrequencyErrGHz, rec.FrequencyErrMHz) {
			p.errorf("cdms line %d: uncertainty not scaled from the MHz cell", i)
		}
		wantA := math.Pow(10, rec.LogEinsteinA)
		if !relEq(line.EinsteinA, wantA, 1e-12) {
			p.errorf("cdms line %d: A_ul %.6e, want 10^lgaij %.6e", i, line.EinsteinA, wantA)
		}
		wantE := expectedUpperK(rec.LowerStateEnergy, rec.FrequencyMHz)
		if !relEq(line.UpperStateEnergyK, wantE, 1e-9) {
			p.errorf("cdms line %d: E_up %.6f K, recomputed %.6f", i, line.UpperStateEnergyK, wantE)
		}
	}

	if list.Lines[2].FrequencyErrGHz != nil {
		p.errorf("cdms line 2: masked uncertainty resurfaced as %v", *list.Lines[2].FrequencyErrGHz)
	}
	if list.Lines[0].FrequencyErrGHz == nil || !relEq(*list.Lines[0].FrequencyErrGHz, 1e-7, 1e-9) {
		p.errorf("cdms line 0: uncertainty not 0.0001 MHz in GHz")
	}
}

// checkCallerSpecies validates the master-table bypass: identity taken from
// the envelope, partition function fitted from the envelope arrays, physics
// agreeing with the table-resolved list to within the rounding of those
// arrays.
func checkCallerSpecies(p *phase, list, resolved *domain.LineList, req domain.CatalogRequest) {
	if list.Species.Name != req.Species {
		p.errorf("bypass list: species %q, want %q", list.Species.Name, req.Species)
	}
	if list.Species.Tag != 0 {
		p.errorf("bypass list: tag %d set without a master-table lookup", list.Species.Tag)
	}
	if list.Species.LineCount != nil {
		p.errorf("bypass list: line_count set without a master-table lookup")
	}
	if list.Partition == nil {
		p.errorf("bypass list: partition function missing")
		return
	}

	temps, values := list.Partition.Samples()
	if len(temps) != len(req.PartitionTemperatures) {
		p.errorf("bypass list: partition kept %d samples, want %d", len(temps), len(req.PartitionTemperatures))
	} else {
		for i := range temps {
			if !floatEq(temps[i], req.PartitionTemperatures[i]) || !floatEq(values[i], req.PartitionValues[i]) {
				p.errorf("bypass list: partition sample %d diverged from the envelope arrays", i)
			}
		}
	}

	if len(list.Lines) != len(resolved.Lines) {
		p.errorf("bypass list: %d lines, resolved list has %d", len(list.Lines), len(resolved.Lines))
		return
	}
	for i := range list.Lines {
		if !floatEq(list.Lines[i].FrequencyGHz, resolved.Lines[i].FrequencyGHz) {
			p.errorf("bypass line %d: frequency diverged from the resolved list", i)
		}
		if !relEq(list.Lines[i].EinsteinA, resolved.Lines[i].EinsteinA, 1e-5) {
			p.errorf("bypass line %d: A_ul %.6e vs resolved %.6e, beyond array rounding", i,
				list.Lines[i].EinsteinA, resolved.Lines[i].EinsteinA)
		}
	}
}

func checkDroppedUncertainty(p *phase, list, plain *domain.LineList) {
	for i, line := range list.Lines {
		if line.FrequencyErrGHz != nil {
			p.errorf("dropped list line %d: uncertainty survived the drop flag", i)
		}
	}
	if list.ID != plain.ID {
		p.errorf("dropped list: ID %s differs from the plain list %s; the ID must ignore the uncertainty column", list.ID, plain.ID)
	}
	if list.Species.Tag != plain.Species.Tag || list.Species.Name != plain.Species.Name {
		p.errorf("dropped list: species identity diverged from the plain list")
	}
	if len(list.Lines) != len(plain.Lines) {
		p.errorf("dropped list: %d lines, plain list has %d", len(list.Lines), len(plain.Lines))
		return
	}
	for i := range list.Lines {
		if !relEq(list.Lines[i].EinsteinA, plain.Lines[i].EinsteinA, 1e-12) ||
			!floatEq(list.Lines[i].FrequencyGHz, plain.Lines[i].FrequencyGHz) {
			p.errorf("dropped list line %d: values diverged from the plain list", i)
		}
	}
}

func checkEmptyWindow(p *phase, list *domain.LineList) {
	if list.Format != domain.FormatJPL {
		p.errorf("empty list: format %q", list.Format)
	}
	if len(list.Lines) != 0 {
		p.errorf("empty list: %d lines from an empty payload", len(list.Lines))
	}
	if list.Partition != nil {
		p.errorf("empty list: partition function fitted with no rows")
	}
	if list.Species.Name != "" || list.Species.Tag != 0 {
		p.errorf("empty list: species resolved with no rows")
	}
	if !strings.HasPrefix(list.ID, "jpl-") {
		p.errorf("empty list: ID %q missing format prefix", list.ID)
	}
}

// checkCrossFormat validates that both conventions describe the same ladder:
// the JPL intensities, pushed through the partition function, land on the
// CDMS Einstein coefficients to within the catalogs' own rounding.
func checkCrossFormat(p *phase, jplList, cdmsList *domain.LineList) {
	if len(jplList.Lines) != len(cdmsList.Lines) {
		p.errorf("cross-format: %d jpl lines vs %d cdms lines", len(jplList.Lines), len(cdmsList.Lines))
		return
	}
	for i := range jplList.Lines {
		j, c := jplList.Lines[i], cdmsList.Lines[i]
		if !floatEq(j.FrequencyGHz, c.FrequencyGHz) {
			p.errorf("cross-format line %d: frequencies diverge", i)
		}
		if !relEq(j.EinsteinA, c.EinsteinA, 5e-4) {
			p.errorf("cross-format line %d: A_ul %.6e (jpl) vs %.6e (cdms)", i, j.EinsteinA, c.EinsteinA)
		}
		if !relEq(j.UpperStateEnergyK, c.UpperStateEnergyK, 1e-9) {
			p.errorf("cross-format line %d: E_up %.6f vs %.6f", i, j.UpperStateEnergyK, c.UpperStateEnergyK)
		}
		if j.UpperStateDegeneracy != c.UpperStateDegeneracy {
			p.errorf("cross-format line %d: g_up %d vs %d", i, j.UpperStateDegeneracy, c.UpperStateDegeneracy)
		}
	}
}

// ── Phase 5: Normalized Fixture ──
// Validates a committed normalized line list fixture (written by genmock
// -normalized-out into a sibling repo) against freshly recomputed lists.

func validateNormalizedFixture(path string, computed []*domain.LineList) *phase {
	p := &phase{name: "Phase 5: Normalized Fixture (JSON)"}

	for _, l := range computed {
		if l == nil {
			p.errorf("skipped: normalization failed upstream")
			return p
		}
	}

	committed, err := loadJSON[domain.LineList](path)
	if err != nil {
		p.errorf("load: %v", err)
		return p
	}
	if len(committed) != len(computed) {
		p.errorf("%d committed lists, recomputed %d", len(committed), len(computed))
		return p
	}

	for i := range committed {
		got, want := committed[i], computed[i]
		if got.ID != want.ID {
			p.errorf("list %d: ID %s, recomputed %s", i, got.ID, want.ID)
		}
		if got.Format != want.Format {
			p.errorf("list %d: format %q, recomputed %q", i, got.Format, want.Format)
		}
		if got.Species.Name != want.Species.Name || got.Species.Tag != want.Species.Tag {
			p.errorf("list %d: species %q (tag %d), recomputed %q (tag %d)", i,
				got.Species.Name, got.Species.Tag, want.Species.Name, want.Species.Tag)
		}
		if !got.NormalizedAt.Equal(want.NormalizedAt) {
			p.errorf("list %d: normalized_at %s, recomputed %s", i, got.NormalizedAt, want.NormalizedAt)
		}
		if (got.Partition == nil) != (want.Partition == nil) {
			p.errorf("list %d: partition function presence diverged", i)
		}
		if len(got.Lines) != len(want.Lines) {
			p.errorf("list %d: %d lines, recomputed %d", i, len(got.Lines), len(want.Lines))
			continue
		}
		for k := range got.Lines {
			g, w := got.Lines[k], want.Lines[k]
			if !floatEq(g.FrequencyGHz, w.FrequencyGHz) ||
				!relEq(g.EinsteinA, w.EinsteinA, 1e-12) ||
				!relEq(g.UpperStateEnergyK, w.UpperStateEnergyK, 1e-12) {
				p.errorf("list %d line %d: values diverged from recomputation", i, k)
			}
			if (g.FrequencyErrGHz == nil) != (w.FrequencyErrGHz == nil) {
				p.errorf("list %d line %d: uncertainty presence diverged", i, k)
			}
		}
	}

	return p
}

// ── Helpers ──

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// relEq compares with a relative tolerance, for quantities whose magnitude
// makes an absolute epsilon meaningless.
func relEq(a, b, tol float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= tol*math.Max(math.Abs(a), math.Abs(b))
}

func within(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// errGHzEq checks a normalized GHz uncertainty against its MHz source cell.
func errGHzEq(gotGHz, wantMHz *float64) bool {
	if wantMHz == nil {
		return gotGHz == nil
	}
	return gotGHz != nil && floatEq(*gotGHz, *wantMHz*1e-3)
}

// expectedUpperK recomputes E_up by folding the transition frequency into
// the lower-state wavenumber before the single unit conversion.
func expectedUpperK(eloWavenumber, freqMHz float64) float64 {
	return domain.WavenumberToKelvin(eloWavenumber + freqMHz*1e6/lightSpeedCmS)
}
