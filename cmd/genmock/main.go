// Command genmock generates the committed catalog fixtures under data/mock:
// raw fixed-width payloads for both legacy formats, master-table snapshots,
// and the request envelopes the collector would publish. It renders payloads
// through the same column layouts the domain schemas describe and, when asked,
// normalizes them with the actual domain package so downstream fixtures track
// real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out-dir data/mock \
//	  -normalized-out ../spectral-line-api/data/mock/line_lists.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/specline-etl/internal/adapter/cdms"
	"github.com/couchcryptid/specline-etl/internal/adapter/jpl"
	"github.com/couchcryptid/specline-etl/internal/domain"
	"github.com/jonboulle/clockwork"
)

// fixedNow keeps NormalizedAt reproducible across regenerations.
var fixedNow = time.Date(2026, time.March, 1, 6, 0, 0, 0, time.UTC)

// The fixture molecule is CO: few lines, tabulated in both catalogs, and its
// rotational ladder is easy to sanity-check by eye.
var jplRecords = []domain.JPLRecord{
	{FrequencyMHz: 115271.2018, FrequencyErrMHz: ptr(0.0005), LogIntensity: -5.0105, DegreesOfFreedom: 2, LowerStateEnergy: 0.0000, UpperStateDegeneracy: 3, Tag: -28001, QuantumFormat: 101, UpperQuanta: " 1", LowerQuanta: " 0"},
	{FrequencyMHz: 230538.0000, FrequencyErrMHz: ptr(0.0005), LogIntensity: -4.1197, DegreesOfFreedom: 2, LowerStateEnergy: 3.8450, UpperStateDegeneracy: 5, Tag: -28001, QuantumFormat: 101, UpperQuanta: " 2", LowerQuanta: " 1"},
	{FrequencyMHz: 345795.9899, FrequencyErrMHz: ptr(0.0050), LogIntensity: -3.6118, DegreesOfFreedom: 2, LowerStateEnergy: 11.5350, UpperStateDegeneracy: 7, Tag: 28001, QuantumFormat: 101, UpperQuanta: " 3", LowerQuanta: " 2"},
}

// The third row masks its uncertainty cell to keep the optional-column path
// exercised by every suite that consumes the fixture.
var cdmsRecords = []domain.CDMSRecord{
	{FrequencyMHz: 115271.2018, FrequencyErrMHz: ptr(0.0001), LogEinsteinA: -7.1425, DegreesOfFreedom: 2, LowerStateEnergy: 0.0000, UpperStateDegeneracy: 3, MolecularWeight: 28, Tag: 503, QuantumFormat: 101, UpperQuanta: domain.CDMSQuanta{J: "1"}, LowerQuanta: domain.CDMSQuanta{J: "0"}, Name: "CO, v=0"},
	{FrequencyMHz: 230538.0000, FrequencyErrMHz: ptr(0.0001), LogEinsteinA: -6.1605, DegreesOfFreedom: 2, LowerStateEnergy: 3.8450, UpperStateDegeneracy: 5, MolecularWeight: 28, Tag: 503, QuantumFormat: 101, UpperQuanta: domain.CDMSQuanta{J: "2"}, LowerQuanta: domain.CDMSQuanta{J: "1"}, Name: "CO, v=0"},
	{FrequencyMHz: 345795.9899, FrequencyErrMHz: nil, LogEinsteinA: -5.6026, DegreesOfFreedom: 2, LowerStateEnergy: 11.5350, UpperStateDegeneracy: 7, MolecularWeight: 28, Tag: 503, QuantumFormat: 101, UpperQuanta: domain.CDMSQuanta{J: "3"}, LowerQuanta: domain.CDMSQuanta{J: "2"}, Name: "CO, v=0"},
}

type catdirEntry struct {
	tag     int
	name    string
	lines   int
	logQ    [7]float64
	version int
}

var catdirEntries = []catdirEntry{
	{28001, "CO", 91, [7]float64{2.0369, 1.9123, 1.7370, 1.4386, 1.1429, 0.8526, 0.5733}, 4},
	{18003, "H2O", 505, [7]float64{2.2507, 2.1111, 1.9175, 1.5984, 1.2801, 0.9882, 0.7166}, 5},
	{27001, "HCN", 361, [7]float64{1.9398, 1.8152, 1.6413, 1.3479, 1.0563, 0.7678, 0.4833}, 4},
	{32003, "CH3OH", 19887, [7]float64{3.5837, 3.3879, 3.1219, 2.6348, 2.2261, 1.8741, 1.5452}, 4},
}

const partfuncHeader = " tag    molecule                      #lines lg(Q(1000.)) lg(Q(500.)) lg(Q(300.)) lg(Q(225.)) lg(Q(150.)) lg(Q(75.)) lg(Q(37.5)) lg(Q(18.75)) lg(Q(9.375)) lg(Q(5.000)) lg(Q(2.725))"

type partfuncEntry struct {
	tag   int
	name  string
	lines int
	logQ  []string // pre-rendered cells; "---" marks untabulated
}

var partfuncEntries = []partfuncEntry{
	{28503, "CO, v=0", 95, []string{"2.5595", "2.2584", "2.0369", "1.9123", "1.7370", "1.4386", "1.1429", "0.8526", "0.5733", "0.3389", "0.1478"}},
	{29507, "HCO+, v=0", 37, []string{"2.6839", "2.2931", "2.0717", "1.9459", "1.7679", "1.4641", "1.1636", "0.8689", "0.5890", "0.3576", "0.1681"}},
	{41505, "CH3CN, v=0", 600, []string{"4.9724", "4.0894", "3.6132", "3.3396", "2.9578", "2.3834", "1.9516", "1.5744", "1.2206", "0.9331", "0.7345"}},
	{51501, "HC3N, v=0", 220, []string{"3.9167", "3.3937", "3.1846", "3.0612", "2.8577", "2.5563", "2.2531", "1.9472", "1.6332", "---", "---"}},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "", "directory for the committed catalog fixtures")
	normalizedOut := flag.String("normalized-out", "", "optional output path for normalized line list JSON")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out-dir")
	}

	jplPayload := buildJPLPayload()
	cdmsPayload := buildCDMSPayload()
	catdir := buildCatdir()
	partfunc := buildPartfunc()

	files := []struct {
		name    string
		content string
	}{
		{"jpl_co.cat", jplPayload},
		{"cdms_co.cat", cdmsPayload},
		{"jpl_catdir.cat", catdir},
		{"cdms_partfunc.cat", partfunc},
	}
	for _, f := range files {
		path := filepath.Join(*outDir, f.name)
		if err := writeFile(path, []byte(f.content)); err != nil {
			return fmt.Errorf("writing %s: %w", f.name, err)
		}
		log.Printf("wrote %s (%d bytes)", path, len(f.content))
	}

	requests := buildRequests(jplPayload, cdmsPayload)
	requestsPath := filepath.Join(*outDir, "catalog_requests.json")
	if err := writeJSON(requestsPath, requests); err != nil {
		return fmt.Errorf("writing envelope fixture: %w", err)
	}
	log.Printf("wrote %s (%d envelopes)", requestsPath, len(requests))

	lists, err := normalizeRequests(requests, catdir, partfunc)
	if err != nil {
		return err
	}
	if *normalizedOut != "" {
		if err := writeJSON(*normalizedOut, lists); err != nil {
			return fmt.Errorf("writing normalized fixture: %w", err)
		}
		log.Printf("wrote %s (%d line lists)", *normalizedOut, len(lists))
	}

	printStats(lists)
	return nil
}

// buildJPLPayload renders the JPL records in the classic catalog layout.
// Column arithmetic must stay in lockstep with domain.DefaultJPLSchema.
func buildJPLPayload() string {
	var b strings.Builder
	for _, r := range jplRecords {
		fmt.Fprintf(&b, "%13s%8s%8s%2s%10s%3s%7s%4s%-12s%s\n",
			cell(r.FrequencyMHz), errCell(r.FrequencyErrMHz), cell(r.LogIntensity),
			strconv.Itoa(r.DegreesOfFreedom), cell(r.LowerStateEnergy),
			strconv.Itoa(r.UpperStateDegeneracy), strconv.Itoa(r.Tag),
			strconv.Itoa(r.QuantumFormat), r.UpperQuanta, r.LowerQuanta)
	}
	return b.String()
}

// buildCDMSPayload renders the CDMS records; only the J quantum cells are
// populated, matching a diatomic entry. Layout follows domain.DefaultCDMSSchema.
func buildCDMSPayload() string {
	var b strings.Builder
	for _, r := range cdmsRecords {
		fmt.Fprintf(&b, "%14s%11s%11s%2s%9s%4s%3s%3s%4s%2s%10s%2s%14s%s\n",
			cell(r.FrequencyMHz), errCell(r.FrequencyErrMHz), cell(r.LogEinsteinA),
			strconv.Itoa(r.DegreesOfFreedom), cell(r.LowerStateEnergy),
			strconv.Itoa(r.UpperStateDegeneracy), strconv.Itoa(r.MolecularWeight),
			strconv.Itoa(r.Tag), strconv.Itoa(r.QuantumFormat),
			r.UpperQuanta.J, "", r.LowerQuanta.J, "", r.Name)
	}
	return b.String()
}

func buildCatdir() string {
	var b strings.Builder
	for _, e := range catdirEntries {
		fmt.Fprintf(&b, "%6d %-13s%6d%10.4f%8.4f%8.4f%8.4f%8.4f%8.4f%8.4f%4d\n",
			e.tag, e.name, e.lines,
			e.logQ[0], e.logQ[1], e.logQ[2], e.logQ[3], e.logQ[4], e.logQ[5], e.logQ[6],
			e.version)
	}
	return b.String()
}

// buildPartfunc wraps the listing in the markup the classic CDMS page serves;
// the parser must see the fixture the way the live service presents it.
func buildPartfunc() string {
	var b strings.Builder
	b.WriteString("<html>\n<head><title>Partition functions</title></head>\n<body>\n<pre>\n")
	b.WriteString(partfuncHeader + "\n")
	for _, e := range partfuncEntries {
		fmt.Fprintf(&b, "%6d %-30s%7d", e.tag, e.name, e.lines)
		for _, q := range e.logQ {
			b.WriteString(fmt.Sprintf("%12s", q))
		}
		b.WriteString("\n")
	}
	b.WriteString("</pre>\n</body>\n</html>\n")
	return b.String()
}

// buildRequests assembles the envelope fixture: plain payloads for both
// formats, a caller-supplied species bypass, a dropped-uncertainty variant,
// and an empty query window.
func buildRequests(jplPayload, cdmsPayload string) []domain.CatalogRequest {
	return []domain.CatalogRequest{
		{Format: "jpl", Payload: jplPayload},
		{Format: "cdms", Payload: cdmsPayload},
		{
			Format:                "jpl",
			Payload:               jplPayload,
			Species:               "CO",
			PartitionTemperatures: []float64{9.375, 18.75, 37.5, 75, 150, 225, 300},
			PartitionValues:       []float64{3.7437, 7.122, 13.8963, 27.4536, 54.5758, 81.7147, 108.8679},
		},
		{Format: "cdms", Payload: cdmsPayload, DropFrequencyError: true},
		{Format: "jpl", Payload: "", MinFrequencyMHz: 100000, MaxFrequencyMHz: 110000},
	}
}

// normalizeRequests runs every envelope through the real normalizer under a
// fixed clock, both to produce the downstream fixture and to fail generation
// outright when a fixture stops normalizing.
func normalizeRequests(requests []domain.CatalogRequest, catdir, partfunc string) ([]*domain.LineList, error) {
	jplTable, err := jpl.ParseCatdir([]byte(catdir))
	if err != nil {
		return nil, fmt.Errorf("parse catdir fixture: %w", err)
	}
	cdmsTable, err := cdms.ParsePartitionFunctions([]byte(partfunc))
	if err != nil {
		return nil, fmt.Errorf("parse partition fixture: %w", err)
	}

	domain.SetClock(clockwork.NewFakeClockAt(fixedNow))
	defer domain.SetClock(nil)

	normalizer := domain.NewNormalizer(jplTable, cdmsTable)
	lists := make([]*domain.LineList, 0, len(requests))
	for i, req := range requests {
		list, err := normalizer.NormalizeRequest(req)
		if err != nil {
			return nil, fmt.Errorf("normalize envelope %d: %w", i, err)
		}
		lists = append(lists, list)
	}
	return lists, nil
}

func ptr(v float64) *float64 { return &v }

func cell(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func errCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return writeFile(path, data)
}

func printStats(lists []*domain.LineList) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	for _, l := range lists {
		if len(l.Lines) == 0 {
			fmt.Printf("%-6s %-10s empty list (id=%s)\n", l.Format, l.Species.Name, l.ID)
			continue
		}
		first, last := l.Lines[0], l.Lines[len(l.Lines)-1]
		fmt.Printf("%-6s %-10s %d lines  %.6f-%.6f GHz  A_ul[0]=%.4e  E_up[last]=%.4f K  (id=%s)\n",
			l.Format, l.Species.Name, len(l.Lines),
			first.FrequencyGHz, last.FrequencyGHz, first.EinsteinA, last.UpperStateEnergyK, l.ID)
	}
}
