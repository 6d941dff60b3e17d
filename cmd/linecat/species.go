package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/specline-etl/internal/adapter/cdms"
	"github.com/couchcryptid/specline-etl/internal/adapter/jpl"
	"github.com/couchcryptid/specline-etl/internal/domain"
)

var (
	speciesFormat string
	speciesTable  string
	speciesTag    int
	speciesWeight int
)

// checkpointTemps are the temperatures the species command evaluates on
// top of the tabulated grid to show the fitted interpolant.
var checkpointTemps = []float64{50, 100, 200, 500}

func getSpeciesCmd() *cobra.Command {
	speciesCmd := &cobra.Command{
		Use:   "species",
		Short: "Resolve a species tag and print its partition function",
		Long: `Species resolves a catalog tag against a master-table snapshot and
prints the entry's identity followed by its partition function: first
the tabulated grid, then interpolated checkpoints.

JPL tags resolve by absolute value. CDMS entries are keyed by
molweight*1000 + tag, so pass either the composite key directly
(--tag 28503) or the parts separately (--weight 28 --tag 503).

Examples:
  linecat species --format jpl --species-table catdir.cat --tag 28001
  linecat species --format cdms --species-table partfunc.html --tag 28503
  linecat species --format cdms --species-table partfunc.html --weight 28 --tag 503`,
		RunE: runSpecies,
	}

	speciesCmd.Flags().StringVar(&speciesFormat, "format", "", "catalog format: jpl or cdms")
	speciesCmd.Flags().StringVar(&speciesTable, "species-table", "", "master table snapshot: catdir.cat or a partition function listing")
	speciesCmd.Flags().IntVar(&speciesTag, "tag", 0, "species tag to resolve")
	speciesCmd.Flags().IntVar(&speciesWeight, "weight", 0, "molecular weight for cdms lookups, omit when --tag is the composite key")
	_ = speciesCmd.MarkFlagRequired("format")
	_ = speciesCmd.MarkFlagRequired("species-table")
	_ = speciesCmd.MarkFlagRequired("tag")

	return speciesCmd
}

func runSpecies(cmd *cobra.Command, args []string) error {
	format, err := domain.ParseFormat(speciesFormat)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(speciesTable)
	if err != nil {
		return fmt.Errorf("read species table: %w", err)
	}

	var (
		name          string
		tag           int
		lineCount     int
		temps, values []float64
	)

	switch format {
	case domain.FormatJPL:
		table, err := jpl.ParseCatdir(data)
		if err != nil {
			return err
		}
		entry, err := table.ResolveTag(speciesTag)
		if err != nil {
			return err
		}
		name, tag, lineCount = entry.Name, entry.Tag, entry.LineCount
		temps, values = table.PartitionSeed(entry)
	case domain.FormatCDMS:
		table, err := cdms.ParsePartitionFunctions(data)
		if err != nil {
			return err
		}
		entry, err := table.ResolveWeightTag(speciesWeight, speciesTag)
		if err != nil {
			return err
		}
		name, tag, lineCount = entry.Name, entry.Tag, entry.LineCount
		temps, values = table.PartitionSeed(entry)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}

	pf, err := domain.NewPartitionFunction(temps, values)
	if err != nil {
		return fmt.Errorf("tag %d: %w", tag, err)
	}

	fmt.Printf("%s  (tag %d, %d catalogued lines)\n\n", name, tag, lineCount)

	fmt.Printf("%10s  %12s\n", "T [K]", "Q(T)")
	sampleTemps, sampleValues := pf.Samples()
	for i, t := range sampleTemps {
		fmt.Printf("%10.3f  %12.4f\n", t, sampleValues[i])
	}

	minT, maxT := pf.Domain()
	fmt.Println()
	fmt.Println("interpolated:")
	for _, t := range checkpointTemps {
		note := ""
		if t < minT || t > maxT {
			note = "  (extrapolated)"
		}
		fmt.Printf("%10.3f  %12.4f%s\n", t, pf.Evaluate(t), note)
	}

	return nil
}
