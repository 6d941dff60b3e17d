package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/specline-etl/internal/adapter/cdms"
	"github.com/couchcryptid/specline-etl/internal/adapter/jpl"
	"github.com/couchcryptid/specline-etl/internal/domain"
)

var (
	convertFormat  string
	convertIn      string
	convertTable   string
	convertOut     string
	convertSpecies string
	convertQTFile  string
	convertDropErr bool
)

func getConvertCmd() *cobra.Command {
	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "Normalize a local catalog file to line list JSON",
		Long: `Convert parses a fixed-width catalog export and writes the normalized
line list as JSON.

Species identity comes from a master-table snapshot (--species-table) or
from an explicit name with its partition function (--species and
--qt-file). The qt file holds {"temperatures_k": [...], "values": [...]}.

Examples:
  linecat convert --format jpl --in co.cat --species-table catdir.cat
  linecat convert --format cdms --in co.cat --species-table partfunc.html --out lines.json
  linecat convert --format jpl --in co.cat --species CO --qt-file qt.json --drop-freq-err`,
		RunE: runConvert,
	}

	convertCmd.Flags().StringVar(&convertFormat, "format", "", "catalog format: jpl or cdms")
	convertCmd.Flags().StringVar(&convertIn, "in", "", "input catalog file")
	convertCmd.Flags().StringVar(&convertTable, "species-table", "", "master table snapshot: catdir.cat or a partition function listing")
	convertCmd.Flags().StringVar(&convertOut, "out", "", "output file, stdout when empty")
	convertCmd.Flags().StringVar(&convertSpecies, "species", "", "explicit species name, bypasses the master table")
	convertCmd.Flags().StringVar(&convertQTFile, "qt-file", "", "partition function samples JSON, required with --species")
	convertCmd.Flags().BoolVar(&convertDropErr, "drop-freq-err", false, "drop the frequency uncertainty column")
	_ = convertCmd.MarkFlagRequired("format")
	_ = convertCmd.MarkFlagRequired("in")

	return convertCmd
}

func runConvert(cmd *cobra.Command, args []string) error {
	format, err := domain.ParseFormat(convertFormat)
	if err != nil {
		return err
	}

	payload, err := os.ReadFile(convertIn)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	normalizer, err := buildNormalizer(format, convertTable)
	if err != nil {
		return err
	}

	var opts []domain.NormalizeOption
	if convertSpecies != "" {
		if convertQTFile == "" {
			return errors.New("--qt-file is required with --species")
		}
		pf, err := readPartitionFile(convertQTFile)
		if err != nil {
			return err
		}
		opts = append(opts, domain.WithSpecies(convertSpecies), domain.WithPartitionFunction(pf))
	}
	if convertDropErr {
		opts = append(opts, domain.WithoutFrequencyError())
	}

	list, err := normalizer.NormalizeCatalog(format, payload, opts...)
	if err != nil {
		return err
	}

	logger.Info("catalog normalized",
		"format", format,
		"species", list.Species.Name,
		"lines", len(list.Lines))

	return writeLineList(convertOut, list)
}

// buildNormalizer wires a normalizer that knows only the format being
// converted. Without a table snapshot the caller must supply the species
// identity through --species and --qt-file.
func buildNormalizer(format domain.Format, tablePath string) (*domain.Normalizer, error) {
	if tablePath == "" {
		return domain.NewNormalizer(nil, nil), nil
	}

	data, err := os.ReadFile(tablePath)
	if err != nil {
		return nil, fmt.Errorf("read species table: %w", err)
	}

	switch format {
	case domain.FormatJPL:
		table, err := jpl.ParseCatdir(data)
		if err != nil {
			return nil, err
		}
		return domain.NewNormalizer(table, nil), nil
	case domain.FormatCDMS:
		table, err := cdms.ParsePartitionFunctions(data)
		if err != nil {
			return nil, err
		}
		return domain.NewNormalizer(nil, table), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
}

func readPartitionFile(path string) (*domain.PartitionFunction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read qt file: %w", err)
	}

	var pf domain.PartitionFunction
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse qt file: %w", err)
	}
	return &pf, nil
}

func writeLineList(path string, list *domain.LineList) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode line list: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write line list: %w", err)
	}
	return nil
}
