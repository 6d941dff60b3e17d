package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/specline-etl/internal/observability"
)

var (
	logLevel  string
	logFormat string

	logger *slog.Logger
)

func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "linecat",
		Short: "Work with molecular spectral line catalogs from the command line",
		Long: `linecat handles the two legacy fixed-width catalog conventions, JPL
(base-10 log intensity at 300 K) and CDMS (base-10 log Einstein A),
outside the streaming service.

  convert  normalize a local catalog file to line list JSON
  species  resolve a species tag and print its partition function
  fetch    query a live catalog service, normalize, print JSON

All output quantities are in canonical units: GHz, s^-1, K.`,
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = observability.New(logLevel, logFormat)
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")

	rootCmd.AddCommand(getConvertCmd())
	rootCmd.AddCommand(getSpeciesCmd())
	rootCmd.AddCommand(getFetchCmd())

	return rootCmd
}
