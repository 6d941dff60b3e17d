package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/specline-etl/internal/adapter/cdms"
	httpadapter "github.com/couchcryptid/specline-etl/internal/adapter/http"
	"github.com/couchcryptid/specline-etl/internal/adapter/jpl"
	kafkaadapter "github.com/couchcryptid/specline-etl/internal/adapter/kafka"
	"github.com/couchcryptid/specline-etl/internal/config"
	"github.com/couchcryptid/specline-etl/internal/domain"
	"github.com/couchcryptid/specline-etl/internal/observability"
	"github.com/couchcryptid/specline-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A format whose master table cannot be loaded is disabled, not fatal:
	// envelopes that carry their own species and partition function still
	// normalize, and the collector can resend the rest after a restart.
	jplTable := loadJPLTable(ctx, cfg, metrics, logger)
	cdmsTable := loadCDMSTable(ctx, cfg, metrics, logger)
	if jplTable == nil && cdmsTable == nil {
		logger.Warn("both catalog formats disabled; only envelopes with caller-supplied species will normalize")
	}

	normalizer := domain.NewNormalizer(jplTable, cdmsTable,
		domain.WithPartitionNotice(func(n domain.ExtrapolationNotice) {
			metrics.PartitionExtrapolations.Inc()
			logger.Debug("partition function extrapolated",
				"temperature_k", n.Temperature,
				"min_sampled_k", n.MinSampled,
				"max_sampled_k", n.MaxSampled)
		}))

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(normalizer, metrics, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize, cfg.TransformWorkers)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// loadJPLTable reads the JPL master directory from the configured snapshot,
// or fetches it from the live service when no snapshot is set.
func loadJPLTable(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *domain.JPLSpeciesTable {
	if cfg.JPLSpeciesPath != "" {
		data, err := os.ReadFile(cfg.JPLSpeciesPath)
		if err != nil {
			logger.Warn("jpl format disabled", "error", err)
			return nil
		}
		table, err := jpl.ParseCatdir(data)
		if err != nil {
			logger.Warn("jpl format disabled", "error", fmt.Errorf("%s: %w", cfg.JPLSpeciesPath, err))
			return nil
		}
		logger.Info("jpl species table loaded", "source", cfg.JPLSpeciesPath, "entries", len(table.Entries))
		return table
	}

	client := jpl.NewClient(cfg.JPLBaseURL, cfg.CatalogTimeout, cfg.SpeciesCacheTTL, metrics, logger)
	table, err := client.FetchSpeciesTable(ctx)
	if err != nil {
		logger.Warn("jpl format disabled", "error", err)
		return nil
	}
	return table
}

// loadCDMSTable mirrors loadJPLTable for the CDMS partition listing.
func loadCDMSTable(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *domain.CDMSSpeciesTable {
	if cfg.CDMSSpeciesPath != "" {
		data, err := os.ReadFile(cfg.CDMSSpeciesPath)
		if err != nil {
			logger.Warn("cdms format disabled", "error", err)
			return nil
		}
		table, err := cdms.ParsePartitionFunctions(data)
		if err != nil {
			logger.Warn("cdms format disabled", "error", fmt.Errorf("%s: %w", cfg.CDMSSpeciesPath, err))
			return nil
		}
		logger.Info("cdms species table loaded", "source", cfg.CDMSSpeciesPath, "entries", len(table.Entries))
		return table
	}

	client := cdms.NewClient(cfg.CDMSBaseURL, cfg.CatalogTimeout, cfg.SpeciesCacheTTL, metrics, logger)
	table, err := client.FetchSpeciesTable(ctx)
	if err != nil {
		logger.Warn("cdms format disabled", "error", err)
		return nil
	}
	return table
}
