package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration
	TransformWorkers   int

	// Upstream catalog service configuration.
	JPLBaseURL      string
	CDMSBaseURL     string
	CatalogTimeout  time.Duration
	SpeciesCacheTTL time.Duration

	// Local master-table snapshots. When set, the service reads the species
	// table from disk instead of fetching it at startup.
	JPLSpeciesPath  string
	CDMSSpeciesPath string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is merged first and
// loses to variables already exported.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	// An exported-but-empty variable is an explicit blank, not a request
	// for the default: a blank JPL_BASE_URL pins that format to its
	// snapshot path instead of falling back to the live service.
	v.AllowEmptyEnv(true)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_SOURCE_TOPIC", "raw-catalog-lines")
	v.SetDefault("KAFKA_SINK_TOPIC", "normalized-line-lists")
	v.SetDefault("KAFKA_GROUP_ID", "specline-etl")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("BATCH_SIZE", 50)
	v.SetDefault("BATCH_FLUSH_INTERVAL", "500ms")
	v.SetDefault("TRANSFORM_WORKERS", 4)
	v.SetDefault("JPL_BASE_URL", "https://spec.jpl.nasa.gov")
	v.SetDefault("CDMS_BASE_URL", "https://cdms.astro.uni-koeln.de")
	v.SetDefault("CATALOG_TIMEOUT", "30s")
	v.SetDefault("SPECIES_CACHE_TTL", "6h")
	v.SetDefault("JPL_SPECIES_PATH", "")
	v.SetDefault("CDMS_SPECIES_PATH", "")

	shutdownTimeout, err := positiveDuration(v, "SHUTDOWN_TIMEOUT")
	if err != nil {
		return nil, err
	}
	flushInterval, err := positiveDuration(v, "BATCH_FLUSH_INTERVAL")
	if err != nil {
		return nil, err
	}
	catalogTimeout, err := positiveDuration(v, "CATALOG_TIMEOUT")
	if err != nil {
		return nil, err
	}
	speciesTTL, err := positiveDuration(v, "SPECIES_CACHE_TTL")
	if err != nil {
		return nil, err
	}

	batchSize := v.GetInt("BATCH_SIZE")
	if batchSize < 1 || batchSize > 1000 {
		return nil, errors.New("BATCH_SIZE must be between 1 and 1000")
	}
	workers := v.GetInt("TRANSFORM_WORKERS")
	if workers < 1 {
		return nil, errors.New("TRANSFORM_WORKERS must be at least 1")
	}

	cfg := &Config{
		KafkaBrokers:       splitBrokers(v.GetString("KAFKA_BROKERS")),
		KafkaSourceTopic:   v.GetString("KAFKA_SOURCE_TOPIC"),
		KafkaSinkTopic:     v.GetString("KAFKA_SINK_TOPIC"),
		KafkaGroupID:       v.GetString("KAFKA_GROUP_ID"),
		HTTPAddr:           v.GetString("HTTP_ADDR"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogFormat:          v.GetString("LOG_FORMAT"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		TransformWorkers:   workers,

		JPLBaseURL:      v.GetString("JPL_BASE_URL"),
		CDMSBaseURL:     v.GetString("CDMS_BASE_URL"),
		CatalogTimeout:  catalogTimeout,
		SpeciesCacheTTL: speciesTTL,
		JPLSpeciesPath:  v.GetString("JPL_SPECIES_PATH"),
		CDMSSpeciesPath: v.GetString("CDMS_SPECIES_PATH"),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.JPLBaseURL == "" && cfg.JPLSpeciesPath == "" {
		return nil, errors.New("JPL_BASE_URL or JPL_SPECIES_PATH is required")
	}
	if cfg.CDMSBaseURL == "" && cfg.CDMSSpeciesPath == "" {
		return nil, errors.New("CDMS_BASE_URL or CDMS_SPECIES_PATH is required")
	}

	return cfg, nil
}

func positiveDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}

func splitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
