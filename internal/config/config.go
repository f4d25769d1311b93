package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Telemetry sources.
const (
	SourceFirestore = "firestore"
	SourcePostgres  = "postgres"
	SourceMongo     = "mongo"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	PollInterval time.Duration
	FetchTimeout time.Duration // 0 disables the per-fetch deadline

	// Telemetry gateway selection and document address.
	TelemetrySource     string
	TelemetryCollection string
	TelemetryDocument   string

	FirestoreBaseURL string
	FirestoreProject string
	FirestoreToken   string

	PostgresDSN    string
	PostgresSiteID string

	MongoURI      string
	MongoDatabase string

	// Report sink.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaReportTopic string

	ModelEstimators int
	ModelSeed       uint64
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	pollInterval, err := parseDuration("POLL_INTERVAL", "60s")
	if err != nil {
		return nil, err
	}
	if pollInterval <= 0 {
		return nil, errors.New("invalid POLL_INTERVAL: must be positive")
	}

	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	if fetchTimeout < 0 {
		return nil, errors.New("invalid FETCH_TIMEOUT: must not be negative")
	}

	estimators, err := strconv.Atoi(sharedcfg.EnvOrDefault("MODEL_ESTIMATORS", "100"))
	if err != nil || estimators < 1 || estimators > 10000 {
		return nil, errors.New("invalid MODEL_ESTIMATORS: must be an integer in [1, 10000]")
	}

	seed, err := strconv.ParseUint(sharedcfg.EnvOrDefault("MODEL_SEED", "42"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid MODEL_SEED: must be a non-negative integer")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		PollInterval: pollInterval,
		FetchTimeout: fetchTimeout,

		TelemetrySource:     sharedcfg.EnvOrDefault("TELEMETRY_SOURCE", SourceFirestore),
		TelemetryCollection: sharedcfg.EnvOrDefault("TELEMETRY_COLLECTION", "sensor data"),
		TelemetryDocument:   sharedcfg.EnvOrDefault("TELEMETRY_DOCUMENT", "sample values"),

		FirestoreBaseURL: sharedcfg.EnvOrDefault("FIRESTORE_BASE_URL", "https://firestore.googleapis.com/v1"),
		FirestoreProject: os.Getenv("FIRESTORE_PROJECT"),
		FirestoreToken:   os.Getenv("FIRESTORE_TOKEN"),

		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		PostgresSiteID: sharedcfg.EnvOrDefault("POSTGRES_SITE_ID", "default"),

		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: sharedcfg.EnvOrDefault("MONGO_DATABASE", "drainage"),

		KafkaEnabled:     os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportTopic: sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "drainage-reports"),

		ModelEstimators: estimators,
		ModelSeed:       seed,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.TelemetrySource {
	case SourceFirestore:
		if c.FirestoreProject == "" {
			return errors.New("FIRESTORE_PROJECT is required when TELEMETRY_SOURCE is firestore")
		}
		if c.TelemetryCollection == "" || c.TelemetryDocument == "" {
			return errors.New("TELEMETRY_COLLECTION and TELEMETRY_DOCUMENT are required")
		}
	case SourcePostgres:
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when TELEMETRY_SOURCE is postgres")
		}
	case SourceMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required when TELEMETRY_SOURCE is mongo")
		}
		if c.TelemetryCollection == "" || c.TelemetryDocument == "" {
			return errors.New("TELEMETRY_COLLECTION and TELEMETRY_DOCUMENT are required")
		}
	default:
		return fmt.Errorf("invalid TELEMETRY_SOURCE %q: want firestore, postgres or mongo", c.TelemetrySource)
	}

	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if c.KafkaReportTopic == "" {
			return errors.New("KAFKA_REPORT_TOPIC is required when KAFKA_ENABLED is true")
		}
	}
	return nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
