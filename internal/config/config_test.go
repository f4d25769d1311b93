package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProject = "drainage-site-7"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FIRESTORE_PROJECT", testProject)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 60*time.Second, cfg.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, SourceFirestore, cfg.TelemetrySource)
	assert.Equal(t, "sensor data", cfg.TelemetryCollection)
	assert.Equal(t, "sample values", cfg.TelemetryDocument)
	assert.Equal(t, "https://firestore.googleapis.com/v1", cfg.FirestoreBaseURL)
	assert.Equal(t, testProject, cfg.FirestoreProject)
	assert.Empty(t, cfg.FirestoreToken)
	assert.Equal(t, "default", cfg.PostgresSiteID)
	assert.Equal(t, "drainage", cfg.MongoDatabase)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "drainage-reports", cfg.KafkaReportTopic)
	assert.Equal(t, 100, cfg.ModelEstimators)
	assert.Equal(t, uint64(42), cfg.ModelSeed)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("POLL_INTERVAL", "5m")
	t.Setenv("FETCH_TIMEOUT", "0s")
	t.Setenv("TELEMETRY_SOURCE", "postgres")
	t.Setenv("POSTGRES_DSN", "postgres://drain:drain@db:5432/telemetry")
	t.Setenv("POSTGRES_SITE_ID", "north-outfall")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_REPORT_TOPIC", "custom-reports")
	t.Setenv("MODEL_ESTIMATORS", "250")
	t.Setenv("MODEL_SEED", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 5*time.Minute, cfg.PollInterval)
	assert.Zero(t, cfg.FetchTimeout)
	assert.Equal(t, SourcePostgres, cfg.TelemetrySource)
	assert.Equal(t, "postgres://drain:drain@db:5432/telemetry", cfg.PostgresDSN)
	assert.Equal(t, "north-outfall", cfg.PostgresSiteID)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-reports", cfg.KafkaReportTopic)
	assert.Equal(t, 250, cfg.ModelEstimators)
	assert.Equal(t, uint64(7), cfg.ModelSeed)
}

func TestLoad_MongoSource(t *testing.T) {
	t.Setenv("TELEMETRY_SOURCE", "mongo")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("MONGO_DATABASE", "site")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "site", cfg.MongoDatabase)
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"firestore without project", map[string]string{}, "FIRESTORE_PROJECT"},
		{"postgres without dsn", map[string]string{"TELEMETRY_SOURCE": "postgres"}, "POSTGRES_DSN"},
		{"mongo without uri", map[string]string{"TELEMETRY_SOURCE": "mongo"}, "MONGO_URI"},
		{"unknown source", map[string]string{"TELEMETRY_SOURCE": "redis"}, "TELEMETRY_SOURCE"},
		{"invalid shutdown timeout", map[string]string{"FIRESTORE_PROJECT": testProject, "SHUTDOWN_TIMEOUT": "soon"}, "SHUTDOWN_TIMEOUT"},
		{"invalid poll interval", map[string]string{"FIRESTORE_PROJECT": testProject, "POLL_INTERVAL": "often"}, "POLL_INTERVAL"},
		{"zero poll interval", map[string]string{"FIRESTORE_PROJECT": testProject, "POLL_INTERVAL": "0s"}, "POLL_INTERVAL"},
		{"negative fetch timeout", map[string]string{"FIRESTORE_PROJECT": testProject, "FETCH_TIMEOUT": "-1s"}, "FETCH_TIMEOUT"},
		{"zero estimators", map[string]string{"FIRESTORE_PROJECT": testProject, "MODEL_ESTIMATORS": "0"}, "MODEL_ESTIMATORS"},
		{"negative seed", map[string]string{"FIRESTORE_PROJECT": testProject, "MODEL_SEED": "-4"}, "MODEL_SEED"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
