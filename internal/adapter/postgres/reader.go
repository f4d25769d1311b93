// Package postgres reads drainage telemetry rows from a PostgreSQL table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/drainage-monitor/internal/domain"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

// SourceName identifies readings fetched by this gateway.
const SourceName = "postgres"

// Schema creates the telemetry table the reader expects.
const Schema = `CREATE TABLE IF NOT EXISTS sensor_readings (
	id           BIGSERIAL PRIMARY KEY,
	site_id      TEXT             NOT NULL,
	gas          DOUBLE PRECISION,
	water_speed  DOUBLE PRECISION,
	water_level  DOUBLE PRECISION,
	gps_location BIGINT,
	recorded_at  TIMESTAMPTZ      NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS sensor_readings_site_recorded_idx ON sensor_readings (site_id, recorded_at DESC);`

const latestQuery = `SELECT gas, water_speed, water_level, gps_location, recorded_at
FROM sensor_readings
WHERE site_id = $1
ORDER BY recorded_at DESC
LIMIT 1`

// Reader implements pipeline.TelemetryGateway over the sensor_readings table.
type Reader struct {
	db     *sql.DB
	siteID string
	logger *slog.Logger
}

// Open connects through the pgx driver and verifies the connection.
func Open(ctx context.Context, dsn, siteID string, logger *slog.Logger) (*Reader, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewReader(db, siteID, logger), nil
}

// NewReader wraps an existing database handle.
func NewReader(db *sql.DB, siteID string, logger *slog.Logger) *Reader {
	return &Reader{db: db, siteID: siteID, logger: logger}
}

// FetchLatest returns the most recent row for the configured site. NULL
// columns are reported as missing fields.
func (r *Reader) FetchLatest(ctx context.Context) (domain.RawReading, error) {
	var (
		gas, speed, level sql.NullFloat64
		location          sql.NullInt64
		recordedAt        sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, latestQuery, r.siteID).Scan(&gas, &speed, &level, &location, &recordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RawReading{}, fmt.Errorf("site %q: %w", r.siteID, domain.ErrNoTelemetry)
	}
	if err != nil {
		return domain.RawReading{}, fmt.Errorf("query latest reading: %w", err)
	}

	fields := make(map[string]any, domain.NumFeatures)
	if gas.Valid {
		fields[domain.FieldGas] = gas.Float64
	}
	if speed.Valid {
		fields[domain.FieldWaterSpeed] = speed.Float64
	}
	if level.Valid {
		fields[domain.FieldWaterLevel] = level.Float64
	}
	if location.Valid {
		fields[domain.FieldGPSLocation] = location.Int64
	}

	r.logger.Debug("postgres reading fetched", "site_id", r.siteID, "recorded_at", recordedAt.Time)

	return domain.RawReading{
		Fields:    fields,
		Source:    SourceName,
		FetchedAt: domain.Now(),
	}, nil
}

// Close releases the database handle.
func (r *Reader) Close() error {
	return r.db.Close()
}
