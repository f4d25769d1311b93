// Package mongo reads the drainage telemetry document from MongoDB. The
// document lives in the telemetry collection under an _id equal to the
// configured document name, mirroring the Firestore layout.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/drainage-monitor/internal/config"
	"github.com/couchcryptid/drainage-monitor/internal/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// SourceName identifies readings fetched by this gateway.
const SourceName = "mongo"

// Reader implements pipeline.TelemetryGateway over a single MongoDB document.
type Reader struct {
	client     *mongo.Client
	collection *mongo.Collection
	documentID string
	logger     *slog.Logger
}

// Connect dials MongoDB and pings the primary before returning.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Reader, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Reader{
		client:     client,
		collection: client.Database(cfg.MongoDatabase).Collection(cfg.TelemetryCollection),
		documentID: cfg.TelemetryDocument,
		logger:     logger,
	}, nil
}

// FetchLatest loads the telemetry document.
func (r *Reader) FetchLatest(ctx context.Context) (domain.RawReading, error) {
	var doc bson.M
	err := r.collection.FindOne(ctx, bson.D{{Key: "_id", Value: r.documentID}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.RawReading{}, fmt.Errorf("mongo document %q: %w", r.documentID, domain.ErrNoTelemetry)
	}
	if err != nil {
		return domain.RawReading{}, fmt.Errorf("find telemetry document: %w", err)
	}

	fields := documentFields(doc)
	if len(fields) == 0 {
		return domain.RawReading{}, fmt.Errorf("mongo document %q has no fields: %w", r.documentID, domain.ErrNoTelemetry)
	}

	return domain.RawReading{
		Fields:    fields,
		Source:    SourceName,
		FetchedAt: domain.Now(),
	}, nil
}

// Close disconnects the client.
func (r *Reader) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// documentFields strips the document key. BSON int32, int64 and double
// values pass through unchanged.
func documentFields(doc bson.M) map[string]any {
	fields := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		fields[k] = v
	}
	return fields
}
