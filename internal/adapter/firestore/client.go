// Package firestore reads the latest drainage telemetry document through the
// Cloud Firestore REST API.
package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/couchcryptid/drainage-monitor/internal/config"
	"github.com/couchcryptid/drainage-monitor/internal/domain"
)

// SourceName identifies readings fetched by this gateway.
const SourceName = "firestore"

// Client implements pipeline.TelemetryGateway against a single Firestore document.
type Client struct {
	httpClient  *http.Client
	documentURL string
	token       string
	logger      *slog.Logger
}

// NewClient creates a client for the document named by the telemetry
// collection and document settings.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		documentURL: documentURL(cfg.FirestoreBaseURL, cfg.FirestoreProject, cfg.TelemetryCollection, cfg.TelemetryDocument),
		token:       cfg.FirestoreToken,
		logger:      logger,
	}
}

func documentURL(baseURL, project, collection, document string) string {
	return fmt.Sprintf("%s/projects/%s/databases/(default)/documents/%s/%s",
		baseURL, url.PathEscape(project), url.PathEscape(collection), url.PathEscape(document))
}

// FetchLatest returns the current contents of the telemetry document. A missing
// or empty document yields domain.ErrNoTelemetry.
func (c *Client) FetchLatest(ctx context.Context) (domain.RawReading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.documentURL, nil)
	if err != nil {
		return domain.RawReading{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.RawReading{}, fmt.Errorf("firestore request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.RawReading{}, fmt.Errorf("firestore document: %w", domain.ErrNoTelemetry)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.RawReading{}, fmt.Errorf("firestore API error: status %d: %s", resp.StatusCode, body)
	}

	var doc document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return domain.RawReading{}, fmt.Errorf("decode document: %w", err)
	}
	if len(doc.Fields) == 0 {
		return domain.RawReading{}, fmt.Errorf("firestore document %s has no fields: %w", doc.Name, domain.ErrNoTelemetry)
	}

	fields := make(map[string]any, len(doc.Fields))
	for name, v := range doc.Fields {
		decoded, err := v.decode()
		if err != nil {
			c.logger.Warn("undecodable firestore field", "field", name, "error", err)
		}
		fields[name] = decoded
	}

	return domain.RawReading{
		Fields:    fields,
		Source:    SourceName,
		FetchedAt: domain.Now(),
	}, nil
}

// Firestore REST document types.

type document struct {
	Name   string           `json:"name"`
	Fields map[string]value `json:"fields"`
}

// value is a Firestore typed value. Only scalar kinds are decoded; anything
// else (maps, arrays, timestamps, null) decodes to nil.
type value struct {
	IntegerValue *string  `json:"integerValue"` // int64 encoded as a decimal string
	DoubleValue  *float64 `json:"doubleValue"`
	StringValue  *string  `json:"stringValue"`
	BooleanValue *bool    `json:"booleanValue"`
}

func (v value) decode() (any, error) {
	switch {
	case v.IntegerValue != nil:
		n, err := strconv.ParseInt(*v.IntegerValue, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("integerValue %q: %w", *v.IntegerValue, err)
		}
		return n, nil
	case v.DoubleValue != nil:
		return *v.DoubleValue, nil
	case v.StringValue != nil:
		return *v.StringValue, nil
	case v.BooleanValue != nil:
		return *v.BooleanValue, nil
	default:
		return nil, nil
	}
}
