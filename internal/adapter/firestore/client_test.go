package firestore

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/drainage-monitor/internal/config"
	"github.com/couchcryptid/drainage-monitor/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `{
  "name": "projects/drains/databases/(default)/documents/sensor data/sample values",
  "fields": {
    "gas": {"integerValue": "300"},
    "water_speed": {"doubleValue": 0.5},
    "water_level": {"integerValue": "10"},
    "gps_location": {"integerValue": "1"},
    "note": {"stringValue": "north culvert"},
    "offline": {"booleanValue": false},
    "extra": {"nullValue": null}
  },
  "createTime": "2026-03-14T09:00:00Z",
  "updateTime": "2026-03-14T09:30:00Z"
}`

func testClient(t *testing.T, baseURL, token string) *Client {
	t.Helper()
	cfg := &config.Config{
		FirestoreBaseURL:    baseURL,
		FirestoreProject:    "drains",
		FirestoreToken:      token,
		TelemetryCollection: "sensor data",
		TelemetryDocument:   "sample values",
		FetchTimeout:        5 * time.Second,
	}
	return NewClient(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_FetchLatest_Success(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 31, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { domain.SetClock(nil) })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/drains/databases/(default)/documents/sensor data/sample values", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, sampleDocument)
	}))
	defer srv.Close()

	raw, err := testClient(t, srv.URL, "secret").FetchLatest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SourceName, raw.Source)
	assert.Equal(t, now, raw.FetchedAt)
	assert.Equal(t, int64(300), raw.Fields["gas"])
	assert.Equal(t, 0.5, raw.Fields["water_speed"])
	assert.Equal(t, "north culvert", raw.Fields["note"])
	assert.Equal(t, false, raw.Fields["offline"])
	assert.Contains(t, raw.Fields, "extra")
	assert.Nil(t, raw.Fields["extra"])

	reading, err := domain.ParseReading(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.Reading{Gas: 300, WaterSpeed: 0.5, WaterLevel: 10, GPSLocation: 1}, reading)
}

func TestClient_FetchLatest_NoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, sampleDocument)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL, "").FetchLatest(context.Background())
	require.NoError(t, err)
}

func TestClient_FetchLatest_NoTelemetry(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{name: "document not found", status: http.StatusNotFound, payload: `{"error":{"code":404,"status":"NOT_FOUND"}}`},
		{name: "document without fields", status: http.StatusOK, payload: `{"name":"projects/drains/databases/(default)/documents/sensor data/sample values"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.payload)
			}))
			defer srv.Close()

			_, err := testClient(t, srv.URL, "").FetchLatest(context.Background())
			require.ErrorIs(t, err, domain.ErrNoTelemetry)
		})
	}
}

func TestClient_FetchLatest_Errors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"error":{"status":"PERMISSION_DENIED"}}`)
		}))
		defer srv.Close()

		_, err := testClient(t, srv.URL, "").FetchLatest(context.Background())
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNoTelemetry)
		assert.Contains(t, err.Error(), "status 403")
	})

	t.Run("invalid body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "not json")
		}))
		defer srv.Close()

		_, err := testClient(t, srv.URL, "").FetchLatest(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode document")
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, sampleDocument)
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := testClient(t, srv.URL, "").FetchLatest(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestValueDecode(t *testing.T) {
	bad := "12x"
	_, err := value{IntegerValue: &bad}.decode()
	require.Error(t, err)

	got, err := value{}.decode()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDocumentURL(t *testing.T) {
	got := documentURL("https://firestore.googleapis.com/v1", "drains", "sensor data", "sample values")
	assert.Equal(t, "https://firestore.googleapis.com/v1/projects/drains/databases/(default)/documents/sensor%20data/sample%20values", got)
}
