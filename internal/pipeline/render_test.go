package pipeline

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/drainage-monitor/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRenderer_Render(t *testing.T) {
	reading := domain.Reading{Gas: 620, WaterSpeed: 1.6, WaterLevel: 22, GPSLocation: 4}
	report := domain.CycleReport{
		ID:          "r-1",
		Source:      "firestore",
		GeneratedAt: time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC),
		Assessment: domain.Assessment{
			Reading:    reading,
			Prediction: domain.Prediction{Tier: domain.Caution, Advice: domain.Caution.Advice()},
			Sensors:    domain.ClassifySensors(reading),
		},
	}

	var buf bytes.Buffer
	NewRenderer(&buf).Render(report)
	out := buf.String()

	want := []string{
		"📡 Sensor Data (firestore, 2025-06-01 08:00:00 UTC)",
		"🔹 Gas: 620 ppm",
		"🔹 GPS Location: 4",
		"🔹 Water Level: 22 cm",
		"🔹 Water Speed: 1.6 m/s",
		separator,
		"🔹 Overall Drainage Condition: ⚠️ Caution",
		"🔹 Gas: ⚠️ Caution (620 ppm)",
		"🔹 Water Speed: 🚨 Critical (1.6 m/s - Risk of Flooding)",
		"🔹 Water Level: ⚠️ Caution (22 cm)",
		"🟡 Caution! Monitor the drainage system closely.",
	}
	last := -1
	for _, line := range want {
		idx := strings.Index(out, line)
		if assert.GreaterOrEqual(t, idx, 0, "missing %q", line) {
			assert.Greater(t, idx, last, "%q out of order", line)
			last = idx
		}
	}
}

func TestRenderer_Diagnostics(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	r.RenderMissing()
	r.RenderSkipped(errors.New("gateway down"))

	assert.Contains(t, buf.String(), "No sensor data found!")
	assert.Contains(t, buf.String(), "Skipping cycle: gateway down")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "300", formatValue(300))
	assert.Equal(t, "0.5", formatValue(0.5))
	assert.Equal(t, "700.0001", formatValue(700.0001))
}

func TestAdviceMarker(t *testing.T) {
	assert.Equal(t, "🟢", adviceMarker(domain.Stable))
	assert.Equal(t, "🟡", adviceMarker(domain.Caution))
	assert.Equal(t, "🔴", adviceMarker(domain.Critical))
}
