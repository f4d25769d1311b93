package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/drainage-monitor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	reading := domain.Reading{Gas: 620, WaterSpeed: 1.6, WaterLevel: 22, GPSLocation: 4}
	report := domain.CycleReport{
		ID:          "rpt-1",
		Source:      "firestore",
		GeneratedAt: now,
		Assessment: domain.Assessment{
			Reading:    reading,
			Prediction: domain.Prediction{Tier: domain.Caution, Advice: domain.Caution.Advice()},
			Sensors:    domain.ClassifySensors(reading),
		},
	}

	msg, err := serializeToMessage(report)
	require.NoError(t, err)

	assert.Equal(t, []byte("rpt-1"), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "tier", msg.Headers[0].Key)
	assert.Equal(t, []byte("Caution"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var decoded domain.CycleReport
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, report.ID, decoded.ID)
	assert.Equal(t, reading, decoded.Reading)
	assert.Equal(t, domain.Caution, decoded.Prediction.Tier)
	require.Len(t, decoded.Sensors, 3)
	speed, ok := decoded.Sensors.Status(domain.ChannelWaterSpeed)
	require.True(t, ok)
	assert.Equal(t, domain.Critical, speed.Tier)
}
