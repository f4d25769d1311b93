package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTier_Ordinals(t *testing.T) {
	assert.Equal(t, 0, int(Stable))
	assert.Equal(t, 1, int(Caution))
	assert.Equal(t, 2, int(Critical))
	assert.Less(t, Stable, Caution)
	assert.Less(t, Caution, Critical)
	assert.Len(t, Tiers, NumTiers)
}

func TestTier_Advice(t *testing.T) {
	assert.Equal(t, "System is running smoothly. No action needed.", Stable.Advice())
	assert.Equal(t, "Caution! Monitor the drainage system closely.", Caution.Advice())
	assert.Equal(t, "Critical Alert! Immediate maintenance required!", Critical.Advice())
}

func TestParseTier(t *testing.T) {
	for _, tier := range Tiers {
		got, err := ParseTier(tier.String())
		require.NoError(t, err)
		assert.Equal(t, tier, got)
	}

	got, err := ParseTier("  CRITICAL ")
	require.NoError(t, err)
	assert.Equal(t, Critical, got)

	_, err = ParseTier("severe")
	assert.Error(t, err)
}

func TestTier_JSON(t *testing.T) {
	data, err := json.Marshal(Prediction{Tier: Caution, Advice: Caution.Advice()})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tier":"Caution"`)

	var p Prediction
	require.NoError(t, json.Unmarshal(data, &p))
	assert.Equal(t, Caution, p.Tier)

	_, err = json.Marshal(Tier(7))
	assert.Error(t, err)
	assert.Equal(t, "Tier(7)", Tier(7).String())
	assert.False(t, Tier(-1).Valid())
}
