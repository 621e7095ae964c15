package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFrequencyBuiltin(t *testing.T) {
	cfg := ServiceConfig{FrequencyMultipliers: map[string]float64{
		FrequencyOneTime: 1, FrequencyWeekly: 1.05, FrequencyBiweekly: 1.15, FrequencyMonthly: 1.4,
	}}
	m, err := ResolveFrequency(cfg, FrequencyBiweekly)
	require.NoError(t, err)
	assert.Equal(t, 1.15, m)
}

func TestResolveFrequencyEmptyKeyDefaultsToOneTime(t *testing.T) {
	cfg := ServiceConfig{FrequencyMultipliers: map[string]float64{FrequencyOneTime: 1}}
	m, err := ResolveFrequency(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, 1.0, m)
}

func TestResolveFrequencyDefaultsWhenMapMissing(t *testing.T) {
	m, err := ResolveFrequency(ServiceConfig{}, FrequencyMonthly)
	require.NoError(t, err)
	assert.Equal(t, 1.4, m)
}

func TestResolveFrequencyCustomOption(t *testing.T) {
	cfg := ServiceConfig{
		FrequencyOptions: []FrequencyOption{{Key: "quarterly", Label: "Every quarter", Multiplier: 1.6}},
	}
	m, err := ResolveFrequency(cfg, "quarterly")
	require.NoError(t, err)
	assert.Equal(t, 1.6, m)
}

func TestResolveFrequencyRejectsSubUnitCustomMultiplier(t *testing.T) {
	cfg := ServiceConfig{
		FrequencyOptions: []FrequencyOption{{Key: "daily", Multiplier: 0.5}},
	}
	_, err := ResolveFrequency(cfg, "daily")
	var unknown *UnknownFrequencyError
	require.ErrorAs(t, err, &unknown)
}

func TestResolveFrequencyUnknownListsAllowedKeys(t *testing.T) {
	cfg := ServiceConfig{
		FrequencyOptions: []FrequencyOption{{Key: "quarterly", Multiplier: 2}},
	}
	_, err := ResolveFrequency(cfg, "yearly")
	var unknown *UnknownFrequencyError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{FrequencyOneTime, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, "quarterly"}, unknown.Allowed)
}
