package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeBasePerModel(t *testing.T) {
	tests := []struct {
		name   string
		cfg    ServiceConfig
		inputs QuoteInputs
		want   float64
	}{
		{
			name: "fixed tier picks matching tier",
			cfg: ServiceConfig{Model: ModelFixedTier, PriceTiers: []PriceTier{
				{Min: 1, Max: 50, Price: 3000},
				{Min: 51, Max: 60, Price: 4000},
			}},
			inputs: QuoteInputs{Area: 55},
			want:   4000,
		},
		{
			name: "fixed tier gap yields zero",
			cfg: ServiceConfig{Model: ModelFixedTier, PriceTiers: []PriceTier{
				{Min: 1, Max: 50, Price: 3000},
				{Min: 60, Max: 90, Price: 4000},
			}},
			inputs: QuoteInputs{Area: 55},
			want:   0,
		},
		{
			name: "tiered multiplier multiplies area by tier rate",
			cfg: ServiceConfig{Model: ModelTieredMultiplier, RateTiers: []RateTier{
				{Min: 0, Max: 60, RatePerSqm: 40},
				{Min: 61, Max: 120, RatePerSqm: 35},
			}},
			inputs: QuoteInputs{Area: 80},
			want:   2800,
		},
		{
			name:   "universal multiplier",
			cfg:    ServiceConfig{Model: ModelUniversalMultiplier, RatePerSqm: 50},
			inputs: QuoteInputs{Area: 20},
			want:   1000,
		},
		{
			name: "windows sums counted types",
			cfg: ServiceConfig{Model: ModelWindows, WindowTypes: []UnitType{
				{Key: "standard", PricePerUnit: 60},
				{Key: "balcony", PricePerUnit: 120},
			}},
			inputs: QuoteInputs{WindowCounts: map[string]int{"standard": 4, "balcony": 1, "unknown": 9}},
			want:   360,
		},
		{
			name: "hourly area uses hours tier times rate",
			cfg: ServiceConfig{Model: ModelHourlyArea, HourlyRate: 450, AreaToHours: []HoursTier{
				{Min: 0, Max: 50, Hours: 3},
				{Min: 51, Max: 100, Hours: 5},
			}},
			inputs: QuoteInputs{Area: 70},
			want:   2250,
		},
		{
			name: "per room sums counted types",
			cfg: ServiceConfig{Model: ModelPerRoom, RoomTypes: []UnitType{
				{Key: "bedroom", PricePerUnit: 300},
				{Key: "bathroom", PricePerUnit: 500},
			}},
			inputs: QuoteInputs{Rooms: map[string]int{"bedroom": 2, "bathroom": 1}},
			want:   1100,
		},
		{
			name:   "missing inputs degrade to zero",
			cfg:    ServiceConfig{Model: ModelUniversalMultiplier, RatePerSqm: 50},
			inputs: QuoteInputs{},
			want:   0,
		},
		{
			name:   "negative area treated as zero",
			cfg:    ServiceConfig{Model: ModelUniversalMultiplier, RatePerSqm: 50},
			inputs: QuoteInputs{Area: -5},
			want:   0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := computeBase(tt.cfg, tt.inputs)
			require.NoError(t, err)
			require.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestComputeBaseUnknownModel(t *testing.T) {
	_, err := computeBase(ServiceConfig{Model: "subscription"}, QuoteInputs{})
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestApplyMinimumCharge(t *testing.T) {
	cfg := ServiceConfig{Model: ModelUniversalMultiplier, MinimumChargeMajor: 700}
	require.Equal(t, 700.0, applyMinimumCharge(cfg, 500))
	require.Equal(t, 900.0, applyMinimumCharge(cfg, 900))
	require.Equal(t, 0.0, applyMinimumCharge(cfg, 0))

	fixed := ServiceConfig{Model: ModelFixedTier, MinimumChargeMajor: 700}
	require.Equal(t, 500.0, applyMinimumCharge(fixed, 500))
}
