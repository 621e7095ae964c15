package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sekTenant(vatPercent float64, rutEnabled bool) TenantContext {
	return TenantContext{Currency: "SEK", VATRatePercent: vatPercent, TaxDeductionEnabled: rutEnabled}
}

func requireInvariant(t *testing.T, b Breakdown) {
	t.Helper()
	require.Equal(t, b.TotalMinor, b.SubtotalExVATMinor+b.VATMinor+b.TaxDeductionMinor+b.DiscountMinor)
	require.GreaterOrEqual(t, b.TotalMinor, Money(0))
	var sum Money
	for _, line := range b.Lines {
		sum += line.AmountMinor
	}
	require.Equal(t, b.TotalMinor, sum)
}

func TestComputeFixedTierMatch(t *testing.T) {
	req := QuoteRequest{
		Tenant: sekTenant(0, false),
		Service: ServiceConfig{
			Model: ModelFixedTier,
			PriceTiers: []PriceTier{
				{Min: 1, Max: 50, Price: 3000},
				{Min: 51, Max: 60, Price: 4000},
			},
		},
		FrequencyKey: FrequencyOneTime,
		Inputs:       QuoteInputs{Area: 45},
	}
	b, err := Compute(req)
	require.NoError(t, err)
	require.Equal(t, Money(300000), b.TotalMinor)
	require.Equal(t, Money(300000), b.SubtotalExVATMinor)
	requireInvariant(t, b)
}

func TestComputeMinimumChargeFloor(t *testing.T) {
	req := QuoteRequest{
		Tenant: sekTenant(0, false),
		Service: ServiceConfig{
			Model:              ModelUniversalMultiplier,
			RatePerSqm:         50,
			MinimumChargeMajor: 700,
		},
		FrequencyKey: FrequencyOneTime,
		Inputs:       QuoteInputs{Area: 10},
	}
	b, err := Compute(req)
	require.NoError(t, err)
	require.Equal(t, Money(70000), b.TotalMinor)
	requireInvariant(t, b)
}

func TestComputeMinimumChargeIgnoredForZeroBase(t *testing.T) {
	req := QuoteRequest{
		Tenant: sekTenant(0, false),
		Service: ServiceConfig{
			Model:              ModelUniversalMultiplier,
			RatePerSqm:         50,
			MinimumChargeMajor: 700,
		},
		FrequencyKey: FrequencyOneTime,
	}
	b, err := Compute(req)
	require.NoError(t, err)
	require.Equal(t, Money(0), b.TotalMinor)
}

func TestComputeFrequencyDeductionAndAddon(t *testing.T) {
	req := QuoteRequest{
		Tenant: sekTenant(0, true),
		Service: ServiceConfig{
			Model:                ModelUniversalMultiplier,
			RatePerSqm:           50,
			TaxDeductionEligible: true,
			FrequencyMultipliers: map[string]float64{
				FrequencyOneTime: 1, FrequencyWeekly: 1, FrequencyBiweekly: 1.15, FrequencyMonthly: 1.4,
			},
			Addons: []Addon{
				{Key: "fridge", DisplayName: "Fridge cleaning", Kind: AddonFixed, AmountMajor: 200, TaxDeductionEligible: true},
			},
		},
		FrequencyKey:      FrequencyMonthly,
		Inputs:            QuoteInputs{Area: 20},
		SelectedAddons:    []AddonSelection{{Key: "fridge"}},
		ApplyTaxDeduction: true,
	}
	b, err := Compute(req)
	require.NoError(t, err)
	// base 20*50=1000, monthly x1.4 = 1400, addon 200 => subtotal 1600.00
	require.Equal(t, Money(160000), b.SubtotalExVATMinor)
	require.Equal(t, Money(0), b.VATMinor)
	// 50% of the eligible ex-VAT lines (all of them here)
	require.Equal(t, Money(-80000), b.TaxDeductionMinor)
	require.Equal(t, Money(80000), b.TotalMinor)
	requireInvariant(t, b)
}

func TestComputeDeductionSkipsIneligibleLines(t *testing.T) {
	req := QuoteRequest{
		Tenant: sekTenant(0, true),
		Service: ServiceConfig{
			Model:                ModelUniversalMultiplier,
			RatePerSqm:           10,
			TaxDeductionEligible: true,
			Fees: []Fee{
				{Key: "travel", DisplayName: "Travel fee", AmountMajor: 100, TaxDeductionEligible: false},
			},
		},
		FrequencyKey:      FrequencyOneTime,
		Inputs:            QuoteInputs{Area: 100},
		ApplyTaxDeduction: true,
	}
	b, err := Compute(req)
	require.NoError(t, err)
	// base 1000 eligible, fee 100 not; deduction = 50% of 1000.00
	require.Equal(t, Money(-50000), b.TaxDeductionMinor)
	require.Equal(t, Money(110000), b.SubtotalExVATMinor)
	requireInvariant(t, b)
}

func TestComputeDeductionRequiresAllThreeFlags(t *testing.T) {
	base := QuoteRequest{
		Tenant: sekTenant(0, true),
		Service: ServiceConfig{
			Model:                ModelUniversalMultiplier,
			RatePerSqm:           10,
			TaxDeductionEligible: true,
		},
		FrequencyKey:      FrequencyOneTime,
		Inputs:            QuoteInputs{Area: 10},
		ApplyTaxDeduction: true,
	}

	noOptIn := base
	noOptIn.ApplyTaxDeduction = false
	b, err := Compute(noOptIn)
	require.NoError(t, err)
	assert.Equal(t, Money(0), b.TaxDeductionMinor)

	tenantOff := base
	tenantOff.Tenant.TaxDeductionEnabled = false
	b, err = Compute(tenantOff)
	require.NoError(t, err)
	assert.Equal(t, Money(0), b.TaxDeductionMinor)

	serviceOff := base
	serviceOff.Service.TaxDeductionEligible = false
	b, err = Compute(serviceOff)
	require.NoError(t, err)
	assert.Equal(t, Money(0), b.TaxDeductionMinor)
}

func TestComputeUnknownFrequency(t *testing.T) {
	req := QuoteRequest{
		Tenant: sekTenant(25, false),
		Service: ServiceConfig{
			Model:            ModelUniversalMultiplier,
			RatePerSqm:       50,
			FrequencyOptions: []FrequencyOption{{Key: "quarterly", Label: "Quarterly", Multiplier: 1.6}},
		},
		FrequencyKey: "fortnightly",
		Inputs:       QuoteInputs{Area: 10},
	}
	_, err := Compute(req)
	var unknown *UnknownFrequencyError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "fortnightly", unknown.Key)
	assert.Contains(t, unknown.Allowed, FrequencyOneTime)
	assert.Contains(t, unknown.Allowed, FrequencyMonthly)
	assert.Contains(t, unknown.Allowed, "quarterly")
}

func TestComputeCouponClampsToPreDiscountTotal(t *testing.T) {
	req := QuoteRequest{
		Tenant: sekTenant(0, false),
		Service: ServiceConfig{
			Model:      ModelUniversalMultiplier,
			RatePerSqm: 50,
		},
		FrequencyKey: FrequencyOneTime,
		Inputs:       QuoteInputs{Area: 10},
		Coupon:       &Coupon{Kind: CouponFixed, Magnitude: 1000},
	}
	b, err := Compute(req)
	require.NoError(t, err)
	require.Equal(t, Money(-50000), b.DiscountMinor)
	require.Equal(t, Money(0), b.TotalMinor)
	requireInvariant(t, b)
}

func TestComputePercentCouponAfterVATAndDeduction(t *testing.T) {
	req := QuoteRequest{
		Tenant: sekTenant(25, false),
		Service: ServiceConfig{
			Model:      ModelUniversalMultiplier,
			RatePerSqm: 10,
		},
		FrequencyKey: FrequencyOneTime,
		Inputs:       QuoteInputs{Area: 100},
		Coupon:       &Coupon{Kind: CouponPercent, Magnitude: 10},
	}
	b, err := Compute(req)
	require.NoError(t, err)
	// subtotal 1000.00, vat 250.00, pre-discount 1250.00, 10% => 125.00
	require.Equal(t, Money(100000), b.SubtotalExVATMinor)
	require.Equal(t, Money(25000), b.VATMinor)
	require.Equal(t, Money(-12500), b.DiscountMinor)
	require.Equal(t, Money(112500), b.TotalMinor)
	requireInvariant(t, b)
}

func TestComputeLineOrder(t *testing.T) {
	req := QuoteRequest{
		Tenant: sekTenant(25, true),
		Service: ServiceConfig{
			Model:                ModelUniversalMultiplier,
			RatePerSqm:           50,
			TaxDeductionEligible: true,
			Addons: []Addon{
				{Key: "oven", DisplayName: "Oven", Kind: AddonFixed, AmountMajor: 150},
			},
			Fees: []Fee{
				{Key: "travel", DisplayName: "Travel", AmountMajor: 50},
			},
			Modifiers: []ModifierRule{{
				Key:       "pets",
				Label:     "Pets in home",
				Condition: ModifierCondition{Kind: "boolean", ExpectedValue: true, AnswerKey: "has_pets"},
				Effect:    ModifierEffect{AppliesTo: TargetBaseAfterFrequency, Mode: ModePercent, Magnitude: 10, Direction: DirectionIncrease},
			}},
		},
		FrequencyKey:      FrequencyOneTime,
		Inputs:            QuoteInputs{Area: 20},
		SelectedAddons:    []AddonSelection{{Key: "oven"}},
		ApplyTaxDeduction: true,
		Coupon:            &Coupon{Kind: CouponFixed, Magnitude: 10},
		Answers:           map[string]any{"has_pets": true},
	}
	b, err := Compute(req)
	require.NoError(t, err)
	keys := make([]string, 0, len(b.Lines))
	for _, line := range b.Lines {
		keys = append(keys, line.Key)
	}
	require.Equal(t, []string{"base", "addon:oven", "fee:travel", "modifier:pets", "vat", "deduction", "discount"}, keys)
	requireInvariant(t, b)
}

func TestComputeUnmatchedAddonSkipped(t *testing.T) {
	req := QuoteRequest{
		Tenant: sekTenant(0, false),
		Service: ServiceConfig{
			Model:      ModelUniversalMultiplier,
			RatePerSqm: 10,
			Addons:     []Addon{{Key: "oven", Kind: AddonFixed, AmountMajor: 100}},
		},
		FrequencyKey:   FrequencyOneTime,
		Inputs:         QuoteInputs{Area: 10},
		SelectedAddons: []AddonSelection{{Key: "missing"}},
	}
	b, err := Compute(req)
	require.NoError(t, err)
	require.Len(t, b.Lines, 2) // base + vat only
	require.Equal(t, Money(10000), b.TotalMinor)
}

func TestComputePerUnitAddonQuantity(t *testing.T) {
	service := ServiceConfig{
		Model:      ModelUniversalMultiplier,
		RatePerSqm: 10,
		Addons:     []Addon{{Key: "windows", DisplayName: "Extra windows", Kind: AddonPerUnit, AmountMajor: 25}},
	}
	req := QuoteRequest{
		Tenant:         sekTenant(0, false),
		Service:        service,
		FrequencyKey:   FrequencyOneTime,
		Inputs:         QuoteInputs{Area: 10},
		SelectedAddons: []AddonSelection{{Key: "windows", Quantity: 4}},
	}
	b, err := Compute(req)
	require.NoError(t, err)
	require.Equal(t, Money(10000+10000), b.TotalMinor)

	// quantity omitted defaults to 1
	req.SelectedAddons = []AddonSelection{{Key: "windows"}}
	b, err = Compute(req)
	require.NoError(t, err)
	require.Equal(t, Money(10000+2500), b.TotalMinor)
}

func TestComputeAddonAdditivity(t *testing.T) {
	service := ServiceConfig{
		Model:      ModelUniversalMultiplier,
		RatePerSqm: 37,
		Addons: []Addon{
			{Key: "a", Kind: AddonFixed, AmountMajor: 123.45},
			{Key: "b", Kind: AddonFixed, AmountMajor: 67.89},
		},
	}
	quote := func(addons ...string) Money {
		sels := make([]AddonSelection, 0, len(addons))
		for _, key := range addons {
			sels = append(sels, AddonSelection{Key: key})
		}
		b, err := Compute(QuoteRequest{
			Tenant:         sekTenant(0, false),
			Service:        service,
			FrequencyKey:   FrequencyOneTime,
			Inputs:         QuoteInputs{Area: 13},
			SelectedAddons: sels,
		})
		require.NoError(t, err)
		return b.TotalMinor
	}
	none := quote()
	withA := quote("a")
	withB := quote("b")
	withBoth := quote("a", "b")
	require.Equal(t, withBoth-none, (withA-none)+(withB-none))
}

func TestComputeFrequencyIdempotence(t *testing.T) {
	service := ServiceConfig{
		Model:      ModelUniversalMultiplier,
		RatePerSqm: 43.21,
		FrequencyMultipliers: map[string]float64{
			FrequencyOneTime: 1.0, FrequencyWeekly: 1.1, FrequencyBiweekly: 1.15, FrequencyMonthly: 1.4,
		},
	}
	b, err := Compute(QuoteRequest{
		Tenant:       sekTenant(0, false),
		Service:      service,
		FrequencyKey: FrequencyOneTime,
		Inputs:       QuoteInputs{Area: 33},
	})
	require.NoError(t, err)
	require.Equal(t, ToMinor(33*43.21), b.SubtotalExVATMinor)
}

func TestComputeBaseMonotonicWithinTier(t *testing.T) {
	service := ServiceConfig{
		Model:     ModelTieredMultiplier,
		RateTiers: []RateTier{{Min: 0, Max: 100, RatePerSqm: 12}},
	}
	var prev Money = -1
	for area := 1.0; area <= 100; area += 7 {
		b, err := Compute(QuoteRequest{
			Tenant:       sekTenant(0, false),
			Service:      service,
			FrequencyKey: FrequencyOneTime,
			Inputs:       QuoteInputs{Area: area},
		})
		require.NoError(t, err)
		require.GreaterOrEqual(t, b.SubtotalExVATMinor, prev)
		prev = b.SubtotalExVATMinor
	}
}

func TestComputeStackedDecreasesFloorAtZero(t *testing.T) {
	decrease := func(key string) ModifierRule {
		return ModifierRule{
			Key:       key,
			Label:     key,
			Condition: ModifierCondition{Kind: "boolean", ExpectedValue: true, AnswerKey: key},
			Effect:    ModifierEffect{Mode: ModePercent, Magnitude: 80, Direction: DirectionDecrease},
		}
	}
	first := decrease("a")
	second := decrease("b")
	req := QuoteRequest{
		Tenant: sekTenant(0, false),
		Service: ServiceConfig{
			Model:      ModelUniversalMultiplier,
			RatePerSqm: 10,
			Modifiers:  []ModifierRule{first, second},
		},
		FrequencyKey: FrequencyOneTime,
		Inputs:       QuoteInputs{Area: 10},
		Answers:      map[string]any{"a": true, "b": true},
	}
	b, err := Compute(req)
	require.NoError(t, err)
	require.Equal(t, Money(0), b.SubtotalExVATMinor)
	require.Equal(t, Money(0), b.TotalMinor)
	requireInvariant(t, b)
}

func TestComputeUnknownModel(t *testing.T) {
	_, err := Compute(QuoteRequest{
		Tenant:       sekTenant(0, false),
		Service:      ServiceConfig{Model: "bogus"},
		FrequencyKey: FrequencyOneTime,
	})
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
}
