package pricing

// computeBase converts the service config and customer inputs into a single
// pre-frequency major-unit base amount. Missing or zero inputs degrade to a
// zero base; an unrecognized model is the only failure mode, since every
// other shape problem is rejected at configuration-save time.
func computeBase(cfg ServiceConfig, inputs QuoteInputs) (float64, error) {
	switch cfg.Model {
	case ModelFixedTier:
		area := nonNegative(inputs.Area)
		for _, t := range cfg.PriceTiers {
			if t.Min <= area && area <= t.Max {
				return t.Price, nil
			}
		}
		return 0, nil
	case ModelTieredMultiplier:
		area := nonNegative(inputs.Area)
		for _, t := range cfg.RateTiers {
			if t.Min <= area && area <= t.Max {
				return area * t.RatePerSqm, nil
			}
		}
		return 0, nil
	case ModelUniversalMultiplier:
		return nonNegative(inputs.Area) * cfg.RatePerSqm, nil
	case ModelWindows:
		var sum float64
		for _, wt := range cfg.WindowTypes {
			if n := inputs.WindowCounts[wt.Key]; n > 0 {
				sum += float64(n) * wt.PricePerUnit
			}
		}
		return sum, nil
	case ModelHourlyArea:
		area := nonNegative(inputs.Area)
		for _, t := range cfg.AreaToHours {
			if t.Min <= area && area <= t.Max {
				return t.Hours * cfg.HourlyRate, nil
			}
		}
		return 0, nil
	case ModelPerRoom:
		var sum float64
		for _, rt := range cfg.RoomTypes {
			if n := inputs.Rooms[rt.Key]; n > 0 {
				sum += float64(n) * rt.PricePerUnit
			}
		}
		return sum, nil
	default:
		return 0, &ConfigurationError{Model: cfg.Model, Issues: []string{"unknown pricing model"}}
	}
}

// applyMinimumCharge floors a positive base up to the configured minimum.
// A zero base stays zero: the minimum only guards priced work, it never
// invents a charge. fixed_tier carries no minimum since its tiers already
// are flat prices.
func applyMinimumCharge(cfg ServiceConfig, base float64) float64 {
	if cfg.Model == ModelFixedTier {
		return base
	}
	if cfg.MinimumChargeMajor > 0 && base > 0 && base < cfg.MinimumChargeMajor {
		return cfg.MinimumChargeMajor
	}
	return base
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
