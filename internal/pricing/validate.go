package pricing

import (
	"fmt"
	"sort"
)

// ValidateConfig checks a ServiceConfig for the shape problems the engine
// deliberately does not guard against at quote time: missing rate tables,
// non-positive required rates, overlapping tiers, malformed rules. Repos call
// this at configuration-save time so a bad config never reaches a quote.
func ValidateConfig(cfg ServiceConfig) error {
	var issues []string

	switch cfg.Model {
	case ModelFixedTier:
		issues = append(issues, validateTierRanges("priceTiers", priceTierRanges(cfg.PriceTiers))...)
		for i, t := range cfg.PriceTiers {
			if t.Price < 0 {
				issues = append(issues, fmt.Sprintf("priceTiers[%d]: price must not be negative", i))
			}
		}
	case ModelTieredMultiplier:
		issues = append(issues, validateTierRanges("rateTiers", rateTierRanges(cfg.RateTiers))...)
		for i, t := range cfg.RateTiers {
			if t.RatePerSqm < 0 {
				issues = append(issues, fmt.Sprintf("rateTiers[%d]: ratePerSqm must not be negative", i))
			}
		}
	case ModelUniversalMultiplier:
		if cfg.RatePerSqm <= 0 {
			issues = append(issues, "ratePerSqm must be positive")
		}
	case ModelWindows:
		issues = append(issues, validateUnitTypes("windowTypes", cfg.WindowTypes)...)
	case ModelHourlyArea:
		if cfg.HourlyRate <= 0 {
			issues = append(issues, "hourlyRate must be positive")
		}
		issues = append(issues, validateTierRanges("areaToHours", hoursTierRanges(cfg.AreaToHours))...)
		for i, t := range cfg.AreaToHours {
			if t.Hours <= 0 {
				issues = append(issues, fmt.Sprintf("areaToHours[%d]: hours must be positive", i))
			}
		}
	case ModelPerRoom:
		issues = append(issues, validateUnitTypes("roomTypes", cfg.RoomTypes)...)
	default:
		issues = append(issues, fmt.Sprintf("unknown pricing model %q", cfg.Model))
	}

	if cfg.MinimumChargeMajor < 0 {
		issues = append(issues, "minimumChargeMajor must not be negative")
	}
	if cfg.VATRatePercent != nil && (*cfg.VATRatePercent < 0 || *cfg.VATRatePercent > 100) {
		issues = append(issues, "vatRatePercent must be within [0, 100]")
	}
	for key, m := range cfg.FrequencyMultipliers {
		if m < 0 {
			issues = append(issues, fmt.Sprintf("frequencyMultipliers[%s]: multiplier must not be negative", key))
		}
	}
	for i, opt := range cfg.FrequencyOptions {
		if opt.Key == "" {
			issues = append(issues, fmt.Sprintf("frequencyOptions[%d]: key is required", i))
		}
		if opt.Multiplier < 1 {
			issues = append(issues, fmt.Sprintf("frequencyOptions[%d]: multiplier must be at least 1", i))
		}
	}

	seenAddons := make(map[string]struct{}, len(cfg.Addons))
	for i, a := range cfg.Addons {
		if a.Key == "" {
			issues = append(issues, fmt.Sprintf("addons[%d]: key is required", i))
			continue
		}
		if _, dup := seenAddons[a.Key]; dup {
			issues = append(issues, fmt.Sprintf("addons[%d]: duplicate key %q", i, a.Key))
		}
		seenAddons[a.Key] = struct{}{}
		if a.Kind != AddonFixed && a.Kind != AddonPerUnit {
			issues = append(issues, fmt.Sprintf("addons[%d]: kind must be %q or %q", i, AddonFixed, AddonPerUnit))
		}
		if a.AmountMajor < 0 {
			issues = append(issues, fmt.Sprintf("addons[%d]: amount must not be negative", i))
		}
	}
	for i, f := range cfg.Fees {
		if f.Key == "" {
			issues = append(issues, fmt.Sprintf("fees[%d]: key is required", i))
		}
		if f.AmountMajor < 0 {
			issues = append(issues, fmt.Sprintf("fees[%d]: amount must not be negative", i))
		}
	}

	for i, rule := range cfg.Modifiers {
		issues = append(issues, validateModifier(fmt.Sprintf("modifiers[%d]", i), rule)...)
	}
	for i, q := range cfg.DynamicQuestions {
		issues = append(issues, validateQuestion(fmt.Sprintf("dynamicQuestions[%d]", i), q)...)
	}

	if len(issues) > 0 {
		return &ConfigurationError{Model: cfg.Model, Issues: issues}
	}
	return nil
}

func validateModifier(path string, rule ModifierRule) []string {
	var issues []string
	if rule.Key == "" {
		issues = append(issues, path+": key is required")
	}
	if rule.Condition.Kind != "boolean" {
		issues = append(issues, path+": condition kind must be boolean")
	}
	if rule.Condition.AnswerKey == "" {
		issues = append(issues, path+": condition answerKey is required")
	}
	issues = append(issues, validateEffect(path+".effect", rule.Effect)...)
	return issues
}

func validateEffect(path string, effect ModifierEffect) []string {
	var issues []string
	if effect.Mode != ModePercent && effect.Mode != ModeFixed {
		issues = append(issues, path+": mode must be percent or fixed")
	}
	if effect.Magnitude <= 0 {
		issues = append(issues, path+": magnitude must be positive")
	}
	switch effect.AppliesTo {
	case "", TargetBaseAfterFrequency, TargetSubtotalBeforeModifiers:
	default:
		issues = append(issues, path+": unknown appliesTo target")
	}
	switch effect.Direction {
	case "", DirectionIncrease, DirectionDecrease:
	default:
		issues = append(issues, path+": direction must be increase or decrease")
	}
	return issues
}

func validateQuestion(path string, q DynamicQuestion) []string {
	var issues []string
	if q.Key == "" {
		issues = append(issues, path+": key is required")
	}
	switch q.Type {
	case QuestionCheckbox, QuestionText:
	case QuestionRadio, QuestionCheckboxMulti:
		if len(q.Options) == 0 {
			issues = append(issues, path+": options are required")
		}
		for j, opt := range q.Options {
			if opt.Value == "" {
				issues = append(issues, fmt.Sprintf("%s.options[%d]: value is required", path, j))
			}
			if opt.Impact != nil {
				issues = append(issues, validateEffect(fmt.Sprintf("%s.options[%d].impact", path, j), *opt.Impact)...)
			}
		}
	default:
		issues = append(issues, path+": unknown question type")
	}
	if q.Impact != nil {
		issues = append(issues, validateEffect(path+".impact", *q.Impact)...)
	}
	return issues
}

type tierRange struct {
	min, max float64
}

func priceTierRanges(tiers []PriceTier) []tierRange {
	out := make([]tierRange, len(tiers))
	for i, t := range tiers {
		out[i] = tierRange{t.Min, t.Max}
	}
	return out
}

func rateTierRanges(tiers []RateTier) []tierRange {
	out := make([]tierRange, len(tiers))
	for i, t := range tiers {
		out[i] = tierRange{t.Min, t.Max}
	}
	return out
}

func hoursTierRanges(tiers []HoursTier) []tierRange {
	out := make([]tierRange, len(tiers))
	for i, t := range tiers {
		out[i] = tierRange{t.Min, t.Max}
	}
	return out
}

// validateTierRanges requires at least one tier, well-formed bounds, and no
// overlaps. Tier lookup takes the first match in configured order, so
// overlapping tiers would silently shadow each other. Gaps between tiers are
// tolerated; an area falling into a gap prices to a zero base.
func validateTierRanges(path string, tiers []tierRange) []string {
	var issues []string
	if len(tiers) == 0 {
		return []string{path + ": at least one tier is required"}
	}
	for i, t := range tiers {
		if t.max < t.min {
			issues = append(issues, fmt.Sprintf("%s[%d]: max must not be below min", path, i))
		}
		if t.min < 0 {
			issues = append(issues, fmt.Sprintf("%s[%d]: min must not be negative", path, i))
		}
	}
	sorted := make([]tierRange, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].min < sorted[j].min })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].min <= sorted[i-1].max {
			issues = append(issues, fmt.Sprintf("%s: tiers overlap around %g", path, sorted[i].min))
		}
	}
	return issues
}

func validateUnitTypes(path string, types []UnitType) []string {
	var issues []string
	if len(types) == 0 {
		return []string{path + ": at least one entry is required"}
	}
	seen := make(map[string]struct{}, len(types))
	for i, ut := range types {
		if ut.Key == "" {
			issues = append(issues, fmt.Sprintf("%s[%d]: key is required", path, i))
			continue
		}
		if _, dup := seen[ut.Key]; dup {
			issues = append(issues, fmt.Sprintf("%s[%d]: duplicate key %q", path, i, ut.Key))
		}
		seen[ut.Key] = struct{}{}
		if ut.PricePerUnit < 0 {
			issues = append(issues, fmt.Sprintf("%s[%d]: price must not be negative", path, i))
		}
	}
	return issues
}
