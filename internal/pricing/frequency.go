package pricing

// Built-in frequency keys. Every service carries a multiplier for each of
// these; tenants may add custom cadences via FrequencyOptions.
const (
	FrequencyOneTime  = "one_time"
	FrequencyWeekly   = "weekly"
	FrequencyBiweekly = "biweekly"
	FrequencyMonthly  = "monthly"
)

var builtinFrequencyKeys = []string{FrequencyOneTime, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly}

// defaultFrequencyMultipliers mirror the configuration defaults applied when
// a service omits the map entirely.
var defaultFrequencyMultipliers = map[string]float64{
	FrequencyOneTime:  1.0,
	FrequencyWeekly:   1.0,
	FrequencyBiweekly: 1.15,
	FrequencyMonthly:  1.4,
}

// ResolveFrequency maps a requested frequency key to its multiplier. An
// empty key resolves to one_time. Keys matching neither the built-in map nor
// a custom option return an UnknownFrequencyError carrying the allowed keys;
// the resolver never silently defaults, to avoid mispricing.
func ResolveFrequency(cfg ServiceConfig, key string) (float64, error) {
	multipliers := cfg.FrequencyMultipliers
	if len(multipliers) == 0 {
		multipliers = defaultFrequencyMultipliers
	}
	if key == "" {
		key = FrequencyOneTime
	}
	if m, ok := multipliers[key]; ok {
		if m < 0 {
			m = 0
		}
		return m, nil
	}
	for _, opt := range cfg.FrequencyOptions {
		if opt.Key == key && opt.Multiplier >= 1 {
			return opt.Multiplier, nil
		}
	}
	return 0, &UnknownFrequencyError{Key: key, Allowed: AllowedFrequencyKeys(cfg)}
}

// AllowedFrequencyKeys lists every key ResolveFrequency accepts for the
// given service, built-ins first.
func AllowedFrequencyKeys(cfg ServiceConfig) []string {
	keys := make([]string, 0, len(builtinFrequencyKeys)+len(cfg.FrequencyOptions))
	keys = append(keys, builtinFrequencyKeys...)
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		seen[k] = struct{}{}
	}
	for k := range cfg.FrequencyMultipliers {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	for _, opt := range cfg.FrequencyOptions {
		if _, ok := seen[opt.Key]; !ok {
			seen[opt.Key] = struct{}{}
			keys = append(keys, opt.Key)
		}
	}
	return keys
}
