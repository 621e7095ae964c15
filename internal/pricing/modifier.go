package pricing

// modifierTargets carries the two reference amounts a modifier effect may
// apply to. Every rule sees the same pre-modifier subtotal; deltas never
// cascade into each other.
type modifierTargets struct {
	baseAfterFrequency      float64
	subtotalBeforeModifiers float64
}

// firedModifier is an evaluated rule with its resolved major-unit delta.
type firedModifier struct {
	rule  ModifierRule
	delta float64
}

// evaluateModifiers runs every rule against the expanded answers, in
// declaration order, and returns the fired rules with non-zero deltas.
func evaluateModifiers(rules []ModifierRule, answers map[string]any, targets modifierTargets) []firedModifier {
	var fired []firedModifier
	for _, rule := range rules {
		if !conditionHolds(rule.Condition, answers) {
			continue
		}
		delta := effectDelta(rule.Effect, targets)
		if delta == 0 {
			continue
		}
		fired = append(fired, firedModifier{rule: rule, delta: delta})
	}
	return fired
}

func conditionHolds(cond ModifierCondition, answers map[string]any) bool {
	if cond.AnswerKey == "" {
		return false
	}
	answer, ok := answers[cond.AnswerKey].(bool)
	if !ok {
		return false
	}
	return answer == cond.ExpectedValue
}

func effectDelta(effect ModifierEffect, targets modifierTargets) float64 {
	target := targets.subtotalBeforeModifiers
	if effect.AppliesTo == TargetBaseAfterFrequency {
		target = targets.baseAfterFrequency
	}
	var delta float64
	switch effect.Mode {
	case ModePercent:
		delta = target * ClampPercent(effect.Magnitude) / 100
	case ModeFixed:
		delta = effect.Magnitude
	default:
		return 0
	}
	if effect.Direction == DirectionDecrease {
		delta = -delta
	}
	return delta
}
