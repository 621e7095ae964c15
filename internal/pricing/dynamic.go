package pricing

// Dynamic question types. A question optionally carries a price impact; at
// request time impacts compile into plain modifier rules so the evaluator
// stays total and boolean-only.
const (
	QuestionCheckbox      = "checkbox"
	QuestionRadio         = "radio"
	QuestionCheckboxMulti = "checkbox_multi"
	QuestionText          = "text"
)

// QuestionOption is one selectable value of a radio or checkbox_multi
// question.
type QuestionOption struct {
	Value  string          `json:"value"`
	Label  string          `json:"label"`
	Impact *ModifierEffect `json:"impact,omitempty"`
}

// DynamicQuestion is a form-builder question attached to a service.
type DynamicQuestion struct {
	Type     string           `json:"type"`
	Key      string           `json:"key"`
	Label    string           `json:"label"`
	Required bool             `json:"required,omitempty"`
	Pattern  string           `json:"pattern,omitempty"`
	Impact   *ModifierEffect  `json:"impact,omitempty"`
	Options  []QuestionOption `json:"options,omitempty"`
}

// ExpandAnswers returns a copy of answers with radio and checkbox_multi
// selections expanded into boolean flags ("<key>__is__<value>" resp.
// "<key>__has__<value>") so boolean modifier conditions can consume them.
// The input map is never mutated.
func ExpandAnswers(questions []DynamicQuestion, answers map[string]any) map[string]any {
	out := make(map[string]any, len(answers))
	for k, v := range answers {
		out[k] = v
	}
	for _, q := range questions {
		a := answers[q.Key]
		switch q.Type {
		case QuestionRadio:
			selected, _ := a.(string)
			for _, opt := range q.Options {
				out[q.Key+"__is__"+opt.Value] = selected == opt.Value
			}
		case QuestionCheckboxMulti:
			chosen := stringSet(a)
			for _, opt := range q.Options {
				_, has := chosen[opt.Value]
				out[q.Key+"__has__"+opt.Value] = has
			}
		}
	}
	return out
}

// CompileQuestions turns question impacts into synthetic modifier rules that
// fire on the expanded boolean flags. Question-driven adjustments never count
// toward the tax deduction.
func CompileQuestions(questions []DynamicQuestion) []ModifierRule {
	var rules []ModifierRule
	for _, q := range questions {
		switch q.Type {
		case QuestionCheckbox:
			if q.Impact == nil {
				continue
			}
			effect := *q.Impact
			effect.TaxDeductionEligible = false
			rules = append(rules, ModifierRule{
				Key:       "dyn_" + q.Key,
				Label:     labelOr(q.Label, q.Key),
				Condition: ModifierCondition{Kind: "boolean", ExpectedValue: true, AnswerKey: q.Key},
				Effect:    effect,
			})
		case QuestionRadio, QuestionCheckboxMulti:
			infix := "__is__"
			if q.Type == QuestionCheckboxMulti {
				infix = "__has__"
			}
			for _, opt := range q.Options {
				if opt.Impact == nil {
					continue
				}
				effect := *opt.Impact
				effect.TaxDeductionEligible = false
				rules = append(rules, ModifierRule{
					Key:       "dyn_" + q.Key + "_" + opt.Value,
					Label:     labelOr(q.Label, q.Key) + ": " + labelOr(opt.Label, opt.Value),
					Condition: ModifierCondition{Kind: "boolean", ExpectedValue: true, AnswerKey: q.Key + infix + opt.Value},
					Effect:    effect,
				})
			}
		}
	}
	return rules
}

func stringSet(v any) map[string]struct{} {
	set := make(map[string]struct{})
	switch items := v.(type) {
	case []string:
		for _, s := range items {
			set[s] = struct{}{}
		}
	case []any:
		for _, item := range items {
			if s, ok := item.(string); ok {
				set[s] = struct{}{}
			}
		}
	}
	return set
}

func labelOr(label, fallback string) string {
	if label != "" {
		return label
	}
	return fallback
}
