package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandAnswersRadio(t *testing.T) {
	questions := []DynamicQuestion{{
		Type: QuestionRadio,
		Key:  "home_type",
		Options: []QuestionOption{
			{Value: "apartment"},
			{Value: "house"},
		},
	}}
	out := ExpandAnswers(questions, map[string]any{"home_type": "house"})
	assert.Equal(t, false, out["home_type__is__apartment"])
	assert.Equal(t, true, out["home_type__is__house"])
	assert.Equal(t, "house", out["home_type"])
}

func TestExpandAnswersCheckboxMulti(t *testing.T) {
	questions := []DynamicQuestion{{
		Type: QuestionCheckboxMulti,
		Key:  "extras",
		Options: []QuestionOption{
			{Value: "balcony"},
			{Value: "garage"},
		},
	}}
	out := ExpandAnswers(questions, map[string]any{"extras": []any{"garage"}})
	assert.Equal(t, false, out["extras__has__balcony"])
	assert.Equal(t, true, out["extras__has__garage"])
}

func TestExpandAnswersDoesNotMutateInput(t *testing.T) {
	questions := []DynamicQuestion{{
		Type:    QuestionRadio,
		Key:     "q",
		Options: []QuestionOption{{Value: "x"}},
	}}
	in := map[string]any{"q": "x"}
	_ = ExpandAnswers(questions, in)
	assert.Len(t, in, 1)
}

func TestCompileQuestionsCheckbox(t *testing.T) {
	questions := []DynamicQuestion{{
		Type:   QuestionCheckbox,
		Key:    "has_pets",
		Label:  "Pets in home",
		Impact: &ModifierEffect{Mode: ModePercent, Magnitude: 10, Direction: DirectionIncrease, TaxDeductionEligible: true},
	}}
	rules := CompileQuestions(questions)
	require.Len(t, rules, 1)
	assert.Equal(t, "dyn_has_pets", rules[0].Key)
	assert.Equal(t, "has_pets", rules[0].Condition.AnswerKey)
	assert.True(t, rules[0].Condition.ExpectedValue)
	// question-driven adjustments never count toward the deduction
	assert.False(t, rules[0].Effect.TaxDeductionEligible)
}

func TestCompileQuestionsRadioOptions(t *testing.T) {
	questions := []DynamicQuestion{{
		Type:  QuestionRadio,
		Key:   "home_type",
		Label: "Home type",
		Options: []QuestionOption{
			{Value: "apartment", Label: "Apartment"},
			{Value: "house", Label: "House", Impact: &ModifierEffect{Mode: ModeFixed, Magnitude: 150}},
		},
	}}
	rules := CompileQuestions(questions)
	require.Len(t, rules, 1)
	assert.Equal(t, "dyn_home_type_house", rules[0].Key)
	assert.Equal(t, "home_type__is__house", rules[0].Condition.AnswerKey)
	assert.Equal(t, "Home type: House", rules[0].Label)
}

func TestCompileQuestionsSkipsTextAndImpactless(t *testing.T) {
	questions := []DynamicQuestion{
		{Type: QuestionText, Key: "notes"},
		{Type: QuestionCheckbox, Key: "plain"},
	}
	assert.Empty(t, CompileQuestions(questions))
}

func TestDynamicQuestionDrivesQuote(t *testing.T) {
	req := QuoteRequest{
		Tenant: TenantContext{Currency: "SEK"},
		Service: ServiceConfig{
			Model:      ModelUniversalMultiplier,
			RatePerSqm: 10,
			DynamicQuestions: []DynamicQuestion{{
				Type:  QuestionRadio,
				Key:   "home_type",
				Label: "Home type",
				Options: []QuestionOption{
					{Value: "apartment"},
					{Value: "house", Impact: &ModifierEffect{Mode: ModePercent, Magnitude: 20, AppliesTo: TargetBaseAfterFrequency}},
				},
			}},
		},
		FrequencyKey: FrequencyOneTime,
		Inputs:       QuoteInputs{Area: 100},
		Answers:      map[string]any{"home_type": "house"},
	}
	b, err := Compute(req)
	require.NoError(t, err)
	// base 1000 + 20% of base
	assert.Equal(t, Money(120000), b.SubtotalExVATMinor)
}
