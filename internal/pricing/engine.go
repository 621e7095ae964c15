// Package pricing implements the quote engine: a pure, deterministic
// computation from a tenant context, a service pricing configuration, and
// customer inputs to an itemized minor-unit price breakdown. The engine
// performs no I/O and holds no state; it is safe to call concurrently.
package pricing

import "fmt"

// Line keys of the aggregate rows every breakdown may carry.
const (
	LineBase      = "base"
	LineVAT       = "vat"
	LineDeduction = "deduction"
	LineDiscount  = "discount"
)

// taxDeductionRatePercent is the applied rebate share: 50% of the ex-VAT
// amount of deduction-eligible lines.
const taxDeductionRatePercent = 50

// Compute produces the itemized breakdown for one quote request.
//
// Line order is fixed: base, addons, fees, modifiers, VAT, tax deduction,
// discount. Each line amount is converted from major to minor units exactly
// once; all aggregates are sums of already-rounded minor amounts, so the
// identity total == subtotal + vat + deduction + discount holds exactly.
//
// Unknown frequency keys return an UnknownFrequencyError; an unknown pricing
// model returns a ConfigurationError. Everything else degrades to a zero
// contribution rather than failing.
func Compute(req QuoteRequest) (Breakdown, error) {
	cfg := req.Service

	multiplier, err := ResolveFrequency(cfg, req.FrequencyKey)
	if err != nil {
		return Breakdown{}, err
	}
	rawBase, err := computeBase(cfg, req.Inputs)
	if err != nil {
		return Breakdown{}, err
	}
	base := applyMinimumCharge(cfg, rawBase*multiplier)

	lines := []QuoteLine{{
		Key:                  LineBase,
		Label:                labelOr(cfg.Name, "Base"),
		TaxDeductionEligible: cfg.TaxDeductionEligible,
		AmountMinor:          ToMinor(base),
	}}
	subtotal := lines[0].AmountMinor

	// Addons: matched by key, unmatched selections are skipped. The
	// frequency multiplier never touches addon amounts.
	addonsMajor := 0.0
	for _, sel := range req.SelectedAddons {
		def, ok := findAddon(cfg.Addons, sel.Key)
		if !ok {
			continue
		}
		amount := def.AmountMajor
		if def.Kind == AddonPerUnit {
			qty := sel.Quantity
			if qty < 1 {
				qty = 1
			}
			amount *= float64(qty)
		}
		addonsMajor += amount
		line := QuoteLine{
			Key:                  "addon:" + def.Key,
			Label:                labelOr(def.DisplayName, def.Key),
			TaxDeductionEligible: def.TaxDeductionEligible,
			AmountMinor:          ToMinor(amount),
		}
		lines = append(lines, line)
		subtotal += line.AmountMinor
	}

	// Fees: applied unconditionally, once each, in declaration order.
	feesMajor := 0.0
	for _, fee := range cfg.Fees {
		feesMajor += fee.AmountMajor
		line := QuoteLine{
			Key:                  "fee:" + fee.Key,
			Label:                labelOr(fee.DisplayName, fee.Key),
			TaxDeductionEligible: fee.TaxDeductionEligible,
			AmountMinor:          ToMinor(fee.AmountMajor),
		}
		lines = append(lines, line)
		subtotal += line.AmountMinor
	}

	// Modifiers: static rules first, then rules compiled from dynamic
	// questions, all evaluated against the expanded answers and the same
	// pre-modifier targets.
	rules := make([]ModifierRule, 0, len(cfg.Modifiers)+len(cfg.DynamicQuestions))
	rules = append(rules, cfg.Modifiers...)
	rules = append(rules, CompileQuestions(cfg.DynamicQuestions)...)
	answers := ExpandAnswers(cfg.DynamicQuestions, req.Answers)
	targets := modifierTargets{
		baseAfterFrequency:      base,
		subtotalBeforeModifiers: base + addonsMajor + feesMajor,
	}
	for _, fm := range evaluateModifiers(rules, answers, targets) {
		amount := ToMinor(fm.delta)
		if amount < 0 && subtotal+amount < 0 {
			// Stacked decreases cannot drag the subtotal below zero.
			amount = -subtotal
		}
		if amount == 0 {
			continue
		}
		line := QuoteLine{
			Key:                  "modifier:" + fm.rule.Key,
			Label:                labelOr(fm.rule.Effect.Label, fm.rule.Label),
			TaxDeductionEligible: fm.rule.Effect.TaxDeductionEligible,
			AmountMinor:          amount,
		}
		lines = append(lines, line)
		subtotal += line.AmountMinor
	}

	// VAT on the full ex-VAT subtotal, single line.
	vatRate := req.Tenant.VATRatePercent
	if cfg.VATRatePercent != nil {
		vatRate = *cfg.VATRatePercent
	}
	vat := PercentOf(subtotal, vatRate)
	lines = append(lines, QuoteLine{
		Key:         LineVAT,
		Label:       fmt.Sprintf("VAT %g%%", vatRate),
		AmountMinor: vat,
	})

	// Tax deduction: 50% of the ex-VAT sum of deduction-eligible lines,
	// clamped so the running total never goes negative. Requires the tenant,
	// the service, and the customer to all opt in.
	var deduction Money
	if req.Tenant.TaxDeductionEnabled && cfg.TaxDeductionEligible && req.ApplyTaxDeduction {
		var eligible Money
		for _, line := range lines {
			if line.TaxDeductionEligible {
				eligible += line.AmountMinor
			}
		}
		if eligible > 0 {
			deduction = -PercentOf(eligible, taxDeductionRatePercent)
		}
		if pre := subtotal + vat; -deduction > pre {
			deduction = -pre
		}
		if deduction != 0 {
			lines = append(lines, QuoteLine{Key: LineDeduction, Label: "Tax deduction", AmountMinor: deduction})
		}
	}

	// Coupon: applied last, against the pre-discount total, clamped so the
	// final total never goes negative.
	var discount Money
	if req.Coupon != nil {
		pre := subtotal + vat + deduction
		var d Money
		switch req.Coupon.Kind {
		case CouponPercent:
			d = PercentOf(pre, ClampPercent(req.Coupon.Magnitude))
		case CouponFixed:
			d = ToMinor(req.Coupon.Magnitude)
		}
		if d > pre {
			d = pre
		}
		if d > 0 {
			discount = -d
			lines = append(lines, QuoteLine{Key: LineDiscount, Label: "Discount", AmountMinor: discount})
		}
	}

	return assemble(req.Tenant.Currency, cfg.Model, lines, subtotal, vat, deduction, discount)
}

// assemble builds the final breakdown and enforces the accounting invariant.
// This is the single place the identity is checked; a mismatch is an engine
// bug and fails loudly instead of being papered over.
func assemble(currency, model string, lines []QuoteLine, subtotal, vat, deduction, discount Money) (Breakdown, error) {
	total := subtotal + vat + deduction + discount

	var lineSum Money
	for _, line := range lines {
		lineSum += line.AmountMinor
	}
	if lineSum != total {
		return Breakdown{}, &InvariantViolationError{Expected: total, Got: lineSum, Detail: "line sum"}
	}
	if total < 0 {
		return Breakdown{}, &InvariantViolationError{Expected: 0, Got: total, Detail: "total below zero"}
	}

	return Breakdown{
		Currency:           currency,
		Model:              model,
		Lines:              lines,
		SubtotalExVATMinor: subtotal,
		VATMinor:           vat,
		TaxDeductionMinor:  deduction,
		DiscountMinor:      discount,
		TotalMinor:         total,
	}, nil
}

func findAddon(addons []Addon, key string) (Addon, bool) {
	for _, a := range addons {
		if a.Key == key {
			return a, true
		}
	}
	return Addon{}, false
}
