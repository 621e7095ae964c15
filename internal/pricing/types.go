package pricing

// Pricing model discriminators. ServiceConfig carries exactly one model and
// only the rate tables belonging to it.
const (
	ModelFixedTier           = "fixed_tier"
	ModelTieredMultiplier    = "tiered_multiplier"
	ModelUniversalMultiplier = "universal_multiplier"
	ModelWindows             = "windows"
	ModelHourlyArea          = "hourly_area"
	ModelPerRoom             = "per_room"
)

// Addon kinds.
const (
	AddonFixed   = "fixed"
	AddonPerUnit = "per_unit"
)

// Modifier effect targets and modes.
const (
	TargetBaseAfterFrequency      = "baseAfterFrequency"
	TargetSubtotalBeforeModifiers = "subtotalBeforeModifiers"

	ModePercent = "percent"
	ModeFixed   = "fixed"

	DirectionIncrease = "increase"
	DirectionDecrease = "decrease"
)

// Coupon kinds.
const (
	CouponPercent = "percent"
	CouponFixed   = "fixed"
)

// TenantContext carries the per-tenant pricing context. It is supplied with
// every request and never persisted by the engine.
type TenantContext struct {
	Currency            string  `json:"currency"`
	VATRatePercent      float64 `json:"vatRatePercent"`
	TaxDeductionEnabled bool    `json:"taxDeductionEnabled"`
}

// PriceTier is a flat price keyed by an area range (fixed_tier).
type PriceTier struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Price float64 `json:"price"`
}

// RateTier is a per-square-meter rate keyed by an area range
// (tiered_multiplier).
type RateTier struct {
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	RatePerSqm float64 `json:"ratePerSqm"`
}

// HoursTier maps an area range to a number of labor hours (hourly_area).
type HoursTier struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Hours float64 `json:"hours"`
}

// UnitType is a priced unit (a window type or a room type).
type UnitType struct {
	Key          string  `json:"key"`
	DisplayName  string  `json:"displayName"`
	PricePerUnit float64 `json:"pricePerUnit"`
}

// Addon is an optional extra the customer selects by key.
type Addon struct {
	Key                  string  `json:"key"`
	DisplayName          string  `json:"displayName"`
	Kind                 string  `json:"kind"`
	AmountMajor          float64 `json:"amountMajor"`
	TaxDeductionEligible bool    `json:"taxDeductionEligible"`
}

// Fee is an unconditional charge applied once per quote.
type Fee struct {
	Key                  string  `json:"key"`
	DisplayName          string  `json:"displayName"`
	AmountMajor          float64 `json:"amountMajor"`
	TaxDeductionEligible bool    `json:"taxDeductionEligible"`
}

// ModifierCondition fires a modifier when the answer under AnswerKey equals
// ExpectedValue. Only boolean conditions exist; multi-valued questions are
// expanded to boolean flags before evaluation (see dynamic.go).
type ModifierCondition struct {
	Kind          string `json:"kind"`
	ExpectedValue bool   `json:"expectedValue"`
	AnswerKey     string `json:"answerKey"`
}

// ModifierEffect describes the adjustment a fired modifier applies.
type ModifierEffect struct {
	AppliesTo            string  `json:"appliesTo"`
	Mode                 string  `json:"mode"`
	Magnitude            float64 `json:"magnitude"`
	Direction            string  `json:"direction"`
	TaxDeductionEligible bool    `json:"taxDeductionEligible"`
	Label                string  `json:"label,omitempty"`
}

// ModifierRule is a conditional price adjustment.
type ModifierRule struct {
	Key       string            `json:"key"`
	Label     string            `json:"label"`
	Condition ModifierCondition `json:"condition"`
	Effect    ModifierEffect    `json:"effect"`
}

// FrequencyOption is a tenant-defined recurrence cadence beyond the built-in
// keys, carrying its own multiplier.
type FrequencyOption struct {
	Key        string  `json:"key"`
	Label      string  `json:"label"`
	Multiplier float64 `json:"multiplier"`
}

// ServiceConfig is the pricing configuration of one service. It is a tagged
// union keyed by Model: shared fields apply to every model, the rate-table
// fields only to the model that owns them. Stored as JSONB by the service
// repository and validated at save time (see validate.go).
type ServiceConfig struct {
	Model string `json:"model"`
	Name  string `json:"name,omitempty"`

	FrequencyMultipliers map[string]float64 `json:"frequencyMultipliers,omitempty"`
	FrequencyOptions     []FrequencyOption  `json:"frequencyOptions,omitempty"`
	VATRatePercent       *float64           `json:"vatRatePercent,omitempty"`
	TaxDeductionEligible bool               `json:"taxDeductionEligible"`
	Addons               []Addon            `json:"addons,omitempty"`
	Fees                 []Fee              `json:"fees,omitempty"`
	Modifiers            []ModifierRule     `json:"modifiers,omitempty"`
	DynamicQuestions     []DynamicQuestion  `json:"dynamicQuestions,omitempty"`
	MinimumChargeMajor   float64            `json:"minimumChargeMajor,omitempty"`

	// fixed_tier
	PriceTiers []PriceTier `json:"priceTiers,omitempty"`
	// tiered_multiplier
	RateTiers []RateTier `json:"rateTiers,omitempty"`
	// universal_multiplier
	RatePerSqm float64 `json:"ratePerSqm,omitempty"`
	// windows
	WindowTypes []UnitType `json:"windowTypes,omitempty"`
	// hourly_area
	HourlyRate  float64     `json:"hourlyRate,omitempty"`
	AreaToHours []HoursTier `json:"areaToHours,omitempty"`
	// per_room
	RoomTypes []UnitType `json:"roomTypes,omitempty"`
}

// QuoteInputs carries the measurable customer inputs. Missing values count
// as zero rather than failing the quote.
type QuoteInputs struct {
	Area         float64        `json:"area,omitempty"`
	Rooms        map[string]int `json:"rooms,omitempty"`
	WindowCounts map[string]int `json:"windowCounts,omitempty"`
}

// AddonSelection selects a configured addon by key. Quantity applies to
// per-unit addons and defaults to 1.
type AddonSelection struct {
	Key      string `json:"key"`
	Quantity int    `json:"quantity,omitempty"`
}

// Coupon is a discount applied after VAT and tax deduction.
type Coupon struct {
	Kind      string  `json:"kind"`
	Magnitude float64 `json:"magnitude"`
}

// QuoteRequest is the frozen input of one price computation. The engine
// never mutates it and performs no I/O.
type QuoteRequest struct {
	Tenant            TenantContext    `json:"tenant"`
	Service           ServiceConfig    `json:"service"`
	FrequencyKey      string           `json:"frequencyKey"`
	Inputs            QuoteInputs      `json:"inputs"`
	SelectedAddons    []AddonSelection `json:"selectedAddons,omitempty"`
	ApplyTaxDeduction bool             `json:"applyTaxDeduction"`
	Coupon            *Coupon          `json:"coupon,omitempty"`
	Answers           map[string]any   `json:"answers,omitempty"`
}

// QuoteLine is one itemized row of the breakdown. Amounts are signed minor
// units, rounded exactly once.
type QuoteLine struct {
	Key                  string `json:"key"`
	Label                string `json:"label"`
	TaxDeductionEligible bool   `json:"taxDeductionEligible"`
	AmountMinor          Money  `json:"amountMinor"`
}

// Breakdown is the itemized result of one quote. The assembler guarantees
// TotalMinor == SubtotalExVATMinor + VATMinor + TaxDeductionMinor +
// DiscountMinor, TotalMinor >= 0, and that the lines sum to TotalMinor.
type Breakdown struct {
	Currency           string      `json:"currency"`
	Model              string      `json:"model"`
	Lines              []QuoteLine `json:"lines"`
	SubtotalExVATMinor Money       `json:"subtotalExVatMinor"`
	VATMinor           Money       `json:"vatMinor"`
	TaxDeductionMinor  Money       `json:"taxDeductionMinor"`
	DiscountMinor      Money       `json:"discountMinor"`
	TotalMinor         Money       `json:"totalMinor"`
}
