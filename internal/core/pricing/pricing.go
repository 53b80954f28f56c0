package pricing

import (
	"strings"
)

// Tier defines token pricing for a family of models. Match is compared
// case-insensitively as a substring of the model identifier.
type Tier struct {
	Match  string  `yaml:"match"`
	Input  float64 `yaml:"input"`  // Dollars per million input tokens
	Output float64 `yaml:"output"` // Dollars per million output tokens
}

// Table maps model identifiers to tiers. Tiers are checked in order; the
// fallback tier covers every identifier nothing else matched, including the
// empty one. Figures are estimates, not a billing source of truth.
type Table struct {
	tiers    []Tier
	fallback Tier
}

// defaultTiers is the built-in pricing: a premium tier, a low-cost tier and a
// mid fallback.
var defaultTiers = []Tier{
	{Match: "opus", Input: 15.00, Output: 75.00},
	{Match: "haiku", Input: 0.80, Output: 4.00},
}

var defaultFallback = Tier{Match: "", Input: 3.00, Output: 15.00}

// NewDefaultTable returns the built-in pricing table.
func NewDefaultTable() *Table {
	return &Table{tiers: defaultTiers, fallback: defaultFallback}
}

// NewTable builds a table from explicit tiers. A tier with an empty Match
// replaces the fallback; the remaining tiers are matched in the given order.
func NewTable(tiers []Tier) *Table {
	t := &Table{fallback: defaultFallback}
	for _, tier := range tiers {
		if tier.Match == "" {
			t.fallback = tier
			continue
		}
		t.tiers = append(t.tiers, tier)
	}
	return t
}

// TierFor returns the tier covering the given model identifier.
func (t *Table) TierFor(model string) Tier {
	lower := strings.ToLower(model)
	for _, tier := range t.tiers {
		if strings.Contains(lower, strings.ToLower(tier.Match)) {
			return tier
		}
	}
	return t.fallback
}

// Estimate computes the dollar cost of a model call. Unmatched or empty model
// identifiers price at the fallback tier; estimation never fails.
func (t *Table) Estimate(inputTokens, outputTokens int, model string) float64 {
	tier := t.TierFor(model)
	return float64(inputTokens)/1_000_000*tier.Input +
		float64(outputTokens)/1_000_000*tier.Output
}
