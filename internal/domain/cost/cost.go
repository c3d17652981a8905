// Package cost estimates the monetary cost of completion calls.
// Estimates are advisory: unknown models fall back to the default rate.
package cost

import (
	"math"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// DefaultModel is the model whose rate is used for unknown identifiers.
const DefaultModel = "gpt-4o-mini"

// Rate is a per-token price pair in USD.
type Rate struct {
	Prompt     float64
	Completion float64
}

// PerMillion builds a Rate from prices quoted per one million tokens.
func PerMillion(prompt, completion float64) Rate {
	return Rate{Prompt: prompt / 1_000_000, Completion: completion / 1_000_000}
}

// DefaultRates returns the built-in price table.
func DefaultRates() map[string]Rate {
	return map[string]Rate{
		"gpt-4o-mini":             PerMillion(0.15, 0.60),
		"gpt-4o":                  PerMillion(2.50, 10.00),
		"claude-3-5-haiku-latest": PerMillion(0.80, 4.00),
		"claude-sonnet-4-5":       PerMillion(3.00, 15.00),
		"gemini-2.5-flash":        PerMillion(0.30, 2.50),
	}
}

// Model maps model identifiers to rates.
type Model struct {
	rates    map[string]Rate
	fallback Rate
}

// NewModel returns a cost model seeded with DefaultRates. Entries in overrides
// replace or extend the table.
func NewModel(overrides map[string]Rate) *Model {
	rates := DefaultRates()
	for name, r := range overrides {
		rates[name] = r
	}
	return &Model{rates: rates, fallback: rates[DefaultModel]}
}

// Rate returns the rate for model and whether it was found.
func (m *Model) Rate(model string) (Rate, bool) {
	r, ok := m.rates[model]
	if !ok {
		return m.fallback, false
	}
	return r, true
}

// Estimate prices a call. It never fails; each amount is rounded to 6 decimals.
func (m *Model) Estimate(promptTokens, completionTokens int, model string) entities.EstimatedCost {
	r, _ := m.Rate(model)
	promptCost := float64(promptTokens) * r.Prompt
	completionCost := float64(completionTokens) * r.Completion
	return entities.EstimatedCost{
		Amount: round6(promptCost + completionCost),
		Model:  model,
		Breakdown: entities.CostBreakdown{
			PromptCost:     round6(promptCost),
			CompletionCost: round6(completionCost),
		},
	}
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
