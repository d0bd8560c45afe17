package provider

// Per-token USD rates by model. Rough estimates for cost bookkeeping on
// steps, not billing-grade numbers.
type rate struct {
	input  float64
	output float64
}

var modelRates = map[string]rate{
	"gpt-3.5-turbo": {input: 0.0015 / 1000, output: 0.002 / 1000},
	"gpt-4":         {input: 0.03 / 1000, output: 0.06 / 1000},
	"gpt-4-turbo":   {input: 0.01 / 1000, output: 0.03 / 1000},
	"gpt-4o":        {input: 0.0025 / 1000, output: 0.01 / 1000},
	"gpt-4o-mini":   {input: 0.00015 / 1000, output: 0.0006 / 1000},
	"gpt-4.1":       {input: 0.002 / 1000, output: 0.008 / 1000},
	"gpt-4.1-mini":  {input: 0.0004 / 1000, output: 0.0016 / 1000},
}

// cheapestModel is the fallback tier for models missing from the table.
const cheapestModel = "gpt-4o-mini"

// EstimateCost returns the estimated USD cost for a call. Unknown models
// are charged at the cheapest known tier.
func EstimateCost(model string, usage *Usage) float64 {
	if usage == nil {
		return 0
	}
	r, ok := modelRates[model]
	if !ok {
		r = modelRates[cheapestModel]
	}
	return float64(usage.InputTokens)*r.input + float64(usage.OutputTokens)*r.output
}
