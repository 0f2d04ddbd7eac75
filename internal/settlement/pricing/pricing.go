// Package pricing computes the full CPM/margin breakdown for a job. The
// calculator is a pure function over its rule table: no I/O, no clock, and
// identical inputs always produce identical breakdowns. All amounts are
// minor units (cents); CPM values are cents per thousand pieces.
package pricing

import (
	"fmt"

	e "github.com/inkbridge/settlement/internal/settlement/errors"
)

// Rule holds the per-size pricing inputs.
type Rule struct {
	// BaseCPM is the list customer price per 1000 pieces.
	BaseCPM int64
	// PrintCPM is the producer's print cost per 1000 pieces.
	PrintCPM int64
	// PaperWeightPer1000 is hundredths of a pound per 1000 pieces.
	PaperWeightPer1000 int64
	// PaperCostPer1000 is the paper cost per 1000 pieces.
	PaperCostPer1000 int64
}

// Breakdown is the priced view of one job. Chain sums are exact:
// CustomerTotal = BrokerMargin + IntermediaryTotal and
// IntermediaryTotal = IntermediaryMargin + ProducerTotal.
type Breakdown struct {
	CustomerCPM   int64
	CustomerTotal int64

	IntermediaryCPM       int64
	IntermediaryTotal     int64
	IntermediaryMarginCPM int64
	IntermediaryMargin    int64

	ProducerCPM   int64
	ProducerTotal int64

	BrokerMarginCPM int64
	BrokerMargin    int64

	PaperCostCPM     int64
	PaperCostTotal   int64
	PaperWeightTotal int64

	IsLoss     bool
	LossAmount int64
}

// Calculator prices jobs against an immutable rule table.
type Calculator struct {
	rules map[string]Rule
}

// NewCalculator returns a calculator over the given rules; a nil map uses
// the built-in table.
func NewCalculator(rules map[string]Rule) *Calculator {
	if rules == nil {
		rules = defaultRules
	}
	return &Calculator{rules: rules}
}

// defaultRules is the standard size table. Sizes are named by sheet class
// and trim dimensions.
var defaultRules = map[string]Rule{
	"SM_7_25_16_375": {BaseCPM: 9800, PrintCPM: 3200, PaperWeightPer1000: 1450, PaperCostPer1000: 1650},
	"MD_8_5_11":      {BaseCPM: 12400, PrintCPM: 4100, PaperWeightPer1000: 1900, PaperCostPer1000: 2100},
	"LG_11_17":       {BaseCPM: 19600, PrintCPM: 6600, PaperWeightPer1000: 3800, PaperCostPer1000: 4200},
	"XL_12_18":       {BaseCPM: 23800, PrintCPM: 8100, PaperWeightPer1000: 4350, PaperCostPer1000: 4900},
}

// Calculate prices quantity pieces of the given size. A non-nil override
// replaces the list customer price. When the override undercuts producer
// cost, the chain totals clamp to the cost floor with zero margins and the
// shortfall is reported as LossAmount.
func (c *Calculator) Calculate(size string, quantity int64, override *int64) (*Breakdown, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %d", e.ErrValidation, quantity)
	}
	rule, ok := c.rules[size]
	if !ok {
		return nil, fmt.Errorf("%w: unknown size %q", e.ErrValidation, size)
	}
	if override != nil && *override <= 0 {
		return nil, fmt.Errorf("%w: override price must be positive, got %d", e.ErrValidation, *override)
	}

	paperCost := perThousand(rule.PaperCostPer1000, quantity)
	producerTotal := perThousand(rule.PrintCPM, quantity) + paperCost

	customerTotal := perThousand(rule.BaseCPM, quantity)
	if override != nil {
		customerTotal = *override
	}

	b := &Breakdown{
		ProducerTotal:    producerTotal,
		PaperCostTotal:   paperCost,
		PaperWeightTotal: perThousand(rule.PaperWeightPer1000, quantity),
	}

	if customerTotal < producerTotal {
		// Cost floor: margins never go negative, the shortfall is
		// surfaced instead of being hidden in the chain.
		b.IsLoss = true
		b.LossAmount = producerTotal - customerTotal
		b.CustomerTotal = producerTotal
		b.IntermediaryTotal = producerTotal
		b.IntermediaryMargin = 0
		b.BrokerMargin = 0
	} else {
		margin := customerTotal - producerTotal
		b.IntermediaryMargin = margin / 2
		// Odd cent goes to the broker.
		b.BrokerMargin = margin - b.IntermediaryMargin
		b.IntermediaryTotal = producerTotal + b.IntermediaryMargin
		b.CustomerTotal = customerTotal
	}

	b.CustomerCPM = cpmOf(b.CustomerTotal, quantity)
	b.IntermediaryCPM = cpmOf(b.IntermediaryTotal, quantity)
	b.IntermediaryMarginCPM = cpmOf(b.IntermediaryMargin, quantity)
	b.ProducerCPM = cpmOf(b.ProducerTotal, quantity)
	b.BrokerMarginCPM = cpmOf(b.BrokerMargin, quantity)
	b.PaperCostCPM = cpmOf(b.PaperCostTotal, quantity)
	return b, nil
}

// Sizes lists the known size identifiers.
func (c *Calculator) Sizes() []string {
	out := make([]string, 0, len(c.rules))
	for s := range c.rules {
		out = append(out, s)
	}
	return out
}

// perThousand converts a per-1000 rate to a total, rounding half up.
func perThousand(rate, quantity int64) int64 {
	return (rate*quantity + 500) / 1000
}

// cpmOf derives the per-1000 rate from a total, rounding half up.
func cpmOf(total, quantity int64) int64 {
	return (total*1000 + quantity/2) / quantity
}
