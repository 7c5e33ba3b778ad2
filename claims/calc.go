/*
calc.go - Multi-coverage indemnification calculator

PURPOSE:
  Derives payable amounts from raw valuation inputs. For each line item
  within a coverage with insured sum S:

    base            = S when 0 < S < marketValue, else marketValue
    indemnification = base * (1 - deductionPercent/100), rounded to 2
    savings         = base - indemnification

  Aggregation across all coverages of a case splits indemnifications by
  payment channel: items paid through a service provider go to the
  purchase-order channel, the rest to the cash channel.

RECALCULATION:
  Indemnification is cached on the line item for display but must never
  diverge from the formula. Whenever marketValue, deductionPercent, or
  the coverage's insured sum changes, callers recompute eagerly through
  RecalculateCase/RecalculateCoverage - reports never observe stale
  cached values. Recomputation is idempotent.

SEE ALSO:
  - types.go: Coverage and LineItem definitions
  - lifecycle.go: Recomputes before closing a case as paid
*/
package claims

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ItemBase returns the indemnification base for a line item: the insured
// sum caps the market value when the sum is positive and smaller.
// A zero (or absent) insured sum means the coverage is uncapped.
func ItemBase(insuredSum, marketValue decimal.Decimal) decimal.Decimal {
	if insuredSum.IsPositive() && insuredSum.LessThan(marketValue) {
		return insuredSum
	}
	return marketValue
}

// ComputeIndemnification applies the deduction percentage to the capped
// base and rounds to two decimals for storage.
func ComputeIndemnification(insuredSum decimal.Decimal, item LineItem) decimal.Decimal {
	base := ItemBase(insuredSum, item.MarketValue)
	factor := decimal.New(1, 0).Sub(item.DeductionPercent.Div(hundred))
	return base.Mul(factor).Round(2)
}

// ItemSavings is what the insurer saved on one item: base minus the
// indemnification actually payable.
func ItemSavings(insuredSum decimal.Decimal, item LineItem) decimal.Decimal {
	base := ItemBase(insuredSum, item.MarketValue)
	return base.Sub(ComputeIndemnification(insuredSum, item))
}

// RecalculateCoverage recomputes the cached indemnification of every
// line item in the coverage.
func RecalculateCoverage(cov *Coverage) {
	for i := range cov.Items {
		cov.Items[i].Indemnification = ComputeIndemnification(cov.InsuredSum, cov.Items[i])
	}
}

// RecalculateCase recomputes every line item of every coverage.
func RecalculateCase(c *Case) {
	for i := range c.Coverages {
		RecalculateCoverage(&c.Coverages[i])
	}
}

// =============================================================================
// TOTALS - Aggregation across all coverages of a case
// =============================================================================

// Totals aggregates indemnifications and savings across all coverages.
// Paid is always ProviderChannel + CashChannel.
type Totals struct {
	Savings         decimal.Decimal // total insurer savings
	ProviderChannel decimal.Decimal // paid to providers via purchase order
	CashChannel     decimal.Decimal // paid to the insured in cash
	Paid            decimal.Decimal // total settled on the claim
}

// ComputeTotals folds every line item into channel totals. Amounts are
// taken from the formula, not from the cached field, so totals are
// correct even against un-recalculated input.
func ComputeTotals(coverages []Coverage) Totals {
	t := Totals{
		Savings:         decimal.Zero,
		ProviderChannel: decimal.Zero,
		CashChannel:     decimal.Zero,
		Paid:            decimal.Zero,
	}
	for _, cov := range coverages {
		for _, item := range cov.Items {
			ind := ComputeIndemnification(cov.InsuredSum, item)
			t.Savings = t.Savings.Add(ItemBase(cov.InsuredSum, item.MarketValue).Sub(ind))
			if item.PaidByProvider {
				t.ProviderChannel = t.ProviderChannel.Add(ind)
			} else {
				t.CashChannel = t.CashChannel.Add(ind)
			}
		}
	}
	t.Paid = t.ProviderChannel.Add(t.CashChannel)
	return t
}
