package claims_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/claims-engine/claims"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func item(marketValue, deduction string, byProvider bool) claims.LineItem {
	return claims.LineItem{
		Concept:          "item",
		MarketValue:      dec(marketValue),
		DeductionPercent: dec(deduction),
		PaidByProvider:   byProvider,
	}
}

func assertDecEqual(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), append([]any{"got %v, want %v", got, want}, msgAndArgs...)...)
}

// =============================================================================
// LINE ITEM FORMULA TESTS
// =============================================================================

func TestComputeIndemnification_InsuredSumCapsBase(t *testing.T) {
	// GIVEN: Insured sum 1000, market value 1500, 10% deduction
	// WHEN: Computing the indemnification
	// THEN: The base is capped at 1000, payable 900, savings 100

	li := item("1500", "10", false)
	sum := dec("1000")

	assertDecEqual(t, "900", claims.ComputeIndemnification(sum, li))
	assertDecEqual(t, "100", claims.ItemSavings(sum, li))
}

func TestComputeIndemnification_ZeroInsuredSumMeansUncapped(t *testing.T) {
	// A zero insured sum does not cap the base at zero.
	li := item("1500", "10", false)
	assertDecEqual(t, "1350", claims.ComputeIndemnification(decimal.Zero, li))

	// No cap and no deduction: full market value, nothing saved.
	li = item("800", "0", false)
	assertDecEqual(t, "800", claims.ComputeIndemnification(decimal.Zero, li))
	assertDecEqual(t, "0", claims.ItemSavings(decimal.Zero, li))
}

func TestComputeIndemnification_SumAboveMarketValueIsIgnored(t *testing.T) {
	li := item("800", "25", false)
	assertDecEqual(t, "600", claims.ComputeIndemnification(dec("1000"), li))
}

func TestComputeIndemnification_RoundsToTwoDecimals(t *testing.T) {
	li := item("100", "33.33", false)
	// 100 * 0.6667 = 66.67
	assertDecEqual(t, "66.67", claims.ComputeIndemnification(decimal.Zero, li))
}

func TestComputeIndemnification_FullDeduction(t *testing.T) {
	li := item("1000", "100", false)
	assertDecEqual(t, "0", claims.ComputeIndemnification(decimal.Zero, li))
	assertDecEqual(t, "1000", claims.ItemSavings(decimal.Zero, li))
}

// =============================================================================
// RECALCULATION TESTS
// =============================================================================

func TestRecalculateCase_RefreshesCachedValues(t *testing.T) {
	// GIVEN: A case whose cached indemnifications are stale
	// WHEN: Recalculating
	// THEN: Every cached value matches the formula again

	c := &claims.Case{
		Coverages: []claims.Coverage{
			{
				Name:       "ROBO CONTENIDO",
				InsuredSum: dec("1000"),
				Items: []claims.LineItem{
					{Concept: "phone", MarketValue: dec("1500"), DeductionPercent: dec("10"), Indemnification: dec("999999")},
				},
			},
		},
	}

	claims.RecalculateCase(c)
	assertDecEqual(t, "900", c.Coverages[0].Items[0].Indemnification)

	// Idempotent: a second pass changes nothing.
	claims.RecalculateCase(c)
	assertDecEqual(t, "900", c.Coverages[0].Items[0].Indemnification)
}

// =============================================================================
// TOTALS TESTS
// =============================================================================

func TestComputeTotals_SplitsByPaymentChannel(t *testing.T) {
	// GIVEN: Two coverages, one provider-paid item and two cash items
	// WHEN: Computing totals
	// THEN: Indemnifications split by channel and Paid is their sum

	coverages := []claims.Coverage{
		{
			Name:       "ELECTRO",
			InsuredSum: dec("1000"),
			Items: []claims.LineItem{
				item("1500", "10", true), // base 1000 -> 900 provider
				item("200", "0", false),  // 200 cash
			},
		},
		{
			Name:       "CRISTALES",
			InsuredSum: decimal.Zero,
			Items: []claims.LineItem{
				item("300", "50", false), // 150 cash
			},
		},
	}

	totals := claims.ComputeTotals(coverages)
	assertDecEqual(t, "900", totals.ProviderChannel)
	assertDecEqual(t, "350", totals.CashChannel)
	assertDecEqual(t, "1250", totals.Paid)
	assertDecEqual(t, "250", totals.Savings) // 100 cap savings + 150 deduction
}

func TestComputeTotals_IgnoresStaleCachedIndemnification(t *testing.T) {
	// Totals come from the formula, never from the cached field.
	coverages := []claims.Coverage{
		{
			InsuredSum: decimal.Zero,
			Items: []claims.LineItem{
				{MarketValue: dec("100"), DeductionPercent: dec("0"), Indemnification: dec("12345")},
			},
		},
	}
	totals := claims.ComputeTotals(coverages)
	assertDecEqual(t, "100", totals.Paid)
}

func TestComputeTotals_EmptyCaseIsAllZero(t *testing.T) {
	totals := claims.ComputeTotals(nil)
	assert.True(t, totals.Savings.IsZero())
	assert.True(t, totals.Paid.IsZero())
}
