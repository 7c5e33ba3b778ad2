package claims_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/claims-engine/claims"
)

func TestInvoiceTotals_VATOnTaxableLinesOnly(t *testing.T) {
	// GIVEN: One taxable line and one exempt line
	// WHEN: Totalling the invoice
	// THEN: VAT accrues at 21% on the taxable line only

	inv := claims.Invoice{
		ClaimNumber: "SIN-2026-001",
		Items: []claims.InvoiceItem{
			{Concept: "REPARACION", Net: dec("1000"), ApplyVAT: true},
			{Concept: "FLETE", Net: dec("200"), ApplyVAT: false},
		},
	}

	totals := inv.Totals()
	assertDecEqual(t, "1200", totals.Net)
	assertDecEqual(t, "210", totals.VAT)
	assertDecEqual(t, "1410", totals.Total)
}

func TestInvoiceTotals_VATRoundsPerItem(t *testing.T) {
	// 33.33 * 0.21 = 6.9993 -> 7.00 per item, as on the printed document.
	inv := claims.Invoice{
		Items: []claims.InvoiceItem{
			{Concept: "A", Net: dec("33.33"), ApplyVAT: true},
			{Concept: "B", Net: dec("33.33"), ApplyVAT: true},
		},
	}

	totals := inv.Totals()
	assertDecEqual(t, "14", totals.VAT)
}

func TestInvoiceTotals_Empty(t *testing.T) {
	inv := claims.Invoice{}
	totals := inv.Totals()
	assert.True(t, totals.Total.IsZero())
}
