/*
invoice.go - Settlement invoice record

PURPOSE:
  The structured record for the invoice attached to a case: header
  fields from the fiscal document plus net line items. VAT is applied at
  the standard 21% rate per item when the item is taxable.

  Extracting these fields from an uploaded PDF is the surrounding
  application's concern; this type only holds and totals the data.
*/
package claims

import (
	"time"

	"github.com/shopspring/decimal"
)

// VATRate is the standard IVA rate applied to taxable invoice items.
var VATRate = decimal.NewFromFloat(0.21)

// InvoiceItem is one net line on an invoice.
type InvoiceItem struct {
	Concept  string
	Net      decimal.Decimal
	ApplyVAT bool
}

// Invoice is the fiscal document attached to a case, at most one per
// claim number.
type Invoice struct {
	ClaimNumber string
	PointOfSale string // punto de venta
	Number      string
	CAE         string // fiscal authorization code
	IssueDate   *time.Time
	Items       []InvoiceItem
}

// InvoiceTotals breaks an invoice down into net, VAT and gross total.
type InvoiceTotals struct {
	Net   decimal.Decimal
	VAT   decimal.Decimal
	Total decimal.Decimal
}

// Totals sums the items: VAT accrues only on taxable lines, rounded to
// two decimals per item as on the printed document.
func (inv *Invoice) Totals() InvoiceTotals {
	t := InvoiceTotals{Net: decimal.Zero, VAT: decimal.Zero, Total: decimal.Zero}
	for _, item := range inv.Items {
		t.Net = t.Net.Add(item.Net)
		if item.ApplyVAT {
			t.VAT = t.VAT.Add(item.Net.Mul(VATRate).Round(2))
		}
	}
	t.Total = t.Net.Add(t.VAT)
	return t
}
