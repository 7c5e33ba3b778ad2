/*
money.go - Locale-aware money parsing and formatting

PURPOSE:
  Valuation inputs arrive as operator-entered strings in es-AR notation:
  thousands separated by ".", decimals by ",", optional leading "$".
  ParseAmount normalizes them to decimal values; FormatAmount renders
  them back for display.

ROBUSTNESS:
  ParseAmount is total: malformed input parses to zero instead of
  failing. These values flow through an interactive compute path and an
  operator typo must never crash it. Callers that need strict parsing
  should validate upstream.

SEE ALSO:
  - calc.go: Consumes parsed amounts
*/
package claims

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount normalizes a locale-formatted numeric string to a decimal.
// "1.234,56" parses to 1234.56, "$ 500" to 500, "abc" to 0.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	// Thousands separator out, decimal comma in.
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatAmount renders d in es-AR notation: "1.234,56". Amounts with a
// zero fractional part are displayed without decimals ("500"). This is
// presentation only; stored values always keep two decimals.
func FormatAmount(d decimal.Decimal) string {
	d = d.Round(2)

	neg := d.IsNegative()
	if neg {
		d = d.Neg()
	}

	fixed := d.StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	// Group the integer digits in threes.
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	out := b.String()
	if fracPart != "00" {
		out += "," + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}
