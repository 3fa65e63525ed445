package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"storebill/internal/domain"
)

// Tolerance for client-supplied money values.
var epsilon = decimal.RequireFromString("0.01")

var hundred = decimal.NewFromInt(100)

// Line is a priced cart entry as the POS sees it.
type Line struct {
	UnitPrice float64
	Quantity  int
}

type Totals struct {
	Subtotal    float64
	Discount    float64
	TaxAmount   float64
	TotalAmount float64
}

// ComputeTotals prices a cart the way the POS does: discount is a percentage
// of the subtotal, GST a percentage of the discounted amount, and the grand
// total is rounded to whole currency units.
func ComputeTotals(lines []Line, discountPct, gstPct float64) Totals {
	sub := decimal.Zero
	for _, l := range lines {
		sub = sub.Add(lineTotal(l.UnitPrice, l.Quantity))
	}
	disc := sub.Mul(decimal.NewFromFloat(discountPct)).Div(hundred).Round(2)
	tax := sub.Sub(disc).Mul(decimal.NewFromFloat(gstPct)).Div(hundred).Round(2)
	return Totals{
		Subtotal:    sub.InexactFloat64(),
		Discount:    disc.InexactFloat64(),
		TaxAmount:   tax.InexactFloat64(),
		TotalAmount: grandTotal(sub, disc, tax).InexactFloat64(),
	}
}

// LineTotal is qty × unitPrice rounded to 2 places, the amount ComputeTotals
// adds to the subtotal for that line.
func LineTotal(unitPrice float64, qty int) float64 {
	return lineTotal(unitPrice, qty).InexactFloat64()
}

func lineTotal(unitPrice float64, qty int) decimal.Decimal {
	return decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(qty))).Round(2)
}

func grandTotal(sub, disc, tax decimal.Decimal) decimal.Decimal {
	return sub.Sub(disc).Add(tax).Round(0)
}

func near(a, b decimal.Decimal) bool { return a.Sub(b).Abs().LessThanOrEqual(epsilon) }

// CheckTotals recomputes every derived amount of in and rejects any that
// disagree with what the caller sent.
func CheckTotals(in CreateInvoiceInput) error {
	sum := decimal.Zero
	for i, it := range in.Items {
		want := lineTotal(it.UnitPrice, it.Quantity)
		got := decimal.NewFromFloat(it.Total)
		if !near(want, got) {
			return fmt.Errorf("%w: items[%d].total is %s, expected %s", domain.ErrTotalsMismatch, i, got, want)
		}
		sum = sum.Add(got)
	}
	sub := decimal.NewFromFloat(in.Subtotal)
	if !near(sum, sub) {
		return fmt.Errorf("%w: subtotal is %s, items sum to %s", domain.ErrTotalsMismatch, sub, sum)
	}
	want := grandTotal(sub, decimal.NewFromFloat(in.Discount), decimal.NewFromFloat(in.TaxAmount))
	got := decimal.NewFromFloat(in.TotalAmount)
	if !near(want, got) {
		return fmt.Errorf("%w: totalAmount is %s, expected %s", domain.ErrTotalsMismatch, got, want)
	}
	return nil
}
