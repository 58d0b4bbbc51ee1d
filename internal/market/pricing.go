package market

import "github.com/shopspring/decimal"

// Subtotal is quantity times the snapshotted unit price, in exact decimal
// arithmetic.
func Subtotal(l Line) decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// TotalAmount sums the line subtotals. It only reads the prices already
// snapshotted by validation, never the catalog.
func TotalAmount(lines []Line) (decimal.Decimal, error) {
	if len(lines) == 0 {
		return decimal.Zero, ErrEmptyOrder
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(Subtotal(l))
	}
	return total, nil
}
