package market

import (
	"fmt"
	"sort"
)

// ValidateItems checks every requested line against the product snapshot and
// returns price-snapshotted lines. It fails on the first invalid line. Demand
// is accumulated per product while walking the lines, so two lines for the
// same product cannot together draw more than the available stock even when
// each line alone would pass.
func ValidateItems(items []ItemInput, products map[string]Product) ([]Line, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	demand := make(map[string]int, len(items))
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("product %s: %w", it.ProductID, ErrInvalidQuantity)
		}
		p, ok := products[it.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: it.ProductID}
		}
		if p.Status != ProductAvailable {
			return nil, &ProductUnavailableError{ProductID: it.ProductID, Status: p.Status}
		}
		demand[it.ProductID] += it.Quantity
		if demand[it.ProductID] > p.Quantity {
			return nil, &InsufficientStockError{
				ProductID: it.ProductID,
				Requested: demand[it.ProductID],
				Available: p.Quantity,
			}
		}
		lines = append(lines, Line{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: p.Price})
	}
	return lines, nil
}

// DemandByProduct sums item quantities per distinct product, ordered by
// product id. Stores take locks in this order so two concurrent orders for
// overlapping products cannot deadlock.
func DemandByProduct(items []OrderItem) []Demand {
	byID := make(map[string]int, len(items))
	for _, it := range items {
		byID[it.ProductID] += it.Quantity
	}
	out := make([]Demand, 0, len(byID))
	for id, qty := range byID {
		out = append(out, Demand{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func distinctProductIDs(items []ItemInput) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			out = append(out, it.ProductID)
		}
	}
	return out
}
