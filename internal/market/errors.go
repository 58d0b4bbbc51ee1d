package market

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyOrder = errors.New("order has no line items")

	// ErrInvalidQuantity is wrapped with the offending product id.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrOrderNumberCollision is internal; the service retries with a fresh
	// number before surfacing anything to the caller.
	ErrOrderNumberCollision = errors.New("order number already taken")

	ErrOrderNotFound = errors.New("order not found")
)

type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.ProductID)
}

type ProductUnavailableError struct {
	ProductID string
	Status    ProductStatus
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s is not purchasable (status=%s)", e.ProductID, e.Status)
}

// InsufficientStockError carries both figures so the caller can render a
// precise message. Requested is the combined demand across duplicate lines.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// StockChangedError means stock dropped below the requested amount between
// validation and commit; a concurrent order won the race.
type StockChangedError struct {
	ProductID string
	Requested int
	Available int
}

func (e *StockChangedError) Error() string {
	return fmt.Sprintf("stock changed for product %s: requested %d, now available %d",
		e.ProductID, e.Requested, e.Available)
}

// PersistenceError wraps a storage failure after which the whole operation
// has been rolled back.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
