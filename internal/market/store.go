package market

import "context"

// Store is the persistence boundary for the order flow: product reads for
// validation and the atomic commit of an order. Implementations live in
// internal/postgres (production) and memstore.go (in-memory).
type Store interface {
	// GetProducts batch-reads the requested products. Missing ids are simply
	// absent from the result; the validator turns that into ProductNotFound.
	GetProducts(ctx context.Context, ids []string) (map[string]Product, error)

	ListAvailableProducts(ctx context.Context) ([]Product, error)

	// GetOrder returns the order with its items, or ErrOrderNotFound.
	GetOrder(ctx context.Context, id string) (*Order, error)

	// CreateOrder commits the order header, its items, and the matching stock
	// decrements as one atomic unit. Stock is re-checked under lock: if a
	// concurrent order shrank it below the combined demand, the whole commit
	// aborts with *StockChangedError and no decrement persists. A duplicate
	// order number aborts with ErrOrderNumberCollision; any other storage
	// failure rolls back and surfaces as *PersistenceError.
	CreateOrder(ctx context.Context, o *Order) error
}
