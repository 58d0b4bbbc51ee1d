package market

import (
	"context"
	"sort"
	"sync"
)

// MemStore is an in-memory Store guarded by a single mutex, which trivially
// serializes concurrent commits. Used by tests and local runs without
// Postgres.
type MemStore struct {
	mu           sync.Mutex
	products     map[string]Product
	orders       map[string]*Order
	orderNumbers map[string]string // order number -> order id

	failCreate error // injected commit failure, see FailCreates
}

func NewMemStore() *MemStore {
	return &MemStore{
		products:     make(map[string]Product),
		orders:       make(map[string]*Order),
		orderNumbers: make(map[string]string),
	}
}

func (m *MemStore) SeedProduct(p Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

// Product returns the current catalog row, for assertions on stock levels.
func (m *MemStore) Product(id string) (Product, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	return p, ok
}

// FailCreates makes every subsequent CreateOrder abort at the commit point
// with a PersistenceError wrapping err. Pass nil to heal.
func (m *MemStore) FailCreates(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCreate = err
}

func (m *MemStore) GetProducts(ctx context.Context, ids []string) (map[string]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Product, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *MemStore) ListAvailableProducts(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		if p.Status == ProductAvailable {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) GetOrder(ctx context.Context, id string) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	cp.Items = append([]OrderItem(nil), o.Items...)
	return &cp, nil
}

// CreateOrder stages the decrements first and installs them only after every
// check passed, so an abort at any point leaves stock untouched.
func (m *MemStore) CreateOrder(ctx context.Context, o *Order) error {
	if err := ctx.Err(); err != nil {
		return &PersistenceError{Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := make(map[string]Product)
	for _, d := range DemandByProduct(o.Items) {
		p, ok := m.products[d.ProductID]
		if !ok {
			return &ProductNotFoundError{ProductID: d.ProductID}
		}
		if p.Quantity < d.Quantity {
			return &StockChangedError{ProductID: d.ProductID, Requested: d.Quantity, Available: p.Quantity}
		}
		p.Quantity -= d.Quantity
		staged[d.ProductID] = p
	}

	if _, taken := m.orderNumbers[o.OrderNumber]; taken {
		return ErrOrderNumberCollision
	}
	if m.failCreate != nil {
		return &PersistenceError{Err: m.failCreate}
	}

	for id, p := range staged {
		m.products[id] = p
	}
	cp := *o
	cp.Items = append([]OrderItem(nil), o.Items...)
	m.orders[cp.ID] = &cp
	m.orderNumbers[cp.OrderNumber] = cp.ID
	return nil
}
