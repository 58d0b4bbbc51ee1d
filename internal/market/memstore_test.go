package market

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore_GetProducts_MissingIDsAbsent(t *testing.T) {
	s := NewMemStore()
	s.SeedProduct(Product{ID: "a", Status: ProductAvailable})

	got, err := s.GetProducts(context.Background(), []string{"a", "ghost"})
	require.NoError(t, err)
	assert.Contains(t, got, "a")
	assert.NotContains(t, got, "ghost")
}

func TestMemStore_CreateOrder_StockChangedUnderCommit(t *testing.T) {
	s := NewMemStore()
	s.SeedProduct(Product{ID: "a", Price: decimal.RequireFromString("1.00"), Quantity: 1, Status: ProductAvailable})

	// simulates an order validated earlier whose stock was taken in between
	o := &Order{
		ID:          "o1",
		OrderNumber: NewOrderNumber(),
		BuyerID:     "b",
		TotalAmount: decimal.RequireFromString("2.00"),
		Items: []OrderItem{
			{ID: "i1", OrderID: "o1", ProductID: "a", Quantity: 2,
				UnitPrice: decimal.RequireFromString("1.00"), Subtotal: decimal.RequireFromString("2.00")},
		},
	}
	err := s.CreateOrder(context.Background(), o)

	var changed *StockChangedError
	require.ErrorAs(t, err, &changed)
	assert.Equal(t, 2, changed.Requested)
	assert.Equal(t, 1, changed.Available)

	p, _ := s.Product("a")
	assert.Equal(t, 1, p.Quantity)
}

func TestMemStore_CreateOrder_DetectsOrderNumberCollision(t *testing.T) {
	s := NewMemStore()
	s.SeedProduct(Product{ID: "a", Price: decimal.RequireFromString("1.00"), Quantity: 10, Status: ProductAvailable})

	build := func(id, number string) *Order {
		return &Order{
			ID: id, OrderNumber: number, BuyerID: "b",
			TotalAmount: decimal.RequireFromString("1.00"),
			Items: []OrderItem{
				{ID: id + "-i", OrderID: id, ProductID: "a", Quantity: 1,
					UnitPrice: decimal.RequireFromString("1.00"), Subtotal: decimal.RequireFromString("1.00")},
			},
		}
	}

	require.NoError(t, s.CreateOrder(context.Background(), build("o1", "ORD-1-aaaa")))
	err := s.CreateOrder(context.Background(), build("o2", "ORD-1-aaaa"))
	assert.ErrorIs(t, err, ErrOrderNumberCollision)

	// collision aborted before the decrement was installed
	p, _ := s.Product("a")
	assert.Equal(t, 9, p.Quantity)
}

func TestMemStore_GetOrder_NotFound(t *testing.T) {
	s := NewMemStore()
	_, err := s.GetOrder(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMemStore_ListAvailableProducts_FiltersStatus(t *testing.T) {
	s := NewMemStore()
	s.SeedProduct(Product{ID: "a", Status: ProductAvailable})
	s.SeedProduct(Product{ID: "b", Status: ProductDiscontinued})
	s.SeedProduct(Product{ID: "c", Status: ProductAvailable})

	got, err := s.ListAvailableProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
}
