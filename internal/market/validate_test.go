package market

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalog() map[string]Product {
	return map[string]Product{
		"apple": {ID: "apple", Price: decimal.RequireFromString("100.00"), Unit: "kg", Quantity: 10, Status: ProductAvailable},
		"mango": {ID: "mango", Price: decimal.RequireFromString("45.50"), Unit: "kg", Quantity: 3, Status: ProductAvailable},
		"durian": {ID: "durian", Price: decimal.RequireFromString("250.00"), Unit: "pc", Quantity: 5, Status: ProductOutOfStock},
	}
}

func TestValidateItems_HappyPath_SnapshotsPrices(t *testing.T) {
	lines, err := ValidateItems([]ItemInput{
		{ProductID: "apple", Quantity: 3},
		{ProductID: "mango", Quantity: 1},
	}, catalog())

	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "apple", lines[0].ProductID)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.True(t, lines[0].UnitPrice.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, lines[1].UnitPrice.Equal(decimal.RequireFromString("45.50")))
}

func TestValidateItems_EmptyOrder(t *testing.T) {
	_, err := ValidateItems(nil, catalog())
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestValidateItems_FirstErrorWins(t *testing.T) {
	// mango line is also short on stock, but the unknown product comes first
	_, err := ValidateItems([]ItemInput{
		{ProductID: "nope", Quantity: 1},
		{ProductID: "mango", Quantity: 99},
	}, catalog())

	var notFound *ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nope", notFound.ProductID)
}

func TestValidateItems_UnavailableProduct(t *testing.T) {
	_, err := ValidateItems([]ItemInput{{ProductID: "durian", Quantity: 1}}, catalog())

	var unavailable *ProductUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "durian", unavailable.ProductID)
	assert.Equal(t, ProductOutOfStock, unavailable.Status)
}

func TestValidateItems_InsufficientStock_CarriesFigures(t *testing.T) {
	_, err := ValidateItems([]ItemInput{{ProductID: "mango", Quantity: 4}}, catalog())

	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, "mango", short.ProductID)
	assert.Equal(t, 4, short.Requested)
	assert.Equal(t, 3, short.Available)
}

func TestValidateItems_DuplicateLinesShareOneStockDraw(t *testing.T) {
	// each line alone fits, together they exceed the 3 in stock
	_, err := ValidateItems([]ItemInput{
		{ProductID: "mango", Quantity: 2},
		{ProductID: "mango", Quantity: 2},
	}, catalog())

	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, 4, short.Requested)
	assert.Equal(t, 3, short.Available)
}

func TestValidateItems_DuplicateLinesWithinStockPass(t *testing.T) {
	lines, err := ValidateItems([]ItemInput{
		{ProductID: "mango", Quantity: 2},
		{ProductID: "mango", Quantity: 1},
	}, catalog())

	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestValidateItems_RejectsNonPositiveQuantity(t *testing.T) {
	for _, qty := range []int{0, -1} {
		_, err := ValidateItems([]ItemInput{{ProductID: "apple", Quantity: qty}}, catalog())
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
}

func TestDemandByProduct_SumsAndSortsByID(t *testing.T) {
	demand := DemandByProduct([]OrderItem{
		{ProductID: "b", Quantity: 2},
		{ProductID: "a", Quantity: 1},
		{ProductID: "b", Quantity: 3},
	})

	require.Len(t, demand, 2)
	assert.Equal(t, Demand{ProductID: "a", Quantity: 1}, demand[0])
	assert.Equal(t, Demand{ProductID: "b", Quantity: 5}, demand[1])
}
