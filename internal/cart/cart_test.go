package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestAddItemMergesExistingLine(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	cart := &Cart{}
	line := Line{ProductID: productID, Name: "Mug", Price: decimal.NewFromInt(5)}

	cart.AddItem(line, 2)
	cart.AddItem(line, 3)

	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 5, cart.Lines[0].Quantity)
	assert.Equal(t, 5, cart.TotalItems())
}

func TestAddItemClampsToStock(t *testing.T) {
	t.Parallel()

	cart := &Cart{}
	line := Line{ProductID: uuid.New(), Price: mustDecimal(t, "29.990"), Stock: intPtr(45)}

	cart.AddItem(line, 100)

	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 45, cart.Lines[0].Quantity)
}

func TestAddItemMergeClampsCombinedQuantity(t *testing.T) {
	t.Parallel()

	cart := &Cart{}
	line := Line{ProductID: uuid.New(), Price: decimal.NewFromInt(1), Stock: intPtr(10)}

	cart.AddItem(line, 7)
	cart.AddItem(line, 7)

	assert.Equal(t, 10, cart.Lines[0].Quantity)
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	cart := &Cart{}
	cart.AddItem(Line{ProductID: productID, Price: decimal.NewFromInt(2)}, 3)

	require.True(t, cart.UpdateQuantity(productID, 0))
	assert.True(t, cart.IsEmpty())
}

func TestUpdateQuantityClampsAndMissingProduct(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	cart := &Cart{}
	cart.AddItem(Line{ProductID: productID, Price: decimal.NewFromInt(2), Stock: intPtr(4)}, 1)

	require.True(t, cart.UpdateQuantity(productID, 9))
	assert.Equal(t, 4, cart.Lines[0].Quantity)

	assert.False(t, cart.UpdateQuantity(uuid.New(), 2))
}

func TestSubtotalSumsLines(t *testing.T) {
	t.Parallel()

	cart := &Cart{}
	cart.AddItem(Line{ProductID: uuid.New(), Price: mustDecimal(t, "29.990"), Stock: intPtr(45)}, 2)
	cart.AddItem(Line{ProductID: uuid.New(), Price: mustDecimal(t, "49.990")}, 1)

	assert.True(t, cart.Subtotal().Equal(mustDecimal(t, "109.970")),
		"subtotal = %s", cart.Subtotal())
	assert.Equal(t, 3, cart.TotalItems())
}

func TestRemoveItemAndClear(t *testing.T) {
	t.Parallel()

	first := uuid.New()
	second := uuid.New()
	cart := &Cart{}
	cart.AddItem(Line{ProductID: first, Price: decimal.NewFromInt(1)}, 1)
	cart.AddItem(Line{ProductID: second, Price: decimal.NewFromInt(1)}, 1)

	require.True(t, cart.RemoveItem(first))
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, second, cart.Lines[0].ProductID)
	assert.False(t, cart.RemoveItem(first))

	cart.Clear()
	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.Subtotal().IsZero())
}
