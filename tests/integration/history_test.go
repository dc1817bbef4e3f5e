package integration

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldan/pos-store/internal/database"
	"github.com/aldan/pos-store/internal/models"
	"github.com/aldan/pos-store/internal/store"
)

func TestListTransactionsNewestFirst(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.AddProduct(ctx, db, "SKU1", "Widget", decimal.NewFromInt(2), 100)
	require.NoError(t, err)

	var ids []int64
	for i := 0; i < 3; i++ {
		transaction, err := store.Checkout(ctx, db, []models.BillLine{
			{SKU: "SKU1", UnitPrice: decimal.NewFromInt(2), Quantity: 1},
		})
		require.NoError(t, err)
		ids = append(ids, transaction.ID)
	}

	transactions, err := store.ListTransactions(ctx, db, 2)
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	assert.Equal(t, ids[2], transactions[0].ID)
	assert.Equal(t, ids[1], transactions[1].ID)
}

func TestListTransactionsDefaultLimit(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	transactions, err := store.ListTransactions(ctx, db, 0)
	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestGetTransactionDetail(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.AddProduct(ctx, db, "SKU1", "Widget", decimal.RequireFromString("9.99"), 10)
	require.NoError(t, err)
	_, err = store.AddProduct(ctx, db, "SKU2", "Gasket", decimal.RequireFromString("2.50"), 10)
	require.NoError(t, err)

	created, err := store.Checkout(ctx, db, []models.BillLine{
		{SKU: "SKU1", UnitPrice: decimal.RequireFromString("9.99"), Quantity: 2},
		{SKU: "SKU2", UnitPrice: decimal.RequireFromString("2.50"), Quantity: 4},
	})
	require.NoError(t, err)

	detail, err := store.GetTransaction(ctx, db, created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, detail.ID)
	assert.True(t, detail.TotalAmount.Equal(decimal.RequireFromString("29.98")), "total %s", detail.TotalAmount)
	require.Len(t, detail.Items, 2)

	// Lines come back in insertion order with the live catalog name joined in.
	assert.Equal(t, "SKU1", detail.Items[0].ProductSKU)
	assert.Equal(t, "Widget", detail.Items[0].ProductName)
	assert.Equal(t, 2, detail.Items[0].QuantitySold)
	assert.True(t, detail.Items[0].PriceAtSale.Equal(decimal.RequireFromString("9.99")))

	assert.Equal(t, "SKU2", detail.Items[1].ProductSKU)
	assert.Equal(t, "Gasket", detail.Items[1].ProductName)
	assert.Equal(t, 4, detail.Items[1].QuantitySold)

	sum := decimal.Zero
	for _, item := range detail.Items {
		sum = sum.Add(item.LineTotal())
	}
	assert.True(t, detail.TotalAmount.Equal(sum))
}

func TestGetTransactionNotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := store.GetTransaction(context.Background(), db, 12345)
	assert.ErrorIs(t, err, database.ErrTransactionNotFound)
}

func TestListTransactionsCursor(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.AddProduct(ctx, db, "SKU1", "Widget", decimal.NewFromInt(1), 100)
	require.NoError(t, err)

	for i := 0; i < 15; i++ {
		_, err := store.Checkout(ctx, db, []models.BillLine{
			{SKU: "SKU1", UnitPrice: decimal.NewFromInt(1), Quantity: 1},
		})
		require.NoError(t, err)
	}

	page1, err := store.ListTransactionsCursor(ctx, db, "", 10)
	require.NoError(t, err)
	require.Len(t, page1.Items, 10)
	assert.True(t, page1.HasMore)
	require.NotEmpty(t, page1.NextCursor)

	page2, err := store.ListTransactionsCursor(ctx, db, page1.NextCursor, 10)
	require.NoError(t, err)
	require.Len(t, page2.Items, 5)
	assert.False(t, page2.HasMore)
	assert.Empty(t, page2.NextCursor)

	seen := make(map[int64]bool)
	for _, transaction := range append(page1.Items, page2.Items...) {
		assert.False(t, seen[transaction.ID], "transaction %d returned twice", transaction.ID)
		seen[transaction.ID] = true
	}
}
