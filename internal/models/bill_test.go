package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillAddMergesMatchingLines(t *testing.T) {
	var bill Bill

	bill.Add(BillLine{SKU: "SKU1", UnitPrice: decimal.RequireFromString("9.99"), Quantity: 1})
	bill.Add(BillLine{SKU: "SKU2", UnitPrice: decimal.RequireFromString("2.50"), Quantity: 2})
	bill.Add(BillLine{SKU: "SKU1", UnitPrice: decimal.RequireFromString("9.99"), Quantity: 3})

	require.Len(t, bill.Lines, 2)
	assert.Equal(t, 4, bill.Lines[0].Quantity)
	assert.Equal(t, "SKU1", bill.Lines[0].SKU)
	assert.Equal(t, 2, bill.Lines[1].Quantity)
}

func TestBillAddKeepsDistinctPricesSeparate(t *testing.T) {
	var bill Bill

	bill.Add(BillLine{SKU: "SKU1", UnitPrice: decimal.RequireFromString("9.99"), Quantity: 1})
	bill.Add(BillLine{SKU: "SKU1", UnitPrice: decimal.RequireFromString("7.50"), Quantity: 1})

	// Same product at a different price is a different line: the checkout
	// snapshot must preserve both prices.
	require.Len(t, bill.Lines, 2)
}

func TestBillTotal(t *testing.T) {
	var bill Bill
	assert.True(t, bill.Total().IsZero())

	bill.Add(BillLine{SKU: "SKU1", UnitPrice: decimal.RequireFromString("9.99"), Quantity: 3})
	bill.Add(BillLine{SKU: "SKU2", UnitPrice: decimal.RequireFromString("2.50"), Quantity: 2})

	assert.True(t, bill.Total().Equal(decimal.RequireFromString("34.97")), "total %s", bill.Total())
}

func TestBillClear(t *testing.T) {
	var bill Bill
	bill.Add(BillLine{SKU: "SKU1", UnitPrice: decimal.NewFromInt(1), Quantity: 1})

	bill.Clear()

	assert.Empty(t, bill.Lines)
	assert.True(t, bill.Total().IsZero())
}

func TestBillLineSubtotal(t *testing.T) {
	line := BillLine{SKU: "SKU1", UnitPrice: decimal.RequireFromString("0.30"), Quantity: 3}

	// Decimal arithmetic: no float drift on 0.30 * 3.
	assert.True(t, line.Subtotal().Equal(decimal.RequireFromString("0.90")), "subtotal %s", line.Subtotal())
}
