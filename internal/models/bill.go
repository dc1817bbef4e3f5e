package models

import "github.com/shopspring/decimal"

// BillLine is one entry of an in-progress bill: the product picked, the unit
// price the sale will be recorded at, and how many units are being sold.
type BillLine struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

func (l BillLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Bill is the presentation-owned aggregate of an in-progress sale: an ordered
// sequence of lines plus a running total. The ledger never holds one of these
// across calls; the UI builds it up and hands Lines to Checkout wholesale.
type Bill struct {
	Lines []BillLine
}

// Add appends a line, merging the quantity into an existing line when sku and
// unit price match. Merging here is deliberate caller-side policy: Checkout
// records the line sequence exactly as given.
func (b *Bill) Add(line BillLine) {
	for i := range b.Lines {
		if b.Lines[i].SKU == line.SKU && b.Lines[i].UnitPrice.Equal(line.UnitPrice) {
			b.Lines[i].Quantity += line.Quantity
			return
		}
	}
	b.Lines = append(b.Lines, line)
}

func (b *Bill) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range b.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

func (b *Bill) Clear() {
	b.Lines = nil
}
