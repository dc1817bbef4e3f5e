package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type Transaction struct {
	ID          int64             `json:"transaction_id"`
	Timestamp   time.Time         `json:"timestamp"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Items       []TransactionLine `json:"items,omitempty"`
}

// TransactionLine is one immutable line of a recorded sale. ProductName is
// joined from the live catalog row at read time; PriceAtSale is the snapshot
// taken at checkout and never changes.
type TransactionLine struct {
	ItemID        int64           `json:"item_id"`
	TransactionID int64           `json:"transaction_id"`
	ProductSKU    string          `json:"product_sku"`
	ProductName   string          `json:"product_name"`
	QuantitySold  int             `json:"quantity_sold"`
	PriceAtSale   decimal.Decimal `json:"price_at_sale"`
}

func (l TransactionLine) LineTotal() decimal.Decimal {
	return l.PriceAtSale.Mul(decimal.NewFromInt(int64(l.QuantitySold)))
}
