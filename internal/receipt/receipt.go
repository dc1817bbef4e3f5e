// Package receipt renders a recorded transaction as a fixed-width plain-text
// receipt for display or printing.
package receipt

import (
	"fmt"
	"strings"

	"github.com/aldan/pos-store/internal/models"
)

const (
	rule      = "------------------------------"
	nameWidth = 15
)

// Render formats the transaction detail as returned by the ledger: live
// product names, snapshot prices.
func Render(t *models.Transaction) string {
	var b strings.Builder

	b.WriteString("--- RECEIPT ---\n")
	fmt.Fprintf(&b, "Transaction ID: %d\n", t.ID)
	fmt.Fprintf(&b, "Date: %s\n", t.Timestamp.Format("2006-01-02 15:04:05"))
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "%-4s %-15s %8s\n", "Qty", "Item", "Price")
	b.WriteString(rule + "\n")

	for _, item := range t.Items {
		name := item.ProductName
		if len(name) > nameWidth {
			name = name[:nameWidth]
		}
		fmt.Fprintf(&b, "%-4d %-15s %8s\n", item.QuantitySold, name, item.LineTotal().StringFixed(2))
	}

	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "TOTAL: $%s\n", t.TotalAmount.StringFixed(2))

	return b.String()
}
