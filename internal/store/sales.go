package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aldan/pos-store/internal/database"
	"github.com/aldan/pos-store/internal/models"
	"github.com/shopspring/decimal"
)

// DefaultHistoryLimit bounds ListTransactions when the caller passes no limit.
const DefaultHistoryLimit = 50

// Checkout records a sale as one atomic unit: one transaction row, one line
// item per bill line, one stock decrement per bill line. Duplicate skus in the
// bill are recorded as separate lines, exactly as given; merging is the
// caller's policy (models.Bill.Add does it).
//
// Stock is re-read under FOR UPDATE inside the transaction for every line,
// so a shortfall discovered on the last line rolls back the transaction row,
// every line item, and every decrement already applied.
func Checkout(ctx context.Context, db *sql.DB, lines []models.BillLine) (*models.Transaction, error) {
	if len(lines) == 0 {
		return nil, &database.ValidationError{Reason: "cannot process an empty bill"}
	}

	total := decimal.Zero
	for _, line := range lines {
		if NormalizeSKU(line.SKU) == "" {
			return nil, &database.ValidationError{Reason: "bill line sku must not be empty"}
		}
		if line.Quantity <= 0 {
			return nil, &database.ValidationError{
				Reason: fmt.Sprintf("bill line %q quantity must be positive", line.SKU),
			}
		}
		if line.UnitPrice.IsNegative() {
			return nil, &database.ValidationError{
				Reason: fmt.Sprintf("bill line %q unit price must not be negative", line.SKU),
			}
		}
		total = total.Add(line.Subtotal())
	}

	transaction := &models.Transaction{}

	err := database.WithRetry(ctx, db, database.TxOptions{
		IsolationLevel: sql.LevelSerializable,
		MaxRetries:     3,
	}, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO transactions (total_amount)
			 VALUES ($1)
			 RETURNING transaction_id, timestamp`,
			total).Scan(&transaction.ID, &transaction.Timestamp)
		if err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}

		for _, line := range lines {
			sku := NormalizeSKU(line.SKU)

			var stock int
			err := tx.QueryRowContext(ctx,
				`SELECT quantity FROM products WHERE sku = $1 FOR UPDATE`,
				sku).Scan(&stock)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					// A vanished product reads as zero stock, as the
					// interface reports it to the cashier.
					return &database.InsufficientStockError{
						SKU:       sku,
						Requested: line.Quantity,
						Available: 0,
					}
				}
				return fmt.Errorf("lock product %s: %w", sku, err)
			}

			if stock < line.Quantity {
				return &database.InsufficientStockError{
					SKU:       sku,
					Requested: line.Quantity,
					Available: stock,
				}
			}

			_, err = tx.ExecContext(ctx,
				`INSERT INTO transaction_items (transaction_id, product_sku, quantity_sold, price_at_sale)
				 VALUES ($1, $2, $3, $4)`,
				transaction.ID, sku, line.Quantity, line.UnitPrice)
			if err != nil {
				return fmt.Errorf("create transaction item: %w", err)
			}

			result, err := tx.ExecContext(ctx,
				`UPDATE products
				 SET quantity = quantity - $1
				 WHERE sku = $2
				   AND quantity >= $1`,
				line.Quantity, sku)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}

			rowsAffected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("get rows affected: %w", err)
			}

			if rowsAffected == 0 {
				return &database.InsufficientStockError{
					SKU:       sku,
					Requested: line.Quantity,
					Available: stock,
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	transaction.TotalAmount = total

	return transaction, nil
}

// ListTransactions returns the most recent transactions, newest first.
// A non-positive limit falls back to DefaultHistoryLimit.
func ListTransactions(ctx context.Context, db *sql.DB, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := `
		SELECT transaction_id, timestamp, total_amount
		FROM transactions
		ORDER BY timestamp DESC, transaction_id DESC
		LIMIT $1`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var transaction models.Transaction
		err := rows.Scan(
			&transaction.ID,
			&transaction.Timestamp,
			&transaction.TotalAmount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, transaction)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return transactions, nil
}

// GetTransaction returns the transaction summary plus its lines in insertion
// order. The product name on each line is joined from the live catalog row,
// while price_at_sale stays the checkout-time snapshot; a renamed product
// shows its current name on old receipts, a repriced one does not.
func GetTransaction(ctx context.Context, db *sql.DB, id int64) (*models.Transaction, error) {
	transaction := &models.Transaction{}

	query := `
		SELECT transaction_id, timestamp, total_amount
		FROM transactions
		WHERE transaction_id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&transaction.ID,
		&transaction.Timestamp,
		&transaction.TotalAmount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	itemsQuery := `
		SELECT ti.item_id, ti.transaction_id, ti.product_sku, p.name, ti.quantity_sold, ti.price_at_sale
		FROM transaction_items ti
		JOIN products p ON ti.product_sku = p.sku
		WHERE ti.transaction_id = $1
		ORDER BY ti.item_id`

	rows, err := db.QueryContext(ctx, itemsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("get transaction items: %w", err)
	}
	defer rows.Close()

	var items []models.TransactionLine
	for rows.Next() {
		var item models.TransactionLine
		err := rows.Scan(
			&item.ItemID,
			&item.TransactionID,
			&item.ProductSKU,
			&item.ProductName,
			&item.QuantitySold,
			&item.PriceAtSale,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	transaction.Items = items

	return transaction, nil
}

// ListTransactionsCursor pages the history pane with a keyset cursor over
// (timestamp, transaction_id) descending.
func ListTransactionsCursor(ctx context.Context, db *sql.DB, cursor string, limit int) (*CursorPage, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := `
		SELECT transaction_id, timestamp, total_amount
		FROM transactions
		WHERE (timestamp, transaction_id) < ($1, $2)
		ORDER BY timestamp DESC, transaction_id DESC
		LIMIT $3`

	rows, err := db.QueryContext(ctx, query, cursorData.Timestamp, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var transaction models.Transaction
		err := rows.Scan(
			&transaction.ID,
			&transaction.Timestamp,
			&transaction.TotalAmount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, transaction)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(transactions) > limit
	if hasMore {
		transactions = transactions[:limit]
	}

	var nextCursor string
	if hasMore && len(transactions) > 0 {
		last := transactions[len(transactions)-1]
		nextCursor = EncodeCursor(TransactionCursor{
			Timestamp: last.Timestamp,
			ID:        last.ID,
		})
	}

	return &CursorPage{
		Items:      transactions,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}
