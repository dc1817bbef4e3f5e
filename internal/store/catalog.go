package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/aldan/pos-store/internal/database"
	"github.com/aldan/pos-store/internal/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// NormalizeSKU applies the canonical sku form used everywhere in the store:
// trimmed and upper-cased.
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

func AddProduct(ctx context.Context, db *sql.DB, sku, name string, price decimal.Decimal, quantity int) (*models.Product, error) {
	sku = NormalizeSKU(sku)
	name = strings.TrimSpace(name)

	if sku == "" {
		return nil, &database.ValidationError{Reason: "sku must not be empty"}
	}
	if name == "" {
		return nil, &database.ValidationError{Reason: "name must not be empty"}
	}
	if price.IsNegative() {
		return nil, &database.ValidationError{Reason: "price must not be negative"}
	}
	if quantity < 0 {
		return nil, &database.ValidationError{Reason: "quantity must not be negative"}
	}

	product := &models.Product{}

	query := `
		INSERT INTO products (sku, name, price, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING sku, name, price, quantity`

	err := db.QueryRowContext(ctx, query, sku, name, price, quantity).Scan(
		&product.SKU,
		&product.Name,
		&product.Price,
		&product.Quantity,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, &database.DuplicateKeyError{SKU: sku}
		}
		return nil, fmt.Errorf("add product: %w", err)
	}

	return product, nil
}

// RemoveProduct deletes the product and returns its display name. The delete
// is refused while any transaction line still references the sku: the FK is
// ON DELETE RESTRICT, so history stays reconstructable.
func RemoveProduct(ctx context.Context, db *sql.DB, sku string) (string, error) {
	sku = NormalizeSKU(sku)
	if sku == "" {
		return "", &database.ValidationError{Reason: "sku must not be empty"}
	}

	var name string

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT name FROM products WHERE sku = $1`, sku).Scan(&name)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return database.ErrProductNotFound
			}
			return fmt.Errorf("lookup product: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM products WHERE sku = $1`, sku); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23503" {
				return &database.ReferentialIntegrityError{SKU: sku}
			}
			return fmt.Errorf("delete product: %w", err)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return name, nil
}

// ListProducts returns every product ordered by name ascending in the
// database's default collation, with sku as tiebreak so the ordering is total.
func ListProducts(ctx context.Context, db *sql.DB) ([]models.Product, error) {
	query := `
		SELECT sku, name, price, quantity
		FROM products
		ORDER BY name, sku`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// FindProducts matches products whose sku equals the normalized term or whose
// name contains the term case-insensitively. An empty result is not an error.
func FindProducts(ctx context.Context, db *sql.DB, term string) ([]models.Product, error) {
	pattern := "%" + strings.TrimSpace(term) + "%"

	query := `
		SELECT sku, name, price, quantity
		FROM products
		WHERE sku = $1 OR name ILIKE $2
		ORDER BY name, sku`

	rows, err := db.QueryContext(ctx, query, NormalizeSKU(term), pattern)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func GetProduct(ctx context.Context, db *sql.DB, sku string) (*models.Product, error) {
	product := &models.Product{}

	query := `
		SELECT sku, name, price, quantity
		FROM products
		WHERE sku = $1`

	err := db.QueryRowContext(ctx, query, NormalizeSKU(sku)).Scan(
		&product.SKU,
		&product.Name,
		&product.Price,
		&product.Quantity,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func scanProducts(rows *sql.Rows) ([]models.Product, error) {
	var products []models.Product
	for rows.Next() {
		var product models.Product
		err := rows.Scan(
			&product.SKU,
			&product.Name,
			&product.Price,
			&product.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}
