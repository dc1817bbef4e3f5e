package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Lookup misses. Callers match with errors.Is.
var (
	ErrProductNotFound     = errors.New("product not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// ValidationError reports input that fails the catalog or ledger contract
// before any statement runs.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// DuplicateKeyError reports an insert that collided with an existing sku.
type DuplicateKeyError struct {
	SKU string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("sku %q already exists", e.SKU)
}

// ReferentialIntegrityError reports a product delete blocked by line items
// that still reference the sku. Deleting anyway would orphan historical
// receipts, so the constraint is hard.
type ReferentialIntegrityError struct {
	SKU string
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("product %q is referenced by past transactions", e.SKU)
}

// InsufficientStockError carries the sku and the shortfall observed by the
// stock re-read inside the checkout transaction.
type InsufficientStockError struct {
	SKU       string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.SKU, e.Requested, e.Available)
}

func (e *InsufficientStockError) Shortfall() int {
	return e.Requested - e.Available
}

type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
	ErrorClassDeadlock
	ErrorClassSerialization
)

func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassPermanent
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001":
			return ErrorClassSerialization
		case "40P01":
			return ErrorClassDeadlock
		case "55P03":
			return ErrorClassTransient
		case "23505", "23503", "23502", "23514":
			return ErrorClassPermanent
		}
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrorClassPermanent
	}

	return ErrorClassPermanent
}

func IsRetryable(err error) bool {
	class := ClassifyError(err)
	return class == ErrorClassTransient ||
		class == ErrorClassDeadlock ||
		class == ErrorClassSerialization
}
