package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aldan/pos-store/internal/config"
	"github.com/aldan/pos-store/internal/database"
	"github.com/aldan/pos-store/internal/models"
	"github.com/aldan/pos-store/internal/receipt"
	"github.com/aldan/pos-store/internal/store"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("connected to database")

	mux := http.NewServeMux()

	mux.HandleFunc("/products", handleProducts(db, logger))
	mux.HandleFunc("/products/", handleProductBySKU(db, logger))
	mux.HandleFunc("/checkout", handleCheckout(db, logger))
	mux.HandleFunc("/transactions", handleTransactions(db))
	mux.HandleFunc("/transactions/", handleTransactionByID(db))

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      requestLogging(logger, mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func requestLogging(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		next.ServeHTTP(w, r)

		logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func handleProducts(db *sql.DB, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodPost:
			var req struct {
				SKU      string  `json:"sku"`
				Name     string  `json:"name"`
				Price    float64 `json:"price"`
				Quantity int     `json:"quantity"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			price := decimal.NewFromFloat(req.Price)
			product, err := store.AddProduct(ctx, db, req.SKU, req.Name, price, req.Quantity)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			logger.Info("product added",
				zap.String("sku", product.SKU),
				zap.String("name", product.Name),
			)
			respondJSON(w, http.StatusCreated, product)

		case http.MethodGet:
			term := r.URL.Query().Get("q")

			var (
				products []models.Product
				err      error
			)
			if term != "" {
				products, err = store.FindProducts(ctx, db, term)
			} else {
				products, err = store.ListProducts(ctx, db)
			}
			if err != nil {
				respondStoreError(w, err)
				return
			}

			if products == nil {
				products = []models.Product{}
			}
			respondJSON(w, http.StatusOK, products)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleProductBySKU(db *sql.DB, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sku := strings.TrimPrefix(r.URL.Path, "/products/")
		if sku == "" || strings.Contains(sku, "/") {
			respondError(w, http.StatusBadRequest, "Invalid product SKU")
			return
		}

		switch r.Method {
		case http.MethodGet:
			product, err := store.GetProduct(ctx, db, sku)
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, product)

		case http.MethodDelete:
			name, err := store.RemoveProduct(ctx, db, sku)
			if err != nil {
				respondStoreError(w, err)
				return
			}

			logger.Info("product removed",
				zap.String("sku", store.NormalizeSKU(sku)),
				zap.String("name", name),
			)
			respondJSON(w, http.StatusOK, map[string]string{"removed": name})

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleCheckout(db *sql.DB, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var req struct {
			Lines []struct {
				SKU       string  `json:"sku"`
				UnitPrice float64 `json:"unit_price"`
				Quantity  int     `json:"quantity"`
			} `json:"lines"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		var lines []models.BillLine
		for _, line := range req.Lines {
			lines = append(lines, models.BillLine{
				SKU:       line.SKU,
				UnitPrice: decimal.NewFromFloat(line.UnitPrice),
				Quantity:  line.Quantity,
			})
		}

		transaction, err := store.Checkout(ctx, db, lines)
		if err != nil {
			respondStoreError(w, err)
			return
		}

		logger.Info("checkout complete",
			zap.Int64("transaction_id", transaction.ID),
			zap.String("total", transaction.TotalAmount.StringFixed(2)),
			zap.Int("lines", len(lines)),
		)
		respondJSON(w, http.StatusCreated, transaction)
	}
}

func handleTransactions(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		if cursor, ok := r.URL.Query()["cursor"]; ok {
			var encoded string
			if len(cursor) > 0 {
				encoded = cursor[0]
			}
			page, err := store.ListTransactionsCursor(ctx, db, encoded, limit)
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, page)
			return
		}

		transactions, err := store.ListTransactions(ctx, db, limit)
		if err != nil {
			respondStoreError(w, err)
			return
		}

		if transactions == nil {
			transactions = []models.Transaction{}
		}
		respondJSON(w, http.StatusOK, transactions)
	}
}

func handleTransactionByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		rest := strings.TrimPrefix(r.URL.Path, "/transactions/")
		idStr, sub, _ := strings.Cut(rest, "/")

		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid transaction ID")
			return
		}

		transaction, err := store.GetTransaction(ctx, db, id)
		if err != nil {
			respondStoreError(w, err)
			return
		}

		switch sub {
		case "":
			respondJSON(w, http.StatusOK, transaction)
		case "receipt":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(receipt.Render(transaction)))
		default:
			respondError(w, http.StatusNotFound, "Not found")
		}
	}
}

// respondStoreError maps the store error taxonomy onto HTTP statuses. The
// facade is the single point of user-facing error reporting.
func respondStoreError(w http.ResponseWriter, err error) {
	var (
		validationErr   *database.ValidationError
		duplicateErr    *database.DuplicateKeyError
		integrityErr    *database.ReferentialIntegrityError
		insufficientErr *database.InsufficientStockError
	)

	switch {
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &duplicateErr),
		errors.As(err, &integrityErr),
		errors.As(err, &insufficientErr):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrTransactionNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
