package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmdiallo/stockalerte/internal/apperr"
	"github.com/tmdiallo/stockalerte/internal/config"
	internalhttp "github.com/tmdiallo/stockalerte/internal/http"
	"github.com/tmdiallo/stockalerte/internal/inventory"
	"github.com/tmdiallo/stockalerte/internal/model"
	"github.com/tmdiallo/stockalerte/internal/replicator"
	"github.com/tmdiallo/stockalerte/internal/restore"
)

// fakeInventory scripts the service behavior per test case through function
// fields; unset fields return zero values.
type fakeInventory struct {
	addProduct   func(params inventory.AddProductParams) (model.Product, error)
	updateStock  func(productID int64, change inventory.StockChange) error
	deleteErr    error
	products     []model.Product
	lowStock     []model.Product
	transactions []model.Transaction
	syncResult   replicator.Result
	syncErr      error
	restoreRes   restore.Result
	restoreErr   error
	status       inventory.Status
}

func (f *fakeInventory) AddProduct(_ context.Context, params inventory.AddProductParams) (model.Product, error) {
	if f.addProduct == nil {
		return model.Product{}, nil
	}
	return f.addProduct(params)
}

func (f *fakeInventory) UpdateStock(_ context.Context, productID int64, change inventory.StockChange) error {
	if f.updateStock == nil {
		return nil
	}
	return f.updateStock(productID, change)
}

func (f *fakeInventory) UpdateImages(context.Context, int64, []string) error { return nil }

func (f *fakeInventory) DeleteProduct(context.Context, int64) error { return f.deleteErr }

func (f *fakeInventory) ListProducts(context.Context) ([]model.Product, error) {
	return f.products, nil
}

func (f *fakeInventory) LowStockProducts(context.Context) ([]model.Product, error) {
	return f.lowStock, nil
}

func (f *fakeInventory) ListTransactions(context.Context) ([]model.Transaction, error) {
	return f.transactions, nil
}

func (f *fakeInventory) TransactionsByProduct(context.Context, int64) ([]model.Transaction, error) {
	return f.transactions, nil
}

func (f *fakeInventory) TriggerSync(context.Context) (replicator.Result, error) {
	return f.syncResult, f.syncErr
}

func (f *fakeInventory) Restore(context.Context) (restore.Result, error) {
	return f.restoreRes, f.restoreErr
}

func (f *fakeInventory) ResetAll(context.Context) error { return nil }

func (f *fakeInventory) Status(context.Context) (inventory.Status, error) {
	return f.status, nil
}

// one router per test binary; metrics register globally
var (
	testRouter    chi.Router
	testInventory = &fakeInventory{}
)

func router() chi.Router {
	if testRouter == nil {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		svc := internalhttp.New(config.HTTP{Port: 0}, logger, testInventory)
		testRouter = chi.NewRouter()
		svc.RegisterHandlers(testRouter)
	}
	return testRouter
}

func doRequest(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestAddProductHandler(t *testing.T) {
	t.Run("Should answer 201 with the created product", func(t *testing.T) {
		*testInventory = fakeInventory{
			addProduct: func(params inventory.AddProductParams) (model.Product, error) {
				return model.Product{ID: 7, Name: params.Name, Stock: params.Stock, SellingPrice: params.SellingPrice, Images: []string{}}, nil
			},
		}

		rec := doRequest(t, http.MethodPost, "/api/products", map[string]any{
			"name": "Filtre", "stock": 5, "sellingPrice": 900,
		})

		require.Equal(t, http.StatusCreated, rec.Code)
		product := decodeBody[model.Product](t, rec)
		assert.Equal(t, int64(7), product.ID)
		assert.Equal(t, "Filtre", product.Name)
	})

	t.Run("Should answer 400 with the error code for invalid input", func(t *testing.T) {
		*testInventory = fakeInventory{
			addProduct: func(inventory.AddProductParams) (model.Product, error) {
				return model.Product{}, apperr.ErrInvalidProduct
			},
		}

		rec := doRequest(t, http.MethodPost, "/api/products", map[string]any{"name": ""})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, apperr.InvalidProductCode, body["code"])
	})

	t.Run("Should answer 400 for a malformed body", func(t *testing.T) {
		*testInventory = fakeInventory{}

		req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdateStockHandler(t *testing.T) {
	t.Run("Should answer 204 and pass the change through", func(t *testing.T) {
		var gotID int64
		var gotChange inventory.StockChange
		*testInventory = fakeInventory{
			updateStock: func(productID int64, change inventory.StockChange) error {
				gotID, gotChange = productID, change
				return nil
			},
		}

		rec := doRequest(t, http.MethodPatch, "/api/products/42/stock", map[string]any{
			"action": "set", "value": 3,
		})

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, int64(42), gotID)
		assert.Equal(t, inventory.StockChange{Action: inventory.StockSet, Value: 3}, gotChange)
	})

	t.Run("Should answer 404 for a missing product", func(t *testing.T) {
		*testInventory = fakeInventory{
			updateStock: func(int64, inventory.StockChange) error {
				return apperr.ErrNotFound
			},
		}

		rec := doRequest(t, http.MethodPatch, "/api/products/42/stock", map[string]any{"action": "increment"})

		require.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, apperr.NotFoundCode, body["code"])
	})

	t.Run("Should answer 400 for a non-numeric id", func(t *testing.T) {
		*testInventory = fakeInventory{}

		rec := doRequest(t, http.MethodPatch, "/api/products/abc/stock", map[string]any{"action": "increment"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeleteProductHandler(t *testing.T) {
	t.Run("Should answer 204", func(t *testing.T) {
		*testInventory = fakeInventory{}

		rec := doRequest(t, http.MethodDelete, "/api/products/42", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestListHandlers(t *testing.T) {
	t.Run("Should list products", func(t *testing.T) {
		*testInventory = fakeInventory{
			products: []model.Product{{ID: 1, Name: "Filtre", Images: []string{}}},
		}

		rec := doRequest(t, http.MethodGet, "/api/products", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		products := decodeBody[[]model.Product](t, rec)
		require.Len(t, products, 1)
		assert.Equal(t, "Filtre", products[0].Name)
	})

	t.Run("Should list low stock products", func(t *testing.T) {
		*testInventory = fakeInventory{
			lowStock: []model.Product{{ID: 2, Name: "Bougie", Stock: 1, MinStock: 5, Images: []string{}}},
		}

		rec := doRequest(t, http.MethodGet, "/api/products/low-stock", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		products := decodeBody[[]model.Product](t, rec)
		require.Len(t, products, 1)
		assert.Equal(t, "Bougie", products[0].Name)
	})

	t.Run("Should list transactions for a product", func(t *testing.T) {
		*testInventory = fakeInventory{
			transactions: []model.Transaction{{ID: 1, ProductID: 9, Type: model.TransactionTypeSale, Quantity: 2}},
		}

		rec := doRequest(t, http.MethodGet, "/api/products/9/transactions", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		txns := decodeBody[[]model.Transaction](t, rec)
		require.Len(t, txns, 1)
		assert.Equal(t, 2, txns[0].Quantity)
	})
}

func TestSyncHandler(t *testing.T) {
	t.Run("Should report the synced count on success", func(t *testing.T) {
		*testInventory = fakeInventory{syncResult: replicator.Result{Synced: 5}}

		rec := doRequest(t, http.MethodPost, "/api/sync", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, true, body["success"])
		assert.EqualValues(t, 5, body["synced"])
	})

	t.Run("Should answer 500 with the failure envelope", func(t *testing.T) {
		*testInventory = fakeInventory{syncErr: assert.AnError}

		rec := doRequest(t, http.MethodPost, "/api/sync", nil)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, false, body["success"])
		assert.NotEmpty(t, body["error"])
	})
}

func TestRestoreHandler(t *testing.T) {
	t.Run("Should report restored counts", func(t *testing.T) {
		*testInventory = fakeInventory{restoreRes: restore.Result{ProductsCount: 3, TransactionsCount: 8}}

		rec := doRequest(t, http.MethodPost, "/api/restore", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, true, body["success"])
		assert.EqualValues(t, 3, body["productsCount"])
		assert.EqualValues(t, 8, body["transactionsCount"])
	})

	t.Run("Should answer 500 with the failure envelope", func(t *testing.T) {
		*testInventory = fakeInventory{restoreErr: apperr.ErrRestoreFailed}

		rec := doRequest(t, http.MethodPost, "/api/restore", nil)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, false, body["success"])
	})
}

func TestStatusHandler(t *testing.T) {
	t.Run("Should report connectivity and pending count", func(t *testing.T) {
		*testInventory = fakeInventory{status: inventory.Status{Online: true, PendingSync: 4}}

		rec := doRequest(t, http.MethodGet, "/api/status", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		status := decodeBody[inventory.Status](t, rec)
		assert.True(t, status.Online)
		assert.Equal(t, 4, status.PendingSync)
	})
}

func TestHealthz(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
