package inventory_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmdiallo/stockalerte/internal/apperr"
	"github.com/tmdiallo/stockalerte/internal/inventory"
	"github.com/tmdiallo/stockalerte/internal/model"
	"github.com/tmdiallo/stockalerte/internal/replicator"
	"github.com/tmdiallo/stockalerte/internal/restore"
	"github.com/tmdiallo/stockalerte/internal/store"
	"github.com/tmdiallo/stockalerte/pkg/validator"
)

// fakeReplicator records submitted operations instead of replaying them.
type fakeReplicator struct {
	submitted   []model.SyncOp
	drainResult replicator.Result
	drainErr    error
}

func (f *fakeReplicator) Submit(op model.SyncOp) {
	f.submitted = append(f.submitted, op)
}

func (f *fakeReplicator) Drain(context.Context) (replicator.Result, error) {
	return f.drainResult, f.drainErr
}

type fakeRestorer struct {
	result restore.Result
	err    error
}

func (f *fakeRestorer) Restore(context.Context) (restore.Result, error) {
	return f.result, f.err
}

type fakeProbe struct{ online bool }

func (f fakeProbe) Online() bool { return f.online }

type fixture struct {
	svc   inventory.Service
	store *store.Store
	repl  *fakeReplicator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	v, err := validator.NewDefaultValidator()
	require.NoError(t, err)

	repl := &fakeReplicator{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc, err := inventory.NewService(logger, st, repl, &fakeRestorer{}, fakeProbe{online: true}, v)
	require.NoError(t, err)

	return &fixture{svc: svc, store: st, repl: repl}
}

func validParams() inventory.AddProductParams {
	return inventory.AddProductParams{
		Name:         "Filtre à huile",
		Stock:        10,
		MinStock:     3,
		CostPrice:    1500,
		SellingPrice: 2500,
	}
}

func TestAddProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("Should persist the product and submit it for replication", func(t *testing.T) {
		f := newFixture(t)

		product, err := f.svc.AddProduct(ctx, validParams())
		require.NoError(t, err)
		assert.Positive(t, product.ID)
		assert.Equal(t, "Filtre à huile", product.Name)

		products, err := f.svc.ListProducts(ctx)
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, product, products[0])

		require.Len(t, f.repl.submitted, 1)
		op, ok := f.repl.submitted[0].(model.AddProductOp)
		require.True(t, ok)
		assert.Equal(t, product, op.Product)
	})

	t.Run("Should generate distinct ids across adds", func(t *testing.T) {
		f := newFixture(t)

		first, err := f.svc.AddProduct(ctx, validParams())
		require.NoError(t, err)
		second, err := f.svc.AddProduct(ctx, validParams())
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("Should reject a missing name", func(t *testing.T) {
		f := newFixture(t)

		params := validParams()
		params.Name = ""

		_, err := f.svc.AddProduct(ctx, params)
		assert.True(t, apperr.HasCode(err, apperr.InvalidProductCode))
		assert.Empty(t, f.repl.submitted)
	})

	t.Run("Should reject a selling price at or below cost price", func(t *testing.T) {
		f := newFixture(t)

		params := validParams()
		params.SellingPrice = params.CostPrice

		_, err := f.svc.AddProduct(ctx, params)
		assert.True(t, apperr.HasCode(err, apperr.InvalidProductCode))
	})

	t.Run("Should reject images that are not data URIs", func(t *testing.T) {
		f := newFixture(t)

		params := validParams()
		params.Images = []string{"https://example.com/photo.jpg"}

		_, err := f.svc.AddProduct(ctx, params)
		assert.True(t, apperr.HasCode(err, apperr.InvalidProductCode))
	})

	t.Run("Should reject more than four images", func(t *testing.T) {
		f := newFixture(t)

		params := validParams()
		params.Images = []string{"data:1", "data:2", "data:3", "data:4", "data:5"}

		_, err := f.svc.AddProduct(ctx, params)
		assert.True(t, apperr.HasCode(err, apperr.InvalidProductCode))
	})
}

func TestLowStockProducts(t *testing.T) {
	ctx := context.Background()

	t.Run("Should return only products at or below their threshold", func(t *testing.T) {
		f := newFixture(t)

		low := validParams()
		low.Name = "Bougie"
		low.Stock = 2
		low.MinStock = 5
		lowProduct, err := f.svc.AddProduct(ctx, low)
		require.NoError(t, err)

		_, err = f.svc.AddProduct(ctx, validParams())
		require.NoError(t, err)

		products, err := f.svc.LowStockProducts(ctx)
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, lowProduct.ID, products[0].ID)
	})
}

func TestUpdateStock(t *testing.T) {
	ctx := context.Background()

	t.Run("Should record a sale when stock decreases", func(t *testing.T) {
		f := newFixture(t)

		product, err := f.svc.AddProduct(ctx, validParams())
		require.NoError(t, err)
		f.repl.submitted = nil

		err = f.svc.UpdateStock(ctx, product.ID, inventory.StockChange{Action: inventory.StockSet, Value: 6})
		require.NoError(t, err)

		txns, err := f.svc.TransactionsByProduct(ctx, product.ID)
		require.NoError(t, err)
		require.Len(t, txns, 1)
		assert.Equal(t, model.TransactionTypeSale, txns[0].Type)
		assert.Equal(t, 4, txns[0].Quantity)
		assert.Equal(t, product.Name, txns[0].ProductName)

		// one update op and one transaction op
		require.Len(t, f.repl.submitted, 2)
		assert.IsType(t, model.UpdateProductOp{}, f.repl.submitted[0])
		assert.IsType(t, model.AddTransactionOp{}, f.repl.submitted[1])
	})

	t.Run("Should not record a sale when stock increases", func(t *testing.T) {
		f := newFixture(t)

		product, err := f.svc.AddProduct(ctx, validParams())
		require.NoError(t, err)

		err = f.svc.UpdateStock(ctx, product.ID, inventory.StockChange{Action: inventory.StockIncrement})
		require.NoError(t, err)

		updated, err := f.store.GetProduct(product.ID)
		require.NoError(t, err)
		assert.Equal(t, 11, updated.Stock)

		txns, err := f.svc.TransactionsByProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Empty(t, txns)
	})

	t.Run("Should clamp a decrement at zero", func(t *testing.T) {
		f := newFixture(t)

		params := validParams()
		params.Stock = 0
		product, err := f.svc.AddProduct(ctx, params)
		require.NoError(t, err)

		err = f.svc.UpdateStock(ctx, product.ID, inventory.StockChange{Action: inventory.StockDecrement})
		require.NoError(t, err)

		updated, err := f.store.GetProduct(product.ID)
		require.NoError(t, err)
		assert.Zero(t, updated.Stock)

		// no movement, no sale record
		txns, err := f.svc.TransactionsByProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Empty(t, txns)
	})

	t.Run("Should reject a negative set value", func(t *testing.T) {
		f := newFixture(t)

		product, err := f.svc.AddProduct(ctx, validParams())
		require.NoError(t, err)

		err = f.svc.UpdateStock(ctx, product.ID, inventory.StockChange{Action: inventory.StockSet, Value: -1})
		assert.True(t, apperr.HasCode(err, apperr.InvalidProductCode))
	})

	t.Run("Should fail with NotFound for a missing product", func(t *testing.T) {
		f := newFixture(t)

		err := f.svc.UpdateStock(ctx, 12345, inventory.StockChange{Action: inventory.StockIncrement})
		assert.True(t, apperr.HasCode(err, apperr.NotFoundCode))
	})
}

func TestUpdateImages(t *testing.T) {
	ctx := context.Background()

	t.Run("Should replace the image list", func(t *testing.T) {
		f := newFixture(t)

		product, err := f.svc.AddProduct(ctx, validParams())
		require.NoError(t, err)

		err = f.svc.UpdateImages(ctx, product.ID, []string{"data:image/png;base64,AAAA"})
		require.NoError(t, err)

		updated, err := f.store.GetProduct(product.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"data:image/png;base64,AAAA"}, updated.Images)
	})

	t.Run("Should fail with NotFound for a missing product", func(t *testing.T) {
		f := newFixture(t)

		err := f.svc.UpdateImages(ctx, 12345, nil)
		assert.True(t, apperr.HasCode(err, apperr.NotFoundCode))
	})
}

func TestDeleteProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("Should remove the product and submit the delete", func(t *testing.T) {
		f := newFixture(t)

		product, err := f.svc.AddProduct(ctx, validParams())
		require.NoError(t, err)
		f.repl.submitted = nil

		require.NoError(t, f.svc.DeleteProduct(ctx, product.ID))

		products, err := f.svc.ListProducts(ctx)
		require.NoError(t, err)
		assert.Empty(t, products)

		require.Len(t, f.repl.submitted, 1)
		assert.Equal(t, model.DeleteProductOp{ID: product.ID}, f.repl.submitted[0])
	})

	t.Run("Should succeed for an absent product and still submit", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.svc.DeleteProduct(ctx, 999))
		assert.Len(t, f.repl.submitted, 1)
	})
}

func TestResetAll(t *testing.T) {
	ctx := context.Background()

	t.Run("Should clear products but keep the sale history", func(t *testing.T) {
		f := newFixture(t)

		product, err := f.svc.AddProduct(ctx, validParams())
		require.NoError(t, err)
		err = f.svc.UpdateStock(ctx, product.ID, inventory.StockChange{Action: inventory.StockDecrement})
		require.NoError(t, err)

		require.NoError(t, f.svc.ResetAll(ctx))

		products, err := f.svc.ListProducts(ctx)
		require.NoError(t, err)
		assert.Empty(t, products)

		txns, err := f.svc.ListTransactions(ctx)
		require.NoError(t, err)
		assert.Len(t, txns, 1)
	})
}

func TestStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Should report connectivity and pending entries", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.store.Enqueue(model.DeleteProductOp{ID: 1})
		require.NoError(t, err)
		_, err = f.store.Enqueue(model.DeleteProductOp{ID: 2})
		require.NoError(t, err)

		status, err := f.svc.Status(ctx)
		require.NoError(t, err)
		assert.True(t, status.Online)
		assert.Equal(t, 2, status.PendingSync)
	})
}

func TestTriggerSync(t *testing.T) {
	t.Run("Should relay the drain result", func(t *testing.T) {
		f := newFixture(t)
		f.repl.drainResult = replicator.Result{Synced: 3}

		result, err := f.svc.TriggerSync(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, result.Synced)
	})
}
