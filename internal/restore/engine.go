package restore

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"

	"github.com/tmdiallo/stockalerte/internal/apperr"
	"github.com/tmdiallo/stockalerte/internal/remote"
	"github.com/tmdiallo/stockalerte/internal/store"
)

var tracer = otel.Tracer("internal/restore")

// Result reports what a completed restore wrote locally.
type Result struct {
	ProductsCount     int `json:"productsCount"`
	TransactionsCount int `json:"transactionsCount"`
}

// Engine rebuilds the local store from the remote mirror. It is destructive:
// all local product state is overwritten. Used for disaster recovery and
// new-device bootstrap.
type Engine struct {
	logger *slog.Logger
	store  *store.Store
	remote remote.Client
}

func NewEngine(logger *slog.Logger, st *store.Store, rc remote.Client) *Engine {
	return &Engine{
		logger: logger.With(slog.String("service", "restore")),
		store:  st,
		remote: rc,
	}
}

// Restore fetches both mirror tables, clears the local product collection and
// re-inserts everything through the normal add paths so field normalization
// still applies. Both fetches happen before any local write; a fetch failure
// aborts with RestoreFailed and leaves local state untouched. A failure after
// the clear leaves partial writes in place; there is no rollback.
//
// The sync queue is not touched: entries enqueued before a restore will later
// replay against the restored data.
func (e *Engine) Restore(ctx context.Context) (Result, error) {
	ctx, span := tracer.Start(ctx, "Restore.Restore")
	defer span.End()

	e.logger.InfoContext(ctx, "starting restore from remote mirror")

	products, err := e.remote.FetchAllProducts(ctx)
	if err != nil {
		return Result{}, apperr.ErrRestoreFailed.WrapParent(fmt.Errorf("fetch products: %w", err))
	}

	txns, err := e.remote.FetchAllTransactions(ctx)
	if err != nil {
		return Result{}, apperr.ErrRestoreFailed.WrapParent(fmt.Errorf("fetch transactions: %w", err))
	}

	if err := e.store.ClearAllProducts(); err != nil {
		return Result{}, apperr.ErrRestoreFailed.WrapParent(fmt.Errorf("clear products: %w", err))
	}

	for _, product := range products {
		if _, err := e.store.AddProduct(product); err != nil {
			return Result{}, apperr.ErrRestoreFailed.WrapParent(
				fmt.Errorf("restore product %d: %w", product.ID, err))
		}
	}

	for _, txn := range txns {
		if _, err := e.store.AddTransaction(txn); err != nil {
			return Result{}, apperr.ErrRestoreFailed.WrapParent(
				fmt.Errorf("restore transaction %d: %w", txn.ID, err))
		}
	}

	result := Result{
		ProductsCount:     len(products),
		TransactionsCount: len(txns),
	}

	e.logger.InfoContext(ctx, "restore completed",
		slog.Int("products", result.ProductsCount),
		slog.Int("transactions", result.TransactionsCount))

	return result, nil
}
