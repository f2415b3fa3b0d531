package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/tmdiallo/stockalerte/internal/apperr"
	"github.com/tmdiallo/stockalerte/internal/model"
	"github.com/tmdiallo/stockalerte/internal/replicator"
	"github.com/tmdiallo/stockalerte/internal/restore"
	"github.com/tmdiallo/stockalerte/internal/store"
	"github.com/tmdiallo/stockalerte/pkg/validator"
)

// Replicator receives committed local mutations for best-effort mirroring.
type Replicator interface {
	Submit(op model.SyncOp)
	Drain(ctx context.Context) (replicator.Result, error)
}

// Restorer rebuilds the local store from the remote mirror.
type Restorer interface {
	Restore(ctx context.Context) (restore.Result, error)
}

// ConnectivityProbe reports the last known reachability of the mirror.
type ConnectivityProbe interface {
	Online() bool
}

type AddProductParams struct {
	Name         string   `validate:"required"`
	Stock        int      `validate:"gte=0"`
	MinStock     int      `validate:"gte=0"`
	CostPrice    int64    `validate:"gte=0"`
	SellingPrice int64    `validate:"gte=0"`
	Images       []string `validate:"max=4,dive,datauri"`
}

// StockAction selects how UpdateStock interprets its value.
type StockAction string

const (
	StockIncrement StockAction = "increment"
	StockDecrement StockAction = "decrement"
	StockSet       StockAction = "set"
)

type StockChange struct {
	Action StockAction
	Value  int
}

// Status is the connectivity summary surfaced to the UI.
type Status struct {
	Online      bool `json:"online"`
	PendingSync int  `json:"pendingSync"`
}

// Service is the operation interface the surrounding UI components call into.
// Every mutation commits locally first; remote mirroring is asynchronous and
// its failures never surface here.
type Service interface {
	AddProduct(ctx context.Context, params AddProductParams) (model.Product, error)
	UpdateStock(ctx context.Context, productID int64, change StockChange) error
	UpdateImages(ctx context.Context, productID int64, images []string) error
	DeleteProduct(ctx context.Context, productID int64) error
	ListProducts(ctx context.Context) ([]model.Product, error)
	LowStockProducts(ctx context.Context) ([]model.Product, error)
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
	TransactionsByProduct(ctx context.Context, productID int64) ([]model.Transaction, error)
	TriggerSync(ctx context.Context) (replicator.Result, error)
	Restore(ctx context.Context) (restore.Result, error)
	ResetAll(ctx context.Context) error
	Status(ctx context.Context) (Status, error)
}

type inventoryService struct {
	logger    *slog.Logger
	store     *store.Store
	repl      Replicator
	restorer  Restorer
	probe     ConnectivityProbe
	ids       *snowflake.Node
	validator validator.Validator
}

func NewService(
	logger *slog.Logger,
	st *store.Store,
	repl Replicator,
	restorer Restorer,
	probe ConnectivityProbe,
	v validator.Validator,
) (Service, error) {
	// Node ids distinguish devices sharing one mirror; a single logical owner
	// per process means one node per store.
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("create snowflake node: %w", err)
	}

	return &inventoryService{
		logger:    logger.With(slog.String("service", "inventory")),
		store:     st,
		repl:      repl,
		restorer:  restorer,
		probe:     probe,
		ids:       node,
		validator: v,
	}, nil
}

func (s *inventoryService) AddProduct(ctx context.Context, params AddProductParams) (model.Product, error) {
	if err := s.validator.Validate(params); err != nil {
		return model.Product{}, apperr.ErrInvalidProduct.WrapParent(err)
	}

	// Enforced at creation only; later updates do not re-check.
	if params.SellingPrice <= params.CostPrice {
		return model.Product{}, apperr.ErrInvalidProduct.WrapParent(
			fmt.Errorf("selling price %d must be greater than cost price %d", params.SellingPrice, params.CostPrice))
	}

	product := model.Product{
		ID:           s.ids.Generate().Int64(),
		Name:         params.Name,
		Stock:        params.Stock,
		MinStock:     params.MinStock,
		CostPrice:    params.CostPrice,
		SellingPrice: params.SellingPrice,
		Images:       params.Images,
	}

	stored, err := s.store.AddProduct(product)
	if err != nil {
		return model.Product{}, fmt.Errorf("store add product: %w", err)
	}

	s.repl.Submit(model.AddProductOp{Product: stored})

	return stored, nil
}

func (s *inventoryService) UpdateStock(ctx context.Context, productID int64, change StockChange) error {
	product, err := s.store.GetProduct(productID)
	if err != nil {
		if apperr.HasCode(err, apperr.NotFoundCode) {
			s.logger.WarnContext(ctx, "stock update for missing product",
				slog.Int64("product_id", productID))
		}
		return err
	}

	oldStock := product.Stock
	var newStock int

	switch change.Action {
	case StockIncrement:
		newStock = oldStock + 1
	case StockDecrement:
		newStock = max(0, oldStock-1)
	case StockSet:
		if change.Value < 0 {
			return apperr.ErrInvalidProduct.WrapParent(
				fmt.Errorf("stock cannot be negative, got %d", change.Value))
		}
		newStock = change.Value
	default:
		return apperr.ErrInvalidProduct.WrapParent(
			fmt.Errorf("unknown stock action %q", change.Action))
	}

	product.Stock = newStock
	if err := s.store.UpdateProduct(product); err != nil {
		return fmt.Errorf("store update product: %w", err)
	}
	s.repl.Submit(model.UpdateProductOp{Product: product})

	// A stock decrease is a sale and leaves an immutable record.
	if newStock < oldStock {
		txn := model.Transaction{
			ProductID:   productID,
			ProductName: product.Name,
			Type:        model.TransactionTypeSale,
			Quantity:    oldStock - newStock,
			Date:        time.Now().UTC(),
		}
		stored, err := s.store.AddTransaction(txn)
		if err != nil {
			return fmt.Errorf("store add transaction: %w", err)
		}
		s.repl.Submit(model.AddTransactionOp{Transaction: stored})
	}

	return nil
}

func (s *inventoryService) UpdateImages(ctx context.Context, productID int64, images []string) error {
	product, err := s.store.GetProduct(productID)
	if err != nil {
		if apperr.HasCode(err, apperr.NotFoundCode) {
			s.logger.WarnContext(ctx, "image update for missing product",
				slog.Int64("product_id", productID))
		}
		return err
	}

	product.Images = images
	if err := s.store.UpdateProduct(product); err != nil {
		return fmt.Errorf("store update product: %w", err)
	}
	s.repl.Submit(model.UpdateProductOp{Product: product.Normalized()})

	return nil
}

func (s *inventoryService) DeleteProduct(ctx context.Context, productID int64) error {
	if err := s.store.DeleteProduct(productID); err != nil {
		return fmt.Errorf("store delete product: %w", err)
	}
	s.repl.Submit(model.DeleteProductOp{ID: productID})
	return nil
}

func (s *inventoryService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.store.GetAllProducts()
}

// LowStockProducts returns the products at or below their alert threshold.
func (s *inventoryService) LowStockProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.store.GetAllProducts()
	if err != nil {
		return nil, err
	}

	low := []model.Product{}
	for _, product := range products {
		if product.LowStock() {
			low = append(low, product)
		}
	}
	return low, nil
}

func (s *inventoryService) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	return s.store.GetAllTransactions()
}

func (s *inventoryService) TransactionsByProduct(ctx context.Context, productID int64) ([]model.Transaction, error) {
	return s.store.TransactionsByProduct(productID)
}

func (s *inventoryService) TriggerSync(ctx context.Context) (replicator.Result, error) {
	return s.repl.Drain(ctx)
}

func (s *inventoryService) Restore(ctx context.Context) (restore.Result, error) {
	return s.restorer.Restore(ctx)
}

func (s *inventoryService) ResetAll(ctx context.Context) error {
	s.logger.InfoContext(ctx, "clearing local product collection")
	return s.store.ClearAllProducts()
}

func (s *inventoryService) Status(ctx context.Context) (Status, error) {
	pending, err := s.store.PendingCount()
	if err != nil {
		return Status{}, err
	}
	return Status{
		Online:      s.probe.Online(),
		PendingSync: pending,
	}, nil
}
