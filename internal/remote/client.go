package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"

	"github.com/tmdiallo/stockalerte/internal/model"
)

var tracer = otel.Tracer("internal/remote")

// Client is the stateless request wrapper over the mirror's products and
// transactions tables. Every call is a single round trip with no retry; any
// failure is classified as NetworkError or RemoteRejected by the implementation.
type Client interface {
	InsertProduct(ctx context.Context, product model.Product) error
	UpdateProduct(ctx context.Context, product model.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	InsertTransaction(ctx context.Context, txn model.Transaction) error
	FetchAllProducts(ctx context.Context) ([]model.Product, error)
	FetchAllTransactions(ctx context.Context) ([]model.Transaction, error)

	// Ping reports mirror reachability; it backs the connectivity watcher.
	Ping(ctx context.Context) error
}

var _ Client = (*PgClient)(nil)

// PgClient talks to the hosted Postgres mirror.
type PgClient struct {
	pool *pgxpool.Pool
}

func NewPgClient(pool *pgxpool.Pool) *PgClient {
	return &PgClient{pool: pool}
}

func (c *PgClient) InsertProduct(ctx context.Context, product model.Product) error {
	ctx, span := tracer.Start(ctx, "PgClient.InsertProduct")
	defer span.End()

	images, err := json.Marshal(product.Images)
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}

	_, err = c.pool.Exec(ctx, `
		INSERT INTO products (id, name, stock, min_stock, cost_price, selling_price, images)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, product.ID, product.Name, product.Stock, product.MinStock, product.CostPrice, product.SellingPrice, images)
	if err != nil {
		return classify(span, err)
	}

	span.SetStatus(okStatus())
	return nil
}

func (c *PgClient) UpdateProduct(ctx context.Context, product model.Product) error {
	ctx, span := tracer.Start(ctx, "PgClient.UpdateProduct")
	defer span.End()

	images, err := json.Marshal(product.Images)
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}

	_, err = c.pool.Exec(ctx, `
		UPDATE products
		SET name = $2, stock = $3, min_stock = $4, cost_price = $5, selling_price = $6, images = $7
		WHERE id = $1
	`, product.ID, product.Name, product.Stock, product.MinStock, product.CostPrice, product.SellingPrice, images)
	if err != nil {
		return classify(span, err)
	}

	span.SetStatus(okStatus())
	return nil
}

func (c *PgClient) DeleteProduct(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "PgClient.DeleteProduct")
	defer span.End()

	if _, err := c.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return classify(span, err)
	}

	span.SetStatus(okStatus())
	return nil
}

func (c *PgClient) InsertTransaction(ctx context.Context, txn model.Transaction) error {
	ctx, span := tracer.Start(ctx, "PgClient.InsertTransaction")
	defer span.End()

	_, err := c.pool.Exec(ctx, `
		INSERT INTO transactions (id, product_id, product_name, type, quantity, date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, txn.ID, txn.ProductID, txn.ProductName, txn.Type, txn.Quantity, txn.Date)
	if err != nil {
		return classify(span, err)
	}

	span.SetStatus(okStatus())
	return nil
}

func (c *PgClient) FetchAllProducts(ctx context.Context) ([]model.Product, error) {
	ctx, span := tracer.Start(ctx, "PgClient.FetchAllProducts")
	defer span.End()

	rows, err := c.pool.Query(ctx, `
		SELECT id, name, stock, min_stock, cost_price, selling_price, images
		FROM products
		ORDER BY id
	`)
	if err != nil {
		return nil, classify(span, err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var (
			product model.Product
			images  []byte
		)
		if err := rows.Scan(&product.ID, &product.Name, &product.Stock, &product.MinStock,
			&product.CostPrice, &product.SellingPrice, &images); err != nil {
			return nil, classify(span, err)
		}
		if len(images) > 0 {
			if err := json.Unmarshal(images, &product.Images); err != nil {
				return nil, fmt.Errorf("decode images: %w", err)
			}
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(span, err)
	}

	span.SetStatus(okStatus())
	return products, nil
}

func (c *PgClient) FetchAllTransactions(ctx context.Context) ([]model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "PgClient.FetchAllTransactions")
	defer span.End()

	rows, err := c.pool.Query(ctx, `
		SELECT id, product_id, product_name, type, quantity, date
		FROM transactions
		ORDER BY id
	`)
	if err != nil {
		return nil, classify(span, err)
	}
	defer rows.Close()

	txns := []model.Transaction{}
	for rows.Next() {
		var txn model.Transaction
		if err := rows.Scan(&txn.ID, &txn.ProductID, &txn.ProductName, &txn.Type,
			&txn.Quantity, &txn.Date); err != nil {
			return nil, classify(span, err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(span, err)
	}

	span.SetStatus(okStatus())
	return txns, nil
}

func (c *PgClient) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}
