package model

import "time"

// TransactionTypeSale is the only transaction type; transactions are recorded
// as a side effect of a stock decrease.
const TransactionTypeSale = "Sale"

// Transaction is the immutable record of one stock decrease. The store assigns
// the id; the product name is a denormalized copy frozen at creation so the
// record survives a later product delete.
type Transaction struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"productId"`
	ProductName string    `json:"productName"`
	Type        string    `json:"type"`
	Quantity    int       `json:"quantity"`
	Date        time.Time `json:"date"`
}
