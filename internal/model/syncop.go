package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// SyncAction tags a pending remote operation in the sync queue.
type SyncAction string

const (
	ActionAddProduct     SyncAction = "ADD_PRODUCT"
	ActionUpdateProduct  SyncAction = "UPDATE_PRODUCT"
	ActionDeleteProduct  SyncAction = "DELETE_PRODUCT"
	ActionAddTransaction SyncAction = "ADD_TRANSACTION"
)

// SyncOp is one remote operation awaiting replay. Each action carries its own
// payload so the drain dispatch is an exhaustive type switch rather than a
// string switch over free-form data.
type SyncOp interface {
	Action() SyncAction
}

// AddProductOp replays a product insert with the full snapshot.
type AddProductOp struct {
	Product Product `json:"product"`
}

func (AddProductOp) Action() SyncAction { return ActionAddProduct }

// UpdateProductOp replays a full-record product replace.
type UpdateProductOp struct {
	Product Product `json:"product"`
}

func (UpdateProductOp) Action() SyncAction { return ActionUpdateProduct }

// DeleteProductOp replays a product delete by id.
type DeleteProductOp struct {
	ID int64 `json:"id"`
}

func (DeleteProductOp) Action() SyncAction { return ActionDeleteProduct }

// AddTransactionOp replays a transaction insert with the full snapshot.
type AddTransactionOp struct {
	Transaction Transaction `json:"transaction"`
}

func (AddTransactionOp) Action() SyncAction { return ActionAddTransaction }

// SyncQueueEntry is the durable envelope persisted in the sync queue. The
// store assigns the sequential id; entries are removed on successful replay,
// never flipped to synced.
type SyncQueueEntry struct {
	ID         uint64          `json:"id"`
	ActionTag  SyncAction      `json:"action"`
	Data       json.RawMessage `json:"data"`
	EnqueuedAt time.Time       `json:"timestamp"`
	Synced     bool            `json:"synced"`
}

// Op decodes the entry payload into its typed operation.
func (e SyncQueueEntry) Op() (SyncOp, error) {
	switch e.ActionTag {
	case ActionAddProduct:
		var op AddProductOp
		if err := json.Unmarshal(e.Data, &op); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", e.ActionTag, err)
		}
		return op, nil
	case ActionUpdateProduct:
		var op UpdateProductOp
		if err := json.Unmarshal(e.Data, &op); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", e.ActionTag, err)
		}
		return op, nil
	case ActionDeleteProduct:
		var op DeleteProductOp
		if err := json.Unmarshal(e.Data, &op); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", e.ActionTag, err)
		}
		return op, nil
	case ActionAddTransaction:
		var op AddTransactionOp
		if err := json.Unmarshal(e.Data, &op); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", e.ActionTag, err)
		}
		return op, nil
	default:
		return nil, fmt.Errorf("unknown sync action: %s", e.ActionTag)
	}
}

// NewSyncQueueEntry builds the durable envelope for op. The id is assigned by
// the store on insert.
func NewSyncQueueEntry(op SyncOp, now time.Time) (SyncQueueEntry, error) {
	data, err := json.Marshal(op)
	if err != nil {
		return SyncQueueEntry{}, fmt.Errorf("encode %s payload: %w", op.Action(), err)
	}

	return SyncQueueEntry{
		ActionTag:  op.Action(),
		Data:       data,
		EnqueuedAt: now,
		Synced:     false,
	}, nil
}
