package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/tmdiallo/stockalerte/internal/apperr"
	"github.com/tmdiallo/stockalerte/internal/model"
)

// AddTransaction appends a sale record. When the id is unset the bucket
// sequence assigns the next one. A secondary index keyed by product id backs
// per-product lookups.
func (s *Store) AddTransaction(txn model.Transaction) (model.Transaction, error) {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketTransactions)

		if txn.ID == 0 {
			seq, err := b.NextSequence()
			if err != nil {
				return fmt.Errorf("next sequence: %w", err)
			}
			txn.ID = int64(seq)
		} else if uint64(txn.ID) > b.Sequence() {
			// Keep the generator ahead of explicit ids (restore re-inserts
			// remote records with their original ids), otherwise a later
			// auto-assigned id would land on an existing record.
			if err := b.SetSequence(uint64(txn.ID)); err != nil {
				return fmt.Errorf("set sequence: %w", err)
			}
		}

		value, err := json.Marshal(txn)
		if err != nil {
			return fmt.Errorf("encode transaction: %w", err)
		}
		if err := b.Put(itob(uint64(txn.ID)), value); err != nil {
			return err
		}

		// index key: productId | txnId
		idx := tx.Bucket(bucketTxnsByProduct)
		return idx.Put(append(productKey(txn.ProductID), itob(uint64(txn.ID))...), nil)
	})
	if err != nil {
		return model.Transaction{}, apperr.ErrStoreUnavailable.WrapParent(err)
	}
	return txn, nil
}

// GetAllTransactions returns the full transaction snapshot in insertion order.
func (s *Store) GetAllTransactions() ([]model.Transaction, error) {
	txns := []model.Transaction{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketTransactions).ForEach(func(_, value []byte) error {
			var txn model.Transaction
			if err := json.Unmarshal(value, &txn); err != nil {
				return fmt.Errorf("decode transaction: %w", err)
			}
			txns = append(txns, txn)
			return nil
		})
	})
	if err != nil {
		return nil, apperr.ErrStoreUnavailable.WrapParent(err)
	}
	return txns, nil
}

// TransactionsByProduct returns the sale records for one product, oldest first.
func (s *Store) TransactionsByProduct(productID int64) ([]model.Transaction, error) {
	txns := []model.Transaction{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketTransactions)
		c := tx.Bucket(bucketTxnsByProduct).Cursor()
		prefix := productKey(productID)

		for k, _ := c.Seek(prefix); k != nil && len(k) == 16 && string(k[:8]) == string(prefix); k, _ = c.Next() {
			value := b.Get(k[8:])
			if value == nil {
				continue
			}
			var txn model.Transaction
			if err := json.Unmarshal(value, &txn); err != nil {
				return fmt.Errorf("decode transaction: %w", err)
			}
			txns = append(txns, txn)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.ErrStoreUnavailable.WrapParent(err)
	}
	return txns, nil
}
