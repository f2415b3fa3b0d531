package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/tmdiallo/stockalerte/internal/apperr"
	"github.com/tmdiallo/stockalerte/internal/model"
)

// AddProduct inserts a new product. The caller must have assigned a positive
// numeric id; normalization is applied before the write so every insert path
// (user input, restore) stores the same shape.
func (s *Store) AddProduct(product model.Product) (model.Product, error) {
	if product.ID <= 0 {
		return model.Product{}, apperr.ErrInvalidProduct.WrapParent(
			fmt.Errorf("product id must be a positive number, got %d", product.ID))
	}

	clean := product.Normalized()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketProducts)
		key := productKey(clean.ID)
		if b.Get(key) != nil {
			return apperr.ErrDuplicateKey.WrapParent(fmt.Errorf("product %d", clean.ID))
		}

		value, err := json.Marshal(clean)
		if err != nil {
			return fmt.Errorf("encode product: %w", err)
		}
		return b.Put(key, value)
	})
	if err != nil {
		if apperr.HasCode(err, apperr.DuplicateKeyCode) {
			return model.Product{}, err
		}
		return model.Product{}, apperr.ErrStoreUnavailable.WrapParent(err)
	}

	return clean, nil
}

// GetProduct returns the product with the given id, or NotFound.
func (s *Store) GetProduct(id int64) (model.Product, error) {
	var product model.Product
	err := s.db.View(func(tx *bbolt.Tx) error {
		value := tx.Bucket(bucketProducts).Get(productKey(id))
		if value == nil {
			return apperr.ErrNotFound.WrapParent(fmt.Errorf("product %d", id))
		}
		return json.Unmarshal(value, &product)
	})
	if err != nil {
		if apperr.HasCode(err, apperr.NotFoundCode) {
			return model.Product{}, err
		}
		return model.Product{}, apperr.ErrStoreUnavailable.WrapParent(err)
	}
	return product, nil
}

// GetAllProducts returns the full product snapshot in key order.
func (s *Store) GetAllProducts() ([]model.Product, error) {
	products := []model.Product{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketProducts).ForEach(func(_, value []byte) error {
			var product model.Product
			if err := json.Unmarshal(value, &product); err != nil {
				return fmt.Errorf("decode product: %w", err)
			}
			products = append(products, product)
			return nil
		})
	})
	if err != nil {
		return nil, apperr.ErrStoreUnavailable.WrapParent(err)
	}
	return products, nil
}

// UpdateProduct replaces the stored record keyed by product.ID. Full-record
// replace, last-writer-wins; there is no version check.
func (s *Store) UpdateProduct(product model.Product) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		value, err := json.Marshal(product.Normalized())
		if err != nil {
			return fmt.Errorf("encode product: %w", err)
		}
		return tx.Bucket(bucketProducts).Put(productKey(product.ID), value)
	})
	if err != nil {
		return apperr.ErrStoreUnavailable.WrapParent(err)
	}
	return nil
}

// DeleteProduct removes the product by id. Deleting an absent key succeeds.
func (s *Store) DeleteProduct(id int64) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketProducts).Delete(productKey(id))
	})
	if err != nil {
		return apperr.ErrStoreUnavailable.WrapParent(err)
	}
	return nil
}

// ClearAllProducts wipes the product collection only. Transactions and the
// sync queue are untouched; this backs the hard reset and the pre-restore step.
func (s *Store) ClearAllProducts() error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketProducts); err != nil {
			return fmt.Errorf("delete products bucket: %w", err)
		}
		_, err := tx.CreateBucket(bucketProducts)
		return err
	})
	if err != nil {
		return apperr.ErrStoreUnavailable.WrapParent(err)
	}
	return nil
}
