package store

import (
	"encoding/binary"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/tmdiallo/stockalerte/internal/apperr"
)

// Bucket layout. Products are keyed by their client-generated id; transactions
// and sync queue entries get sequential ids from the bucket sequence, so the
// byte-ordered keys double as insertion order.
var (
	bucketProducts      = []byte("products")
	bucketTransactions  = []byte("transactions")
	bucketTxnsByProduct = []byte("transactions_by_product")
	bucketSyncQueue     = []byte("sync_queue")
)

// Store is the authoritative, always-available local store. It must never
// block on the network; every read and write goes against the bbolt file.
type Store struct {
	db *bbolt.DB
}

// Open creates or opens the store file and its buckets. It is idempotent.
// A file that cannot be opened or written surfaces as StoreUnavailable.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, apperr.ErrStoreUnavailable.WrapParent(fmt.Errorf("open %s: %w", path, err))
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketProducts, bucketTransactions, bucketTxnsByProduct, bucketSyncQueue} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, apperr.ErrStoreUnavailable.WrapParent(err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the location of the store file.
func (s *Store) Path() string {
	return s.db.Path()
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// productKey encodes a product id as a sortable bucket key. Product ids are
// positive, so the uint64 conversion preserves ordering.
func productKey(id int64) []byte {
	return itob(uint64(id))
}
