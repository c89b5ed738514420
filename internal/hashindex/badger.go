package hashindex

import (
	"context"
	"errors"

	badger "github.com/dgraph-io/badger/v4"
)

var _ Index = (*BadgerIndex)(nil)

// BadgerIndex keeps the index in a dedicated badger KV store, for
// deployments that want dedup lookups off the main database.
type BadgerIndex struct {
	db *badger.DB
}

func NewBadgerIndex(path string) (*BadgerIndex, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &BadgerIndex{db: db}, nil
}

func (i *BadgerIndex) Get(ctx context.Context, hash string) (string, bool, error) {
	var path string
	err := i.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(hash))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			path = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	return path, true, nil
}

func (i *BadgerIndex) Put(ctx context.Context, hash, path string) error {
	return i.db.Update(func(txn *badger.Txn) error {
		// first writer wins
		if _, err := txn.Get([]byte(hash)); err == nil {
			return nil
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		return txn.Set([]byte(hash), []byte(path))
	})
}

func (i *BadgerIndex) Delete(ctx context.Context, hash string) error {
	return i.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(hash))
	})
}

func (i *BadgerIndex) Close() error {
	return i.db.Close()
}
