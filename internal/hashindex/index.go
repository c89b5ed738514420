// Package hashindex maps content hashes to stored image paths, backing
// upload deduplication. Both backends give atomic first-writer-wins
// insert semantics.
package hashindex

import (
	"context"

	"github.com/emrgen/contentstore/internal/store"
)

type Index interface {
	// Get looks up the stored path for a hash.
	Get(ctx context.Context, hash string) (string, bool, error)
	// Put inserts an entry. If the hash is already indexed the existing
	// entry wins and no error is returned.
	Put(ctx context.Context, hash, path string) error
	// Delete removes an entry, used to self-heal when the indexed file is
	// found missing.
	Delete(ctx context.Context, hash string) error
	Close() error
}

var _ Index = (*DBIndex)(nil)

// DBIndex keeps the index in the main database, relying on the unique
// constraint on the hash column.
type DBIndex struct {
	store store.ImageStore
}

func NewDBIndex(s store.ImageStore) *DBIndex {
	return &DBIndex{store: s}
}

func (i *DBIndex) Get(ctx context.Context, hash string) (string, bool, error) {
	return i.store.GetImageHash(ctx, hash)
}

func (i *DBIndex) Put(ctx context.Context, hash, path string) error {
	return i.store.PutImageHash(ctx, hash, path)
}

func (i *DBIndex) Delete(ctx context.Context, hash string) error {
	return i.store.DeleteImageHash(ctx, hash)
}

func (i *DBIndex) Close() error {
	return nil
}
