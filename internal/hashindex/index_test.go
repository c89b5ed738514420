package hashindex

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/emrgen/contentstore/internal/model"
	"github.com/emrgen/contentstore/internal/store"
)

func newDBIndex(t *testing.T) *DBIndex {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "index.db")), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, model.Migrate(db))

	return NewDBIndex(store.NewGormStore(db))
}

func newBadgerIndex(t *testing.T) *BadgerIndex {
	index, err := NewBadgerIndex(filepath.Join(t.TempDir(), "badger"))
	assert.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return index
}

func TestIndex_PutGetDelete(t *testing.T) {
	tests := []struct {
		name  string
		index Index
	}{
		{name: "db", index: newDBIndex(t)},
		{name: "badger", index: newBadgerIndex(t)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.TODO()

			_, found, err := tt.index.Get(ctx, "deadbeef")
			assert.NoError(t, err)
			assert.False(t, found)

			assert.NoError(t, tt.index.Put(ctx, "deadbeef", "images/a.png"))

			path, found, err := tt.index.Get(ctx, "deadbeef")
			assert.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "images/a.png", path)

			// first writer wins
			assert.NoError(t, tt.index.Put(ctx, "deadbeef", "images/other.png"))
			path, found, err = tt.index.Get(ctx, "deadbeef")
			assert.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "images/a.png", path)

			assert.NoError(t, tt.index.Delete(ctx, "deadbeef"))
			_, found, err = tt.index.Get(ctx, "deadbeef")
			assert.NoError(t, err)
			assert.False(t, found)

			// a pruned hash can be re-indexed under a new path
			assert.NoError(t, tt.index.Put(ctx, "deadbeef", "images/fresh.png"))
			path, found, err = tt.index.Get(ctx, "deadbeef")
			assert.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "images/fresh.png", path)
		})
	}
}
