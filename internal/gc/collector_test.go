package gc

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emrgen/contentstore/internal/blob"
	"github.com/emrgen/contentstore/internal/extract"
	"github.com/emrgen/contentstore/internal/model"
	"github.com/emrgen/contentstore/internal/store"
)

func newTestCollector(t *testing.T) (*Collector, store.Store, *blob.Store) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "gc.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)
	assert.NoError(t, model.Migrate(db))

	gs := store.NewGormStore(db)
	blobs, err := blob.NewFSStore(t.TempDir())
	assert.NoError(t, err)

	return NewCollector(gs, blobs, extract.New(0)), gs, blobs
}

func putImage(t *testing.T, blobs *blob.Store, name string) {
	t.Helper()
	assert.NoError(t, blobs.Images.Put(context.TODO(), name, strings.NewReader("image-bytes")))
}

func imageDoc(names ...string) string {
	nodes := make([]string, 0, len(names))
	for _, name := range names {
		nodes = append(nodes, fmt.Sprintf(`{"type":"image","attrs":{"src":"/storage/images/%s"}}`, name))
	}
	return "[" + strings.Join(nodes, ",") + "]"
}

func createContent(t *testing.T, s store.Store, doc string) *model.Content {
	t.Helper()
	content := &model.Content{
		ID:       uuid.New().String(),
		Title:    "post",
		Document: doc,
		Version:  1,
	}
	assert.NoError(t, s.CreateContent(context.TODO(), content))
	return content
}

func exists(t *testing.T, blobs *blob.Store, name string) bool {
	t.Helper()
	ok, err := blobs.Images.Exists(context.TODO(), name)
	assert.NoError(t, err)
	return ok
}

func TestCleanupRecordDeletesDroppedImage(t *testing.T) {
	collector, s, blobs := newTestCollector(t)
	ctx := context.TODO()

	putImage(t, blobs, "a.png")
	putImage(t, blobs, "b.png")

	content := createContent(t, s, imageDoc("a.png", "b.png"))
	assert.NoError(t, collector.CleanupRecord(ctx, uuid.MustParse(content.ID)))
	assert.True(t, exists(t, blobs, "a.png"))
	assert.True(t, exists(t, blobs, "b.png"))

	// edit drops a.png from the document
	content.Document = imageDoc("b.png")
	assert.NoError(t, s.UpdateContent(ctx, content))

	assert.NoError(t, collector.CleanupRecord(ctx, uuid.MustParse(content.ID)))
	assert.False(t, exists(t, blobs, "a.png"))
	assert.True(t, exists(t, blobs, "b.png"))
}

func TestCleanupRecordKeepsSharedImage(t *testing.T) {
	collector, s, blobs := newTestCollector(t)
	ctx := context.TODO()

	putImage(t, blobs, "a.png")
	putImage(t, blobs, "b.png")

	first := createContent(t, s, imageDoc("a.png", "b.png"))
	second := createContent(t, s, imageDoc("a.png"))

	assert.NoError(t, collector.CleanupRecord(ctx, uuid.MustParse(first.ID)))
	assert.NoError(t, collector.CleanupRecord(ctx, uuid.MustParse(second.ID)))

	// the first record drops a.png, but the second still references it
	first.Document = imageDoc("b.png")
	assert.NoError(t, s.UpdateContent(ctx, first))

	assert.NoError(t, collector.CleanupRecord(ctx, uuid.MustParse(first.ID)))
	assert.True(t, exists(t, blobs, "a.png"))
	assert.True(t, exists(t, blobs, "b.png"))
}

func TestCleanupRecordKeepsRevisionImages(t *testing.T) {
	collector, s, blobs := newTestCollector(t)
	ctx := context.TODO()

	putImage(t, blobs, "old.png")
	putImage(t, blobs, "new.png")

	content := createContent(t, s, imageDoc("new.png"))
	assert.NoError(t, s.CreateRevision(ctx, &model.Revision{
		ID:       content.ID,
		Version:  1,
		Title:    "post",
		Document: imageDoc("old.png"),
	}))

	// old.png left the live document but its revision still holds it
	assert.NoError(t, collector.CleanupRecord(ctx, uuid.MustParse(content.ID)))
	assert.True(t, exists(t, blobs, "old.png"))
	assert.True(t, exists(t, blobs, "new.png"))
}

func TestPurgeRecordDeletesAllVersionsImages(t *testing.T) {
	collector, s, blobs := newTestCollector(t)
	ctx := context.TODO()

	putImage(t, blobs, "v1.png")
	putImage(t, blobs, "v2.png")
	putImage(t, blobs, "v3.png")

	// two historical versions each introduced one image, the live
	// document holds a third
	content := createContent(t, s, imageDoc("v1.png", "v2.png", "v3.png"))
	assert.NoError(t, s.CreateRevision(ctx, &model.Revision{
		ID: content.ID, Version: 1, Document: imageDoc("v1.png"),
	}))
	assert.NoError(t, s.CreateRevision(ctx, &model.Revision{
		ID: content.ID, Version: 2, Document: imageDoc("v1.png", "v2.png"),
	}))
	assert.NoError(t, collector.CleanupRecord(ctx, uuid.MustParse(content.ID)))

	assert.NoError(t, collector.PurgeRecord(ctx, uuid.MustParse(content.ID)))
	assert.False(t, exists(t, blobs, "v1.png"))
	assert.False(t, exists(t, blobs, "v2.png"))
	assert.False(t, exists(t, blobs, "v3.png"))
}

func TestPurgeRecordKeepsSharedImage(t *testing.T) {
	collector, s, blobs := newTestCollector(t)
	ctx := context.TODO()

	putImage(t, blobs, "shared.png")
	putImage(t, blobs, "own.png")

	doomed := createContent(t, s, imageDoc("shared.png", "own.png"))
	survivor := createContent(t, s, imageDoc("shared.png"))

	assert.NoError(t, collector.CleanupRecord(ctx, uuid.MustParse(doomed.ID)))
	assert.NoError(t, collector.CleanupRecord(ctx, uuid.MustParse(survivor.ID)))

	assert.NoError(t, collector.PurgeRecord(ctx, uuid.MustParse(doomed.ID)))
	assert.True(t, exists(t, blobs, "shared.png"))
	assert.False(t, exists(t, blobs, "own.png"))
}

func TestSweepDeletesOrphans(t *testing.T) {
	collector, s, blobs := newTestCollector(t)
	ctx := context.TODO()

	putImage(t, blobs, "kept.png")
	putImage(t, blobs, "orphan1.png")
	putImage(t, blobs, "orphan2.png")
	assert.NoError(t, blobs.Uploads.Put(ctx, "cover.jpg", strings.NewReader("cover")))

	content := createContent(t, s, imageDoc("kept.png"))
	content.Markup = `<p><img src="/storage/uploads/cover.jpg"></p>`
	assert.NoError(t, s.UpdateContent(ctx, content))

	deleted, err := collector.Sweep(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, deleted)

	assert.True(t, exists(t, blobs, "kept.png"))
	assert.False(t, exists(t, blobs, "orphan1.png"))
	assert.False(t, exists(t, blobs, "orphan2.png"))

	ok, err := blobs.Uploads.Exists(ctx, "cover.jpg")
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestSweepBackfillsReferenceRows(t *testing.T) {
	collector, s, blobs := newTestCollector(t)
	ctx := context.TODO()

	putImage(t, blobs, "a.png")
	createContent(t, s, imageDoc("a.png"))

	// no cleanup ran, so no reference rows exist yet
	count, err := s.CountImageRefs(ctx, "images/a.png")
	assert.NoError(t, err)
	assert.Zero(t, count)

	_, err = collector.Sweep(ctx)
	assert.NoError(t, err)

	count, err = s.CountImageRefs(ctx, "images/a.png")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	paths, err := s.ListReferencedPaths(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"images/a.png"}, paths)
}

func TestSweepToleratesMalformedRecordID(t *testing.T) {
	collector, s, blobs := newTestCollector(t)
	ctx := context.TODO()

	putImage(t, blobs, "pinned.png")
	putImage(t, blobs, "orphan.png")

	// imported data can carry non-uuid ids; its live references must
	// still pin files, only the revision scan is skipped
	assert.NoError(t, s.CreateContent(ctx, &model.Content{
		ID:       "legacy-import-42",
		Title:    "imported",
		Document: imageDoc("pinned.png"),
		Version:  1,
	}))

	deleted, err := collector.Sweep(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.True(t, exists(t, blobs, "pinned.png"))
	assert.False(t, exists(t, blobs, "orphan.png"))
}

func TestSweepIsEmptyStateSafe(t *testing.T) {
	collector, _, _ := newTestCollector(t)

	deleted, err := collector.Sweep(context.TODO())
	assert.NoError(t, err)
	assert.Zero(t, deleted)
}
