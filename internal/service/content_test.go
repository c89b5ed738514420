package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/emrgen/contentstore/internal/blob"
	"github.com/emrgen/contentstore/internal/compress"
	"github.com/emrgen/contentstore/internal/extract"
	"github.com/emrgen/contentstore/internal/gc"
	"github.com/emrgen/contentstore/internal/store"
	"github.com/emrgen/contentstore/internal/tester"
)

func newContentService(t *testing.T) *ContentService {
	t.Helper()

	s := store.NewGormStore(tester.TestDB())
	blobs, err := blob.NewFSStore(tester.StorageRoot())
	assert.NoError(t, err)

	collector := gc.NewCollector(s, blobs, extract.New(0))

	return NewContentService(compress.NewGZip(), s, nil, collector)
}

// newBrokenHousekeepingService wires the collector to a closed database
// so every cleanup and purge fails, while the content store itself stays
// healthy.
func newBrokenHousekeepingService(t *testing.T) *ContentService {
	t.Helper()

	brokenDB, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "broken.db")), &gorm.Config{})
	assert.NoError(t, err)
	sqlDB, err := brokenDB.DB()
	assert.NoError(t, err)
	assert.NoError(t, sqlDB.Close())

	blobs, err := blob.NewFSStore(tester.StorageRoot())
	assert.NoError(t, err)

	collector := gc.NewCollector(store.NewGormStore(brokenDB), blobs, extract.New(0))

	return NewContentService(compress.NewGZip(), store.NewGormStore(tester.TestDB()), nil, collector)
}

func strPtr(s string) *string {
	return &s
}

func TestCreateAndGetContent(t *testing.T) {
	service := newContentService(t)
	ctx := context.TODO()

	created, err := service.CreateContent(ctx, &CreateContentRequest{
		Title:    "first post",
		Document: `[{"type":"paragraph"}]`,
		Markup:   `<p>hello</p>`,
		Category: "blog",
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, int64(1), created.Version)
	assert.True(t, created.Active)

	got, err := service.GetContent(ctx, created.ID, 0)
	assert.NoError(t, err)
	assert.Equal(t, "first post", got.Title)
	assert.Equal(t, `[{"type":"paragraph"}]`, got.Document)
	assert.Equal(t, `<p>hello</p>`, got.Markup)
	assert.Equal(t, "blog", got.Category)
}

func TestGetContentNotFound(t *testing.T) {
	service := newContentService(t)

	_, err := service.GetContent(context.TODO(), "2c36b0b9-8d3f-4b28-a203-132176fa2b7a", 0)
	assert.ErrorIs(t, err, ErrContentNotFound)
}

func TestGetContentBadID(t *testing.T) {
	service := newContentService(t)

	_, err := service.GetContent(context.TODO(), "not-a-uuid", 0)
	assert.Error(t, err)
}

func TestUpdateContentArchivesPreviousState(t *testing.T) {
	service := newContentService(t)
	ctx := context.TODO()

	created, err := service.CreateContent(ctx, &CreateContentRequest{
		Title:    "draft",
		Document: `[{"type":"paragraph","text":"v1"}]`,
	})
	assert.NoError(t, err)

	updated, err := service.UpdateContent(ctx, &UpdateContentRequest{
		ContentID: created.ID,
		Document:  strPtr(`[{"type":"paragraph","text":"v2"}]`),
		Version:   2,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, `[{"type":"paragraph","text":"v2"}]`, updated.Document)

	// the archived revision holds the state the update replaced
	archived, err := service.GetContent(ctx, created.ID, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), archived.Version)
	assert.Equal(t, `[{"type":"paragraph","text":"v1"}]`, archived.Document)
	assert.Equal(t, "draft", archived.Title)

	versions, err := service.ListVersions(ctx, created.ID)
	assert.NoError(t, err)
	assert.Len(t, versions, 2)
	assert.Equal(t, int64(2), versions[0].Version)
}

func TestUpdateContentVersionMismatch(t *testing.T) {
	service := newContentService(t)
	ctx := context.TODO()

	created, err := service.CreateContent(ctx, &CreateContentRequest{
		Title:    "draft",
		Document: `[]`,
	})
	assert.NoError(t, err)

	_, err = service.UpdateContent(ctx, &UpdateContentRequest{
		ContentID: created.ID,
		Title:     strPtr("renamed"),
		Version:   7,
	})
	assert.ErrorIs(t, err, ErrVersionMismatch)

	// the failed update left no trace
	got, err := service.GetContent(ctx, created.ID, 0)
	assert.NoError(t, err)
	assert.Equal(t, "draft", got.Title)
	assert.Equal(t, int64(1), got.Version)
}

func TestUpdateContentOverwriteVersion(t *testing.T) {
	service := newContentService(t)
	ctx := context.TODO()

	created, err := service.CreateContent(ctx, &CreateContentRequest{
		Title:    "draft",
		Document: `[]`,
	})
	assert.NoError(t, err)

	updated, err := service.UpdateContent(ctx, &UpdateContentRequest{
		ContentID: created.ID,
		Title:     strPtr("renamed"),
		Version:   -1,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, "renamed", updated.Title)
}

func TestUpdateContentIdenticalPayloadStillSnapshots(t *testing.T) {
	service := newContentService(t)
	ctx := context.TODO()

	created, err := service.CreateContent(ctx, &CreateContentRequest{
		Title:    "draft",
		Document: `[{"type":"paragraph"}]`,
	})
	assert.NoError(t, err)

	// an autosave carrying the exact live state is an update like any
	// other: one revision appended, version bumped
	updated, err := service.UpdateContent(ctx, &UpdateContentRequest{
		ContentID: created.ID,
		Title:     strPtr("draft"),
		Document:  strPtr(`[{"type":"paragraph"}]`),
		Version:   2,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	versions, err := service.ListVersions(ctx, created.ID)
	assert.NoError(t, err)
	assert.Len(t, versions, 2)

	archived, err := service.GetContent(ctx, created.ID, 1)
	assert.NoError(t, err)
	assert.Equal(t, "draft", archived.Title)
	assert.Equal(t, `[{"type":"paragraph"}]`, archived.Document)
}

func TestGetContentCurrentVersionServesLiveState(t *testing.T) {
	service := newContentService(t)
	ctx := context.TODO()

	created, err := service.CreateContent(ctx, &CreateContentRequest{
		Title:    "draft",
		Document: `[]`,
	})
	assert.NoError(t, err)

	got, err := service.GetContent(ctx, created.ID, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, "draft", got.Title)
}

func TestGetContentMissingRevision(t *testing.T) {
	service := newContentService(t)
	ctx := context.TODO()

	created, err := service.CreateContent(ctx, &CreateContentRequest{
		Title:    "draft",
		Document: `[]`,
	})
	assert.NoError(t, err)

	_, err = service.GetContent(ctx, created.ID, 9)
	assert.ErrorIs(t, err, ErrRevisionNotFound)
}

func TestRestoreVersion(t *testing.T) {
	service := newContentService(t)
	ctx := context.TODO()

	created, err := service.CreateContent(ctx, &CreateContentRequest{
		Title:    "original",
		Document: `[{"type":"paragraph","text":"v1"}]`,
	})
	assert.NoError(t, err)

	_, err = service.UpdateContent(ctx, &UpdateContentRequest{
		ContentID: created.ID,
		Title:     strPtr("edited"),
		Document:  strPtr(`[{"type":"paragraph","text":"v2"}]`),
		Version:   2,
	})
	assert.NoError(t, err)

	// rolling back to version 1 appends a new version with its content
	restored, err := service.RestoreVersion(ctx, created.ID, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), restored.Version)
	assert.Equal(t, "original", restored.Title)
	assert.Equal(t, `[{"type":"paragraph","text":"v1"}]`, restored.Document)

	// the pre-restore state was archived, so the restore is undoable
	versions, err := service.ListVersions(ctx, created.ID)
	assert.NoError(t, err)
	assert.Len(t, versions, 3)

	archived, err := service.GetContent(ctx, created.ID, 2)
	assert.NoError(t, err)
	assert.Equal(t, "edited", archived.Title)
}

func TestRestoreMissingVersion(t *testing.T) {
	service := newContentService(t)
	ctx := context.TODO()

	created, err := service.CreateContent(ctx, &CreateContentRequest{
		Title:    "draft",
		Document: `[]`,
	})
	assert.NoError(t, err)

	_, err = service.RestoreVersion(ctx, created.ID, 5)
	assert.ErrorIs(t, err, ErrRevisionNotFound)
}

func TestDeleteContent(t *testing.T) {
	service := newContentService(t)
	ctx := context.TODO()

	created, err := service.CreateContent(ctx, &CreateContentRequest{
		Title:    "doomed",
		Document: `[]`,
	})
	assert.NoError(t, err)

	_, err = service.UpdateContent(ctx, &UpdateContentRequest{
		ContentID: created.ID,
		Title:     strPtr("still doomed"),
		Version:   2,
	})
	assert.NoError(t, err)

	assert.NoError(t, service.DeleteContent(ctx, created.ID))

	_, err = service.GetContent(ctx, created.ID, 0)
	assert.ErrorIs(t, err, ErrContentNotFound)

	_, err = service.ListVersions(ctx, created.ID)
	assert.ErrorIs(t, err, ErrContentNotFound)
}

func TestUpdateContentSurvivesHousekeepingFailure(t *testing.T) {
	service := newBrokenHousekeepingService(t)
	ctx := context.TODO()

	// create already exercises a failing cleanup hook
	created, err := service.CreateContent(ctx, &CreateContentRequest{
		Title:    "draft",
		Document: `[{"type":"paragraph"}]`,
	})
	assert.NoError(t, err)

	updated, err := service.UpdateContent(ctx, &UpdateContentRequest{
		ContentID: created.ID,
		Title:     strPtr("edited"),
		Version:   2,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	// the update was persisted despite the cleanup failure
	got, err := service.GetContent(ctx, created.ID, 0)
	assert.NoError(t, err)
	assert.Equal(t, "edited", got.Title)
	assert.Equal(t, int64(2), got.Version)
}

func TestDeleteContentSurvivesHousekeepingFailure(t *testing.T) {
	service := newBrokenHousekeepingService(t)
	ctx := context.TODO()

	created, err := service.CreateContent(ctx, &CreateContentRequest{
		Title:    "doomed",
		Document: `[]`,
	})
	assert.NoError(t, err)

	// the purge fails against the broken collector, the delete proceeds
	assert.NoError(t, service.DeleteContent(ctx, created.ID))

	_, err = service.GetContent(ctx, created.ID, 0)
	assert.ErrorIs(t, err, ErrContentNotFound)
}

func TestDeleteContentNotFound(t *testing.T) {
	service := newContentService(t)

	err := service.DeleteContent(context.TODO(), "5f0f6cbe-4f0c-47fb-bf08-cc40d9e5ac49")
	assert.ErrorIs(t, err, ErrContentNotFound)
}

func TestListContentsFiltersByCategory(t *testing.T) {
	service := newContentService(t)
	ctx := context.TODO()

	_, err := service.CreateContent(ctx, &CreateContentRequest{
		Title:    "listed",
		Document: `[]`,
		Category: "category-filter-test",
	})
	assert.NoError(t, err)

	inactive := false
	_, err = service.CreateContent(ctx, &CreateContentRequest{
		Title:    "hidden",
		Document: `[]`,
		Category: "category-filter-test",
		Active:   &inactive,
	})
	assert.NoError(t, err)

	views, total, err := service.ListContents(ctx, "category-filter-test", false)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, views, 1)
	assert.Equal(t, "listed", views[0].Title)

	views, total, err = service.ListContents(ctx, "category-filter-test", true)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, views, 2)
}
