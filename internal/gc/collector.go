// Package gc deletes stored image files that no content record, current
// or historical, references anymore.
package gc

import (
	"context"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/emrgen/contentstore/internal/blob"
	"github.com/emrgen/contentstore/internal/compress"
	"github.com/emrgen/contentstore/internal/extract"
	"github.com/emrgen/contentstore/internal/model"
	"github.com/emrgen/contentstore/internal/store"
)

// Collector computes image reachability and deletes unreachable files.
// All operations serialize on one mutex: concurrent cleanup runs racing
// a delete against a reference computation could otherwise drop a file
// that is still in use.
type Collector struct {
	mu        sync.Mutex
	store     store.Store
	blobs     *blob.Store
	extractor *extract.Extractor
}

func NewCollector(s store.Store, blobs *blob.Store, extractor *extract.Extractor) *Collector {
	return &Collector{store: s, blobs: blobs, extractor: extractor}
}

func decode(codec, data string) string {
	if data == "" {
		return ""
	}

	out, err := compress.ForName(codec).Decode([]byte(data))
	if err != nil {
		// undecodable content contributes nothing to the reachable set
		logrus.Errorf("failed to decode stored content: %v", err)
		return ""
	}

	return string(out)
}

// recordRefs is the record's reachable set: references of the live
// document and markup plus every revision entry, normalized to
// storage-relative paths.
func (c *Collector) recordRefs(content *model.Content, revs []*model.Revision) mapset.Set[string] {
	refs := c.extractor.Extract(
		decode(content.Compression, content.Document),
		decode(content.Compression, content.Markup),
	)

	for _, rev := range revs {
		refs = refs.Union(c.extractor.Extract(
			decode(rev.Compression, rev.Document),
			decode(rev.Compression, rev.Markup),
		))
	}

	normalized := mapset.NewSet[string]()
	for ref := range refs.Iter() {
		normalized.Add(extract.Normalize(ref))
	}

	return normalized
}

// CleanupRecord runs after an update to a record: it re-syncs the
// record's reference rows and deletes stored files that no record
// references anymore. A file referenced by any other record survives.
func (c *Collector) CleanupRecord(ctx context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	content, err := c.store.GetContent(ctx, id)
	if err != nil {
		return err
	}

	revs, err := c.store.ListRevisions(ctx, id)
	if err != nil {
		return err
	}

	refs := c.recordRefs(content, revs)
	if err := c.store.ReplaceImageRefs(ctx, content.ID, refs.ToSlice()); err != nil {
		return err
	}

	files, err := c.blobs.List(ctx)
	if err != nil {
		return err
	}

	deleted := 0
	for _, f := range files {
		path := f.Path()
		if refs.Contains(path) {
			continue
		}

		count, err := c.store.CountImageRefs(ctx, path)
		if err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		bucket, name := c.blobs.Resolve(path)
		if err := bucket.Delete(ctx, name); err != nil {
			return err
		}
		deleted++
	}

	if deleted > 0 {
		logrus.Infof("cleanup for content %s deleted %d unreferenced images", content.ID, deleted)
	}

	return nil
}

// PurgeRecord runs before a record is deleted: it drops the record's
// reference rows and deletes every image left unreferenced by that.
func (c *Collector) PurgeRecord(ctx context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	content, err := c.store.GetContent(ctx, id)
	if err != nil {
		return err
	}

	revs, err := c.store.ListRevisions(ctx, id)
	if err != nil {
		return err
	}

	refs := c.recordRefs(content, revs)
	if err := c.store.DeleteImageRefs(ctx, content.ID); err != nil {
		return err
	}

	for path := range refs.Iter() {
		count, err := c.store.CountImageRefs(ctx, path)
		if err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		bucket, name := c.blobs.Resolve(path)
		if err := bucket.Delete(ctx, name); err != nil {
			return err
		}
	}

	return nil
}

// Sweep recomputes global reachability over every record's current and
// historical content, backfills missing reference rows, and deletes
// every stored file outside the global reachable set. It returns the
// number of files deleted.
func (c *Collector) Sweep(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	contents, err := c.store.ListAllContents(ctx)
	if err != nil {
		return 0, err
	}

	global := mapset.NewSet[string]()
	for _, content := range contents {
		// a malformed record id still pins the record's live references,
		// only its revision history is unreadable
		var revs []*model.Revision
		if id, err := uuid.Parse(content.ID); err != nil {
			logrus.Errorf("sweep skipping revisions of content with malformed id %q: %v", content.ID, err)
		} else if revs, err = c.store.ListRevisions(ctx, id); err != nil {
			return 0, err
		}

		refs := c.recordRefs(content, revs)
		if err := c.store.ReplaceImageRefs(ctx, content.ID, refs.ToSlice()); err != nil {
			return 0, err
		}

		global = global.Union(refs)
	}

	files, err := c.blobs.List(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, f := range files {
		if global.Contains(f.Path()) {
			continue
		}

		bucket, name := c.blobs.Resolve(f.Path())
		if err := bucket.Delete(ctx, name); err != nil {
			return deleted, err
		}
		deleted++
	}

	logrus.Infof("sweep finished: %d records scanned, %d orphaned images deleted", len(contents), deleted)

	return deleted, nil
}
