// Package stats aggregates counts and sizes over the image store for
// operational visibility.
package stats

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/emrgen/contentstore/internal/blob"
	"github.com/emrgen/contentstore/internal/cache"
	"github.com/emrgen/contentstore/internal/compress"
	"github.com/emrgen/contentstore/internal/extract"
	"github.com/emrgen/contentstore/internal/model"
	"github.com/emrgen/contentstore/internal/store"
)

const (
	reportCacheKey = "stats:report"
	reportCacheTTL = time.Minute
)

// Report is a point-in-time view of the image store. Orphaned is a true
// set difference between stored and referenced paths, so it is never
// negative and double references across records do not skew it.
type Report struct {
	TotalImages      int            `json:"total_images"`
	ReferencedImages int            `json:"referenced_images"`
	OrphanedImages   int            `json:"orphaned_images"`
	TotalSize        int64          `json:"total_size"`
	ImageTypes       map[string]int `json:"image_types"`
}

type Reporter struct {
	store     store.Store
	blobs     *blob.Store
	extractor *extract.Extractor
	cache     cache.Cache
}

func NewReporter(s store.Store, blobs *blob.Store, extractor *extract.Extractor, c cache.Cache) *Reporter {
	if c == nil {
		c = cache.NewNop()
	}

	return &Reporter{store: s, blobs: blobs, extractor: extractor, cache: c}
}

// Report computes the storage stats, serving a cached copy when one is
// fresh enough.
func (r *Reporter) Report(ctx context.Context) (*Report, error) {
	cached := &Report{}
	if ok, err := r.cache.Get(ctx, reportCacheKey, cached); err == nil && ok {
		return cached, nil
	}

	files, err := r.blobs.List(ctx)
	if err != nil {
		return nil, err
	}

	stored := mapset.NewSet[string]()
	report := &Report{ImageTypes: map[string]int{}}
	for _, f := range files {
		stored.Add(f.Path())
		report.TotalSize += f.Size

		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), ".")
		if ext == "" {
			ext = "unknown"
		}
		report.ImageTypes[ext]++
	}
	report.TotalImages = stored.Cardinality()

	referenced, err := r.referencedPaths(ctx)
	if err != nil {
		return nil, err
	}

	report.ReferencedImages = stored.Intersect(referenced).Cardinality()
	report.OrphanedImages = stored.Difference(referenced).Cardinality()

	if err := r.cache.Set(ctx, reportCacheKey, report, reportCacheTTL); err != nil {
		// a cold cache only costs the next caller a recompute
		return report, nil
	}

	return report, nil
}

// referencedPaths is the global reachable set: every record's current
// state plus its full revision history, across all records.
func (r *Reporter) referencedPaths(ctx context.Context) (mapset.Set[string], error) {
	contents, err := r.store.ListAllContents(ctx)
	if err != nil {
		return nil, err
	}

	referenced := mapset.NewSet[string]()
	for _, content := range contents {
		codec := compress.ForName(content.Compression)

		refs := r.extractor.Extract(decodeString(codec, content.Document), decodeString(codec, content.Markup))

		// a malformed record id degrades to counting the live state only
		var revs []*model.Revision
		if id, err := uuid.Parse(content.ID); err != nil {
			logrus.Errorf("stats skipping revisions of content with malformed id %q: %v", content.ID, err)
		} else if revs, err = r.store.ListRevisions(ctx, id); err != nil {
			return nil, err
		}
		for _, rev := range revs {
			revCodec := compress.ForName(rev.Compression)
			refs = refs.Union(r.extractor.Extract(decodeString(revCodec, rev.Document), decodeString(revCodec, rev.Markup)))
		}

		for ref := range refs.Iter() {
			referenced.Add(extract.Normalize(ref))
		}
	}

	return referenced, nil
}

func decodeString(codec compress.Compress, data string) string {
	if data == "" {
		return ""
	}

	out, err := codec.Decode([]byte(data))
	if err != nil {
		return ""
	}

	return string(out)
}
