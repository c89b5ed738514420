package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/emrgen/contentstore/internal/cache"
	"github.com/emrgen/contentstore/internal/compress"
	"github.com/emrgen/contentstore/internal/gc"
	"github.com/emrgen/contentstore/internal/model"
	"github.com/emrgen/contentstore/internal/store"
)

// NewContentService creates a new ContentService.
func NewContentService(compressor compress.Compress, s store.Store, c cache.Cache, collector *gc.Collector) *ContentService {
	if c == nil {
		c = cache.NewNop()
	}

	return &ContentService{
		compress: compressor,
		store:    s,
		cache:    c,
		gc:       collector,
	}
}

// ContentService manages content records, their version history and the
// image housekeeping hanging off both.
type ContentService struct {
	compress compress.Compress
	store    store.Store
	cache    cache.Cache
	gc       *gc.Collector
}

// Content is the decoded view of a record handed back to callers.
type Content struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Document  string    `json:"document"`
	Markup    string    `json:"markup"`
	Category  string    `json:"category"`
	Active    bool      `json:"active"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateContentRequest struct {
	ContentID *string
	Title     string
	Document  string
	Markup    string
	Category  string
	Active    *bool
}

type UpdateContentRequest struct {
	ContentID string
	Title     *string
	Document  *string
	Markup    *string
	Category  *string
	Active    *bool
	// Version is the expected new version (stored version + 1), or -1 to
	// overwrite regardless of the stored version.
	Version int64
}

// RevisionMeta identifies one stored version of a record.
type RevisionMeta struct {
	Version int64     `json:"version"`
	SavedAt time.Time `json:"saved_at"`
}

func contentCacheKey(id string) string {
	return "content:" + id
}

// CreateContent creates a new content record at version 1.
func (d *ContentService) CreateContent(ctx context.Context, request *CreateContentRequest) (*Content, error) {
	documentData, err := d.compress.Encode([]byte(request.Document))
	if err != nil {
		return nil, err
	}

	markupData, err := d.compress.Encode([]byte(request.Markup))
	if err != nil {
		return nil, err
	}

	content := &model.Content{
		Title:       request.Title,
		Document:    string(documentData),
		Markup:      string(markupData),
		Category:    request.Category,
		Active:      true,
		Version:     1,
		Compression: compress.Name(d.compress),
	}
	if request.Active != nil {
		content.Active = *request.Active
	}

	if request.ContentID != nil {
		content.ID = *request.ContentID
	} else {
		content.ID = uuid.New().String()
	}

	if err := d.store.CreateContent(ctx, content); err != nil {
		return nil, err
	}

	// seed the record's image reference rows; failures here never fail
	// the create itself
	if err := d.gc.CleanupRecord(ctx, uuid.MustParse(content.ID)); err != nil {
		logrus.Errorf("image cleanup after create of %s failed: %v", content.ID, err)
	}

	return d.view(content)
}

// GetContent retrieves a record. A version of 0 or less returns the live
// state, any other version is served from the revision history.
func (d *ContentService) GetContent(ctx context.Context, id string, version int64) (*Content, error) {
	contentID, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}

	if version > 0 {
		return d.getRevision(ctx, contentID, version)
	}

	cached := &Content{}
	if ok, err := d.cache.Get(ctx, contentCacheKey(id), cached); err == nil && ok {
		return cached, nil
	}

	content, err := d.store.GetContent(ctx, contentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}

	view, err := d.view(content)
	if err != nil {
		return nil, err
	}

	if err := d.cache.Set(ctx, contentCacheKey(id), view, time.Hour); err != nil {
		logrus.Errorf("error caching content %s: %v", id, err)
	}

	return view, nil
}

func (d *ContentService) getRevision(ctx context.Context, id uuid.UUID, version int64) (*Content, error) {
	content, err := d.store.GetContent(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}
	if content.Version == version {
		return d.view(content)
	}

	rev, err := d.store.GetRevision(ctx, id, version)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRevisionNotFound
	}
	if err != nil {
		return nil, err
	}

	codec := compress.ForName(rev.Compression)
	document, err := codec.Decode([]byte(rev.Document))
	if err != nil {
		return nil, err
	}
	markup, err := codec.Decode([]byte(rev.Markup))
	if err != nil {
		return nil, err
	}

	return &Content{
		ID:        content.ID,
		Title:     rev.Title,
		Document:  string(document),
		Markup:    string(markup),
		Category:  content.Category,
		Active:    content.Active,
		Version:   rev.Version,
		CreatedAt: content.CreatedAt,
		UpdatedAt: rev.CreatedAt,
	}, nil
}

// ListContents lists records, optionally filtered by category.
func (d *ContentService) ListContents(ctx context.Context, category string, includeInactive bool) ([]*Content, int64, error) {
	contents, total, err := d.store.ListContents(ctx, category, includeInactive)
	if err != nil {
		return nil, 0, err
	}

	views := make([]*Content, 0, len(contents))
	for _, content := range contents {
		view, err := d.view(content)
		if err != nil {
			return nil, 0, err
		}
		views = append(views, view)
	}

	return views, total, nil
}

// UpdateContent applies an update, archiving the pre-update state as a
// new revision. Every update call snapshots, autosaves included.
func (d *ContentService) UpdateContent(ctx context.Context, request *UpdateContentRequest) (*Content, error) {
	contentID, err := uuid.Parse(request.ContentID)
	if err != nil {
		return nil, err
	}

	var content *model.Content
	err = d.store.Transaction(ctx, func(tx store.Store) error {
		content, err = tx.GetContent(ctx, contentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrContentNotFound
		}
		if err != nil {
			return err
		}

		clone := *content

		overwrite := request.Version == -1
		versionMatch := request.Version == content.Version+1

		if !overwrite && !versionMatch {
			return fmt.Errorf("%w: current version %d, provided version %d",
				ErrVersionMismatch, content.Version, request.Version)
		}

		// snapshot the pre-update state, not the mutated record
		createRevision := func() error {
			return tx.CreateRevision(ctx, &model.Revision{
				ID:          clone.ID,
				Version:     clone.Version,
				Title:       clone.Title,
				Document:    clone.Document,
				Markup:      clone.Markup,
				Compression: clone.Compression,
			})
		}

		if request.Title != nil {
			content.Title = *request.Title
		}
		if request.Category != nil {
			content.Category = *request.Category
		}
		if request.Active != nil {
			content.Active = *request.Active
		}
		if request.Document != nil {
			documentData, err := d.compress.Encode([]byte(*request.Document))
			if err != nil {
				return err
			}
			content.Document = string(documentData)
			content.Compression = compress.Name(d.compress)
		}
		if request.Markup != nil {
			markupData, err := d.compress.Encode([]byte(*request.Markup))
			if err != nil {
				return err
			}
			content.Markup = string(markupData)
			content.Compression = compress.Name(d.compress)
		}

		// an update identical to the live state still snapshots and bumps
		// the version; autosave noise is bounded by the coalescer job, not
		// rejected here
		if err := createRevision(); err != nil {
			return err
		}

		content.Version = content.Version + 1
		logrus.Infof("updating content %s to version %d", content.ID, content.Version)

		return tx.UpdateContent(ctx, content)
	})
	if err != nil {
		return nil, err
	}

	if err := d.cache.Delete(ctx, contentCacheKey(request.ContentID)); err != nil {
		logrus.Errorf("error invalidating cached content %s: %v", request.ContentID, err)
	}

	// image housekeeping runs after the update has been persisted and its
	// failures never surface to the caller
	if err := d.gc.CleanupRecord(ctx, contentID); err != nil {
		logrus.Errorf("image cleanup after update of %s failed: %v", request.ContentID, err)
	}

	return d.view(content)
}

// DeleteContent removes a record, its revision history and every image
// left unreferenced once the record's references are gone.
func (d *ContentService) DeleteContent(ctx context.Context, id string) error {
	contentID, err := uuid.Parse(id)
	if err != nil {
		return err
	}

	// purge while the record is still readable; a purge failure must not
	// block the delete itself
	if err := d.gc.PurgeRecord(ctx, contentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrContentNotFound
		}
		logrus.Errorf("image purge before delete of %s failed: %v", id, err)
	}

	err = d.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.DeleteRevisions(ctx, contentID); err != nil {
			return err
		}

		return tx.EraseContent(ctx, contentID)
	})
	if err != nil {
		return err
	}

	if err := d.cache.Delete(ctx, contentCacheKey(id)); err != nil {
		logrus.Errorf("error invalidating cached content %s: %v", id, err)
	}

	return nil
}

// ListVersions lists the record's stored versions, newest first the
// live one.
func (d *ContentService) ListVersions(ctx context.Context, id string) ([]*RevisionMeta, error) {
	contentID, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}

	content, err := d.store.GetContent(ctx, contentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}

	versions := []*RevisionMeta{{Version: content.Version, SavedAt: content.UpdatedAt}}

	revs, err := d.store.ListRevisions(ctx, contentID)
	if err != nil {
		return nil, err
	}
	for _, rev := range revs {
		versions = append(versions, &RevisionMeta{Version: rev.Version, SavedAt: rev.CreatedAt})
	}

	return versions, nil
}

// RestoreVersion rolls a record back to a stored revision. The current
// state is snapshotted first, so a restore is itself undoable.
func (d *ContentService) RestoreVersion(ctx context.Context, id string, version int64) (*Content, error) {
	contentID, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}

	var content *model.Content
	err = d.store.Transaction(ctx, func(tx store.Store) error {
		content, err = tx.GetContent(ctx, contentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrContentNotFound
		}
		if err != nil {
			return err
		}

		rev, err := tx.GetRevision(ctx, contentID, version)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRevisionNotFound
		}
		if err != nil {
			return err
		}

		err = tx.CreateRevision(ctx, &model.Revision{
			ID:          content.ID,
			Version:     content.Version,
			Title:       content.Title,
			Document:    content.Document,
			Markup:      content.Markup,
			Compression: content.Compression,
		})
		if err != nil {
			return err
		}

		content.Title = rev.Title
		content.Document = rev.Document
		content.Markup = rev.Markup
		content.Compression = rev.Compression
		content.Version = content.Version + 1

		logrus.Infof("restoring content %s to version %d as version %d", content.ID, version, content.Version)

		return tx.UpdateContent(ctx, content)
	})
	if err != nil {
		return nil, err
	}

	if err := d.cache.Delete(ctx, contentCacheKey(id)); err != nil {
		logrus.Errorf("error invalidating cached content %s: %v", id, err)
	}

	if err := d.gc.CleanupRecord(ctx, contentID); err != nil {
		logrus.Errorf("image cleanup after restore of %s failed: %v", id, err)
	}

	return d.view(content)
}

func (d *ContentService) view(content *model.Content) (*Content, error) {
	codec := compress.ForName(content.Compression)

	document, err := codec.Decode([]byte(content.Document))
	if err != nil {
		return nil, err
	}

	markup, err := codec.Decode([]byte(content.Markup))
	if err != nil {
		return nil, err
	}

	return &Content{
		ID:        content.ID,
		Title:     content.Title,
		Document:  string(document),
		Markup:    string(markup),
		Category:  content.Category,
		Active:    content.Active,
		Version:   content.Version,
		CreatedAt: content.CreatedAt,
		UpdatedAt: content.UpdatedAt,
	}, nil
}
