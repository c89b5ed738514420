package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/emrgen/contentstore/internal/model"
)

type Store interface {
	ContentStore
	RevisionStore
	ImageStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

type ContentStore interface {
	// CreateContent creates a new content record.
	CreateContent(ctx context.Context, content *model.Content) error
	// GetContent retrieves a content record by ID.
	GetContent(ctx context.Context, id uuid.UUID) (*model.Content, error)
	// ListContents retrieves content records, optionally filtered by category.
	// Inactive records are skipped unless includeInactive is set.
	ListContents(ctx context.Context, category string, includeInactive bool) ([]*model.Content, int64, error)
	// ListAllContents retrieves every content record, soft-deleted ones
	// included. Used by the sweep and the stats reporter, which must see the
	// full reachable set.
	ListAllContents(ctx context.Context) ([]*model.Content, error)
	// UpdateContent updates a content record.
	UpdateContent(ctx context.Context, content *model.Content) error
	// DeleteContent soft-deletes a content record by ID.
	DeleteContent(ctx context.Context, id uuid.UUID) error
	// EraseContent hard-deletes a content record by ID.
	EraseContent(ctx context.Context, id uuid.UUID) error
}

type RevisionStore interface {
	// CreateRevision appends a revision snapshot.
	CreateRevision(ctx context.Context, rev *model.Revision) error
	// ListRevisions retrieves all revisions of a content record.
	ListRevisions(ctx context.Context, contentID uuid.UUID) ([]*model.Revision, error)
	// GetRevision retrieves one revision by content ID and version.
	GetRevision(ctx context.Context, contentID uuid.UUID, version int64) (*model.Revision, error)
	// DeleteRevisions removes all revisions of a content record.
	DeleteRevisions(ctx context.Context, contentID uuid.UUID) error
	// ListRevisionsByCreatedTime retrieves revisions created inside a time
	// window, ordered by creation time. Used by the revision coalescer.
	ListRevisionsByCreatedTime(ctx context.Context, from, to time.Time) ([]*model.Revision, error)
	// DeleteRevisionVersions removes the given versions per content ID.
	DeleteRevisionVersions(ctx context.Context, remove map[string][]int64) error
}

type ImageStore interface {
	// PutImageHash inserts a hash->path entry, first writer wins.
	PutImageHash(ctx context.Context, hash, path string) error
	// GetImageHash looks up the stored path for a content hash.
	GetImageHash(ctx context.Context, hash string) (string, bool, error)
	// DeleteImageHash removes a hash entry, used to self-heal stale entries.
	DeleteImageHash(ctx context.Context, hash string) error
	// ReplaceImageRefs replaces a record's image references with the given paths.
	ReplaceImageRefs(ctx context.Context, contentID string, paths []string) error
	// DeleteImageRefs removes all image references held by a record.
	DeleteImageRefs(ctx context.Context, contentID string) error
	// CountImageRefs counts how many records reference a path.
	CountImageRefs(ctx context.Context, path string) (int64, error)
	// ListReferencedPaths lists every distinct referenced path.
	ListReferencedPaths(ctx context.Context) ([]string, error)
}
