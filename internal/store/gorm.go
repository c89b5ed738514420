package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emrgen/contentstore/internal/model"
)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

func (g *GormStore) CreateContent(ctx context.Context, content *model.Content) error {
	return g.db.WithContext(ctx).Create(content).Error
}

func (g *GormStore) GetContent(ctx context.Context, id uuid.UUID) (*model.Content, error) {
	var content model.Content
	err := g.db.WithContext(ctx).Where("id = ?", id.String()).First(&content).Error
	return &content, err
}

func (g *GormStore) ListContents(ctx context.Context, category string, includeInactive bool) ([]*model.Content, int64, error) {
	var contents []*model.Content

	q := g.db.WithContext(ctx).Model(&model.Content{})
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if !includeInactive {
		q = q.Where("active = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("updated_at desc").Find(&contents).Error
	if err != nil {
		return nil, 0, err
	}

	return contents, total, nil
}

func (g *GormStore) ListAllContents(ctx context.Context) ([]*model.Content, error) {
	var contents []*model.Content
	// soft-deleted records still pin their images until erased
	err := g.db.WithContext(ctx).Unscoped().Find(&contents).Error
	return contents, err
}

func (g *GormStore) UpdateContent(ctx context.Context, content *model.Content) error {
	return g.db.WithContext(ctx).Save(content).Error
}

func (g *GormStore) DeleteContent(ctx context.Context, id uuid.UUID) error {
	return g.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&model.Content{}).Error
}

func (g *GormStore) EraseContent(ctx context.Context, id uuid.UUID) error {
	return g.db.WithContext(ctx).Unscoped().Where("id = ?", id.String()).Delete(&model.Content{}).Error
}

func (g *GormStore) CreateRevision(ctx context.Context, rev *model.Revision) error {
	return g.db.WithContext(ctx).Create(rev).Error
}

func (g *GormStore) ListRevisions(ctx context.Context, contentID uuid.UUID) ([]*model.Revision, error) {
	var revs []*model.Revision
	err := g.db.WithContext(ctx).Where("id = ?", contentID.String()).Order("version asc").Find(&revs).Error
	return revs, err
}

func (g *GormStore) GetRevision(ctx context.Context, contentID uuid.UUID, version int64) (*model.Revision, error) {
	var rev model.Revision
	err := g.db.WithContext(ctx).Where("id = ? AND version = ?", contentID.String(), version).First(&rev).Error
	return &rev, err
}

func (g *GormStore) DeleteRevisions(ctx context.Context, contentID uuid.UUID) error {
	return g.db.WithContext(ctx).Unscoped().Where("id = ?", contentID.String()).Delete(&model.Revision{}).Error
}

func (g *GormStore) ListRevisionsByCreatedTime(ctx context.Context, from, to time.Time) ([]*model.Revision, error) {
	var revs []*model.Revision
	err := g.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at asc").
		Find(&revs).Error
	return revs, err
}

func (g *GormStore) DeleteRevisionVersions(ctx context.Context, remove map[string][]int64) error {
	for id, versions := range remove {
		if len(versions) == 0 {
			continue
		}
		err := g.db.WithContext(ctx).Unscoped().
			Where("id = ? AND version IN (?)", id, versions).
			Delete(&model.Revision{}).Error
		if err != nil {
			return err
		}
	}

	return nil
}

func (g *GormStore) PutImageHash(ctx context.Context, hash, path string) error {
	entry := &model.ImageHash{Hash: hash, Path: path}
	// first writer wins, concurrent identical uploads are benign
	return g.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "hash"}}, DoNothing: true}).
		Create(entry).Error
}

func (g *GormStore) GetImageHash(ctx context.Context, hash string) (string, bool, error) {
	var entry model.ImageHash
	err := g.db.WithContext(ctx).Where("hash = ?", hash).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	return entry.Path, true, nil
}

func (g *GormStore) DeleteImageHash(ctx context.Context, hash string) error {
	// hard delete, a soft-deleted row would still hold the unique index
	return g.db.WithContext(ctx).Unscoped().Where("hash = ?", hash).Delete(&model.ImageHash{}).Error
}

func (g *GormStore) ReplaceImageRefs(ctx context.Context, contentID string, paths []string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("content_id = ?", contentID).Delete(&model.ImageRef{}).Error; err != nil {
			return err
		}

		for _, path := range paths {
			if err := tx.Create(&model.ImageRef{Path: path, ContentID: contentID}).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (g *GormStore) DeleteImageRefs(ctx context.Context, contentID string) error {
	return g.db.WithContext(ctx).Where("content_id = ?", contentID).Delete(&model.ImageRef{}).Error
}

func (g *GormStore) CountImageRefs(ctx context.Context, path string) (int64, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&model.ImageRef{}).Where("path = ?", path).Count(&count).Error
	return count, err
}

func (g *GormStore) ListReferencedPaths(ctx context.Context) ([]string, error) {
	var paths []string
	err := g.db.WithContext(ctx).Model(&model.ImageRef{}).Distinct("path").Pluck("path", &paths).Error
	return paths, err
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx})
	})
}
