package model

import "time"

// ImageRef records that a content record (current state or any revision)
// references a stored image path. Cleanup deletes a file only when no
// rows remain for its path, so an image shared between records survives
// either record's housekeeping. Rows are replaced wholesale on every
// re-sync, they carry no soft-delete column.
type ImageRef struct {
	Path      string `gorm:"primaryKey;size:512"`
	ContentID string `gorm:"primaryKey;uuid"`
	CreatedAt time.Time
}

func (ImageRef) TableName() string {
	return "image_refs"
}
