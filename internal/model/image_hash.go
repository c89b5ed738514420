package model

import "gorm.io/gorm"

// ImageHash maps a content hash to the stored path of a deduplicated
// editor image. The unique hash column gives the upload path atomic
// check-and-insert semantics instead of a read-modify-write race.
type ImageHash struct {
	gorm.Model
	Hash string `gorm:"uniqueIndex;size:64;not null"`
	Path string `gorm:"not null"`
}

func (ImageHash) TableName() string {
	return "image_hashes"
}
