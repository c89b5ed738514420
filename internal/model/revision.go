package model

import "gorm.io/gorm"

// Revision is a snapshot of a content record taken immediately before an
// update is applied. Every update call appends one, autosaves included.
// Entries are immutable once written.
type Revision struct {
	gorm.Model
	ID          string   `gorm:"primaryKey;uuid;"`
	Version     int64    `gorm:"primaryKey"`
	Content     *Content `gorm:"foreignKey:ID"`
	Title       string
	Document    string
	Markup      string
	Compression string
}

func (Revision) TableName() string {
	return "content_revisions"
}
