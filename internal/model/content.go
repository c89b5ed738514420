package model

import (
	"encoding/json"

	"gorm.io/gorm"
)

// Content is a rich-text content record. Document holds the editor JSON
// tree and Markup the rendered HTML, both stored through the configured
// compression codec (see the Compression tag).
type Content struct {
	gorm.Model
	ID          string `gorm:"primaryKey;uuid;not null;"`
	Title       string `gorm:"not null"`
	Document    string
	Markup      string
	Category    string `gorm:"index"`
	Active      bool   `gorm:"default:true"`
	Version     int64
	Compression string // the compression algorithm used for Document and Markup
}

func (Content) TableName() string {
	return "contents"
}

func (c *Content) MarshalBinary() ([]byte, error) {
	return json.Marshal(c)
}
