package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContentFile is one extracted artifact (page, document, transcript) belonging
// to exactly one run. Key is derived from the source storage path and stays
// stable across re-syncs so extraction results can be cached and diffed by
// modification time.
type ContentFile struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RunID           uuid.UUID  `gorm:"column:run_id;type:uuid;not null;uniqueIndex:ux_content_file_key" json:"run_id"`
	Key             string     `gorm:"column:key;not null;uniqueIndex:ux_content_file_key" json:"key"`
	UID             string     `gorm:"column:uid;index" json:"uid"`
	Title           string     `gorm:"column:title" json:"title"`
	Description     string     `gorm:"column:description" json:"description"`
	ContentType     string     `gorm:"column:content_type;not null;default:'file'" json:"content_type"`
	FileType        string     `gorm:"column:file_type" json:"file_type"`
	Section         string     `gorm:"column:section" json:"section"`
	URL             string     `gorm:"column:url" json:"url"`
	ShortURL        string     `gorm:"column:short_url" json:"short_url"`
	Content         string     `gorm:"column:content" json:"content"`
	ContentTitle    string     `gorm:"column:content_title" json:"content_title"`
	ContentAuthor   string     `gorm:"column:content_author" json:"content_author"`
	ContentLanguage string     `gorm:"column:content_language" json:"content_language"`
	LastModified    *time.Time `gorm:"column:last_modified" json:"last_modified,omitempty"`
	Published       bool       `gorm:"column:published;not null;default:true" json:"published"`
	CreatedOn       time.Time  `gorm:"column:created_on;autoCreateTime" json:"created_on"`
	UpdatedOn       time.Time  `gorm:"column:updated_on;autoUpdateTime" json:"updated_on"`
}

func (ContentFile) TableName() string { return "content_file" }

func (cf *ContentFile) BeforeCreate(tx *gorm.DB) error {
	if cf.ID == uuid.Nil {
		cf.ID = uuid.New()
	}
	return nil
}
