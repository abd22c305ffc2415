package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Podcast struct {
	ID               uuid.UUID                  `gorm:"type:uuid;primaryKey" json:"id"`
	Platform         string                     `gorm:"column:platform;not null;uniqueIndex:ux_podcast_natural" json:"platform"`
	PodcastID        string                     `gorm:"column:podcast_id;not null;uniqueIndex:ux_podcast_natural" json:"podcast_id"`
	Title            string                     `gorm:"column:title;not null" json:"title"`
	ShortDescription string                     `gorm:"column:short_description" json:"short_description"`
	FullDescription  string                     `gorm:"column:full_description" json:"full_description"`
	ImageSrc         string                     `gorm:"column:image_src" json:"image_src"`
	URL              string                     `gorm:"column:url" json:"url"`
	RSSURL           string                     `gorm:"column:rss_url" json:"rss_url"`
	Published        bool                       `gorm:"column:published;not null;default:false" json:"published"`
	RawJSON          datatypes.JSON             `gorm:"column:raw_json;type:jsonb" json:"raw_json,omitempty"`
	Topics           []*CourseTopic             `gorm:"many2many:podcast_topics" json:"topics,omitempty"`
	OfferedBy        []*LearningResourceOfferor `gorm:"many2many:podcast_offered_by" json:"offered_by,omitempty"`
	Episodes         []*PodcastEpisode          `gorm:"foreignKey:PodcastID;references:ID" json:"episodes,omitempty"`
	CreatedOn        time.Time                  `gorm:"column:created_on;autoCreateTime" json:"created_on"`
	UpdatedOn        time.Time                  `gorm:"column:updated_on;autoUpdateTime" json:"updated_on"`
}

func (Podcast) TableName() string { return "podcast" }

func (p *Podcast) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
