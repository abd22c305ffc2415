package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PodcastEpisode struct {
	ID               uuid.UUID                  `gorm:"type:uuid;primaryKey" json:"id"`
	Platform         string                     `gorm:"column:platform;not null;uniqueIndex:ux_episode_natural" json:"platform"`
	EpisodeID        string                     `gorm:"column:episode_id;not null;uniqueIndex:ux_episode_natural" json:"episode_id"`
	PodcastID        uuid.UUID                  `gorm:"column:podcast_id;type:uuid;not null;index" json:"podcast_id"`
	Title            string                     `gorm:"column:title;not null" json:"title"`
	ShortDescription string                     `gorm:"column:short_description" json:"short_description"`
	ImageSrc         string                     `gorm:"column:image_src" json:"image_src"`
	URL              string                     `gorm:"column:url" json:"url"`
	EpisodeLink      string                     `gorm:"column:episode_link" json:"episode_link"`
	Duration         string                     `gorm:"column:duration" json:"duration"`
	LastModified     *time.Time                 `gorm:"column:last_modified" json:"last_modified,omitempty"`
	Published        bool                       `gorm:"column:published;not null;default:false" json:"published"`
	RawJSON          datatypes.JSON             `gorm:"column:raw_json;type:jsonb" json:"raw_json,omitempty"`
	Topics           []*CourseTopic             `gorm:"many2many:episode_topics" json:"topics,omitempty"`
	OfferedBy        []*LearningResourceOfferor `gorm:"many2many:episode_offered_by" json:"offered_by,omitempty"`
	CreatedOn        time.Time                  `gorm:"column:created_on;autoCreateTime" json:"created_on"`
	UpdatedOn        time.Time                  `gorm:"column:updated_on;autoUpdateTime" json:"updated_on"`
}

func (PodcastEpisode) TableName() string { return "podcast_episode" }

func (pe *PodcastEpisode) BeforeCreate(tx *gorm.DB) error {
	if pe.ID == uuid.Nil {
		pe.ID = uuid.New()
	}
	return nil
}
