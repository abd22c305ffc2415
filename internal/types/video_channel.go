package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VideoChannel struct {
	ID               uuid.UUID                  `gorm:"type:uuid;primaryKey" json:"id"`
	Platform         string                     `gorm:"column:platform;not null;uniqueIndex:ux_channel_natural" json:"platform"`
	ChannelID        string                     `gorm:"column:channel_id;not null;uniqueIndex:ux_channel_natural" json:"channel_id"`
	Title            string                     `gorm:"column:title;not null" json:"title"`
	ShortDescription string                     `gorm:"column:short_description" json:"short_description"`
	Published        bool                       `gorm:"column:published;not null;default:false" json:"published"`
	Topics           []*CourseTopic             `gorm:"many2many:channel_topics" json:"topics,omitempty"`
	OfferedBy        []*LearningResourceOfferor `gorm:"many2many:channel_offered_by" json:"offered_by,omitempty"`
	Playlists        []*Playlist                `gorm:"foreignKey:ChannelID;references:ID" json:"playlists,omitempty"`
	CreatedOn        time.Time                  `gorm:"column:created_on;autoCreateTime" json:"created_on"`
	UpdatedOn        time.Time                  `gorm:"column:updated_on;autoUpdateTime" json:"updated_on"`
}

func (VideoChannel) TableName() string { return "video_channel" }

func (vc *VideoChannel) BeforeCreate(tx *gorm.DB) error {
	if vc.ID == uuid.Nil {
		vc.ID = uuid.New()
	}
	return nil
}
