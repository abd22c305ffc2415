package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Playlist struct {
	ID               uuid.UUID                  `gorm:"type:uuid;primaryKey" json:"id"`
	Platform         string                     `gorm:"column:platform;not null;uniqueIndex:ux_playlist_natural" json:"platform"`
	PlaylistID       string                     `gorm:"column:playlist_id;not null;uniqueIndex:ux_playlist_natural" json:"playlist_id"`
	ChannelID        *uuid.UUID                 `gorm:"column:channel_id;type:uuid;index" json:"channel_id,omitempty"`
	Channel          *VideoChannel              `gorm:"foreignKey:ChannelID;references:ID" json:"channel,omitempty"`
	Title            string                     `gorm:"column:title;not null" json:"title"`
	ShortDescription string                     `gorm:"column:short_description" json:"short_description"`
	ImageSrc         string                     `gorm:"column:image_src" json:"image_src"`
	URL              string                     `gorm:"column:url" json:"url"`
	Published        bool                       `gorm:"column:published;not null;default:false" json:"published"`
	HasUserList      bool                       `gorm:"column:has_user_list;not null;default:false" json:"has_user_list"`
	Topics           []*CourseTopic             `gorm:"many2many:playlist_topics" json:"topics,omitempty"`
	OfferedBy        []*LearningResourceOfferor `gorm:"many2many:playlist_offered_by" json:"offered_by,omitempty"`
	Videos           []*PlaylistVideo           `gorm:"foreignKey:PlaylistID;references:ID" json:"videos,omitempty"`
	CreatedOn        time.Time                  `gorm:"column:created_on;autoCreateTime" json:"created_on"`
	UpdatedOn        time.Time                  `gorm:"column:updated_on;autoUpdateTime" json:"updated_on"`
}

func (Playlist) TableName() string { return "playlist" }

func (p *Playlist) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
