package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlaylistVideo is an ordered membership row linking a playlist to a video.
type PlaylistVideo struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PlaylistID uuid.UUID `gorm:"column:playlist_id;type:uuid;not null;uniqueIndex:ux_playlist_video" json:"playlist_id"`
	VideoID    uuid.UUID `gorm:"column:video_id;type:uuid;not null;uniqueIndex:ux_playlist_video" json:"video_id"`
	Video      *Video    `gorm:"foreignKey:VideoID;references:ID" json:"video,omitempty"`
	Position   int       `gorm:"column:position;not null" json:"position"`
	CreatedOn  time.Time `gorm:"column:created_on;autoCreateTime" json:"created_on"`
	UpdatedOn  time.Time `gorm:"column:updated_on;autoUpdateTime" json:"updated_on"`
}

func (PlaylistVideo) TableName() string { return "playlist_video" }

func (pv *PlaylistVideo) BeforeCreate(tx *gorm.DB) error {
	if pv.ID == uuid.Nil {
		pv.ID = uuid.New()
	}
	return nil
}
