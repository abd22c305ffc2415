package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Program struct {
	ID               uuid.UUID                  `gorm:"type:uuid;primaryKey" json:"id"`
	Platform         string                     `gorm:"column:platform;not null;uniqueIndex:ux_program_natural" json:"platform"`
	ProgramID        string                     `gorm:"column:program_id;not null;uniqueIndex:ux_program_natural" json:"program_id"`
	Title            string                     `gorm:"column:title;not null" json:"title"`
	ShortDescription string                     `gorm:"column:short_description" json:"short_description"`
	ImageSrc         string                     `gorm:"column:image_src" json:"image_src"`
	URL              string                     `gorm:"column:url" json:"url"`
	Published        bool                       `gorm:"column:published;not null;default:false" json:"published"`
	RawJSON          datatypes.JSON             `gorm:"column:raw_json;type:jsonb" json:"raw_json,omitempty"`
	Topics           []*CourseTopic             `gorm:"many2many:program_topics" json:"topics,omitempty"`
	OfferedBy        []*LearningResourceOfferor `gorm:"many2many:program_offered_by" json:"offered_by,omitempty"`
	Items            []*ProgramItem             `gorm:"foreignKey:ProgramID;references:ID" json:"items,omitempty"`
	CreatedOn        time.Time                  `gorm:"column:created_on;autoCreateTime" json:"created_on"`
	UpdatedOn        time.Time                  `gorm:"column:updated_on;autoUpdateTime" json:"updated_on"`
}

func (Program) TableName() string { return "program" }

func (p *Program) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
