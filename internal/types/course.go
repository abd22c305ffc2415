package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Course struct {
	ID               uuid.UUID                  `gorm:"type:uuid;primaryKey" json:"id"`
	Platform         string                     `gorm:"column:platform;not null;uniqueIndex:ux_course_natural" json:"platform"`
	CourseID         string                     `gorm:"column:course_id;not null;uniqueIndex:ux_course_natural" json:"course_id"`
	Title            string                     `gorm:"column:title;not null" json:"title"`
	ShortDescription string                     `gorm:"column:short_description" json:"short_description"`
	FullDescription  string                     `gorm:"column:full_description" json:"full_description"`
	ImageSrc         string                     `gorm:"column:image_src" json:"image_src"`
	URL              string                     `gorm:"column:url" json:"url"`
	Language         string                     `gorm:"column:language" json:"language"`
	Department       string                     `gorm:"column:department" json:"department"`
	ProgramType      string                     `gorm:"column:program_type" json:"program_type"`
	ProgramName      string                     `gorm:"column:program_name" json:"program_name"`
	Location         string                     `gorm:"column:location" json:"location"`
	Published        bool                       `gorm:"column:published;not null;default:false" json:"published"`
	RawJSON          datatypes.JSON             `gorm:"column:raw_json;type:jsonb" json:"raw_json,omitempty"`
	Topics           []*CourseTopic             `gorm:"many2many:course_topics" json:"topics,omitempty"`
	OfferedBy        []*LearningResourceOfferor `gorm:"many2many:course_offered_by" json:"offered_by,omitempty"`
	Runs             []*LearningResourceRun     `gorm:"-" json:"runs,omitempty"`
	CreatedOn        time.Time                  `gorm:"column:created_on;autoCreateTime" json:"created_on"`
	UpdatedOn        time.Time                  `gorm:"column:updated_on;autoUpdateTime" json:"updated_on"`
}

func (Course) TableName() string { return "course" }

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
