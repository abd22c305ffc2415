package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LearningResourceRun is a dated offering of a course, program, video or
// playlist. Ownership is polymorphic through (owner_kind, owner_id) so a run
// can belong to any resource kind.
type LearningResourceRun struct {
	ID               uuid.UUID                  `gorm:"type:uuid;primaryKey" json:"id"`
	Platform         string                     `gorm:"column:platform;not null;uniqueIndex:ux_run_natural" json:"platform"`
	RunID            string                     `gorm:"column:run_id;not null;uniqueIndex:ux_run_natural" json:"run_id"`
	OwnerKind        OwnerKind                  `gorm:"column:owner_kind;not null;index:ix_run_owner" json:"owner_kind"`
	OwnerID          uuid.UUID                  `gorm:"column:owner_id;type:uuid;not null;index:ix_run_owner" json:"owner_id"`
	Title            string                     `gorm:"column:title" json:"title"`
	ShortDescription string                     `gorm:"column:short_description" json:"short_description"`
	FullDescription  string                     `gorm:"column:full_description" json:"full_description"`
	ImageSrc         string                     `gorm:"column:image_src" json:"image_src"`
	URL              string                     `gorm:"column:url" json:"url"`
	Slug             string                     `gorm:"column:slug" json:"slug"`
	Language         string                     `gorm:"column:language" json:"language"`
	Level            string                     `gorm:"column:level" json:"level"`
	Semester         string                     `gorm:"column:semester" json:"semester"`
	Year             *int                       `gorm:"column:year" json:"year,omitempty"`
	Availability     string                     `gorm:"column:availability" json:"availability"`
	StartDate        *time.Time                 `gorm:"column:start_date" json:"start_date,omitempty"`
	EndDate          *time.Time                 `gorm:"column:end_date" json:"end_date,omitempty"`
	EnrollmentStart  *time.Time                 `gorm:"column:enrollment_start" json:"enrollment_start,omitempty"`
	EnrollmentEnd    *time.Time                 `gorm:"column:enrollment_end" json:"enrollment_end,omitempty"`
	BestStartDate    *time.Time                 `gorm:"column:best_start_date" json:"best_start_date,omitempty"`
	BestEndDate      *time.Time                 `gorm:"column:best_end_date" json:"best_end_date,omitempty"`
	LastModified     *time.Time                 `gorm:"column:last_modified" json:"last_modified,omitempty"`
	Published        bool                       `gorm:"column:published;not null;default:false" json:"published"`
	RawJSON          datatypes.JSON             `gorm:"column:raw_json;type:jsonb" json:"raw_json,omitempty"`
	Topics           []*CourseTopic             `gorm:"many2many:run_topics" json:"topics,omitempty"`
	Prices           []*CoursePrice             `gorm:"many2many:run_prices" json:"prices,omitempty"`
	Instructors      []*CourseInstructor        `gorm:"many2many:run_instructors" json:"instructors,omitempty"`
	OfferedBy        []*LearningResourceOfferor `gorm:"many2many:run_offered_by" json:"offered_by,omitempty"`
	ContentFiles     []*ContentFile             `gorm:"foreignKey:RunID;references:ID" json:"content_files,omitempty"`
	CreatedOn        time.Time                  `gorm:"column:created_on;autoCreateTime" json:"created_on"`
	UpdatedOn        time.Time                  `gorm:"column:updated_on;autoUpdateTime" json:"updated_on"`
}

func (LearningResourceRun) TableName() string { return "learning_resource_run" }

func (r *LearningResourceRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
