package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Shared reference entities. These are get-or-create singletons referenced by
// many resources and runs, never owned exclusively by one parent. Uniqueness
// is enforced at the storage layer so concurrent writers converge on one row.

type CourseTopic struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	CreatedOn time.Time `gorm:"column:created_on;autoCreateTime" json:"created_on"`
	UpdatedOn time.Time `gorm:"column:updated_on;autoUpdateTime" json:"updated_on"`
}

func (CourseTopic) TableName() string { return "course_topic" }

func (t *CourseTopic) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type CoursePrice struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Price           float64    `gorm:"column:price;not null;uniqueIndex:ux_price_value" json:"price"`
	Mode            string     `gorm:"column:mode;not null;uniqueIndex:ux_price_value" json:"mode"`
	UpgradeDeadline *time.Time `gorm:"column:upgrade_deadline;uniqueIndex:ux_price_value" json:"upgrade_deadline,omitempty"`
	CreatedOn       time.Time  `gorm:"column:created_on;autoCreateTime" json:"created_on"`
	UpdatedOn       time.Time  `gorm:"column:updated_on;autoUpdateTime" json:"updated_on"`
}

func (CoursePrice) TableName() string { return "course_price" }

func (p *CoursePrice) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type CourseInstructor struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName string    `gorm:"column:first_name;uniqueIndex:ux_instructor_name" json:"first_name"`
	LastName  string    `gorm:"column:last_name;uniqueIndex:ux_instructor_name" json:"last_name"`
	FullName  string    `gorm:"column:full_name" json:"full_name"`
	CreatedOn time.Time `gorm:"column:created_on;autoCreateTime" json:"created_on"`
	UpdatedOn time.Time `gorm:"column:updated_on;autoUpdateTime" json:"updated_on"`
}

func (CourseInstructor) TableName() string { return "course_instructor" }

func (i *CourseInstructor) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type LearningResourceOfferor struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	CreatedOn time.Time `gorm:"column:created_on;autoCreateTime" json:"created_on"`
	UpdatedOn time.Time `gorm:"column:updated_on;autoUpdateTime" json:"updated_on"`
}

func (LearningResourceOfferor) TableName() string { return "learning_resource_offeror" }

func (o *LearningResourceOfferor) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
