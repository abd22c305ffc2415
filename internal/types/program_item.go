package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProgramItem is an ordered membership row linking a program to a child
// resource. Position is the authoritative ordering, not insertion order.
type ProgramItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProgramID uuid.UUID `gorm:"column:program_id;type:uuid;not null;index;uniqueIndex:ux_program_item_child" json:"program_id"`
	ChildKind OwnerKind `gorm:"column:child_kind;not null;uniqueIndex:ux_program_item_child" json:"child_kind"`
	ChildID   uuid.UUID `gorm:"column:child_id;type:uuid;not null;uniqueIndex:ux_program_item_child" json:"child_id"`
	Position  int       `gorm:"column:position;not null" json:"position"`
	CreatedOn time.Time `gorm:"column:created_on;autoCreateTime" json:"created_on"`
	UpdatedOn time.Time `gorm:"column:updated_on;autoUpdateTime" json:"updated_on"`
}

func (ProgramItem) TableName() string { return "program_item" }

func (pi *ProgramItem) BeforeCreate(tx *gorm.DB) error {
	if pi.ID == uuid.Nil {
		pi.ID = uuid.New()
	}
	return nil
}
