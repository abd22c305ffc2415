package loaders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openlearn/catalog-backend/internal/canonical"
	"github.com/openlearn/catalog-backend/internal/types"
)

// LoadProgram upserts a program, loads its child courses, and reconciles the
// ordered membership rows: any pre-existing item whose child is absent from
// the new child list is deleted, and surviving rows get their position from
// the new ordering.
func (s *Service) LoadProgram(ctx context.Context, input *canonical.Program) (*types.Program, error) {
	if input == nil || strings.TrimSpace(input.ProgramID) == "" || strings.TrimSpace(input.Platform) == "" {
		return nil, fmt.Errorf("%w: program requires platform and program_id", ErrMissingNaturalKey)
	}

	// Children commit in their own transactions so each course carries its own
	// index side effects; the program row only references them afterwards.
	childIDs := make([]uuid.UUID, 0, len(input.Courses))
	for i := range input.Courses {
		course, err := s.LoadCourse(ctx, &input.Courses[i])
		if err != nil {
			return nil, fmt.Errorf("load child course of program %s/%s: %w", input.Platform, input.ProgramID, err)
		}
		childIDs = append(childIDs, course.ID)
	}

	var (
		row          types.Program
		wasPublished bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.WithContext(ctx).
			Where("platform = ? AND program_id = ?", input.Platform, input.ProgramID).
			First(&row).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		creating := errors.Is(err, gorm.ErrRecordNotFound)
		wasPublished = !creating && row.Published

		row.Platform = input.Platform
		row.ProgramID = input.ProgramID
		row.Title = input.Title
		row.ShortDescription = input.ShortDescription
		row.ImageSrc = input.ImageSrc
		row.URL = input.URL
		row.Published = input.Published
		if len(input.RawJSON) > 0 {
			row.RawJSON = datatypes.JSON(input.RawJSON)
		}

		if creating {
			if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
				return fmt.Errorf("create program %s/%s: %w", input.Platform, input.ProgramID, err)
			}
		} else {
			if err := tx.WithContext(ctx).Save(&row).Error; err != nil {
				return fmt.Errorf("update program %s/%s: %w", input.Platform, input.ProgramID, err)
			}
		}

		for i := range input.Runs {
			if _, err := s.loadRunTx(ctx, tx, types.OwnerProgram, row.ID, input.Runs[i]); err != nil {
				return fmt.Errorf("load run for program %s/%s: %w", input.Platform, input.ProgramID, err)
			}
		}

		if err := s.reconcileProgramItems(ctx, tx, row.ID, childIDs); err != nil {
			return err
		}

		if err := s.setTopics(ctx, tx, &row, input.Topics); err != nil {
			return err
		}
		return s.addOfferedBy(ctx, tx, &row, input.OfferedBy)
	})
	if err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		switch {
		case row.Published:
			s.dispatcher.UpsertProgram(ctx, row.ID)
		case wasPublished:
			s.dispatcher.DeindexProgram(ctx, &row)
		}
	}
	return &row, nil
}

func (s *Service) reconcileProgramItems(ctx context.Context, tx *gorm.DB, programID uuid.UUID, childIDs []uuid.UUID) error {
	if len(childIDs) == 0 {
		return tx.WithContext(ctx).
			Where("program_id = ?", programID).
			Delete(&types.ProgramItem{}).Error
	}

	if err := tx.WithContext(ctx).
		Where("program_id = ? AND child_id NOT IN ?", programID, childIDs).
		Delete(&types.ProgramItem{}).Error; err != nil {
		return fmt.Errorf("prune program items: %w", err)
	}

	items := make([]*types.ProgramItem, 0, len(childIDs))
	for position, childID := range childIDs {
		items = append(items, &types.ProgramItem{
			ProgramID: programID,
			ChildKind: types.OwnerCourse,
			ChildID:   childID,
			Position:  position,
		})
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "program_id"}, {Name: "child_kind"}, {Name: "child_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"position", "updated_on"}),
	}).Create(&items).Error
}
