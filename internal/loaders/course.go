package loaders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/openlearn/catalog-backend/internal/canonical"
	"github.com/openlearn/catalog-backend/internal/types"
)

// LoadCourse upserts a course and its nested runs in one transaction and
// fires index side effects after the commit. A course with no published runs
// is never published regardless of what the source claims.
func (s *Service) LoadCourse(ctx context.Context, input *canonical.Course) (*types.Course, error) {
	if input == nil || strings.TrimSpace(input.CourseID) == "" || strings.TrimSpace(input.Platform) == "" {
		return nil, fmt.Errorf("%w: course requires platform and course_id", ErrMissingNaturalKey)
	}

	var (
		row           types.Course
		wasPublished  bool
		anyRunPublish bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.WithContext(ctx).
			Where("platform = ? AND course_id = ?", input.Platform, input.CourseID).
			First(&row).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		creating := errors.Is(err, gorm.ErrRecordNotFound)
		wasPublished = !creating && row.Published

		row.Platform = input.Platform
		row.CourseID = input.CourseID
		row.Title = input.Title
		row.ShortDescription = input.ShortDescription
		row.FullDescription = input.FullDescription
		row.ImageSrc = input.ImageSrc
		row.URL = input.URL
		row.Language = input.Language
		row.Department = input.Department
		row.ProgramType = input.ProgramType
		row.ProgramName = input.ProgramName
		row.Location = input.Location
		if len(input.RawJSON) > 0 {
			row.RawJSON = datatypes.JSON(input.RawJSON)
		}

		if creating {
			if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
				return fmt.Errorf("create course %s/%s: %w", input.Platform, input.CourseID, err)
			}
		} else {
			if err := tx.WithContext(ctx).Save(&row).Error; err != nil {
				return fmt.Errorf("update course %s/%s: %w", input.Platform, input.CourseID, err)
			}
		}

		for i := range input.Runs {
			if _, err := s.loadRunTx(ctx, tx, types.OwnerCourse, row.ID, input.Runs[i]); err != nil {
				return fmt.Errorf("load run for course %s/%s: %w", input.Platform, input.CourseID, err)
			}
		}

		anyRunPublish, err = s.runs.AnyPublishedForOwner(ctx, tx, types.OwnerCourse, row.ID, uuid.Nil)
		if err != nil {
			return err
		}

		row.Published = input.Published && anyRunPublish
		if err := tx.WithContext(ctx).
			Model(&types.Course{}).
			Where("id = ?", row.ID).
			Update("published", row.Published).Error; err != nil {
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

	s.dispatchCourse(ctx, &row, wasPublished)
	return &row, nil
}

func (s *Service) dispatchCourse(ctx context.Context, course *types.Course, wasPublished bool) {
	if s.dispatcher == nil {
		return
	}
	switch {
	case course.Published:
		s.dispatcher.UpsertCourse(ctx, course.ID)
	case wasPublished:
		s.dispatcher.DeindexCourse(ctx, course)
	}
}
