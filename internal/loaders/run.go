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

// LoadRun upserts one run for the given owner inside its own transaction.
// Runs carry no index side effects of their own; their owner's load decides
// what to publish.
func (s *Service) LoadRun(ctx context.Context, kind types.OwnerKind, ownerID uuid.UUID, run canonical.Run) (*types.LearningResourceRun, error) {
	var loaded *types.LearningResourceRun
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		loaded, err = s.loadRunTx(ctx, tx, kind, ownerID, run)
		return err
	})
	if err != nil {
		return nil, err
	}
	return loaded, nil
}

func (s *Service) loadRunTx(ctx context.Context, tx *gorm.DB, kind types.OwnerKind, ownerID uuid.UUID, run canonical.Run) (*types.LearningResourceRun, error) {
	if strings.TrimSpace(run.RunID) == "" || strings.TrimSpace(run.Platform) == "" {
		return nil, fmt.Errorf("%w: run requires platform and run_id", ErrMissingNaturalKey)
	}
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("run %q has no owner", run.RunID)
	}

	var row types.LearningResourceRun
	err := tx.WithContext(ctx).
		Where("platform = ? AND run_id = ?", run.Platform, run.RunID).
		First(&row).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	creating := errors.Is(err, gorm.ErrRecordNotFound)

	row.Platform = run.Platform
	row.RunID = run.RunID
	row.OwnerKind = kind
	row.OwnerID = ownerID
	row.Title = run.Title
	row.ShortDescription = run.ShortDescription
	row.FullDescription = run.FullDescription
	row.ImageSrc = run.ImageSrc
	row.URL = run.URL
	row.Slug = run.Slug
	row.Language = run.Language
	row.Level = run.Level
	row.Semester = run.Semester
	row.Year = run.Year
	row.Availability = run.Availability
	row.StartDate = run.StartDate
	row.EndDate = run.EndDate
	row.EnrollmentStart = run.EnrollmentStart
	row.EnrollmentEnd = run.EnrollmentEnd
	row.BestStartDate = canonical.BestStartDate(&run)
	row.BestEndDate = canonical.BestEndDate(&run)
	row.LastModified = run.LastModified
	row.Published = run.Published
	if len(run.RawJSON) > 0 {
		row.RawJSON = datatypes.JSON(run.RawJSON)
	}

	if creating {
		if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, fmt.Errorf("create run %s/%s: %w", run.Platform, run.RunID, err)
		}
	} else {
		if err := tx.WithContext(ctx).Save(&row).Error; err != nil {
			return nil, fmt.Errorf("update run %s/%s: %w", run.Platform, run.RunID, err)
		}
	}

	if err := s.setTopics(ctx, tx, &row, run.Topics); err != nil {
		return nil, err
	}
	if err := s.setPrices(ctx, tx, &row, run.Prices); err != nil {
		return nil, err
	}
	if err := s.setInstructors(ctx, tx, &row, run.Instructors); err != nil {
		return nil, err
	}
	if err := s.addOfferedBy(ctx, tx, &row, run.OfferedBy); err != nil {
		return nil, err
	}
	return &row, nil
}
