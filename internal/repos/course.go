package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/types"
)

type CourseRepo interface {
	GetByNaturalKey(ctx context.Context, tx *gorm.DB, platform, courseID string) (*types.Course, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Course, error)
	SetPublished(ctx context.Context, tx *gorm.DB, id uuid.UUID, published bool) error
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) GetByNaturalKey(ctx context.Context, tx *gorm.DB, platform, courseID string) (*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var course types.Course
	err := transaction.WithContext(ctx).
		Where("platform = ? AND course_id = ?", platform, courseID).
		First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var course types.Course
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) SetPublished(ctx context.Context, tx *gorm.DB, id uuid.UUID, published bool) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Course{}).
		Where("id = ?", id).
		Update("published", published).Error
}
