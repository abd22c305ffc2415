package repos

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/types"
)

type InstructorRepo interface {
	GetOrCreate(ctx context.Context, tx *gorm.DB, first, last, full string) (*types.CourseInstructor, error)
}

type instructorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInstructorRepo(db *gorm.DB, baseLog *logger.Logger) InstructorRepo {
	return &instructorRepo{db: db, log: baseLog.With("repo", "InstructorRepo")}
}

func (r *instructorRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, first, last, full string) (*types.CourseInstructor, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	full = strings.TrimSpace(full)
	if first == "" && last == "" && full == "" {
		return nil, errors.New("instructor name required")
	}
	if full == "" {
		full = strings.TrimSpace(first + " " + last)
	}

	var row types.CourseInstructor
	query := transaction.WithContext(ctx).Where("first_name = ? AND last_name = ?", first, last)
	err := query.First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	row = types.CourseInstructor{FirstName: first, LastName: last, FullName: full}
	res := transaction.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if err := query.First(&row).Error; err != nil {
			return nil, err
		}
	}
	return &row, nil
}
