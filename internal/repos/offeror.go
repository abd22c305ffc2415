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

type OfferorRepo interface {
	GetOrCreate(ctx context.Context, tx *gorm.DB, name string) (*types.LearningResourceOfferor, error)
}

type offerorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOfferorRepo(db *gorm.DB, baseLog *logger.Logger) OfferorRepo {
	return &offerorRepo{db: db, log: baseLog.With("repo", "OfferorRepo")}
}

func (r *offerorRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, name string) (*types.LearningResourceOfferor, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("offeror name required")
	}

	var row types.LearningResourceOfferor
	err := transaction.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	row = types.LearningResourceOfferor{Name: name}
	res := transaction.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if err := transaction.WithContext(ctx).Where("name = ?", name).First(&row).Error; err != nil {
			return nil, err
		}
	}
	return &row, nil
}
