package repos

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/types"
)

type PriceRepo interface {
	GetOrCreate(ctx context.Context, tx *gorm.DB, price float64, mode string, upgradeDeadline *time.Time) (*types.CoursePrice, error)
}

type priceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPriceRepo(db *gorm.DB, baseLog *logger.Logger) PriceRepo {
	return &priceRepo{db: db, log: baseLog.With("repo", "PriceRepo")}
}

func (r *priceRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, price float64, mode string, upgradeDeadline *time.Time) (*types.CoursePrice, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).Where("price = ? AND mode = ?", price, mode)
	if upgradeDeadline == nil {
		query = query.Where("upgrade_deadline IS NULL")
	} else {
		query = query.Where("upgrade_deadline = ?", *upgradeDeadline)
	}

	var row types.CoursePrice
	err := query.First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	row = types.CoursePrice{Price: price, Mode: mode, UpgradeDeadline: upgradeDeadline}
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
