package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/types"
)

type RunRepo interface {
	GetByNaturalKey(ctx context.Context, tx *gorm.DB, platform, runID string) (*types.LearningResourceRun, error)
	GetForOwner(ctx context.Context, tx *gorm.DB, kind types.OwnerKind, ownerID uuid.UUID) ([]*types.LearningResourceRun, error)
	// AnyPublishedForOwner reports whether any run of the owner other than
	// excludeRunID is published. Used for the republish decision.
	AnyPublishedForOwner(ctx context.Context, tx *gorm.DB, kind types.OwnerKind, ownerID uuid.UUID, excludeRunID uuid.UUID) (bool, error)
	SetPublished(ctx context.Context, tx *gorm.DB, runID uuid.UUID, published bool) error
}

type runRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRunRepo(db *gorm.DB, baseLog *logger.Logger) RunRepo {
	return &runRepo{db: db, log: baseLog.With("repo", "RunRepo")}
}

func (r *runRepo) GetByNaturalKey(ctx context.Context, tx *gorm.DB, platform, runID string) (*types.LearningResourceRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var run types.LearningResourceRun
	err := transaction.WithContext(ctx).
		Where("platform = ? AND run_id = ?", platform, runID).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *runRepo) GetForOwner(ctx context.Context, tx *gorm.DB, kind types.OwnerKind, ownerID uuid.UUID) ([]*types.LearningResourceRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var runs []*types.LearningResourceRun
	if err := transaction.WithContext(ctx).
		Where("owner_kind = ? AND owner_id = ?", kind, ownerID).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *runRepo) AnyPublishedForOwner(ctx context.Context, tx *gorm.DB, kind types.OwnerKind, ownerID uuid.UUID, excludeRunID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	query := transaction.WithContext(ctx).
		Model(&types.LearningResourceRun{}).
		Where("owner_kind = ? AND owner_id = ? AND published = ?", kind, ownerID, true)
	if excludeRunID != uuid.Nil {
		query = query.Where("id <> ?", excludeRunID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *runRepo) SetPublished(ctx context.Context, tx *gorm.DB, runID uuid.UUID, published bool) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.LearningResourceRun{}).
		Where("id = ?", runID).
		Update("published", published).Error
}
