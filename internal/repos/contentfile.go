package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/types"
)

type ContentFileRepo interface {
	// Upsert writes one batch of content files for a run, keyed by (run_id, key).
	Upsert(ctx context.Context, tx *gorm.DB, files []*types.ContentFile) error
	GetByRunID(ctx context.Context, tx *gorm.DB, runID uuid.UUID) ([]*types.ContentFile, error)
	// UnpublishAbsent flips published=false on every row of the run whose key is
	// not in keepKeys. Rows are never hard-deleted by a sync.
	UnpublishAbsent(ctx context.Context, tx *gorm.DB, runID uuid.UUID, keepKeys []string) error
}

type contentFileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentFileRepo(db *gorm.DB, baseLog *logger.Logger) ContentFileRepo {
	return &contentFileRepo{db: db, log: baseLog.With("repo", "ContentFileRepo")}
}

func (r *contentFileRepo) Upsert(ctx context.Context, tx *gorm.DB, files []*types.ContentFile) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(files) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "run_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"uid", "title", "description", "content_type", "file_type", "section",
			"url", "short_url", "content", "content_title", "content_author",
			"content_language", "last_modified", "published", "updated_on",
		}),
	}).Create(&files).Error
}

func (r *contentFileRepo) GetByRunID(ctx context.Context, tx *gorm.DB, runID uuid.UUID) ([]*types.ContentFile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rows []*types.ContentFile
	if err := transaction.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("key").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *contentFileRepo) UnpublishAbsent(ctx context.Context, tx *gorm.DB, runID uuid.UUID, keepKeys []string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).
		Model(&types.ContentFile{}).
		Where("run_id = ?", runID)
	if len(keepKeys) > 0 {
		query = query.Where("key NOT IN ?", keepKeys)
	}
	return query.Update("published", false).Error
}
