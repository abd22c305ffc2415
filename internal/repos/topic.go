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

type TopicRepo interface {
	GetOrCreate(ctx context.Context, tx *gorm.DB, name string) (*types.CourseTopic, error)
}

type topicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	return &topicRepo{db: db, log: baseLog.With("repo", "TopicRepo")}
}

func (r *topicRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, name string) (*types.CourseTopic, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("topic name required")
	}

	var topic types.CourseTopic
	err := transaction.WithContext(ctx).Where("name = ?", name).First(&topic).Error
	if err == nil {
		return &topic, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	topic = types.CourseTopic{Name: name}
	res := transaction.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&topic)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the insert race; the winner's row is authoritative.
		if err := transaction.WithContext(ctx).Where("name = ?", name).First(&topic).Error; err != nil {
			return nil, err
		}
	}
	return &topic, nil
}
