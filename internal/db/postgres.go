package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/openlearn/catalog-backend/internal/platform/envutil"
	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/types"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	host := envutil.Str("POSTGRES_HOST", "localhost")
	port := envutil.Str("POSTGRES_PORT", "5432")
	user := envutil.Str("POSTGRES_USER", "postgres")
	password := envutil.Str("POSTGRES_PASSWORD", "")
	name := envutil.Str("POSTGRES_NAME", "catalog")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

	serviceLog.Info("Connecting to Postgres...", "host", host, "db", name)
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	return AutoMigrate(s.db)
}

// AutoMigrate migrates the full canonical model. Shared across the postgres
// service and the sqlite-backed loader tests.
func AutoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&types.CourseTopic{},
		&types.CoursePrice{},
		&types.CourseInstructor{},
		&types.LearningResourceOfferor{},
		&types.Course{},
		&types.Program{},
		&types.ProgramItem{},
		&types.Video{},
		&types.VideoChannel{},
		&types.Playlist{},
		&types.PlaylistVideo{},
		&types.Podcast{},
		&types.PodcastEpisode{},
		&types.LearningResourceRun{},
		&types.ContentFile{},
	)
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
