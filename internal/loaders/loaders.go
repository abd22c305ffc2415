// Package loaders is the sole write path into the canonical model. Each
// Load* call upserts one resource by its natural key, reconciles its relation
// sets, and fires index side effects after a successful commit.
package loaders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/repos"
	"github.com/openlearn/catalog-backend/internal/types"
)

// ErrMissingNaturalKey aborts a load before any row is touched. Partial
// application is never acceptable because it would corrupt the reconciled
// relation sets.
var ErrMissingNaturalKey = errors.New("canonical input is missing its natural key")

// Dispatcher is the index side-effect boundary. Implemented by
// search.Dispatcher; tests inject a spy.
type Dispatcher interface {
	UpsertCourse(ctx context.Context, id uuid.UUID)
	DeindexCourse(ctx context.Context, course *types.Course)
	UpsertProgram(ctx context.Context, id uuid.UUID)
	DeindexProgram(ctx context.Context, program *types.Program)
	UpsertVideo(ctx context.Context, id uuid.UUID)
	DeindexVideo(ctx context.Context, video *types.Video)
	UpsertPlaylist(ctx context.Context, id uuid.UUID)
	DeindexPlaylist(ctx context.Context, playlist *types.Playlist)
	UpsertVideoChannel(ctx context.Context, id uuid.UUID)
	DeindexVideoChannel(ctx context.Context, channel *types.VideoChannel)
	UpsertPodcast(ctx context.Context, id uuid.UUID)
	DeindexPodcast(ctx context.Context, podcast *types.Podcast)
	UpsertPodcastEpisode(ctx context.Context, id uuid.UUID)
	DeindexPodcastEpisode(ctx context.Context, episode *types.PodcastEpisode)
}

type Service struct {
	db          *gorm.DB
	log         *logger.Logger
	topics      repos.TopicRepo
	prices      repos.PriceRepo
	instructors repos.InstructorRepo
	offerors    repos.OfferorRepo
	runs        repos.RunRepo
	dispatcher  Dispatcher
}

func NewService(gdb *gorm.DB, baseLog *logger.Logger, dispatcher Dispatcher) *Service {
	log := baseLog.With("service", "Loaders")
	return &Service{
		db:          gdb,
		log:         log,
		topics:      repos.NewTopicRepo(gdb, baseLog),
		prices:      repos.NewPriceRepo(gdb, baseLog),
		instructors: repos.NewInstructorRepo(gdb, baseLog),
		offerors:    repos.NewOfferorRepo(gdb, baseLog),
		runs:        repos.NewRunRepo(gdb, baseLog),
		dispatcher:  dispatcher,
	}
}
