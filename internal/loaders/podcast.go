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

// LoadPodcast upserts a podcast and then loads each episode in its own
// transaction so one malformed episode never takes down the whole feed.
func (s *Service) LoadPodcast(ctx context.Context, input *canonical.Podcast) (*types.Podcast, error) {
	if input == nil || strings.TrimSpace(input.PodcastID) == "" || strings.TrimSpace(input.Platform) == "" {
		return nil, fmt.Errorf("%w: podcast requires platform and podcast_id", ErrMissingNaturalKey)
	}

	var (
		row          types.Podcast
		wasPublished bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.WithContext(ctx).
			Where("platform = ? AND podcast_id = ?", input.Platform, input.PodcastID).
			First(&row).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		creating := errors.Is(err, gorm.ErrRecordNotFound)
		wasPublished = !creating && row.Published

		row.Platform = input.Platform
		row.PodcastID = input.PodcastID
		row.Title = input.Title
		row.ShortDescription = input.ShortDescription
		row.FullDescription = input.FullDescription
		row.ImageSrc = input.ImageSrc
		row.URL = input.URL
		row.RSSURL = input.RSSURL
		row.Published = input.Published
		if len(input.RawJSON) > 0 {
			row.RawJSON = datatypes.JSON(input.RawJSON)
		}

		if creating {
			if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
				return fmt.Errorf("create podcast %s/%s: %w", input.Platform, input.PodcastID, err)
			}
		} else {
			if err := tx.WithContext(ctx).Save(&row).Error; err != nil {
				return fmt.Errorf("update podcast %s/%s: %w", input.Platform, input.PodcastID, err)
			}
		}

		if err := s.setTopics(ctx, tx, &row, input.Topics); err != nil {
			return err
		}
		return s.addOfferedBy(ctx, tx, &row, input.OfferedBy)
	})
	if err != nil {
		return nil, err
	}

	for i := range input.Episodes {
		if _, err := s.LoadPodcastEpisode(ctx, row.ID, &input.Episodes[i]); err != nil {
			s.log.Error("failed to load podcast episode",
				"podcast", input.PodcastID, "episode", input.Episodes[i].EpisodeID, "error", err)
		}
	}

	if s.dispatcher != nil {
		switch {
		case row.Published:
			s.dispatcher.UpsertPodcast(ctx, row.ID)
		case wasPublished:
			s.dispatcher.DeindexPodcast(ctx, &row)
		}
	}
	return &row, nil
}

// LoadPodcastEpisode upserts one episode of a podcast.
func (s *Service) LoadPodcastEpisode(ctx context.Context, podcastID uuid.UUID, input *canonical.PodcastEpisode) (*types.PodcastEpisode, error) {
	if input == nil || strings.TrimSpace(input.EpisodeID) == "" || strings.TrimSpace(input.Platform) == "" {
		return nil, fmt.Errorf("%w: episode requires platform and episode_id", ErrMissingNaturalKey)
	}
	if podcastID == uuid.Nil {
		return nil, fmt.Errorf("episode %q has no parent podcast", input.EpisodeID)
	}

	var (
		row          types.PodcastEpisode
		wasPublished bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.WithContext(ctx).
			Where("platform = ? AND episode_id = ?", input.Platform, input.EpisodeID).
			First(&row).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		creating := errors.Is(err, gorm.ErrRecordNotFound)
		wasPublished = !creating && row.Published

		row.Platform = input.Platform
		row.EpisodeID = input.EpisodeID
		row.PodcastID = podcastID
		row.Title = input.Title
		row.ShortDescription = input.ShortDescription
		row.ImageSrc = input.ImageSrc
		row.URL = input.URL
		row.EpisodeLink = input.EpisodeLink
		row.Duration = input.Duration
		row.LastModified = input.LastModified
		row.Published = input.Published
		if len(input.RawJSON) > 0 {
			row.RawJSON = datatypes.JSON(input.RawJSON)
		}

		if creating {
			if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
				return fmt.Errorf("create episode %s/%s: %w", input.Platform, input.EpisodeID, err)
			}
		} else {
			if err := tx.WithContext(ctx).Save(&row).Error; err != nil {
				return fmt.Errorf("update episode %s/%s: %w", input.Platform, input.EpisodeID, err)
			}
		}

		if err := s.setTopics(ctx, tx, &row, input.Topics); err != nil {
			return err
		}
		return s.addOfferedBy(ctx, tx, &row, input.OfferedBy)
	})
	if err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		switch {
		case row.Published:
			s.dispatcher.UpsertPodcastEpisode(ctx, row.ID)
		case wasPublished:
			s.dispatcher.DeindexPodcastEpisode(ctx, &row)
		}
	}
	return &row, nil
}
