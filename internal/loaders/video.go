package loaders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openlearn/catalog-backend/internal/canonical"
	"github.com/openlearn/catalog-backend/internal/types"
)

// LoadVideo upserts a single video.
func (s *Service) LoadVideo(ctx context.Context, input *canonical.Video) (*types.Video, error) {
	if input == nil || strings.TrimSpace(input.VideoID) == "" || strings.TrimSpace(input.Platform) == "" {
		return nil, fmt.Errorf("%w: video requires platform and video_id", ErrMissingNaturalKey)
	}

	var (
		row          types.Video
		wasPublished bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.WithContext(ctx).
			Where("platform = ? AND video_id = ?", input.Platform, input.VideoID).
			First(&row).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		creating := errors.Is(err, gorm.ErrRecordNotFound)
		wasPublished = !creating && row.Published

		row.Platform = input.Platform
		row.VideoID = input.VideoID
		row.Title = input.Title
		row.ShortDescription = input.ShortDescription
		row.FullDescription = input.FullDescription
		row.ImageSrc = input.ImageSrc
		row.URL = input.URL
		row.Duration = input.Duration
		row.Transcript = input.Transcript
		row.Published = input.Published
		if len(input.RawJSON) > 0 {
			row.RawJSON = datatypes.JSON(input.RawJSON)
		}

		if creating {
			if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
				return fmt.Errorf("create video %s/%s: %w", input.Platform, input.VideoID, err)
			}
		} else {
			if err := tx.WithContext(ctx).Save(&row).Error; err != nil {
				return fmt.Errorf("update video %s/%s: %w", input.Platform, input.VideoID, err)
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
			s.dispatcher.UpsertVideo(ctx, row.ID)
		case wasPublished:
			s.dispatcher.DeindexVideo(ctx, &row)
		}
	}
	return &row, nil
}

// LoadPlaylist upserts a playlist, loads its videos, and reconciles the
// ordered membership rows with the same pruning contract as programs.
// channelID may be uuid.Nil when the playlist is not attached to a channel.
func (s *Service) LoadPlaylist(ctx context.Context, channelID uuid.UUID, input *canonical.Playlist) (*types.Playlist, error) {
	if input == nil || strings.TrimSpace(input.PlaylistID) == "" || strings.TrimSpace(input.Platform) == "" {
		return nil, fmt.Errorf("%w: playlist requires platform and playlist_id", ErrMissingNaturalKey)
	}

	videoIDs := make([]uuid.UUID, 0, len(input.Videos))
	for i := range input.Videos {
		video, err := s.LoadVideo(ctx, &input.Videos[i])
		if err != nil {
			return nil, fmt.Errorf("load video of playlist %s/%s: %w", input.Platform, input.PlaylistID, err)
		}
		videoIDs = append(videoIDs, video.ID)
	}

	var (
		row          types.Playlist
		wasPublished bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.WithContext(ctx).
			Where("platform = ? AND playlist_id = ?", input.Platform, input.PlaylistID).
			First(&row).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		creating := errors.Is(err, gorm.ErrRecordNotFound)
		wasPublished = !creating && row.Published

		row.Platform = input.Platform
		row.PlaylistID = input.PlaylistID
		row.Title = input.Title
		row.ShortDescription = input.ShortDescription
		row.ImageSrc = input.ImageSrc
		row.URL = input.URL
		row.Published = input.Published
		row.HasUserList = input.HasUserList
		if channelID != uuid.Nil {
			row.ChannelID = &channelID
		}

		if creating {
			if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
				return fmt.Errorf("create playlist %s/%s: %w", input.Platform, input.PlaylistID, err)
			}
		} else {
			if err := tx.WithContext(ctx).Save(&row).Error; err != nil {
				return fmt.Errorf("update playlist %s/%s: %w", input.Platform, input.PlaylistID, err)
			}
		}

		if err := s.reconcilePlaylistVideos(ctx, tx, row.ID, videoIDs); err != nil {
			return err
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
			s.dispatcher.UpsertPlaylist(ctx, row.ID)
		case wasPublished:
			s.dispatcher.DeindexPlaylist(ctx, &row)
		}
	}
	return &row, nil
}

func (s *Service) reconcilePlaylistVideos(ctx context.Context, tx *gorm.DB, playlistID uuid.UUID, videoIDs []uuid.UUID) error {
	if len(videoIDs) == 0 {
		return tx.WithContext(ctx).
			Where("playlist_id = ?", playlistID).
			Delete(&types.PlaylistVideo{}).Error
	}

	if err := tx.WithContext(ctx).
		Where("playlist_id = ? AND video_id NOT IN ?", playlistID, videoIDs).
		Delete(&types.PlaylistVideo{}).Error; err != nil {
		return fmt.Errorf("prune playlist videos: %w", err)
	}

	rows := make([]*types.PlaylistVideo, 0, len(videoIDs))
	for position, videoID := range videoIDs {
		rows = append(rows, &types.PlaylistVideo{
			PlaylistID: playlistID,
			VideoID:    videoID,
			Position:   position,
		})
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "playlist_id"}, {Name: "video_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"position", "updated_on"}),
	}).Create(&rows).Error
}

// LoadVideoChannel upserts a channel then loads its playlists underneath it.
func (s *Service) LoadVideoChannel(ctx context.Context, input *canonical.VideoChannel) (*types.VideoChannel, error) {
	if input == nil || strings.TrimSpace(input.ChannelID) == "" || strings.TrimSpace(input.Platform) == "" {
		return nil, fmt.Errorf("%w: channel requires platform and channel_id", ErrMissingNaturalKey)
	}

	var (
		row          types.VideoChannel
		wasPublished bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.WithContext(ctx).
			Where("platform = ? AND channel_id = ?", input.Platform, input.ChannelID).
			First(&row).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		creating := errors.Is(err, gorm.ErrRecordNotFound)
		wasPublished = !creating && row.Published

		row.Platform = input.Platform
		row.ChannelID = input.ChannelID
		row.Title = input.Title
		row.ShortDescription = input.ShortDescription
		row.Published = input.Published

		if creating {
			if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
				return fmt.Errorf("create channel %s/%s: %w", input.Platform, input.ChannelID, err)
			}
		} else {
			if err := tx.WithContext(ctx).Save(&row).Error; err != nil {
				return fmt.Errorf("update channel %s/%s: %w", input.Platform, input.ChannelID, err)
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

	for i := range input.Playlists {
		if _, err := s.LoadPlaylist(ctx, row.ID, &input.Playlists[i]); err != nil {
			return nil, fmt.Errorf("load playlist of channel %s/%s: %w", input.Platform, input.ChannelID, err)
		}
	}

	if s.dispatcher != nil {
		switch {
		case row.Published:
			s.dispatcher.UpsertVideoChannel(ctx, row.ID)
		case wasPublished:
			s.dispatcher.DeindexVideoChannel(ctx, &row)
		}
	}
	return &row, nil
}
