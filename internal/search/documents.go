package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlearn/catalog-backend/internal/types"
)

// buildDocument fetches the committed row and flattens it into an index
// document. A nil document (without error) means the row no longer exists.
func (d *Dispatcher) buildDocument(ctx context.Context, kind string, id uuid.UUID) (*Document, error) {
	switch kind {
	case KindCourse:
		var row types.Course
		if found, err := d.fetch(ctx, &row, id); err != nil || !found {
			return nil, err
		}
		return &Document{
			ID:               DocumentID(kind, id),
			Kind:             kind,
			Platform:         row.Platform,
			Title:            row.Title,
			ShortDescription: row.ShortDescription,
			Content:          row.FullDescription,
			Topics:           topicNames(row.Topics),
			OfferedBy:        offerorNames(row.OfferedBy),
			UpdatedOn:        row.UpdatedOn,
		}, nil
	case KindProgram:
		var row types.Program
		if found, err := d.fetch(ctx, &row, id); err != nil || !found {
			return nil, err
		}
		return &Document{
			ID:               DocumentID(kind, id),
			Kind:             kind,
			Platform:         row.Platform,
			Title:            row.Title,
			ShortDescription: row.ShortDescription,
			Topics:           topicNames(row.Topics),
			OfferedBy:        offerorNames(row.OfferedBy),
			UpdatedOn:        row.UpdatedOn,
		}, nil
	case KindVideo:
		var row types.Video
		if found, err := d.fetch(ctx, &row, id); err != nil || !found {
			return nil, err
		}
		return &Document{
			ID:               DocumentID(kind, id),
			Kind:             kind,
			Platform:         row.Platform,
			Title:            row.Title,
			ShortDescription: row.ShortDescription,
			Content:          row.Transcript,
			Topics:           topicNames(row.Topics),
			OfferedBy:        offerorNames(row.OfferedBy),
			UpdatedOn:        row.UpdatedOn,
		}, nil
	case KindPlaylist:
		var row types.Playlist
		if found, err := d.fetch(ctx, &row, id); err != nil || !found {
			return nil, err
		}
		return &Document{
			ID:               DocumentID(kind, id),
			Kind:             kind,
			Platform:         row.Platform,
			Title:            row.Title,
			ShortDescription: row.ShortDescription,
			Topics:           topicNames(row.Topics),
			OfferedBy:        offerorNames(row.OfferedBy),
			UpdatedOn:        row.UpdatedOn,
		}, nil
	case KindVideoChannel:
		var row types.VideoChannel
		if found, err := d.fetch(ctx, &row, id); err != nil || !found {
			return nil, err
		}
		return &Document{
			ID:               DocumentID(kind, id),
			Kind:             kind,
			Platform:         row.Platform,
			Title:            row.Title,
			ShortDescription: row.ShortDescription,
			Topics:           topicNames(row.Topics),
			OfferedBy:        offerorNames(row.OfferedBy),
			UpdatedOn:        row.UpdatedOn,
		}, nil
	case KindPodcast:
		var row types.Podcast
		if found, err := d.fetch(ctx, &row, id); err != nil || !found {
			return nil, err
		}
		return &Document{
			ID:               DocumentID(kind, id),
			Kind:             kind,
			Platform:         row.Platform,
			Title:            row.Title,
			ShortDescription: row.ShortDescription,
			Content:          row.FullDescription,
			Topics:           topicNames(row.Topics),
			OfferedBy:        offerorNames(row.OfferedBy),
			UpdatedOn:        row.UpdatedOn,
		}, nil
	case KindPodcastEpisode:
		var row types.PodcastEpisode
		if found, err := d.fetch(ctx, &row, id); err != nil || !found {
			return nil, err
		}
		return &Document{
			ID:               DocumentID(kind, id),
			Kind:             kind,
			Platform:         row.Platform,
			Title:            row.Title,
			ShortDescription: row.ShortDescription,
			Topics:           topicNames(row.Topics),
			OfferedBy:        offerorNames(row.OfferedBy),
			UpdatedOn:        row.UpdatedOn,
		}, nil
	default:
		return nil, fmt.Errorf("unknown document kind %q", kind)
	}
}

func (d *Dispatcher) fetch(ctx context.Context, dest any, id uuid.UUID) (bool, error) {
	err := d.db.WithContext(ctx).
		Preload("Topics").
		Preload("OfferedBy").
		Where("id = ?", id).
		First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func topicNames(topics []*types.CourseTopic) []string {
	names := make([]string, 0, len(topics))
	for _, t := range topics {
		if name := strings.TrimSpace(t.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func offerorNames(offerors []*types.LearningResourceOfferor) []string {
	names := make([]string, 0, len(offerors))
	for _, o := range offerors {
		if name := strings.TrimSpace(o.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
