package search

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlearn/catalog-backend/internal/platform/envutil"
	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/types"
)

const (
	KindCourse         = "course"
	KindProgram        = "program"
	KindVideo          = "video"
	KindPlaylist       = "playlist"
	KindVideoChannel   = "video_channel"
	KindPodcast        = "podcast"
	KindPodcastEpisode = "podcast_episode"
)

const maxRetryAttempts = 5

// Dispatcher notifies the search index after loader commits. Every call first
// attempts the index operation synchronously; on failure the identical call is
// parked on the retry queue. The whole dispatcher is gated by the
// SEARCH_INDEXING_ENABLED flag and becomes a no-op when it is off.
type Dispatcher struct {
	log     *logger.Logger
	db      *gorm.DB
	index   Index
	queue   RetryQueue
	enabled bool
}

func NewDispatcher(db *gorm.DB, index Index, queue RetryQueue, baseLog *logger.Logger) *Dispatcher {
	return &Dispatcher{
		log:     baseLog.With("service", "IndexDispatcher"),
		db:      db,
		index:   index,
		queue:   queue,
		enabled: envutil.Bool("SEARCH_INDEXING_ENABLED", false),
	}
}

// NewDispatcherForTest bypasses the env flag. Tests only.
func NewDispatcherForTest(db *gorm.DB, index Index, queue RetryQueue, baseLog *logger.Logger) *Dispatcher {
	d := NewDispatcher(db, index, queue, baseLog)
	d.enabled = true
	return d
}

func (d *Dispatcher) UpsertCourse(ctx context.Context, id uuid.UUID) {
	d.upsert(ctx, KindCourse, id)
}

func (d *Dispatcher) DeindexCourse(ctx context.Context, course *types.Course) {
	d.deindex(ctx, KindCourse, course.ID)
}

func (d *Dispatcher) UpsertProgram(ctx context.Context, id uuid.UUID) {
	d.upsert(ctx, KindProgram, id)
}

func (d *Dispatcher) DeindexProgram(ctx context.Context, program *types.Program) {
	d.deindex(ctx, KindProgram, program.ID)
}

func (d *Dispatcher) UpsertVideo(ctx context.Context, id uuid.UUID) {
	d.upsert(ctx, KindVideo, id)
}

func (d *Dispatcher) DeindexVideo(ctx context.Context, video *types.Video) {
	d.deindex(ctx, KindVideo, video.ID)
}

func (d *Dispatcher) UpsertPlaylist(ctx context.Context, id uuid.UUID) {
	d.upsert(ctx, KindPlaylist, id)
}

func (d *Dispatcher) DeindexPlaylist(ctx context.Context, playlist *types.Playlist) {
	d.deindex(ctx, KindPlaylist, playlist.ID)
}

func (d *Dispatcher) UpsertVideoChannel(ctx context.Context, id uuid.UUID) {
	d.upsert(ctx, KindVideoChannel, id)
}

func (d *Dispatcher) DeindexVideoChannel(ctx context.Context, channel *types.VideoChannel) {
	d.deindex(ctx, KindVideoChannel, channel.ID)
}

func (d *Dispatcher) UpsertPodcast(ctx context.Context, id uuid.UUID) {
	d.upsert(ctx, KindPodcast, id)
}

func (d *Dispatcher) DeindexPodcast(ctx context.Context, podcast *types.Podcast) {
	d.deindex(ctx, KindPodcast, podcast.ID)
}

func (d *Dispatcher) UpsertPodcastEpisode(ctx context.Context, id uuid.UUID) {
	d.upsert(ctx, KindPodcastEpisode, id)
}

func (d *Dispatcher) DeindexPodcastEpisode(ctx context.Context, episode *types.PodcastEpisode) {
	d.deindex(ctx, KindPodcastEpisode, episode.ID)
}

func (d *Dispatcher) upsert(ctx context.Context, kind string, id uuid.UUID) {
	if !d.enabled {
		return
	}
	if err := d.applyUpsert(ctx, kind, id); err != nil {
		d.log.Warn("synchronous index upsert failed; deferring to retry queue",
			"kind", kind, "id", id, "error", err)
		d.enqueue(ctx, Task{Op: "upsert", Kind: kind, ID: id.String()})
	}
}

func (d *Dispatcher) deindex(ctx context.Context, kind string, id uuid.UUID) {
	if !d.enabled {
		return
	}
	if err := d.index.Delete(DocumentID(kind, id)); err != nil {
		d.log.Warn("synchronous deindex failed; deferring to retry queue",
			"kind", kind, "id", id, "error", err)
		d.enqueue(ctx, Task{Op: "deindex", Kind: kind, ID: id.String()})
	}
}

func (d *Dispatcher) enqueue(ctx context.Context, task Task) {
	if d.queue == nil {
		d.log.Error("no retry queue configured; dropping index task",
			"op", task.Op, "kind", task.Kind, "id", task.ID)
		return
	}
	if err := d.queue.Enqueue(ctx, task); err != nil {
		d.log.Error("failed to enqueue index retry task",
			"op", task.Op, "kind", task.Kind, "id", task.ID, "error", err)
	}
}

func (d *Dispatcher) applyUpsert(ctx context.Context, kind string, id uuid.UUID) error {
	doc, err := d.buildDocument(ctx, kind, id)
	if err != nil {
		return err
	}
	if doc == nil {
		// The row disappeared between commit and indexing; treat as deindex.
		return d.index.Delete(DocumentID(kind, id))
	}
	return d.index.Upsert(*doc)
}

// RunRetryConsumer drains the retry queue until ctx is canceled. A task that
// keeps failing is re-enqueued with an attempt counter and dropped once it
// exceeds maxRetryAttempts.
func (d *Dispatcher) RunRetryConsumer(ctx context.Context) error {
	if d.queue == nil {
		return fmt.Errorf("no retry queue configured")
	}
	d.log.Info("index retry consumer started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		task, err := d.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.log.Warn("retry queue dequeue failed", "error", err)
			continue
		}
		if task == nil {
			continue
		}

		if err := d.applyTask(ctx, *task); err != nil {
			task.Attempts++
			if task.Attempts >= maxRetryAttempts {
				d.log.Error("dropping index task after repeated failures",
					"op", task.Op, "kind", task.Kind, "id", task.ID, "attempts", task.Attempts, "error", err)
				continue
			}
			d.log.Warn("index retry failed; re-enqueueing",
				"op", task.Op, "kind", task.Kind, "id", task.ID, "attempts", task.Attempts, "error", err)
			d.enqueue(ctx, *task)
		}
	}
}

func (d *Dispatcher) applyTask(ctx context.Context, task Task) error {
	id, err := uuid.Parse(task.ID)
	if err != nil {
		return fmt.Errorf("bad task id %q: %w", task.ID, err)
	}
	switch task.Op {
	case "upsert":
		return d.applyUpsert(ctx, task.Kind, id)
	case "deindex":
		return d.index.Delete(DocumentID(task.Kind, id))
	default:
		return fmt.Errorf("unknown index op %q", task.Op)
	}
}
