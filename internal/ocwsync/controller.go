// Package ocwsync drives the incremental sync of OCW course exports out of
// object storage. One course lives under one storage prefix; the controller
// runs a fixed sequence per prefix (discover, staleness gate, parse, media
// upload, digest, content files, republish) and isolates failures so one bad
// course never stops a batch.
package ocwsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlearn/catalog-backend/internal/contentfiles"
	"github.com/openlearn/catalog-backend/internal/loaders"
	"github.com/openlearn/catalog-backend/internal/platform/envutil"
	"github.com/openlearn/catalog-backend/internal/platform/gcp"
	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/providers/ocw"
	"github.com/openlearn/catalog-backend/internal/repos"
	"github.com/openlearn/catalog-backend/internal/types"
)

const metadataObject = "1.json"

// Options tune one sync invocation.
type Options struct {
	// Force bypasses the staleness gate entirely.
	Force bool
	// Cutoff is the backfill watermark: a course whose run was last synced
	// before it is resynced even when the source looks unchanged.
	Cutoff time.Time
}

type Config struct {
	// UploadMedia enables pushing the parsed course manifest back to storage.
	// Content files are only built when this is on and the course is
	// published.
	UploadMedia bool
}

func ConfigFromEnv() Config {
	return Config{UploadMedia: envutil.Bool("OCW_UPLOAD_MEDIA", false)}
}

type Controller struct {
	cfg          Config
	log          *logger.Logger
	db           *gorm.DB
	bucket       gcp.BucketService
	pipeline     *contentfiles.Pipeline
	loader       *loaders.Service
	dispatcher   loaders.Dispatcher
	runs         repos.RunRepo
	courses      repos.CourseRepo
	contentFiles repos.ContentFileRepo
}

func New(cfg Config, gdb *gorm.DB, bucket gcp.BucketService, pipeline *contentfiles.Pipeline, loader *loaders.Service, dispatcher loaders.Dispatcher, baseLog *logger.Logger) *Controller {
	return &Controller{
		cfg:          cfg,
		log:          baseLog.With("component", "ocwsync"),
		db:           gdb,
		bucket:       bucket,
		pipeline:     pipeline,
		loader:       loader,
		dispatcher:   dispatcher,
		runs:         repos.NewRunRepo(gdb, baseLog),
		courses:      repos.NewCourseRepo(gdb, baseLog),
		contentFiles: repos.NewContentFileRepo(gdb, baseLog),
	}
}

// DiscoverPrefixes lists storage under root and returns the course prefixes,
// one per metadata object found.
func (c *Controller) DiscoverPrefixes(ctx context.Context, root string) ([]string, error) {
	objects, err := c.bucket.ListObjects(ctx, root)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var prefixes []string
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, "/"+metadataObject) {
			continue
		}
		prefix := strings.TrimSuffix(obj.Key, metadataObject)
		if !seen[prefix] {
			seen[prefix] = true
			prefixes = append(prefixes, prefix)
		}
	}
	sort.Strings(prefixes)
	return prefixes, nil
}

// SyncAll runs SyncPrefix for every prefix. Each course is isolated: a panic
// or error is logged and the batch moves on.
func (c *Controller) SyncAll(ctx context.Context, prefixes []string, opts Options) {
	for _, prefix := range prefixes {
		c.syncOne(ctx, prefix, opts)
	}
}

func (c *Controller) syncOne(ctx context.Context, prefix string, opts Options) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("course sync panicked", "prefix", prefix, "panic", r)
		}
	}()
	if err := c.SyncPrefix(ctx, prefix, opts); err != nil {
		c.log.Error("course sync failed", "prefix", prefix, "error", err)
	}
}

// SyncPrefix syncs one course prefix end to end.
func (c *Controller) SyncPrefix(ctx context.Context, prefix string, opts Options) error {
	// Discover.
	objects, err := c.bucket.ListObjects(ctx, prefix)
	if err != nil {
		return fmt.Errorf("listing %q: %w", prefix, err)
	}
	if len(objects) == 0 {
		return fmt.Errorf("no objects under prefix %q", prefix)
	}

	var newestMod time.Time
	modTimes := make(map[string]time.Time, len(objects))
	metadataKey := ""
	for _, obj := range objects {
		modTimes[obj.Key] = obj.LastModified
		if obj.LastModified.After(newestMod) {
			newestMod = obj.LastModified
		}
		if strings.HasSuffix(obj.Key, "/"+metadataObject) || obj.Key == prefix+metadataObject {
			metadataKey = obj.Key
		}
	}
	if metadataKey == "" {
		return fmt.Errorf("prefix %q has no %s metadata object", prefix, metadataObject)
	}

	var meta struct {
		UID string `json:"uid"`
	}
	if err := c.bucket.ReadJSON(ctx, metadataKey, &meta); err != nil {
		return fmt.Errorf("reading metadata: %w", err)
	}
	if meta.UID == "" {
		return fmt.Errorf("metadata object %q carries no uid", metadataKey)
	}

	// Staleness gate.
	existing, err := c.runs.GetByNaturalKey(ctx, nil, types.PlatformOCW, meta.UID)
	if err != nil {
		return err
	}
	if c.shouldSkip(existing, newestMod, opts) {
		c.log.Info("course unchanged; skipping",
			"prefix", prefix, "uid", meta.UID, "newest_mod", newestMod)
		return nil
	}

	// Load and parse.
	raw := make(map[string][]byte)
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, ".json") || strings.HasPrefix(obj.Key, "extracts/") {
			continue
		}
		data, err := c.readObject(ctx, obj.Key)
		if err != nil {
			return fmt.Errorf("reading %q: %w", obj.Key, err)
		}
		raw[obj.Key] = data
	}
	doc, err := ocw.Parse(raw)
	if err != nil {
		return err
	}

	// Media upload. Failure here is fatal for this course.
	if c.cfg.UploadMedia {
		if err := c.uploadParsedManifest(ctx, prefix, doc); err != nil {
			return fmt.Errorf("uploading parsed manifest: %w", err)
		}
	}

	// Digest through the loader; validation failures abort this course only.
	course := doc.ToCanonical(newestMod)
	courseRow, err := c.loader.LoadCourse(ctx, &course)
	if err != nil {
		return fmt.Errorf("loading course %q: %w", course.CourseID, err)
	}
	runRow, err := c.runs.GetByNaturalKey(ctx, nil, types.PlatformOCW, meta.UID)
	if err != nil {
		return err
	}
	if runRow == nil {
		return fmt.Errorf("run %q missing after load", meta.UID)
	}

	// Content files.
	if c.cfg.UploadMedia && doc.IsPublished {
		if err := c.attachContentFiles(ctx, runRow.ID, course.CourseID, doc, modTimes, opts.Force); err != nil {
			return err
		}
	}

	// Republish: this run's state or any published sibling keeps the course
	// visible.
	return c.republish(ctx, courseRow, runRow, doc.IsPublished)
}

// shouldSkip is the staleness gate. Force bypasses it; a cutoff newer than the
// run's last sync forces a resync even for unchanged sources.
func (c *Controller) shouldSkip(existing *types.LearningResourceRun, newestMod time.Time, opts Options) bool {
	if existing == nil || opts.Force {
		return false
	}
	if existing.LastModified == nil || newestMod.After(*existing.LastModified) {
		return false
	}
	if !opts.Cutoff.IsZero() && existing.UpdatedOn.Before(opts.Cutoff) {
		return false
	}
	return true
}

func (c *Controller) readObject(ctx context.Context, key string) ([]byte, error) {
	r, err := c.bucket.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (c *Controller) uploadParsedManifest(ctx context.Context, prefix string, doc *ocw.CourseDoc) error {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return c.bucket.Upload(ctx, prefix+"parsed.json", bytes.NewReader(encoded))
}

func (c *Controller) attachContentFiles(ctx context.Context, runID uuid.UUID, courseID string, doc *ocw.CourseDoc, modTimes map[string]time.Time, force bool) error {
	files := c.pipeline.Build(ctx, courseID, doc, modTimes, force)

	rows := make([]*types.ContentFile, 0, len(files))
	keep := make([]string, 0, len(files))
	for _, f := range files {
		mod, ok := modTimes[f.Key]
		var lastMod *time.Time
		if ok {
			lastMod = &mod
		}
		rows = append(rows, &types.ContentFile{
			RunID:           runID,
			Key:             f.Key,
			UID:             f.UID,
			Title:           f.Title,
			Description:     f.Description,
			ContentType:     f.ContentType,
			FileType:        f.FileType,
			Section:         f.Section,
			URL:             f.URL,
			ShortURL:        f.ShortURL,
			Content:         f.Content,
			ContentTitle:    f.ContentTitle,
			ContentAuthor:   f.ContentAuthor,
			ContentLanguage: f.ContentLanguage,
			LastModified:    lastMod,
			Published:       f.Published,
		})
		keep = append(keep, f.Key)
	}

	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := c.contentFiles.Upsert(ctx, tx, rows); err != nil {
			return err
		}
		return c.contentFiles.UnpublishAbsent(ctx, tx, runID, keep)
	})
}

func (c *Controller) republish(ctx context.Context, course *types.Course, run *types.LearningResourceRun, runPublished bool) error {
	siblingPublished, err := c.runs.AnyPublishedForOwner(ctx, nil, types.OwnerCourse, course.ID, run.ID)
	if err != nil {
		return err
	}
	published := runPublished || siblingPublished

	if course.Published != published {
		if err := c.courses.SetPublished(ctx, nil, course.ID, published); err != nil {
			return err
		}
	}
	if published {
		c.dispatcher.UpsertCourse(ctx, course.ID)
	} else if course.Published {
		course.Published = false
		c.dispatcher.DeindexCourse(ctx, course)
	}
	return nil
}
