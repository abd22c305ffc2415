package ocwsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/openlearn/catalog-backend/internal/contentfiles"
	"github.com/openlearn/catalog-backend/internal/db"
	"github.com/openlearn/catalog-backend/internal/loaders"
	"github.com/openlearn/catalog-backend/internal/platform/gcp"
	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/types"
)

type fakeBucket struct {
	objects map[string][]byte
	mods    map[string]time.Time
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}, mods: map[string]time.Time{}}
}

func (b *fakeBucket) put(key string, data []byte, mod time.Time) {
	b.objects[key] = data
	b.mods[key] = mod
}

func (b *fakeBucket) ListObjects(ctx context.Context, prefix string) ([]gcp.ObjectInfo, error) {
	var out []gcp.ObjectInfo
	for key, data := range b.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, gcp.ObjectInfo{Key: key, Size: int64(len(data)), LastModified: b.mods[key]})
		}
	}
	return out, nil
}

func (b *fakeBucket) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such object: %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *fakeBucket) Upload(ctx context.Context, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	b.put(key, data, time.Now().UTC())
	return nil
}

func (b *fakeBucket) ReadJSON(ctx context.Context, key string, out any) error {
	data, ok := b.objects[key]
	if !ok {
		return fmt.Errorf("no such object: %s", key)
	}
	return json.Unmarshal(data, out)
}

func (b *fakeBucket) Exists(ctx context.Context, key string) (*gcp.ObjectInfo, error) {
	data, ok := b.objects[key]
	if !ok {
		return nil, nil
	}
	return &gcp.ObjectInfo{Key: key, Size: int64(len(data)), LastModified: b.mods[key]}, nil
}

func (b *fakeBucket) PublicURL(key string) string { return "https://storage.example.org/" + key }

type fakeDocument struct{}

func (fakeDocument) Extract(ctx context.Context, data []byte, mimeType string) (*gcp.ExtractResult, error) {
	return &gcp.ExtractResult{Content: string(data)}, nil
}

func (fakeDocument) Close() error { return nil }

type spyDispatcher struct {
	upserts   int
	deindexes int
}

func (d *spyDispatcher) UpsertCourse(ctx context.Context, id uuid.UUID)                    { d.upserts++ }
func (d *spyDispatcher) DeindexCourse(ctx context.Context, c *types.Course)                { d.deindexes++ }
func (d *spyDispatcher) UpsertProgram(ctx context.Context, id uuid.UUID)                   {}
func (d *spyDispatcher) DeindexProgram(ctx context.Context, p *types.Program)              {}
func (d *spyDispatcher) UpsertVideo(ctx context.Context, id uuid.UUID)                     {}
func (d *spyDispatcher) DeindexVideo(ctx context.Context, v *types.Video)                  {}
func (d *spyDispatcher) UpsertPlaylist(ctx context.Context, id uuid.UUID)                  {}
func (d *spyDispatcher) DeindexPlaylist(ctx context.Context, p *types.Playlist)            {}
func (d *spyDispatcher) UpsertVideoChannel(ctx context.Context, id uuid.UUID)              {}
func (d *spyDispatcher) DeindexVideoChannel(ctx context.Context, ch *types.VideoChannel)   {}
func (d *spyDispatcher) UpsertPodcast(ctx context.Context, id uuid.UUID)                   {}
func (d *spyDispatcher) DeindexPodcast(ctx context.Context, p *types.Podcast)              {}
func (d *spyDispatcher) UpsertPodcastEpisode(ctx context.Context, id uuid.UUID)            {}
func (d *spyDispatcher) DeindexPodcastEpisode(ctx context.Context, e *types.PodcastEpisode) {}

func newTestController(t *testing.T, bucket *fakeBucket, cfg Config) (*Controller, *gorm.DB, *spyDispatcher) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "ocwsync.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	log := logger.NewNop()
	dispatcher := &spyDispatcher{}
	loader := loaders.NewService(gdb, log, dispatcher)
	pipeline := contentfiles.New(bucket, fakeDocument{}, log)
	return New(cfg, gdb, bucket, pipeline, loader, dispatcher, log), gdb, dispatcher
}

func metadataJSON(uid, published string) []byte {
	return []byte(fmt.Sprintf(`{
		"uid": %q,
		"course_id": "18.06",
		"title": "Linear Algebra",
		"last_published_to_production": %s
	}`, uid, published))
}

func TestSyncPrefixLoadsCourse(t *testing.T) {
	bucket := newFakeBucket()
	mod := time.Date(2020, 3, 5, 0, 0, 0, 0, time.UTC)
	bucket.put("courses/18-06/0/1.json", metadataJSON("run1", `"2020-03-01T00:00:00Z"`), mod)
	ctl, gdb, dispatcher := newTestController(t, bucket, Config{})

	if err := ctl.SyncPrefix(context.Background(), "courses/18-06/0/", Options{}); err != nil {
		t.Fatalf("SyncPrefix: %v", err)
	}

	var course types.Course
	if err := gdb.Where("platform = ? AND course_id = ?", "ocw", "18.06").First(&course).Error; err != nil {
		t.Fatalf("course not loaded: %v", err)
	}
	if !course.Published {
		t.Error("course published = false, want true")
	}
	var run types.LearningResourceRun
	if err := gdb.Where("platform = ? AND run_id = ?", "ocw", "run1").First(&run).Error; err != nil {
		t.Fatalf("run not loaded: %v", err)
	}
	if run.LastModified == nil || !run.LastModified.Equal(mod) {
		t.Errorf("run last_modified = %v, want %v", run.LastModified, mod)
	}
	if dispatcher.upserts == 0 {
		t.Error("published course was not dispatched for indexing")
	}
}

func TestSyncPrefixStalenessGate(t *testing.T) {
	bucket := newFakeBucket()
	mod := time.Date(2020, 3, 5, 0, 0, 0, 0, time.UTC)
	bucket.put("courses/18-06/0/1.json", metadataJSON("run1", `"2020-03-01T00:00:00Z"`), mod)
	ctl, gdb, _ := newTestController(t, bucket, Config{})

	if err := ctl.SyncPrefix(context.Background(), "courses/18-06/0/", Options{}); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	var before types.LearningResourceRun
	if err := gdb.Where("run_id = ?", "run1").First(&before).Error; err != nil {
		t.Fatalf("run missing: %v", err)
	}

	// Same source modification time: the second sync must not touch the row.
	if err := ctl.SyncPrefix(context.Background(), "courses/18-06/0/", Options{}); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	var after types.LearningResourceRun
	if err := gdb.Where("run_id = ?", "run1").First(&after).Error; err != nil {
		t.Fatalf("run missing: %v", err)
	}
	if !after.UpdatedOn.Equal(before.UpdatedOn) {
		t.Errorf("run was rewritten by a stale sync: %v -> %v", before.UpdatedOn, after.UpdatedOn)
	}

	// Force bypasses the gate.
	if err := ctl.SyncPrefix(context.Background(), "courses/18-06/0/", Options{Force: true}); err != nil {
		t.Fatalf("forced sync: %v", err)
	}
}

func TestSyncPrefixNeverPublishedCourse(t *testing.T) {
	bucket := newFakeBucket()
	mod := time.Date(2020, 3, 5, 0, 0, 0, 0, time.UTC)
	bucket.put("courses/x/0/1.json", metadataJSON("runx", "null"), mod)
	ctl, gdb, _ := newTestController(t, bucket, Config{})

	if err := ctl.SyncPrefix(context.Background(), "courses/x/0/", Options{}); err != nil {
		t.Fatalf("SyncPrefix: %v", err)
	}

	var run types.LearningResourceRun
	if err := gdb.Where("run_id = ?", "runx").First(&run).Error; err != nil {
		t.Fatalf("run missing: %v", err)
	}
	if run.Published {
		t.Error("run published = true, want false when never published to production")
	}
	var course types.Course
	if err := gdb.Where("course_id = ?", "18.06").First(&course).Error; err != nil {
		t.Fatalf("course missing: %v", err)
	}
	if course.Published {
		t.Error("course published = true, want false without any published run")
	}
}

func TestSyncPrefixRepublishFromSibling(t *testing.T) {
	bucket := newFakeBucket()
	mod := time.Date(2020, 3, 5, 0, 0, 0, 0, time.UTC)
	bucket.put("courses/x/0/1.json", metadataJSON("runx", "null"), mod)
	ctl, gdb, _ := newTestController(t, bucket, Config{})

	if err := ctl.SyncPrefix(context.Background(), "courses/x/0/", Options{}); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	var course types.Course
	if err := gdb.Where("course_id = ?", "18.06").First(&course).Error; err != nil {
		t.Fatalf("course missing: %v", err)
	}

	// A published sibling run keeps the course visible even though this
	// prefix's run is unpublished.
	sibling := types.LearningResourceRun{
		RunID:     "sibling",
		Platform:  "ocw",
		OwnerKind: types.OwnerCourse,
		OwnerID:   course.ID,
		Published: true,
	}
	if err := gdb.Create(&sibling).Error; err != nil {
		t.Fatalf("creating sibling run: %v", err)
	}

	if err := ctl.SyncPrefix(context.Background(), "courses/x/0/", Options{Force: true}); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if err := gdb.Where("course_id = ?", "18.06").First(&course).Error; err != nil {
		t.Fatalf("course missing: %v", err)
	}
	if !course.Published {
		t.Error("course published = false, want true while a sibling run is published")
	}
}

func TestSyncAllIsolatesFailures(t *testing.T) {
	bucket := newFakeBucket()
	mod := time.Date(2020, 3, 5, 0, 0, 0, 0, time.UTC)
	bucket.put("courses/bad/0/1.json", []byte("{not json"), mod)
	bucket.put("courses/good/0/1.json", metadataJSON("rung", `"2020-03-01T00:00:00Z"`), mod)
	ctl, gdb, _ := newTestController(t, bucket, Config{})

	ctl.SyncAll(context.Background(), []string{"courses/bad/0/", "courses/good/0/"}, Options{})

	var run types.LearningResourceRun
	if err := gdb.Where("run_id = ?", "rung").First(&run).Error; err != nil {
		t.Fatalf("good course not synced after bad one failed: %v", err)
	}
}

func TestDiscoverPrefixes(t *testing.T) {
	bucket := newFakeBucket()
	now := time.Now().UTC()
	bucket.put("courses/a/0/1.json", []byte("{}"), now)
	bucket.put("courses/a/0/2.json", []byte("{}"), now)
	bucket.put("courses/b/0/1.json", []byte("{}"), now)
	ctl, _, _ := newTestController(t, bucket, Config{})

	prefixes, err := ctl.DiscoverPrefixes(context.Background(), "courses/")
	if err != nil {
		t.Fatalf("DiscoverPrefixes: %v", err)
	}
	want := []string{"courses/a/0/", "courses/b/0/"}
	if len(prefixes) != len(want) {
		t.Fatalf("prefixes = %v, want %v", prefixes, want)
	}
	for i := range want {
		if prefixes[i] != want[i] {
			t.Errorf("prefixes[%d] = %q, want %q", i, prefixes[i], want[i])
		}
	}
}
