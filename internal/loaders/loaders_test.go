package loaders

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/openlearn/catalog-backend/internal/canonical"
	"github.com/openlearn/catalog-backend/internal/db"
	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/types"
)

type dispatchCall struct {
	Op   string
	Kind string
	ID   uuid.UUID
}

type spyDispatcher struct {
	Calls []dispatchCall
}

func (d *spyDispatcher) record(op, kind string, id uuid.UUID) {
	d.Calls = append(d.Calls, dispatchCall{Op: op, Kind: kind, ID: id})
}

func (d *spyDispatcher) UpsertCourse(_ context.Context, id uuid.UUID) { d.record("upsert", "course", id) }
func (d *spyDispatcher) DeindexCourse(_ context.Context, c *types.Course) {
	d.record("deindex", "course", c.ID)
}
func (d *spyDispatcher) UpsertProgram(_ context.Context, id uuid.UUID) {
	d.record("upsert", "program", id)
}
func (d *spyDispatcher) DeindexProgram(_ context.Context, p *types.Program) {
	d.record("deindex", "program", p.ID)
}
func (d *spyDispatcher) UpsertVideo(_ context.Context, id uuid.UUID) { d.record("upsert", "video", id) }
func (d *spyDispatcher) DeindexVideo(_ context.Context, v *types.Video) {
	d.record("deindex", "video", v.ID)
}
func (d *spyDispatcher) UpsertPlaylist(_ context.Context, id uuid.UUID) {
	d.record("upsert", "playlist", id)
}
func (d *spyDispatcher) DeindexPlaylist(_ context.Context, p *types.Playlist) {
	d.record("deindex", "playlist", p.ID)
}
func (d *spyDispatcher) UpsertVideoChannel(_ context.Context, id uuid.UUID) {
	d.record("upsert", "video_channel", id)
}
func (d *spyDispatcher) DeindexVideoChannel(_ context.Context, c *types.VideoChannel) {
	d.record("deindex", "video_channel", c.ID)
}
func (d *spyDispatcher) UpsertPodcast(_ context.Context, id uuid.UUID) {
	d.record("upsert", "podcast", id)
}
func (d *spyDispatcher) DeindexPodcast(_ context.Context, p *types.Podcast) {
	d.record("deindex", "podcast", p.ID)
}
func (d *spyDispatcher) UpsertPodcastEpisode(_ context.Context, id uuid.UUID) {
	d.record("upsert", "podcast_episode", id)
}
func (d *spyDispatcher) DeindexPodcastEpisode(_ context.Context, e *types.PodcastEpisode) {
	d.record("deindex", "podcast_episode", e.ID)
}

func (d *spyDispatcher) ops(op, kind string) int {
	n := 0
	for _, c := range d.Calls {
		if c.Op == op && c.Kind == kind {
			n++
		}
	}
	return n
}

func newTestService(t *testing.T) (*Service, *spyDispatcher, *gorm.DB) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "loaders.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	spy := &spyDispatcher{}
	return NewService(gdb, logger.NewNop(), spy), spy, gdb
}

func publishedRun(runID string) canonical.Run {
	start := time.Date(2023, time.September, 5, 0, 0, 0, 0, time.UTC)
	return canonical.Run{
		RunID:     runID,
		Platform:  types.PlatformMITx,
		Title:     "Fall 2023",
		StartDate: &start,
		Published: true,
		Prices:    []canonical.Price{{Price: 49, Mode: "verified"}},
		Instructors: []canonical.Instructor{
			{FirstName: "Ada", LastName: "Lovelace"},
		},
	}
}

func testCourse(courseID string) *canonical.Course {
	return &canonical.Course{
		CourseID:  courseID,
		Platform:  types.PlatformMITx,
		Title:     "Introduction to Testing",
		Published: true,
		Topics:    []canonical.Topic{{Name: "Economics"}, {Name: "Statistics"}},
		OfferedBy: []canonical.OfferedBy{{Name: "MITx"}},
		Runs:      []canonical.Run{publishedRun("run-1")},
	}
}

func TestLoadCourseIdempotent(t *testing.T) {
	svc, _, gdb := newTestService(t)
	ctx := context.Background()

	first, err := svc.LoadCourse(ctx, testCourse("6.0001"))
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	second, err := svc.LoadCourse(ctx, testCourse("6.0001"))
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same course row, got %s and %s", first.ID, second.ID)
	}

	var courseCount, runCount int64
	gdb.Model(&types.Course{}).Count(&courseCount)
	gdb.Model(&types.LearningResourceRun{}).Count(&runCount)
	if courseCount != 1 || runCount != 1 {
		t.Fatalf("want 1 course / 1 run, got %d / %d", courseCount, runCount)
	}

	topics := gdb.Model(second).Association("Topics").Count()
	if topics != 2 {
		t.Fatalf("want 2 linked topics, got %d", topics)
	}

	var run types.LearningResourceRun
	if err := gdb.Where("run_id = ?", "run-1").First(&run).Error; err != nil {
		t.Fatalf("fetch run: %v", err)
	}
	if n := gdb.Model(&run).Association("Prices").Count(); n != 1 {
		t.Fatalf("want 1 linked price, got %d", n)
	}
	if n := gdb.Model(&run).Association("Instructors").Count(); n != 1 {
		t.Fatalf("want 1 linked instructor, got %d", n)
	}
}

func TestLoadCourseOfferedByIsAdditive(t *testing.T) {
	svc, _, gdb := newTestService(t)
	ctx := context.Background()

	a := testCourse("8.01")
	a.OfferedBy = []canonical.OfferedBy{{Name: "MITx"}}
	if _, err := svc.LoadCourse(ctx, a); err != nil {
		t.Fatalf("load A: %v", err)
	}

	b := testCourse("8.01")
	b.OfferedBy = []canonical.OfferedBy{{Name: "OCW"}}
	course, err := svc.LoadCourse(ctx, b)
	if err != nil {
		t.Fatalf("load B: %v", err)
	}

	var offerors []*types.LearningResourceOfferor
	if err := gdb.Model(course).Association("OfferedBy").Find(&offerors); err != nil {
		t.Fatalf("find offerors: %v", err)
	}
	names := map[string]bool{}
	for _, o := range offerors {
		names[o.Name] = true
	}
	if len(names) != 2 || !names["MITx"] || !names["OCW"] {
		t.Fatalf("offered_by lost a brand claim: %v", names)
	}
}

func TestLoadCourseTopicsReplaceSemantics(t *testing.T) {
	svc, _, gdb := newTestService(t)
	ctx := context.Background()

	a := testCourse("18.06")
	a.Topics = []canonical.Topic{{Name: "X"}, {Name: "Y"}}
	if _, err := svc.LoadCourse(ctx, a); err != nil {
		t.Fatalf("load A: %v", err)
	}

	b := testCourse("18.06")
	b.Topics = []canonical.Topic{{Name: "Y"}, {Name: "Z"}}
	course, err := svc.LoadCourse(ctx, b)
	if err != nil {
		t.Fatalf("load B: %v", err)
	}

	var topics []*types.CourseTopic
	if err := gdb.Model(course).Association("Topics").Find(&topics); err != nil {
		t.Fatalf("find topics: %v", err)
	}
	names := map[string]bool{}
	for _, topic := range topics {
		names[topic.Name] = true
	}
	if len(names) != 2 || !names["Y"] || !names["Z"] || names["X"] {
		t.Fatalf("topic reconcile should end with exactly {Y, Z}, got %v", names)
	}
}

func TestLoadCourseMissingNaturalKeyAborts(t *testing.T) {
	svc, _, gdb := newTestService(t)
	input := testCourse("")
	if _, err := svc.LoadCourse(context.Background(), input); err == nil {
		t.Fatal("expected error for missing course_id")
	}
	var count int64
	gdb.Model(&types.Course{}).Count(&count)
	if count != 0 {
		t.Fatalf("no rows should exist after aborted load, got %d", count)
	}
}

func TestLoadCourseNotPublishedWithoutPublishedRuns(t *testing.T) {
	svc, spy, _ := newTestService(t)
	input := testCourse("21W.731")
	input.Runs[0].Published = false

	course, err := svc.LoadCourse(context.Background(), input)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if course.Published {
		t.Fatal("course with no published runs must not be published")
	}
	if n := spy.ops("upsert", "course"); n != 0 {
		t.Fatalf("fresh unpublished course should not be indexed, got %d upserts", n)
	}
	if n := spy.ops("deindex", "course"); n != 0 {
		t.Fatalf("fresh unpublished course should not be deindexed, got %d calls", n)
	}
}

func TestLoadCourseDeindexesWhenUnpublished(t *testing.T) {
	svc, spy, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.LoadCourse(ctx, testCourse("14.01")); err != nil {
		t.Fatalf("published load: %v", err)
	}
	if n := spy.ops("upsert", "course"); n != 1 {
		t.Fatalf("want 1 index upsert, got %d", n)
	}

	unpublished := testCourse("14.01")
	unpublished.Published = false
	if _, err := svc.LoadCourse(ctx, unpublished); err != nil {
		t.Fatalf("unpublished load: %v", err)
	}
	if n := spy.ops("deindex", "course"); n != 1 {
		t.Fatalf("want 1 deindex after unpublish, got %d", n)
	}
}

func TestLoadProgramPrunesMembership(t *testing.T) {
	svc, _, gdb := newTestService(t)
	ctx := context.Background()

	program := &canonical.Program{
		ProgramID: "micromasters-data",
		Platform:  types.PlatformMITx,
		Title:     "Data Science MicroMasters",
		Published: true,
		Courses: []canonical.Course{
			*testCourse("c1"), *testCourse("c2"), *testCourse("c3"),
		},
	}
	if _, err := svc.LoadProgram(ctx, program); err != nil {
		t.Fatalf("first load: %v", err)
	}

	program.Courses = []canonical.Course{*testCourse("c1"), *testCourse("c3")}
	loaded, err := svc.LoadProgram(ctx, program)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}

	var items []*types.ProgramItem
	if err := gdb.Where("program_id = ?", loaded.ID).Order("position").Find(&items).Error; err != nil {
		t.Fatalf("fetch items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("want 2 membership rows after pruning, got %d", len(items))
	}
	if items[0].Position != 0 || items[1].Position != 1 {
		t.Fatalf("positions not rewritten: %d, %d", items[0].Position, items[1].Position)
	}

	var c1, c3 types.Course
	gdb.Where("course_id = ?", "c1").First(&c1)
	gdb.Where("course_id = ?", "c3").First(&c3)
	if items[0].ChildID != c1.ID || items[1].ChildID != c3.ID {
		t.Fatalf("membership order does not follow the new child list")
	}
}

func TestLoadPlaylistPrunesVideos(t *testing.T) {
	svc, _, gdb := newTestService(t)
	ctx := context.Background()

	video := func(id string) canonical.Video {
		return canonical.Video{
			VideoID:   id,
			Platform:  types.PlatformYouTube,
			Title:     "Lecture " + id,
			Published: true,
		}
	}
	playlist := &canonical.Playlist{
		PlaylistID: "PL-linear-algebra",
		Platform:   types.PlatformYouTube,
		Title:      "Linear Algebra",
		Published:  true,
		Videos:     []canonical.Video{video("v1"), video("v2")},
	}
	if _, err := svc.LoadPlaylist(ctx, uuid.Nil, playlist); err != nil {
		t.Fatalf("first load: %v", err)
	}

	playlist.Videos = []canonical.Video{video("v2")}
	loaded, err := svc.LoadPlaylist(ctx, uuid.Nil, playlist)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}

	var rows []*types.PlaylistVideo
	if err := gdb.Where("playlist_id = ?", loaded.ID).Find(&rows).Error; err != nil {
		t.Fatalf("fetch rows: %v", err)
	}
	if len(rows) != 1 || rows[0].Position != 0 {
		t.Fatalf("want single membership row at position 0, got %+v", rows)
	}
}

func TestLoadRunDerivesBestDates(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	course, err := svc.LoadCourse(ctx, testCourse("15.071"))
	if err != nil {
		t.Fatalf("load course: %v", err)
	}

	start := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	enrollStart := time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC)

	run, err := svc.LoadRun(ctx, types.OwnerCourse, course.ID, canonical.Run{
		RunID:     "run-no-enroll",
		Platform:  types.PlatformMITx,
		StartDate: &start,
	})
	if err != nil {
		t.Fatalf("load run: %v", err)
	}
	if run.BestStartDate == nil || !run.BestStartDate.Equal(start) {
		t.Fatalf("best start should fall back to start_date, got %v", run.BestStartDate)
	}

	run, err = svc.LoadRun(ctx, types.OwnerCourse, course.ID, canonical.Run{
		RunID:           "run-with-enroll",
		Platform:        types.PlatformMITx,
		StartDate:       &start,
		EnrollmentStart: &enrollStart,
	})
	if err != nil {
		t.Fatalf("load run: %v", err)
	}
	if run.BestStartDate == nil || !run.BestStartDate.Equal(enrollStart) {
		t.Fatalf("best start should prefer enrollment_start, got %v", run.BestStartDate)
	}
}
