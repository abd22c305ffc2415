package search

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/openlearn/catalog-backend/internal/db"
	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/types"
)

type spyIndex struct {
	Upserts  []Document
	Deletes  []string
	FailNext int
}

func (s *spyIndex) Upsert(doc Document) error {
	if s.FailNext > 0 {
		s.FailNext--
		return errors.New("index unavailable")
	}
	s.Upserts = append(s.Upserts, doc)
	return nil
}

func (s *spyIndex) Delete(id string) error {
	if s.FailNext > 0 {
		s.FailNext--
		return errors.New("index unavailable")
	}
	s.Deletes = append(s.Deletes, id)
	return nil
}

func (s *spyIndex) Close() error { return nil }

// fakeQueue is an in-memory RetryQueue. When drained it invokes OnEmpty, which
// tests use to cancel the consumer's context.
type fakeQueue struct {
	Tasks   []Task
	OnEmpty func()
}

func (q *fakeQueue) Enqueue(ctx context.Context, task Task) error {
	q.Tasks = append(q.Tasks, task)
	return nil
}

func (q *fakeQueue) Dequeue(ctx context.Context) (*Task, error) {
	if len(q.Tasks) == 0 {
		if q.OnEmpty != nil {
			q.OnEmpty()
		}
		return nil, nil
	}
	task := q.Tasks[0]
	q.Tasks = q.Tasks[1:]
	return &task, nil
}

func (q *fakeQueue) Close() error { return nil }

func newTestDispatcher(t *testing.T) (*Dispatcher, *spyIndex, *fakeQueue, *gorm.DB) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "search.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	idx := &spyIndex{}
	queue := &fakeQueue{}
	return NewDispatcherForTest(gdb, idx, queue, logger.NewNop()), idx, queue, gdb
}

func createCourse(t *testing.T, gdb *gorm.DB) *types.Course {
	t.Helper()
	course := &types.Course{
		Platform:         types.PlatformOCW,
		CourseID:         "18.06",
		Title:            "Linear Algebra",
		ShortDescription: "Matrix theory and linear algebra",
		FullDescription:  "Covers matrix theory, vector spaces and eigenvalues.",
		Published:        true,
		Topics:           []*types.CourseTopic{{Name: "Mathematics"}},
		OfferedBy:        []*types.LearningResourceOfferor{{Name: "OCW"}},
	}
	if err := gdb.Create(course).Error; err != nil {
		t.Fatalf("create course: %v", err)
	}
	return course
}

func TestUpsertCourseIndexesSynchronously(t *testing.T) {
	d, idx, queue, gdb := newTestDispatcher(t)
	course := createCourse(t, gdb)

	d.UpsertCourse(context.Background(), course.ID)

	if len(idx.Upserts) != 1 {
		t.Fatalf("expected 1 index upsert, got %d", len(idx.Upserts))
	}
	doc := idx.Upserts[0]
	if doc.ID != DocumentID(KindCourse, course.ID) {
		t.Errorf("doc ID = %q", doc.ID)
	}
	if doc.Kind != KindCourse || doc.Platform != types.PlatformOCW {
		t.Errorf("doc kind/platform = %q/%q", doc.Kind, doc.Platform)
	}
	if doc.Title != "Linear Algebra" || doc.Content != course.FullDescription {
		t.Errorf("doc title/content = %q/%q", doc.Title, doc.Content)
	}
	if len(doc.Topics) != 1 || doc.Topics[0] != "Mathematics" {
		t.Errorf("doc topics = %v", doc.Topics)
	}
	if len(doc.OfferedBy) != 1 || doc.OfferedBy[0] != "OCW" {
		t.Errorf("doc offered_by = %v", doc.OfferedBy)
	}
	if len(queue.Tasks) != 0 {
		t.Errorf("expected empty retry queue, got %v", queue.Tasks)
	}
}

func TestUpsertFallsBackToRetryQueue(t *testing.T) {
	d, idx, queue, gdb := newTestDispatcher(t)
	course := createCourse(t, gdb)
	idx.FailNext = 1

	d.UpsertCourse(context.Background(), course.ID)

	if len(idx.Upserts) != 0 {
		t.Fatalf("expected no successful upserts, got %d", len(idx.Upserts))
	}
	if len(queue.Tasks) != 1 {
		t.Fatalf("expected 1 queued task, got %d", len(queue.Tasks))
	}
	task := queue.Tasks[0]
	if task.Op != "upsert" || task.Kind != KindCourse || task.ID != course.ID.String() {
		t.Errorf("queued task = %+v", task)
	}
}

func TestUpsertMissingRowDeindexes(t *testing.T) {
	d, idx, queue, _ := newTestDispatcher(t)
	id := uuid.New()

	d.UpsertCourse(context.Background(), id)

	if len(idx.Upserts) != 0 {
		t.Fatalf("expected no upserts for missing row, got %d", len(idx.Upserts))
	}
	if len(idx.Deletes) != 1 || idx.Deletes[0] != DocumentID(KindCourse, id) {
		t.Errorf("deletes = %v", idx.Deletes)
	}
	if len(queue.Tasks) != 0 {
		t.Errorf("expected empty retry queue, got %v", queue.Tasks)
	}
}

func TestDeindexCourse(t *testing.T) {
	d, idx, queue, gdb := newTestDispatcher(t)
	course := createCourse(t, gdb)

	d.DeindexCourse(context.Background(), course)

	if len(idx.Deletes) != 1 || idx.Deletes[0] != DocumentID(KindCourse, course.ID) {
		t.Errorf("deletes = %v", idx.Deletes)
	}
	if len(queue.Tasks) != 0 {
		t.Errorf("expected empty retry queue, got %v", queue.Tasks)
	}
}

func TestDisabledDispatcherIsNoop(t *testing.T) {
	d, idx, queue, gdb := newTestDispatcher(t)
	d.enabled = false
	course := createCourse(t, gdb)

	d.UpsertCourse(context.Background(), course.ID)
	d.DeindexCourse(context.Background(), course)

	if len(idx.Upserts) != 0 || len(idx.Deletes) != 0 || len(queue.Tasks) != 0 {
		t.Errorf("disabled dispatcher touched index or queue: %d/%d/%d",
			len(idx.Upserts), len(idx.Deletes), len(queue.Tasks))
	}
}

func TestRetryConsumerDrainsQueue(t *testing.T) {
	d, idx, queue, gdb := newTestDispatcher(t)
	course := createCourse(t, gdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.OnEmpty = cancel
	queue.Tasks = []Task{
		{Op: "upsert", Kind: KindCourse, ID: course.ID.String()},
		{Op: "deindex", Kind: KindProgram, ID: uuid.NewString()},
	}

	if err := d.RunRetryConsumer(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("consumer returned %v", err)
	}
	if len(idx.Upserts) != 1 {
		t.Errorf("expected 1 upsert from retry, got %d", len(idx.Upserts))
	}
	if len(idx.Deletes) != 1 {
		t.Errorf("expected 1 deindex from retry, got %d", len(idx.Deletes))
	}
	if len(queue.Tasks) != 0 {
		t.Errorf("queue not drained: %v", queue.Tasks)
	}
}

func TestRetryConsumerDropsAfterMaxAttempts(t *testing.T) {
	d, idx, queue, gdb := newTestDispatcher(t)
	course := createCourse(t, gdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.OnEmpty = cancel
	queue.Tasks = []Task{{Op: "upsert", Kind: KindCourse, ID: course.ID.String()}}
	idx.FailNext = maxRetryAttempts + 1

	if err := d.RunRetryConsumer(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("consumer returned %v", err)
	}
	if len(queue.Tasks) != 0 {
		t.Errorf("expected task dropped, queue = %v", queue.Tasks)
	}
	if len(idx.Upserts) != 0 {
		t.Errorf("expected no successful upserts, got %d", len(idx.Upserts))
	}
}
