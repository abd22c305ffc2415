package contentfiles

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/openlearn/catalog-backend/internal/platform/gcp"
	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/providers/ocw"
)

type fakeBucket struct {
	objects map[string][]byte
	mods    map[string]time.Time
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}, mods: map[string]time.Time{}}
}

func (b *fakeBucket) ListObjects(ctx context.Context, prefix string) ([]gcp.ObjectInfo, error) {
	var out []gcp.ObjectInfo
	for key, data := range b.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
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
	b.objects[key] = data
	b.mods[key] = time.Now().UTC()
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

func (b *fakeBucket) PublicURL(key string) string {
	return "https://storage.example.org/course-bucket/" + key
}

type fakeDocument struct {
	calls int
	fail  bool
}

func (d *fakeDocument) Extract(ctx context.Context, data []byte, mimeType string) (*gcp.ExtractResult, error) {
	d.calls++
	if d.fail {
		return nil, errors.New("extraction backend down")
	}
	return &gcp.ExtractResult{Content: "extracted: " + string(data)}, nil
}

func (d *fakeDocument) Close() error { return nil }

func testDoc() *ocw.CourseDoc {
	return &ocw.CourseDoc{
		UID: "abc",
		Pages: []ocw.Page{
			{UID: "p1", Title: "Syllabus", Text: "<p>Weekly&nbsp;plan</p>", Type: "CourseSection"},
		},
		Files: []ocw.File{
			{UID: "f1", Title: "Notes", FileLocation: "courses/18-06/notes.pdf", FileType: "application/pdf"},
			{UID: "f2", Title: "Dataset", FileLocation: "courses/18-06/data.bin"},
		},
		EmbeddedMedia: []ocw.Media{
			{UID: "m1", Title: "Lecture 1", MediaLocation: "https://youtu.be/x1"},
		},
	}
}

func TestBuildContentFiles(t *testing.T) {
	bucket := newFakeBucket()
	bucket.objects["courses/18-06/notes.pdf"] = []byte("pdf-bytes")
	bucket.mods["courses/18-06/notes.pdf"] = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	doc := &fakeDocument{}
	p := New(bucket, doc, logger.NewNop())

	files := p.Build(context.Background(), "18.06", testDoc(), map[string]time.Time{
		"courses/18-06/notes.pdf": time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}, false)

	if len(files) != 4 {
		t.Fatalf("files = %d, want 4 (page, two files, media)", len(files))
	}

	byKey := map[string]int{}
	for i, f := range files {
		byKey[f.Key] = i
	}

	page := files[byKey["p1"]]
	if page.Content != "Weekly plan" {
		t.Errorf("page content = %q, want stripped text", page.Content)
	}

	notes := files[byKey["courses/18-06/notes.pdf"]]
	if notes.Content != "extracted: pdf-bytes" {
		t.Errorf("notes content = %q", notes.Content)
	}
	if doc.calls != 1 {
		t.Errorf("extract calls = %d, want 1 (dataset not on allow-list)", doc.calls)
	}
	if _, ok := bucket.objects["extracts/courses/18-06/notes.pdf.json"]; !ok {
		t.Error("extraction result not cached")
	}

	dataset := files[byKey["courses/18-06/data.bin"]]
	if dataset.Content != "" {
		t.Errorf("dataset content = %q, want empty (no extraction)", dataset.Content)
	}
	if dataset.URL != "https://storage.example.org/course-bucket/courses/18-06/data.bin" {
		t.Errorf("dataset url = %q, want computed storage url", dataset.URL)
	}

	media := files[byKey["m1"]]
	if media.URL != "https://youtu.be/x1" {
		t.Errorf("media url = %q, want external location", media.URL)
	}
}

func TestBuildUsesExtractionCache(t *testing.T) {
	bucket := newFakeBucket()
	bucket.objects["courses/18-06/notes.pdf"] = []byte("pdf-bytes")
	doc := &fakeDocument{}
	p := New(bucket, doc, logger.NewNop())

	artifactMod := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	mods := map[string]time.Time{"courses/18-06/notes.pdf": artifactMod}
	courseDoc := &ocw.CourseDoc{Files: []ocw.File{
		{UID: "f1", FileLocation: "courses/18-06/notes.pdf"},
	}}

	p.Build(context.Background(), "18.06", courseDoc, mods, false)
	p.Build(context.Background(), "18.06", courseDoc, mods, false)
	if doc.calls != 1 {
		t.Errorf("extract calls = %d, want 1 (second build served from cache)", doc.calls)
	}

	// A newer artifact invalidates the cache.
	mods["courses/18-06/notes.pdf"] = time.Now().UTC().Add(time.Hour)
	p.Build(context.Background(), "18.06", courseDoc, mods, false)
	if doc.calls != 2 {
		t.Errorf("extract calls = %d, want 2 after artifact changed", doc.calls)
	}

	// force bypasses the cache outright.
	mods["courses/18-06/notes.pdf"] = artifactMod
	p.Build(context.Background(), "18.06", courseDoc, mods, true)
	if doc.calls != 3 {
		t.Errorf("extract calls = %d, want 3 with force", doc.calls)
	}
}

func TestBuildIsolatesArtifactFailures(t *testing.T) {
	bucket := newFakeBucket()
	bucket.objects["courses/x/bad.pdf"] = []byte("pdf-bytes")
	doc := &fakeDocument{fail: true}
	p := New(bucket, doc, logger.NewNop())

	courseDoc := &ocw.CourseDoc{
		Pages: []ocw.Page{{UID: "p1", Title: "Intro", Text: "hello"}},
		Files: []ocw.File{{UID: "f1", FileLocation: "courses/x/bad.pdf"}},
	}
	files := p.Build(context.Background(), "x", courseDoc, nil, false)
	if len(files) != 1 {
		t.Fatalf("files = %d, want 1 (failed artifact excluded, page kept)", len(files))
	}
	if files[0].Key != "p1" {
		t.Errorf("surviving file = %q, want the page", files[0].Key)
	}
}
