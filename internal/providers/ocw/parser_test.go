package ocw

import (
	"testing"
	"time"
)

func TestParsePublishedCourse(t *testing.T) {
	objects := map[string][]byte{
		"18-06-spring-2010/0/1.json": []byte(`{
			"uid": "abc123",
			"course_id": "18.06",
			"title": "Linear Algebra",
			"description": "Matrix theory and linear algebra.",
			"from_semester": "Spring",
			"from_year": "2010",
			"last_published_to_production": "2020-03-05T12:00:00Z",
			"last_unpublished": "",
			"course_collections": [
				{"ocw_feature": "Mathematics", "ocw_subfeature": "Linear Algebra"}
			],
			"instructors": [{"first_name": "Gilbert", "last_name": "Strang"}],
			"course_pages": [{"uid": "p1", "title": "Syllabus", "type": "CourseSection"}]
		}`),
		"18-06-spring-2010/0/2.json": []byte(`{
			"course_files": [{"uid": "f1", "title": "Lecture 1 notes", "file_type": "application/pdf"}]
		}`),
	}

	doc, err := Parse(objects)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !doc.IsPublished {
		t.Error("IsPublished = false, want true")
	}
	if doc.UID != "abc123" || doc.CourseID != "18.06" {
		t.Errorf("identity = %q/%q", doc.UID, doc.CourseID)
	}
	if len(doc.Pages) != 1 || len(doc.Files) != 1 {
		t.Errorf("pages=%d files=%d, want 1/1", len(doc.Pages), len(doc.Files))
	}
	if len(doc.Topics) != 2 {
		t.Errorf("topics = %v, want feature and subfeature", doc.Topics)
	}

	mod := time.Date(2020, time.March, 6, 0, 0, 0, 0, time.UTC)
	course := doc.ToCanonical(mod)
	if course.CourseID != "18.06" || course.Platform != "ocw" {
		t.Errorf("course key = %q/%q", course.Platform, course.CourseID)
	}
	if len(course.Runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(course.Runs))
	}
	run := course.Runs[0]
	if run.RunID != "abc123" {
		t.Errorf("run id = %q, want course uid", run.RunID)
	}
	if !run.Published {
		t.Error("run published = false, want true")
	}
	if run.Semester != "Spring" || run.Year == nil || *run.Year != 2010 {
		t.Errorf("term = %q %v", run.Semester, run.Year)
	}
	if run.LastModified == nil || !run.LastModified.Equal(mod) {
		t.Errorf("last modified = %v, want %v", run.LastModified, mod)
	}
}

func TestParseNeverPublished(t *testing.T) {
	objects := map[string][]byte{
		"drafts/course/1.json": []byte(`{
			"uid": "draft1",
			"title": "Unpublished Draft",
			"last_published_to_production": null
		}`),
	}

	doc, err := Parse(objects)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.IsPublished {
		t.Error("IsPublished = true, want false when never published")
	}
	course := doc.ToCanonical(time.Now().UTC())
	if course.Published {
		t.Error("course published = true, want false")
	}
	if course.Runs[0].Published {
		t.Error("run published = true, want false")
	}
}

func TestParseUnpublishedAfterPublish(t *testing.T) {
	objects := map[string][]byte{
		"c/1.json": []byte(`{
			"uid": "u1",
			"title": "Retired Course",
			"last_published_to_production": "2019-01-01T00:00:00Z",
			"last_unpublished": "2020-01-01T00:00:00Z"
		}`),
	}
	doc, err := Parse(objects)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.IsPublished {
		t.Error("IsPublished = true, want false when unpublish is newer")
	}
}

func TestParseMissingMetadata(t *testing.T) {
	objects := map[string][]byte{
		"c/2.json": []byte(`{"course_pages": []}`),
	}
	if _, err := Parse(objects); err == nil {
		t.Fatal("Parse succeeded without metadata object, want error")
	}
}
