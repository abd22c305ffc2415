// Package ocw parses the JSON export of one OCW course. A course lives under
// one storage prefix as a set of numbered JSON objects; the master object
// (1.json) carries identity and publication metadata, and every object may
// contribute pages, files, and embedded media. The sync controller owns
// discovery and staleness; this package only turns the aggregate into one
// structured course document.
package ocw

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/openlearn/catalog-backend/internal/canonical"
	"github.com/openlearn/catalog-backend/internal/types"
)

const masterObject = "1.json"

// CourseDoc is the parsed form of one course prefix.
type CourseDoc struct {
	UID             string
	CourseID        string
	Title           string
	Description     string
	ImageSrc        string
	URL             string
	Semester        string
	Year            *int
	Department      string
	IsPublished     bool
	LastPublished   *time.Time
	LastUnpublished *time.Time
	Topics          []string
	Instructors     []Instructor
	Pages           []Page
	Files           []File
	EmbeddedMedia   []Media
}

type Instructor struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Page struct {
	UID      string `json:"uid"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	Type     string `json:"type"`
	URL      string `json:"url"`
	ShortURL string `json:"short_url"`
}

type File struct {
	UID          string `json:"uid"`
	Title        string `json:"title"`
	Caption      string `json:"caption"`
	Description  string `json:"description"`
	FileType     string `json:"file_type"`
	FileLocation string `json:"file_location"`
	ParentUID    string `json:"parent_uid"`
}

type Media struct {
	UID           string `json:"uid"`
	Title         string `json:"title"`
	MediaLocation string `json:"media_location"`
	TranscriptURL string `json:"transcript_location"`
}

// rawChunk is the subset of fields any numbered object may carry. Only the
// master object populates the identity fields.
type rawChunk struct {
	UID             string       `json:"uid"`
	CourseID        string       `json:"course_id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	ImageSrc        string       `json:"image_src"`
	URL             string       `json:"url"`
	FromSemester    string       `json:"from_semester"`
	FromYear        string       `json:"from_year"`
	Department      string       `json:"department_number"`
	LastPublished   string       `json:"last_published_to_production"`
	LastUnpublished string       `json:"last_unpublished"`
	Collections     []collection `json:"course_collections"`
	Instructors     []Instructor `json:"instructors"`
	Pages           []Page       `json:"course_pages"`
	Files           []File       `json:"course_files"`
	EmbeddedMedia   []Media      `json:"course_embedded_media"`
}

type collection struct {
	Feature    string `json:"ocw_feature"`
	Subfeature string `json:"ocw_subfeature"`
	Speciality string `json:"ocw_speciality"`
}

// Parse aggregates the JSON objects under one course prefix. The objects map
// is keyed by full storage key; the master object is required.
func Parse(objects map[string][]byte) (*CourseDoc, error) {
	keys := make([]string, 0, len(objects))
	for key := range objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var (
		doc    CourseDoc
		master bool
	)
	for _, key := range keys {
		var chunk rawChunk
		if err := json.Unmarshal(objects[key], &chunk); err != nil {
			return nil, fmt.Errorf("parsing course object %s: %w", key, err)
		}
		if strings.HasSuffix(key, "/"+masterObject) || key == masterObject {
			doc.UID = chunk.UID
			doc.CourseID = chunk.CourseID
			doc.Title = chunk.Title
			doc.Description = chunk.Description
			doc.ImageSrc = chunk.ImageSrc
			doc.URL = chunk.URL
			doc.Semester = chunk.FromSemester
			doc.Year = parseYear(chunk.FromYear)
			doc.Department = chunk.Department
			doc.LastPublished = parseOCWTime(chunk.LastPublished)
			doc.LastUnpublished = parseOCWTime(chunk.LastUnpublished)
			doc.Instructors = chunk.Instructors
			doc.Topics = topicsFromCollections(chunk.Collections)
			master = true
		}
		doc.Pages = append(doc.Pages, chunk.Pages...)
		doc.Files = append(doc.Files, chunk.Files...)
		doc.EmbeddedMedia = append(doc.EmbeddedMedia, chunk.EmbeddedMedia...)
	}
	if !master {
		return nil, fmt.Errorf("course prefix has no %s metadata object", masterObject)
	}
	if doc.UID == "" {
		return nil, fmt.Errorf("metadata object carries no uid")
	}

	// Published means published more recently than unpublished. A course that
	// was never pushed to production is not published at all.
	doc.IsPublished = doc.LastPublished != nil &&
		(doc.LastUnpublished == nil || doc.LastPublished.After(*doc.LastUnpublished))
	return &doc, nil
}

// ToCanonical shapes the document as one course with a single run keyed by the
// course uid. LastModified carries the newest storage object time so the sync
// staleness gate has something to compare against on the next pass.
func (doc *CourseDoc) ToCanonical(lastModified time.Time) canonical.Course {
	run := canonical.Run{
		RunID:            doc.UID,
		Platform:         types.PlatformOCW,
		Title:            doc.Title,
		ShortDescription: doc.Description,
		ImageSrc:         doc.ImageSrc,
		URL:              doc.URL,
		Semester:         doc.Semester,
		Year:             doc.Year,
		Published:        doc.IsPublished,
		LastModified:     &lastModified,
		OfferedBy:        []canonical.OfferedBy{{Name: "OCW"}},
	}
	for _, instructor := range doc.Instructors {
		if instructor.FirstName == "" && instructor.LastName == "" {
			continue
		}
		run.Instructors = append(run.Instructors, canonical.Instructor{
			FirstName: instructor.FirstName,
			LastName:  instructor.LastName,
			FullName:  strings.TrimSpace(instructor.FirstName + " " + instructor.LastName),
		})
	}

	course := canonical.Course{
		CourseID:         courseKey(doc),
		Platform:         types.PlatformOCW,
		Title:            doc.Title,
		ShortDescription: doc.Description,
		ImageSrc:         doc.ImageSrc,
		URL:              doc.URL,
		Department:       doc.Department,
		Published:        doc.IsPublished,
		OfferedBy:        []canonical.OfferedBy{{Name: "OCW"}},
		Runs:             []canonical.Run{run},
	}
	for _, topic := range doc.Topics {
		course.Topics = append(course.Topics, canonical.Topic{Name: topic})
	}
	return course
}

// courseKey prefers the catalog course number; old exports without one fall
// back to the uid.
func courseKey(doc *CourseDoc) string {
	if doc.CourseID != "" {
		return doc.CourseID
	}
	return doc.UID
}

func topicsFromCollections(collections []collection) []string {
	var topics []string
	seen := map[string]bool{}
	for _, c := range collections {
		for _, name := range []string{c.Feature, c.Subfeature, c.Speciality} {
			name = strings.TrimSpace(name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			topics = append(topics, name)
		}
	}
	return topics
}

func parseYear(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &y
}

// parseOCWTime handles the export's historical timestamp spellings.
func parseOCWTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "null") || strings.EqualFold(value, "none") {
		return nil
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02 15:04:05.999999-07:00",
		"2006/01/02 15:04:05.999-07:00",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
