// Package xpro ingests the MIT xPRO catalog API. The API exposes paginated
// courses/ and programs/ endpoints; programs embed their ordered course list.
package xpro

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/openlearn/catalog-backend/internal/canonical"
	"github.com/openlearn/catalog-backend/internal/platform/envutil"
	"github.com/openlearn/catalog-backend/internal/platform/httpx"
	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/types"
)

const offeredBy = "xPRO"

type Config struct {
	CoursesURL  string
	ProgramsURL string
}

func ConfigFromEnv() Config {
	return Config{
		CoursesURL:  envutil.Str("XPRO_COURSES_API_URL", ""),
		ProgramsURL: envutil.Str("XPRO_PROGRAMS_API_URL", ""),
	}
}

type RawCourse struct {
	ReadableID  string    `json:"readable_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageSrc    string    `json:"thumbnail_url"`
	URL         string    `json:"url"`
	Topics      []RawName `json:"topics"`
	Runs        []RawRun  `json:"courseruns"`
}

type RawRun struct {
	CoursewareID    string     `json:"courseware_id"`
	Title           string     `json:"title"`
	StartDate       string     `json:"start_date"`
	EndDate         string     `json:"end_date"`
	EnrollmentStart string     `json:"enrollment_start"`
	EnrollmentEnd   string     `json:"enrollment_end"`
	CurrentPrice    *float64   `json:"current_price"`
	Instructors     []RawStaff `json:"instructors"`
	Live            bool       `json:"live"`
	URL             string     `json:"courseware_url"`
}

type RawProgram struct {
	ReadableID  string      `json:"readable_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	ImageSrc    string      `json:"thumbnail_url"`
	URL         string      `json:"url"`
	Topics      []RawName   `json:"topics"`
	Courses     []RawCourse `json:"courses"`
	StartDate   string      `json:"start_date"`
	EndDate     string      `json:"end_date"`
	Price       *float64    `json:"current_price"`
	Live        bool        `json:"live"`
}

type RawName struct {
	Name string `json:"name"`
}

type RawStaff struct {
	Name string `json:"name"`
}

type page[T any] struct {
	Next    string `json:"next"`
	Results []T    `json:"results"`
}

type Client struct {
	cfg    Config
	log    *logger.Logger
	client *http.Client
}

func New(cfg Config, baseLog *logger.Logger) *Client {
	return &Client{cfg: cfg, log: baseLog.With("provider", types.PlatformXPro), client: http.DefaultClient}
}

func (c *Client) ExtractCourses(ctx context.Context) ([]RawCourse, error) {
	if c.cfg.CoursesURL == "" {
		c.log.Info("courses api not configured; skipping extract")
		return nil, nil
	}
	return walkPages[RawCourse](ctx, c.client, c.cfg.CoursesURL)
}

func (c *Client) ExtractPrograms(ctx context.Context) ([]RawProgram, error) {
	if c.cfg.ProgramsURL == "" {
		c.log.Info("programs api not configured; skipping extract")
		return nil, nil
	}
	return walkPages[RawProgram](ctx, c.client, c.cfg.ProgramsURL)
}

func walkPages[T any](ctx context.Context, client *http.Client, url string) ([]T, error) {
	var all []T
	for url != "" {
		var p page[T]
		if err := httpx.GetJSON(ctx, client, url, nil, &p); err != nil {
			return nil, err
		}
		all = append(all, p.Results...)
		url = p.Next
	}
	return all, nil
}

func (c *Client) TransformCourses(raws []RawCourse) []canonical.Course {
	courses := make([]canonical.Course, 0, len(raws))
	for _, raw := range raws {
		if strings.TrimSpace(raw.ReadableID) == "" {
			continue
		}
		courses = append(courses, transformCourse(raw))
	}
	return courses
}

func (c *Client) TransformPrograms(raws []RawProgram) []canonical.Program {
	programs := make([]canonical.Program, 0, len(raws))
	for _, raw := range raws {
		if strings.TrimSpace(raw.ReadableID) == "" {
			continue
		}
		program := canonical.Program{
			ProgramID:        raw.ReadableID,
			Platform:         types.PlatformXPro,
			Title:            raw.Title,
			ShortDescription: raw.Description,
			ImageSrc:         raw.ImageSrc,
			URL:              raw.URL,
			Published:        raw.Live,
			Topics:           transformTopics(raw.Topics),
			OfferedBy:        []canonical.OfferedBy{{Name: offeredBy}},
		}
		// A program gets a single synthetic run carrying its own dates and
		// price; the upstream API has no per-program run concept.
		run := canonical.Run{
			RunID:     raw.ReadableID,
			Platform:  types.PlatformXPro,
			Title:     raw.Title,
			URL:       raw.URL,
			StartDate: parseTime(raw.StartDate),
			EndDate:   parseTime(raw.EndDate),
			Published: raw.Live,
			OfferedBy: []canonical.OfferedBy{{Name: offeredBy}},
		}
		if raw.Price != nil {
			run.Prices = []canonical.Price{{Price: *raw.Price}}
		}
		program.Runs = append(program.Runs, run)
		for _, rawCourse := range raw.Courses {
			if strings.TrimSpace(rawCourse.ReadableID) == "" {
				continue
			}
			course := transformCourse(rawCourse)
			course.ProgramType = "Professional"
			course.ProgramName = raw.Title
			program.Courses = append(program.Courses, course)
		}
		programs = append(programs, program)
	}
	return programs
}

func transformCourse(raw RawCourse) canonical.Course {
	course := canonical.Course{
		CourseID:         raw.ReadableID,
		Platform:         types.PlatformXPro,
		Title:            raw.Title,
		ShortDescription: raw.Description,
		ImageSrc:         raw.ImageSrc,
		URL:              raw.URL,
		Topics:           transformTopics(raw.Topics),
		OfferedBy:        []canonical.OfferedBy{{Name: offeredBy}},
	}
	for _, rawRun := range raw.Runs {
		if strings.TrimSpace(rawRun.CoursewareID) == "" {
			continue
		}
		run := canonical.Run{
			RunID:           rawRun.CoursewareID,
			Platform:        types.PlatformXPro,
			Title:           rawRun.Title,
			URL:             rawRun.URL,
			StartDate:       parseTime(rawRun.StartDate),
			EndDate:         parseTime(rawRun.EndDate),
			EnrollmentStart: parseTime(rawRun.EnrollmentStart),
			EnrollmentEnd:   parseTime(rawRun.EnrollmentEnd),
			Published:       rawRun.Live,
			OfferedBy:       []canonical.OfferedBy{{Name: offeredBy}},
		}
		if rawRun.CurrentPrice != nil {
			run.Prices = []canonical.Price{{Price: *rawRun.CurrentPrice}}
		}
		for _, staff := range rawRun.Instructors {
			name := strings.TrimSpace(staff.Name)
			if name == "" {
				continue
			}
			first, last := splitName(name)
			run.Instructors = append(run.Instructors, canonical.Instructor{
				FirstName: first,
				LastName:  last,
				FullName:  name,
			})
		}
		course.Runs = append(course.Runs, run)
		if run.Published {
			course.Published = true
		}
	}
	return course
}

func transformTopics(raws []RawName) []canonical.Topic {
	var topics []canonical.Topic
	for _, raw := range raws {
		name := strings.TrimSpace(raw.Name)
		if name == "" {
			continue
		}
		topics = append(topics, canonical.Topic{Name: name})
	}
	return topics
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}

func parseTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
