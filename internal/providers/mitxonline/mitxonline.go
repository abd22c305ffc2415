// Package mitxonline ingests the MITx Online catalog API. Course marketing
// data lives on a nested CMS page object rather than on the course itself.
package mitxonline

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

const offeredBy = "MITx"

type Config struct {
	CoursesURL  string
	ProgramsURL string
	BaseURL     string
}

func ConfigFromEnv() Config {
	return Config{
		CoursesURL:  envutil.Str("MITX_ONLINE_COURSES_API_URL", ""),
		ProgramsURL: envutil.Str("MITX_ONLINE_PROGRAMS_API_URL", ""),
		BaseURL:     envutil.Str("MITX_ONLINE_BASE_URL", "https://mitxonline.mit.edu"),
	}
}

type RawCourse struct {
	ReadableID string    `json:"readable_id"`
	Title      string    `json:"title"`
	Page       RawPage   `json:"page"`
	Topics     []RawName `json:"topics"`
	Runs       []RawRun  `json:"courseruns"`
}

type RawPage struct {
	Description     string `json:"description"`
	FeatureImageSrc string `json:"feature_image_src"`
	PageURL         string `json:"page_url"`
	Live            bool   `json:"live"`
}

type RawRun struct {
	CoursewareID    string     `json:"courseware_id"`
	Title           string     `json:"title"`
	StartDate       string     `json:"start_date"`
	EndDate         string     `json:"end_date"`
	EnrollmentStart string     `json:"enrollment_start"`
	EnrollmentEnd   string     `json:"enrollment_end"`
	URL             string     `json:"courseware_url_path"`
	Instructors     []RawName  `json:"instructors"`
	Products        []RawPrice `json:"products"`
	IsSelfPaced     bool       `json:"is_self_paced"`
	Live            bool       `json:"live"`
}

type RawProgram struct {
	ReadableID string    `json:"readable_id"`
	Title      string    `json:"title"`
	Page       RawPage   `json:"page"`
	Topics     []RawName `json:"topics"`
	// Courses holds the readable ids of member courses in display order.
	Courses   []string `json:"courses"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Live      bool     `json:"live"`
}

type RawName struct {
	Name string `json:"name"`
}

type RawPrice struct {
	Price float64 `json:"price"`
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
	return &Client{cfg: cfg, log: baseLog.With("provider", types.PlatformMITxOnline), client: http.DefaultClient}
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
		courses = append(courses, c.transformCourse(raw))
	}
	return courses
}

// TransformPrograms resolves program membership against the already
// transformed course set so that program children carry full course shapes.
func (c *Client) TransformPrograms(raws []RawProgram, courses []canonical.Course) []canonical.Program {
	byID := make(map[string]canonical.Course, len(courses))
	for _, course := range courses {
		byID[course.CourseID] = course
	}

	programs := make([]canonical.Program, 0, len(raws))
	for _, raw := range raws {
		if strings.TrimSpace(raw.ReadableID) == "" {
			continue
		}
		program := canonical.Program{
			ProgramID:        raw.ReadableID,
			Platform:         types.PlatformMITxOnline,
			Title:            raw.Title,
			ShortDescription: raw.Page.Description,
			ImageSrc:         raw.Page.FeatureImageSrc,
			URL:              absoluteURL(c.cfg.BaseURL, raw.Page.PageURL),
			Published:        raw.Live && raw.Page.Live,
			Topics:           transformTopics(raw.Topics),
			OfferedBy:        []canonical.OfferedBy{{Name: offeredBy}},
		}
		program.Runs = append(program.Runs, canonical.Run{
			RunID:     raw.ReadableID,
			Platform:  types.PlatformMITxOnline,
			Title:     raw.Title,
			StartDate: parseTime(raw.StartDate),
			EndDate:   parseTime(raw.EndDate),
			Published: program.Published,
			OfferedBy: []canonical.OfferedBy{{Name: offeredBy}},
		})
		for _, courseID := range raw.Courses {
			course, ok := byID[courseID]
			if !ok {
				c.log.Warn("program references unknown course", "program_id", raw.ReadableID, "course_id", courseID)
				continue
			}
			course.ProgramName = raw.Title
			program.Courses = append(program.Courses, course)
		}
		programs = append(programs, program)
	}
	return programs
}

func (c *Client) transformCourse(raw RawCourse) canonical.Course {
	course := canonical.Course{
		CourseID:         raw.ReadableID,
		Platform:         types.PlatformMITxOnline,
		Title:            raw.Title,
		ShortDescription: raw.Page.Description,
		ImageSrc:         raw.Page.FeatureImageSrc,
		URL:              absoluteURL(c.cfg.BaseURL, raw.Page.PageURL),
		Topics:           transformTopics(raw.Topics),
		OfferedBy:        []canonical.OfferedBy{{Name: offeredBy}},
	}
	for _, rawRun := range raw.Runs {
		if strings.TrimSpace(rawRun.CoursewareID) == "" {
			continue
		}
		run := canonical.Run{
			RunID:           rawRun.CoursewareID,
			Platform:        types.PlatformMITxOnline,
			Title:           rawRun.Title,
			URL:             absoluteURL(c.cfg.BaseURL, rawRun.URL),
			StartDate:       parseTime(rawRun.StartDate),
			EndDate:         parseTime(rawRun.EndDate),
			EnrollmentStart: parseTime(rawRun.EnrollmentStart),
			EnrollmentEnd:   parseTime(rawRun.EnrollmentEnd),
			Published:       rawRun.Live && raw.Page.Live,
			OfferedBy:       []canonical.OfferedBy{{Name: offeredBy}},
		}
		if rawRun.IsSelfPaced {
			run.Availability = types.AvailabilityCurrent
		}
		for _, product := range rawRun.Products {
			run.Prices = append(run.Prices, canonical.Price{Price: product.Price})
		}
		for _, instructor := range rawRun.Instructors {
			name := strings.TrimSpace(instructor.Name)
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

func absoluteURL(base, path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
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
