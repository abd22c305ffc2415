// Package openedx implements the shared protocol every OpenEdX-family
// provider speaks: OAuth2 client-credentials token, paginated catalog walk,
// per-course/per-run field mapping. Individual platforms (MITx, the Open
// Learning Library) differ only in configuration and a thin filter/remap.
package openedx

import (
	"context"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/openlearn/catalog-backend/internal/canonical"
	"github.com/openlearn/catalog-backend/internal/platform/httpx"
	"github.com/openlearn/catalog-backend/internal/platform/logger"
)

type Config struct {
	// PlatformName becomes the natural-key platform of every produced course.
	PlatformName string
	OfferedBy    string

	ClientID     string
	ClientSecret string
	TokenURL     string
	APIURL       string
	BaseURL      string
	AltBaseURL   string

	// CourseFilter drops raw courses before transform; nil keeps everything.
	CourseFilter func(RawCourse) bool
	// TopicRemap maps one source subject to canonical topic names; nil keeps
	// the subject as-is.
	TopicRemap func(string) []string
}

// Configured reports whether the provider has the credentials it needs. An
// unconfigured provider is a deliberate "feature disabled" signal.
func (c Config) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.TokenURL != "" && c.APIURL != ""
}

type RawCourse struct {
	Key              string     `json:"key"`
	Title            string     `json:"title"`
	ShortDescription string     `json:"short_description"`
	FullDescription  string     `json:"full_description"`
	Image            RawImage   `json:"image"`
	Subjects         []RawNamed `json:"subjects"`
	Owners           []RawOwner `json:"owners"`
	CourseRuns       []RawRun   `json:"course_runs"`
}

type RawRun struct {
	Key              string     `json:"key"`
	Title            string     `json:"title"`
	ShortDescription string     `json:"short_description"`
	FullDescription  string     `json:"full_description"`
	Start            string     `json:"start"`
	End              string     `json:"end"`
	EnrollmentStart  string     `json:"enrollment_start"`
	EnrollmentEnd    string     `json:"enrollment_end"`
	Status           string     `json:"status"`
	Availability     string     `json:"availability"`
	Pacing           string     `json:"pacing_type"`
	MarketingURL     string     `json:"marketing_url"`
	Image            RawImage   `json:"image"`
	Languages        []string   `json:"content_language,omitempty"`
	Seats            []RawSeat  `json:"seats"`
	Staff            []RawStaff `json:"staff"`
	Level            string     `json:"level_type"`
}

type RawImage struct {
	Src string `json:"src"`
}

type RawNamed struct {
	Name string `json:"name"`
}

type RawOwner struct {
	Key string `json:"key"`
}

type RawSeat struct {
	Type            string `json:"type"`
	Price           string `json:"price"`
	UpgradeDeadline string `json:"upgrade_deadline"`
}

type RawStaff struct {
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

type catalogPage struct {
	Next    string      `json:"next"`
	Results []RawCourse `json:"results"`
}

type Client struct {
	cfg Config
	log *logger.Logger
}

func NewClient(cfg Config, baseLog *logger.Logger) *Client {
	return &Client{cfg: cfg, log: baseLog.With("provider", cfg.PlatformName)}
}

// Extract walks the paginated catalog. Absent configuration yields an empty
// collection, never an error.
func (c *Client) Extract(ctx context.Context) ([]RawCourse, error) {
	if !c.cfg.Configured() {
		c.log.Info("provider not configured; skipping extract")
		return nil, nil
	}

	cc := clientcredentials.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		TokenURL:     c.cfg.TokenURL,
	}
	httpClient := cc.Client(ctx)

	var all []RawCourse
	url := c.cfg.APIURL
	for url != "" {
		var page catalogPage
		if err := httpx.GetJSON(ctx, httpClient, url, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Results...)
		url = page.Next
	}
	return all, nil
}

// Transform maps raw catalog courses into canonical shape. It is a pure
// function of its input.
func (c *Client) Transform(raws []RawCourse) []canonical.Course {
	courses := make([]canonical.Course, 0, len(raws))
	for _, raw := range raws {
		if strings.TrimSpace(raw.Key) == "" {
			continue
		}
		if c.cfg.CourseFilter != nil && !c.cfg.CourseFilter(raw) {
			continue
		}
		courses = append(courses, c.transformCourse(raw))
	}
	return courses
}

func (c *Client) transformCourse(raw RawCourse) canonical.Course {
	course := canonical.Course{
		CourseID:         raw.Key,
		Platform:         c.cfg.PlatformName,
		Title:            raw.Title,
		ShortDescription: raw.ShortDescription,
		FullDescription:  raw.FullDescription,
		ImageSrc:         raw.Image.Src,
		URL:              courseURL(c.cfg.BaseURL, c.cfg.AltBaseURL, raw),
		Published:        false,
		Topics:           c.remapTopics(raw.Subjects),
		OfferedBy:        []canonical.OfferedBy{{Name: c.cfg.OfferedBy}},
	}
	for _, rawRun := range raw.CourseRuns {
		run := c.transformRun(rawRun)
		if run.RunID == "" {
			continue
		}
		course.Runs = append(course.Runs, run)
		if run.Published {
			course.Published = true
		}
	}
	return course
}

func (c *Client) transformRun(raw RawRun) canonical.Run {
	run := canonical.Run{
		RunID:            raw.Key,
		Platform:         c.cfg.PlatformName,
		Title:            raw.Title,
		ShortDescription: raw.ShortDescription,
		FullDescription:  raw.FullDescription,
		ImageSrc:         raw.Image.Src,
		URL:              raw.MarketingURL,
		Level:            raw.Level,
		Availability:     raw.Availability,
		StartDate:        parseTime(raw.Start),
		EndDate:          parseTime(raw.End),
		EnrollmentStart:  parseTime(raw.EnrollmentStart),
		EnrollmentEnd:    parseTime(raw.EnrollmentEnd),
		Published:        strings.EqualFold(raw.Status, "published"),
		OfferedBy:        []canonical.OfferedBy{{Name: c.cfg.OfferedBy}},
	}
	if len(raw.Languages) > 0 {
		run.Language = raw.Languages[0]
	}
	for _, seat := range raw.Seats {
		price, err := strconv.ParseFloat(strings.TrimSpace(seat.Price), 64)
		if err != nil {
			continue
		}
		run.Prices = append(run.Prices, canonical.Price{
			Price:           price,
			Mode:            seat.Type,
			UpgradeDeadline: parseTime(seat.UpgradeDeadline),
		})
	}
	for _, staff := range raw.Staff {
		if staff.GivenName == "" && staff.FamilyName == "" {
			continue
		}
		run.Instructors = append(run.Instructors, canonical.Instructor{
			FirstName: staff.GivenName,
			LastName:  staff.FamilyName,
			FullName:  strings.TrimSpace(staff.GivenName + " " + staff.FamilyName),
		})
	}
	return run
}

func (c *Client) remapTopics(subjects []RawNamed) []canonical.Topic {
	var topics []canonical.Topic
	seen := map[string]bool{}
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		topics = append(topics, canonical.Topic{Name: name})
	}
	for _, subject := range subjects {
		if c.cfg.TopicRemap == nil {
			add(subject.Name)
			continue
		}
		for _, mapped := range c.cfg.TopicRemap(subject.Name) {
			add(mapped)
		}
	}
	return topics
}

func courseURL(baseURL, altBaseURL string, raw RawCourse) string {
	for _, run := range raw.CourseRuns {
		if run.MarketingURL != "" {
			return run.MarketingURL
		}
	}
	if baseURL != "" {
		return strings.TrimRight(baseURL, "/") + "/courses/" + raw.Key
	}
	if altBaseURL != "" {
		return strings.TrimRight(altBaseURL, "/") + "/courses/" + raw.Key
	}
	return ""
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
