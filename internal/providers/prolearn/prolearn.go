// Package prolearn ingests the Professional Learning catalog. The upstream is
// a Drupal search API spoken over a single GraphQL POST; one query returns
// every published catalog node with parallel start/end timestamp arrays, one
// pair per scheduled session.
package prolearn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/openlearn/catalog-backend/internal/canonical"
	"github.com/openlearn/catalog-backend/internal/platform/envutil"
	"github.com/openlearn/catalog-backend/internal/platform/httpx"
	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/types"
)

const searchQuery = `
query {
  searchAPISearch(
    index_id: "default_solr_index"
    range: {offset: 0, limit: 999}
    condition_group: {
      conjunction: AND
      groups: [{conjunction: AND, conditions: [{name: "status", value: "1"}]}]
    }
  ) {
    documents {
      ... on DefaultSolrIndexDoc {
        nid
        title
        body
        url
        course_application_url
        field_course_or_program
        department
        topic
        image_src: field_featured_image_url
        price: field_price
        start_value: field_course_dates_value
        end_value: field_course_dates_end_value
      }
    }
  }
}
`

type Config struct {
	APIURL  string
	BaseURL string
}

func ConfigFromEnv() Config {
	return Config{
		APIURL:  envutil.Str("PROLEARN_API_URL", ""),
		BaseURL: envutil.Str("PROLEARN_BASE_URL", "https://professional.mit.edu"),
	}
}

type RawDocument struct {
	NID             int      `json:"nid"`
	Title           string   `json:"title"`
	Body            string   `json:"body"`
	URL             string   `json:"url"`
	ApplicationURL  string   `json:"course_application_url"`
	CourseOrProgram string   `json:"field_course_or_program"`
	Department      string   `json:"department"`
	Topics          []string `json:"topic"`
	ImageSrc        string   `json:"image_src"`
	Price           string   `json:"price"`
	StartValues     []int64  `json:"start_value"`
	EndValues       []int64  `json:"end_value"`
}

type searchResponse struct {
	Data struct {
		SearchAPISearch struct {
			Documents []RawDocument `json:"documents"`
		} `json:"searchAPISearch"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type Client struct {
	cfg    Config
	log    *logger.Logger
	client *http.Client
}

func New(cfg Config, baseLog *logger.Logger) *Client {
	return &Client{cfg: cfg, log: baseLog.With("provider", types.PlatformProlearn), client: http.DefaultClient}
}

func (c *Client) Extract(ctx context.Context) ([]RawDocument, error) {
	if c.cfg.APIURL == "" {
		c.log.Info("api not configured; skipping extract")
		return nil, nil
	}

	payload, err := json.Marshal(map[string]string{"query": searchQuery})
	if err != nil {
		return nil, err
	}
	body, err := httpx.DoWithRetry(ctx, c.client, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	}, httpx.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding prolearn response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("prolearn query failed: %s", resp.Errors[0].Message)
	}
	return resp.Data.SearchAPISearch.Documents, nil
}

// TransformCourses keeps only documents flagged as courses; TransformPrograms
// the rest. Both share the session-array expansion into runs.
func (c *Client) TransformCourses(raws []RawDocument) []canonical.Course {
	var courses []canonical.Course
	for _, raw := range raws {
		if !strings.EqualFold(raw.CourseOrProgram, "course") || raw.NID == 0 {
			continue
		}
		courses = append(courses, canonical.Course{
			CourseID:         strconv.Itoa(raw.NID),
			Platform:         types.PlatformProlearn,
			Title:            raw.Title,
			ShortDescription: raw.Body,
			ImageSrc:         raw.ImageSrc,
			URL:              c.resourceURL(raw),
			Department:       raw.Department,
			Published:        true,
			Topics:           transformTopics(raw.Topics),
			OfferedBy:        []canonical.OfferedBy{{Name: offeredByFor(raw.Department)}},
			Runs:             c.transformRuns(raw),
		})
	}
	return courses
}

func (c *Client) TransformPrograms(raws []RawDocument) []canonical.Program {
	var programs []canonical.Program
	for _, raw := range raws {
		if !strings.EqualFold(raw.CourseOrProgram, "program") || raw.NID == 0 {
			continue
		}
		programs = append(programs, canonical.Program{
			ProgramID:        strconv.Itoa(raw.NID),
			Platform:         types.PlatformProlearn,
			Title:            raw.Title,
			ShortDescription: raw.Body,
			ImageSrc:         raw.ImageSrc,
			URL:              c.resourceURL(raw),
			Published:        true,
			Topics:           transformTopics(raw.Topics),
			OfferedBy:        []canonical.OfferedBy{{Name: offeredByFor(raw.Department)}},
			Runs:             c.transformRuns(raw),
		})
	}
	return programs
}

// transformRuns pairs start_value[i] with end_value[i]; a session with no
// matching end date is open-ended, not dropped.
func (c *Client) transformRuns(raw RawDocument) []canonical.Run {
	var runs []canonical.Run
	for i, startUnix := range raw.StartValues {
		start := unixTime(startUnix)
		var end *time.Time
		if i < len(raw.EndValues) {
			end = unixTime(raw.EndValues[i])
		}
		run := canonical.Run{
			RunID:     fmt.Sprintf("%d_%d", raw.NID, startUnix),
			Platform:  types.PlatformProlearn,
			Title:     raw.Title,
			URL:       c.resourceURL(raw),
			StartDate: start,
			EndDate:   end,
			Published: true,
			OfferedBy: []canonical.OfferedBy{{Name: offeredByFor(raw.Department)}},
		}
		if price := parsePrice(raw.Price); price != nil {
			run.Prices = []canonical.Price{{Price: *price}}
		}
		runs = append(runs, run)
	}
	return runs
}

func (c *Client) resourceURL(raw RawDocument) string {
	if raw.ApplicationURL != "" {
		return raw.ApplicationURL
	}
	if strings.HasPrefix(raw.URL, "http://") || strings.HasPrefix(raw.URL, "https://") {
		return raw.URL
	}
	if raw.URL == "" {
		return ""
	}
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(raw.URL, "/")
}

func offeredByFor(department string) string {
	if strings.Contains(strings.ToLower(department), "sloan") {
		return "Sloan"
	}
	return "Professional Education"
}

func transformTopics(names []string) []canonical.Topic {
	var topics []canonical.Topic
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		topics = append(topics, canonical.Topic{Name: name})
	}
	return topics
}

// parsePrice handles formatted price strings such as "$4,500".
func parsePrice(s string) *float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func unixTime(v int64) *time.Time {
	if v <= 0 {
		return nil
	}
	t := time.Unix(v, 0).UTC()
	return &t
}
