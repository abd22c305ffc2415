package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openlearn/catalog-backend/internal/platform/logger"
)

const listPage = `<html><body>
<div class="views-row"><a href="/course/secure-systems">Secure Systems</a></div>
<div class="views-row"><a href="/course/ml-foundations">ML Foundations</a></div>
</body></html>`

const securePage = `<html><body>
<h1 class="title">Designing Secure Systems</h1>
<div class="field-name-body">Threat modeling for practitioners.</div>
<div class="field-name-field-course-dates">Jun 18-19, 2020</div>
<div class="field-name-field-course-dates">Dec 21, 2020-Jan 10, 2021</div>
<div class="field-name-field-course-fee">$3,200</div>
<div class="field-name-field-topics"><a>Security</a></div>
<div class="field-name-field-instructors"><a>Ada Lovelace</a></div>
</body></html>`

const mlPage = `<html><body>
<h1 class="title">ML Foundations</h1>
<div class="field-name-body">An introduction.</div>
<div class="field-name-field-course-dates">Dates to be announced</div>
</body></html>`

func newTestScraper(t *testing.T) (*Scraper, *httptest.Server) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Write([]byte(listPage))
		case "/course/secure-systems":
			w.Write([]byte(securePage))
		case "/course/ml-foundations":
			w.Write([]byte(mlPage))
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	scraper := newScraper(site{
		Platform:  "csail",
		OfferedBy: "CSAIL",
		ListURL:   srv.URL + "/",
		Selectors: selectors{
			Link:        "div.views-row a[href]",
			Title:       "h1.title",
			Description: "div.field-name-body",
			Dates:       "div.field-name-field-course-dates",
			Price:       "div.field-name-field-course-fee",
			Topic:       "div.field-name-field-topics a",
			Instructor:  "div.field-name-field-instructors a",
		},
	}, logger.NewNop())
	return scraper, srv
}

func TestScraperExtractTransform(t *testing.T) {
	scraper, _ := newTestScraper(t)

	raws, err := scraper.Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("raws = %d, want 2", len(raws))
	}

	courses := scraper.Transform(raws)
	if len(courses) != 2 {
		t.Fatalf("courses = %d, want 2", len(courses))
	}

	byID := map[string]int{}
	for i, course := range courses {
		byID[course.CourseID] = i
	}
	secure := courses[byID["secure-systems"]]
	if secure.Title != "Designing Secure Systems" {
		t.Errorf("title = %q", secure.Title)
	}
	if len(secure.Runs) != 2 {
		t.Fatalf("secure runs = %d, want 2", len(secure.Runs))
	}
	wantStart := time.Date(2020, time.June, 18, 0, 0, 0, 0, time.UTC)
	if secure.Runs[0].StartDate == nil || !secure.Runs[0].StartDate.Equal(wantStart) {
		t.Errorf("run start = %v, want %v", secure.Runs[0].StartDate, wantStart)
	}
	if len(secure.Runs[0].Prices) != 1 || secure.Runs[0].Prices[0].Price != 3200 {
		t.Errorf("run prices = %+v, want 3200", secure.Runs[0].Prices)
	}
	if len(secure.Runs[0].Instructors) != 1 || secure.Runs[0].Instructors[0].LastName != "Lovelace" {
		t.Errorf("instructors = %+v", secure.Runs[0].Instructors)
	}

	// Unparseable dates still yield one undated run.
	ml := courses[byID["ml-foundations"]]
	if len(ml.Runs) != 1 {
		t.Fatalf("ml runs = %d, want 1", len(ml.Runs))
	}
	if ml.Runs[0].StartDate != nil {
		t.Errorf("ml run start = %v, want nil", ml.Runs[0].StartDate)
	}
}

func TestScraperUnconfigured(t *testing.T) {
	scraper := newScraper(site{Platform: "csail"}, logger.NewNop())
	raws, err := scraper.Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(raws) != 0 {
		t.Errorf("raws = %d, want 0", len(raws))
	}
}
