// Package scrape ingests the catalogs that have no API: the CSAIL professional
// programs site, Sloan Executive Education, and MIT Professional Education.
// Each site is a listing page of detail links plus a set of DOM selectors; the
// crawl mechanics are shared.
package scrape

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/gocolly/colly/v2"

	"github.com/openlearn/catalog-backend/internal/canonical"
	"github.com/openlearn/catalog-backend/internal/platform/logger"
)

// RawCourse is the unparsed text pulled off one detail page.
type RawCourse struct {
	URL         string
	Title       string
	Description string
	ImageSrc    string
	Dates       []string
	Price       string
	Topics      []string
	Instructors []string
}

// selectors maps the shared crawl to one site's DOM.
type selectors struct {
	Link        string
	Title       string
	Description string
	Image       string
	Dates       string
	Price       string
	Topic       string
	Instructor  string
}

type site struct {
	Platform  string
	OfferedBy string
	ListURL   string
	Selectors selectors
}

type Scraper struct {
	site site
	log  *logger.Logger
}

func newScraper(site site, baseLog *logger.Logger) *Scraper {
	return &Scraper{site: site, log: baseLog.With("provider", site.Platform)}
}

// Extract crawls the listing page and every linked detail page. A site with no
// configured listing URL extracts nothing.
func (s *Scraper) Extract(ctx context.Context) ([]RawCourse, error) {
	if s.site.ListURL == "" {
		s.log.Info("list url not configured; skipping extract")
		return nil, nil
	}

	var (
		mu   sync.Mutex
		raws []RawCourse
	)

	list := colly.NewCollector()
	detail := list.Clone()

	abort := func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	}
	list.OnRequest(abort)
	detail.OnRequest(abort)

	list.OnHTML(s.site.Selectors.Link, func(e *colly.HTMLElement) {
		href := e.Request.AbsoluteURL(e.Attr("href"))
		if href == "" {
			return
		}
		if err := detail.Visit(href); err != nil {
			s.log.Warn("failed to visit detail page", "url", href, "error", err)
		}
	})

	detail.OnHTML("html", func(e *colly.HTMLElement) {
		raw := RawCourse{
			URL:         e.Request.URL.String(),
			Title:       text(e, s.site.Selectors.Title),
			Description: text(e, s.site.Selectors.Description),
			ImageSrc:    e.Request.AbsoluteURL(attr(e, s.site.Selectors.Image, "src")),
			Price:       text(e, s.site.Selectors.Price),
			Dates:       texts(e, s.site.Selectors.Dates),
			Topics:      texts(e, s.site.Selectors.Topic),
			Instructors: texts(e, s.site.Selectors.Instructor),
		}
		if raw.Title == "" {
			s.log.Warn("detail page without a title; dropping", "url", raw.URL)
			return
		}
		mu.Lock()
		raws = append(raws, raw)
		mu.Unlock()
	})

	var crawlErr error
	list.OnError(func(r *colly.Response, err error) {
		crawlErr = err
	})
	detail.OnError(func(r *colly.Response, err error) {
		s.log.Warn("detail page fetch failed", "url", r.Request.URL.String(), "error", err)
	})

	if err := list.Visit(s.site.ListURL); err != nil {
		return nil, err
	}
	list.Wait()
	detail.Wait()
	if crawlErr != nil {
		return nil, crawlErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return raws, nil
}

// Transform maps scraped pages into canonical courses. Each parseable date
// range becomes one run; a course with no parseable dates still gets a single
// undated run so that it remains loadable.
func (s *Scraper) Transform(raws []RawCourse) []canonical.Course {
	courses := make([]canonical.Course, 0, len(raws))
	for _, raw := range raws {
		course := canonical.Course{
			CourseID:         courseIDFromURL(raw.URL),
			Platform:         s.site.Platform,
			Title:            raw.Title,
			ShortDescription: raw.Description,
			ImageSrc:         raw.ImageSrc,
			URL:              raw.URL,
			Published:        true,
			OfferedBy:        []canonical.OfferedBy{{Name: s.site.OfferedBy}},
		}
		if course.CourseID == "" {
			continue
		}
		for _, topic := range raw.Topics {
			course.Topics = append(course.Topics, canonical.Topic{Name: topic})
		}

		price := parsePrice(raw.Price)
		instructors := transformInstructors(raw.Instructors)
		for _, dates := range raw.Dates {
			start, end := ParseDateRange(dates)
			if start == nil {
				continue
			}
			run := canonical.Run{
				RunID:       course.CourseID + "_" + start.Format("20060102"),
				Platform:    s.site.Platform,
				Title:       raw.Title,
				URL:         raw.URL,
				StartDate:   start,
				EndDate:     end,
				Published:   true,
				Instructors: instructors,
				OfferedBy:   course.OfferedBy,
			}
			if price != nil {
				run.Prices = []canonical.Price{{Price: *price}}
			}
			course.Runs = append(course.Runs, run)
		}
		if len(course.Runs) == 0 {
			run := canonical.Run{
				RunID:       course.CourseID,
				Platform:    s.site.Platform,
				Title:       raw.Title,
				URL:         raw.URL,
				Published:   true,
				Instructors: instructors,
				OfferedBy:   course.OfferedBy,
			}
			if price != nil {
				run.Prices = []canonical.Price{{Price: *price}}
			}
			course.Runs = append(course.Runs, run)
		}
		courses = append(courses, course)
	}
	return courses
}

func text(e *colly.HTMLElement, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(e.ChildText(selector))
}

func texts(e *colly.HTMLElement, selector string) []string {
	if selector == "" {
		return nil
	}
	var out []string
	for _, v := range e.ChildTexts(selector) {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func attr(e *colly.HTMLElement, selector, name string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(e.ChildAttr(selector, name))
}

// courseIDFromURL uses the last path segment as the stable provider id.
func courseIDFromURL(url string) string {
	url = strings.TrimRight(url, "/")
	if i := strings.Index(url, "?"); i >= 0 {
		url = url[:i]
	}
	if i := strings.LastIndex(url, "/"); i >= 0 {
		url = url[i+1:]
	}
	return url
}

func transformInstructors(names []string) []canonical.Instructor {
	var out []canonical.Instructor
	for _, name := range names {
		parts := strings.Fields(name)
		if len(parts) == 0 {
			continue
		}
		instructor := canonical.Instructor{FullName: name, FirstName: parts[0]}
		if len(parts) > 1 {
			instructor.FirstName = strings.Join(parts[:len(parts)-1], " ")
			instructor.LastName = parts[len(parts)-1]
		}
		out = append(out, instructor)
	}
	return out
}

var priceAmount = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)

// parsePrice pulls the first numeric amount out of a formatted fee string such
// as "$4,500" or "Fee: $2,950 USD".
func parsePrice(s string) *float64 {
	s = strings.ReplaceAll(s, ",", "")
	m := priceAmount.FindString(s)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &v
}
