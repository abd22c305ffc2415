package scrape

import (
	"github.com/openlearn/catalog-backend/internal/platform/envutil"
	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/types"
)

func NewCSAIL(log *logger.Logger) *Scraper {
	return newScraper(site{
		Platform:  types.PlatformCSAIL,
		OfferedBy: "CSAIL",
		ListURL:   envutil.Str("CSAIL_BASE_URL", ""),
		Selectors: selectors{
			Link:        "div.views-row a[href]",
			Title:       "h1.title",
			Description: "div.field-name-body",
			Image:       "div.field-name-field-image img",
			Dates:       "div.field-name-field-course-dates",
			Price:       "div.field-name-field-course-fee",
			Topic:       "div.field-name-field-topics a",
			Instructor:  "div.field-name-field-instructors a",
		},
	}, log)
}

func NewSEE(log *logger.Logger) *Scraper {
	return newScraper(site{
		Platform:  types.PlatformSEE,
		OfferedBy: "Sloan",
		ListURL:   envutil.Str("SEE_BASE_URL", ""),
		Selectors: selectors{
			Link:        "ul.course-index-list li a[href]",
			Title:       "h1.course-title",
			Description: "div.course-description",
			Image:       "div.course-hero img",
			Dates:       "ul.course-dates li",
			Price:       "div.course-tuition",
			Topic:       "div.course-topics a",
			Instructor:  "div.faculty-card h3",
		},
	}, log)
}

func NewMITPE(log *logger.Logger) *Scraper {
	return newScraper(site{
		Platform:  types.PlatformMITPE,
		OfferedBy: "Professional Education",
		ListURL:   envutil.Str("MITPE_BASE_URL", ""),
		Selectors: selectors{
			Link:        "div.course-listing a.course-link[href]",
			Title:       "h1.page-title",
			Description: "div.course-overview",
			Image:       "div.course-banner img",
			Dates:       "span.course-date",
			Price:       "span.course-fee",
			Topic:       "div.course-tags a",
			Instructor:  "div.course-faculty li",
		},
	}, log)
}
