// Package podcast ingests podcast RSS feeds. Feeds are plain RSS 2.0 with the
// usual itunes extensions; one feed maps to one Podcast and its items to
// episodes.
package podcast

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openlearn/catalog-backend/internal/canonical"
	"github.com/openlearn/catalog-backend/internal/platform/envutil"
	"github.com/openlearn/catalog-backend/internal/platform/httpx"
	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/types"
)

type Config struct {
	// FeedURLs is the comma-separated PODCAST_FEED_URLS list.
	FeedURLs []string
	// OfferedBy applies to every feed; per-feed attribution is not modeled.
	OfferedBy string
}

func ConfigFromEnv() Config {
	cfg := Config{OfferedBy: envutil.Str("PODCAST_OFFERED_BY", "OCW")}
	for _, u := range strings.Split(envutil.Str("PODCAST_FEED_URLS", ""), ",") {
		u = strings.TrimSpace(u)
		if u != "" {
			cfg.FeedURLs = append(cfg.FeedURLs, u)
		}
	}
	return cfg
}

type Feed struct {
	// SourceURL is the feed URL the document was fetched from; it doubles as
	// the podcast natural key.
	SourceURL string
	Channel   Channel `xml:"channel"`
}

type Channel struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Image       Image  `xml:"image"`
	ItunesImage IURL   `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd image"`
	Items       []Item `xml:"item"`
}

type Image struct {
	URL string `xml:"url"`
}

type IURL struct {
	Href string `xml:"href,attr"`
}

type Item struct {
	GUID        string    `xml:"guid"`
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	PubDate     string    `xml:"pubDate"`
	Duration    string    `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd duration"`
	ItunesImage IURL      `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd image"`
	Enclosure   Enclosure `xml:"enclosure"`
}

type Enclosure struct {
	URL string `xml:"url,attr"`
}

type Client struct {
	cfg    Config
	log    *logger.Logger
	client *http.Client
}

func New(cfg Config, baseLog *logger.Logger) *Client {
	return &Client{cfg: cfg, log: baseLog.With("provider", types.PlatformPodcast), client: http.DefaultClient}
}

// Extract fetches every configured feed. A feed that fails to fetch or parse
// is logged and skipped; the remaining feeds still load.
func (c *Client) Extract(ctx context.Context) ([]Feed, error) {
	if len(c.cfg.FeedURLs) == 0 {
		c.log.Info("no feeds configured; skipping extract")
		return nil, nil
	}
	var feeds []Feed
	for _, url := range c.cfg.FeedURLs {
		feed, err := c.fetchFeed(ctx, url)
		if err != nil {
			c.log.Error("failed to fetch podcast feed", "url", url, "error", err)
			continue
		}
		feeds = append(feeds, feed)
	}
	return feeds, nil
}

func (c *Client) fetchFeed(ctx context.Context, url string) (Feed, error) {
	body, err := httpx.DoWithRetry(ctx, c.client, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}, httpx.DefaultRetryConfig())
	if err != nil {
		return Feed{}, err
	}
	var feed Feed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return Feed{}, fmt.Errorf("parsing feed: %w", err)
	}
	feed.SourceURL = url
	return feed, nil
}

func (c *Client) Transform(feeds []Feed) []canonical.Podcast {
	podcasts := make([]canonical.Podcast, 0, len(feeds))
	for _, feed := range feeds {
		ch := feed.Channel
		podcast := canonical.Podcast{
			PodcastID:        feed.SourceURL,
			Platform:         types.PlatformPodcast,
			Title:            ch.Title,
			ShortDescription: ch.Description,
			ImageSrc:         firstNonEmpty(ch.ItunesImage.Href, ch.Image.URL),
			URL:              ch.Link,
			RSSURL:           feed.SourceURL,
			Published:        true,
			OfferedBy:        []canonical.OfferedBy{{Name: c.cfg.OfferedBy}},
		}
		for _, item := range ch.Items {
			episodeID := strings.TrimSpace(item.GUID)
			if episodeID == "" {
				episodeID = strings.TrimSpace(item.Enclosure.URL)
			}
			if episodeID == "" {
				c.log.Warn("episode without guid or enclosure; dropping", "feed", feed.SourceURL, "title", item.Title)
				continue
			}
			podcast.Episodes = append(podcast.Episodes, canonical.PodcastEpisode{
				EpisodeID:        episodeID,
				Platform:         types.PlatformPodcast,
				Title:            item.Title,
				ShortDescription: item.Description,
				ImageSrc:         firstNonEmpty(item.ItunesImage.Href, podcast.ImageSrc),
				URL:              item.Enclosure.URL,
				EpisodeLink:      item.Link,
				Duration:         item.Duration,
				LastModified:     parsePubDate(item.PubDate),
				Published:        true,
				OfferedBy:        podcast.OfferedBy,
			})
		}
		podcasts = append(podcasts, podcast)
	}
	return podcasts
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parsePubDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
