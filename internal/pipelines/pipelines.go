// Package pipelines composes extract, transform, and load into one callable
// per provider. The temporal worker and the sync CLI both go through here.
package pipelines

import (
	"context"
	"os"
	"time"

	"github.com/openlearn/catalog-backend/internal/loaders"
	"github.com/openlearn/catalog-backend/internal/platform/envutil"
	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/providers"
	"github.com/openlearn/catalog-backend/internal/providers/mitxonline"
	"github.com/openlearn/catalog-backend/internal/providers/openedx"
	"github.com/openlearn/catalog-backend/internal/providers/podcast"
	"github.com/openlearn/catalog-backend/internal/providers/prolearn"
	"github.com/openlearn/catalog-backend/internal/providers/scrape"
	"github.com/openlearn/catalog-backend/internal/providers/xpro"
	"github.com/openlearn/catalog-backend/internal/providers/youtube"
	"github.com/openlearn/catalog-backend/internal/types"
)

// Stats summarizes one provider sync.
type Stats struct {
	Provider string        `json:"provider"`
	Courses  int           `json:"courses"`
	Programs int           `json:"programs"`
	Channels int           `json:"channels"`
	Podcasts int           `json:"podcasts"`
	LoadErrs int           `json:"load_errors"`
	Duration time.Duration `json:"duration"`
}

type Service struct {
	log      *logger.Logger
	loader   *loaders.Service
	registry *providers.Registry
}

func New(loader *loaders.Service, registry *providers.Registry, baseLog *logger.Logger) *Service {
	return &Service{
		log:      baseLog.With("service", "Pipelines"),
		loader:   loader,
		registry: registry,
	}
}

func (s *Service) Providers() []string {
	return s.registry.Names()
}

// Run executes one provider's pipeline end to end. Provider boundary failures
// were already absorbed by the registry; load failures are counted per record
// and never abort the rest of the batch.
func (s *Service) Run(ctx context.Context, name string) (Stats, error) {
	started := time.Now()
	stats := Stats{Provider: name}

	results, err := s.registry.Run(ctx, name)
	if err != nil {
		return stats, err
	}

	for i := range results.Courses {
		if _, err := s.loader.LoadCourse(ctx, &results.Courses[i]); err != nil {
			stats.LoadErrs++
			s.log.Error("failed to load course",
				"provider", name, "course_id", results.Courses[i].CourseID, "error", err)
			continue
		}
		stats.Courses++
	}
	for i := range results.Programs {
		if _, err := s.loader.LoadProgram(ctx, &results.Programs[i]); err != nil {
			stats.LoadErrs++
			s.log.Error("failed to load program",
				"provider", name, "program_id", results.Programs[i].ProgramID, "error", err)
			continue
		}
		stats.Programs++
	}
	for i := range results.Channels {
		if _, err := s.loader.LoadVideoChannel(ctx, &results.Channels[i]); err != nil {
			stats.LoadErrs++
			s.log.Error("failed to load video channel",
				"provider", name, "channel_id", results.Channels[i].ChannelID, "error", err)
			continue
		}
		stats.Channels++
	}
	for i := range results.Podcasts {
		if _, err := s.loader.LoadPodcast(ctx, &results.Podcasts[i]); err != nil {
			stats.LoadErrs++
			s.log.Error("failed to load podcast",
				"provider", name, "podcast_id", results.Podcasts[i].PodcastID, "error", err)
			continue
		}
		stats.Podcasts++
	}

	stats.Duration = time.Since(started)
	s.log.Info("provider sync finished",
		"provider", name,
		"courses", stats.Courses,
		"programs", stats.Programs,
		"channels", stats.Channels,
		"podcasts", stats.Podcasts,
		"load_errors", stats.LoadErrs,
		"duration", stats.Duration)
	return stats, nil
}

// BuildRegistry wires every catalog provider. Providers with absent
// configuration still register; their extract step produces nothing.
func BuildRegistry(ctx context.Context, baseLog *logger.Logger) (*providers.Registry, error) {
	registry := providers.NewRegistry(baseLog)

	mitx := openedx.NewMITx(baseLog, loadCrosswalk(baseLog))
	registry.Register(types.PlatformMITx, func(ctx context.Context) (providers.Results, error) {
		raw, err := mitx.Extract(ctx)
		if err != nil {
			return providers.Results{}, err
		}
		return providers.Results{Courses: mitx.Transform(raw)}, nil
	})

	oll := openedx.NewOLL(baseLog)
	registry.Register(types.PlatformOLL, func(ctx context.Context) (providers.Results, error) {
		raw, err := oll.Extract(ctx)
		if err != nil {
			return providers.Results{}, err
		}
		return providers.Results{Courses: oll.Transform(raw)}, nil
	})

	xproClient := xpro.New(xpro.ConfigFromEnv(), baseLog)
	registry.Register(types.PlatformXPro, func(ctx context.Context) (providers.Results, error) {
		rawCourses, err := xproClient.ExtractCourses(ctx)
		if err != nil {
			return providers.Results{}, err
		}
		rawPrograms, err := xproClient.ExtractPrograms(ctx)
		if err != nil {
			return providers.Results{}, err
		}
		return providers.Results{
			Courses:  xproClient.TransformCourses(rawCourses),
			Programs: xproClient.TransformPrograms(rawPrograms),
		}, nil
	})

	mitxOnline := mitxonline.New(mitxonline.ConfigFromEnv(), baseLog)
	registry.Register(types.PlatformMITxOnline, func(ctx context.Context) (providers.Results, error) {
		rawCourses, err := mitxOnline.ExtractCourses(ctx)
		if err != nil {
			return providers.Results{}, err
		}
		rawPrograms, err := mitxOnline.ExtractPrograms(ctx)
		if err != nil {
			return providers.Results{}, err
		}
		courses := mitxOnline.TransformCourses(rawCourses)
		return providers.Results{
			Courses:  courses,
			Programs: mitxOnline.TransformPrograms(rawPrograms, courses),
		}, nil
	})

	prolearnClient := prolearn.New(prolearn.ConfigFromEnv(), baseLog)
	registry.Register(types.PlatformProlearn, func(ctx context.Context) (providers.Results, error) {
		raw, err := prolearnClient.Extract(ctx)
		if err != nil {
			return providers.Results{}, err
		}
		return providers.Results{
			Courses:  prolearnClient.TransformCourses(raw),
			Programs: prolearnClient.TransformPrograms(raw),
		}, nil
	})

	for name, scraper := range map[string]*scrape.Scraper{
		types.PlatformCSAIL: scrape.NewCSAIL(baseLog),
		types.PlatformSEE:   scrape.NewSEE(baseLog),
		types.PlatformMITPE: scrape.NewMITPE(baseLog),
	} {
		sc := scraper
		registry.Register(name, func(ctx context.Context) (providers.Results, error) {
			raw, err := sc.Extract(ctx)
			if err != nil {
				return providers.Results{}, err
			}
			return providers.Results{Courses: sc.Transform(raw)}, nil
		})
	}

	youtubeClient, err := youtube.New(ctx, youtube.ConfigFromEnv(), baseLog)
	if err != nil {
		return nil, err
	}
	registry.Register(types.PlatformYouTube, func(ctx context.Context) (providers.Results, error) {
		raw, err := youtubeClient.Extract(ctx)
		if err != nil {
			return providers.Results{}, err
		}
		return providers.Results{Channels: youtubeClient.Transform(raw)}, nil
	})

	podcastClient := podcast.New(podcast.ConfigFromEnv(), baseLog)
	registry.Register(types.PlatformPodcast, func(ctx context.Context) (providers.Results, error) {
		raw, err := podcastClient.Extract(ctx)
		if err != nil {
			return providers.Results{}, err
		}
		return providers.Results{Podcasts: podcastClient.Transform(raw)}, nil
	})

	return registry, nil
}

// loadCrosswalk reads the MITx topic crosswalk CSV once at construction. A
// missing file means every MITx topic is dropped, which is loud enough in the
// data to notice, so it only warns.
func loadCrosswalk(log *logger.Logger) *openedx.TopicMap {
	path := envutil.Str("MITX_TOPIC_CROSSWALK_PATH", "")
	if path == "" {
		log.Warn("MITX_TOPIC_CROSSWALK_PATH not set; mitx topics will be dropped")
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		log.Warn("failed to open mitx topic crosswalk", "path", path, "error", err)
		return nil
	}
	defer f.Close()
	tm, err := openedx.LoadTopicMap(f)
	if err != nil {
		log.Warn("failed to parse mitx topic crosswalk", "path", path, "error", err)
		return nil
	}
	return tm
}
