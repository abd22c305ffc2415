package providersync

import (
	"context"
	"time"

	"github.com/openlearn/catalog-backend/internal/ocwsync"
	"github.com/openlearn/catalog-backend/internal/pipelines"
	"github.com/openlearn/catalog-backend/internal/platform/envutil"
	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/types"
)

const ActivityListProviders = "list-providers"

type SyncRequest struct {
	Provider string `json:"provider"`
	Force    bool   `json:"force"`
}

// Activities holds the dependencies the workflow's activities close over. OCW
// is special-cased: its sync goes through the incremental controller rather
// than a plain extract/transform pipeline.
type Activities struct {
	Log       *logger.Logger
	Pipelines *pipelines.Service
	OCW       *ocwsync.Controller
}

func (a *Activities) ListProviders(ctx context.Context) ([]string, error) {
	names := a.Pipelines.Providers()
	if a.OCW != nil {
		names = append(names, types.PlatformOCW)
	}
	return names, nil
}

func (a *Activities) SyncProvider(ctx context.Context, req SyncRequest) (pipelines.Stats, error) {
	if req.Provider == types.PlatformOCW {
		return a.syncOCW(ctx, req)
	}
	return a.Pipelines.Run(ctx, req.Provider)
}

func (a *Activities) syncOCW(ctx context.Context, req SyncRequest) (pipelines.Stats, error) {
	started := time.Now()
	stats := pipelines.Stats{Provider: types.PlatformOCW}

	root := envutil.Str("OCW_COURSE_PREFIX", "courses/")
	prefixes, err := a.OCW.DiscoverPrefixes(ctx, root)
	if err != nil {
		return stats, err
	}
	a.OCW.SyncAll(ctx, prefixes, ocwsync.Options{Force: req.Force})

	stats.Courses = len(prefixes)
	stats.Duration = time.Since(started)
	return stats, nil
}
