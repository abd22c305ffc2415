// Package app wires the full service graph from environment configuration.
// Both binaries (the temporal worker and the one-shot sync CLI) build the same
// graph; optional layers (bucket, text extraction, search, temporal) degrade
// to nil when their configuration is absent.
package app

import (
	"context"
	"fmt"

	temporalsdkclient "go.temporal.io/sdk/client"
	"gorm.io/gorm"

	"github.com/openlearn/catalog-backend/internal/contentfiles"
	"github.com/openlearn/catalog-backend/internal/db"
	"github.com/openlearn/catalog-backend/internal/loaders"
	"github.com/openlearn/catalog-backend/internal/ocwsync"
	"github.com/openlearn/catalog-backend/internal/pipelines"
	"github.com/openlearn/catalog-backend/internal/platform/envutil"
	"github.com/openlearn/catalog-backend/internal/platform/gcp"
	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/search"
	"github.com/openlearn/catalog-backend/internal/temporalx"
)

type App struct {
	Log        *logger.Logger
	DB         *gorm.DB
	Bucket     gcp.BucketService
	Document   gcp.Document
	Index      search.Index
	Dispatcher *search.Dispatcher
	Loader     *loaders.Service
	Pipelines  *pipelines.Service
	OCW        *ocwsync.Controller
	Temporal   temporalsdkclient.Client
}

func New(ctx context.Context) (*App, error) {
	log, err := logger.New(envutil.Str("LOG_MODE", "production"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pg, err := db.NewPostgresService(log)
	if err != nil {
		return nil, err
	}
	if err := pg.AutoMigrateAll(); err != nil {
		return nil, err
	}
	gdb := pg.DB()

	a := &App{Log: log, DB: gdb}

	// Search stack. With indexing off the dispatcher is a no-op and needs no
	// index or queue behind it.
	var (
		index search.Index
		queue search.RetryQueue
	)
	if envutil.Bool("SEARCH_INDEXING_ENABLED", false) {
		index, err = search.Open(envutil.Str("SEARCH_INDEX_PATH", "catalog.bleve"))
		if err != nil {
			return nil, fmt.Errorf("opening search index: %w", err)
		}
		queue, err = search.NewRedisRetryQueue(log)
		if err != nil {
			return nil, fmt.Errorf("connecting retry queue: %w", err)
		}
	}
	a.Index = index
	a.Dispatcher = search.NewDispatcher(gdb, index, queue, log)
	a.Loader = loaders.NewService(gdb, log, a.Dispatcher)

	registry, err := pipelines.BuildRegistry(ctx, log)
	if err != nil {
		return nil, err
	}
	a.Pipelines = pipelines.New(a.Loader, registry, log)

	// Storage-backed layers: OCW sync and content extraction need the bucket.
	if envutil.Str("COURSE_GCS_BUCKET_NAME", "") != "" {
		a.Bucket, err = gcp.NewBucketService(ctx, log)
		if err != nil {
			return nil, err
		}
		if envutil.Str("DOCUMENTAI_PROCESSOR_ID", "") != "" {
			a.Document, err = gcp.NewDocument(ctx, log)
			if err != nil {
				return nil, err
			}
		} else {
			log.Warn("DOCUMENTAI_PROCESSOR_ID not set; content text extraction disabled")
		}
		pipeline := contentfiles.New(a.Bucket, a.Document, log)
		a.OCW = ocwsync.New(ocwsync.ConfigFromEnv(), gdb, a.Bucket, pipeline, a.Loader, a.Dispatcher, log)
	} else {
		log.Warn("COURSE_GCS_BUCKET_NAME not set; ocw sync disabled")
	}

	a.Temporal, err = temporalx.NewClient(log)
	if err != nil {
		return nil, err
	}

	return a, nil
}

func (a *App) Close() {
	if a.Temporal != nil {
		a.Temporal.Close()
	}
	if a.Index != nil {
		_ = a.Index.Close()
	}
	if a.Document != nil {
		_ = a.Document.Close()
	}
}
