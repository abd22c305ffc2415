// Package temporalworker hosts the Temporal worker that serves the
// provider-sync task queue.
package temporalworker

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/openlearn/catalog-backend/internal/ocwsync"
	"github.com/openlearn/catalog-backend/internal/pipelines"
	"github.com/openlearn/catalog-backend/internal/platform/envutil"
	"github.com/openlearn/catalog-backend/internal/platform/logger"
	"github.com/openlearn/catalog-backend/internal/temporalx"
	"github.com/openlearn/catalog-backend/internal/temporalx/providersync"
)

type Runner struct {
	log       *logger.Logger
	tc        temporalsdkclient.Client
	pipelines *pipelines.Service
	ocw       *ocwsync.Controller
}

func NewRunner(log *logger.Logger, tc temporalsdkclient.Client, pipelineSvc *pipelines.Service, ocwCtl *ocwsync.Controller) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client required")
	}
	return &Runner{
		log:       log.With("service", "TemporalWorker"),
		tc:        tc,
		pipelines: pipelineSvc,
		ocw:       ocwCtl,
	}, nil
}

// Run blocks serving the task queue until ctx is canceled.
func (r *Runner) Run(ctx context.Context) error {
	cfg := temporalx.LoadConfig()

	concurrency := envutil.Int("WORKER_CONCURRENCY", 4)
	if concurrency < 1 {
		concurrency = 1
	}
	w := worker.New(r.tc, cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: concurrency,
	})

	acts := &providersync.Activities{
		Log:       r.log,
		Pipelines: r.pipelines,
		OCW:       r.ocw,
	}
	w.RegisterWorkflowWithOptions(providersync.Workflow, workflow.RegisterOptions{Name: providersync.WorkflowName})
	w.RegisterActivityWithOptions(acts.SyncProvider, activity.RegisterOptions{Name: providersync.ActivitySyncName})
	w.RegisterActivityWithOptions(acts.ListProviders, activity.RegisterOptions{Name: providersync.ActivityListProviders})

	if err := w.Start(); err != nil {
		return fmt.Errorf("starting temporal worker: %w", err)
	}
	r.log.Info("Temporal worker started", "task_queue", cfg.TaskQueue, "namespace", cfg.Namespace)

	<-ctx.Done()
	w.Stop()
	return ctx.Err()
}
