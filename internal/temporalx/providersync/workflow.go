// Package providersync is the workflow that fans provider catalog syncs out
// over the task queue. Each provider runs as one activity; a failing provider
// exhausts its activity retries and the workflow moves on to the next.
package providersync

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/openlearn/catalog-backend/internal/pipelines"
)

const (
	WorkflowName     = "provider-sync"
	ActivitySyncName = "sync-provider"
)

// Input selects which providers to sync. An empty list means every registered
// provider.
type Input struct {
	Providers []string `json:"providers"`
	Force     bool     `json:"force"`
}

type Result struct {
	Stats []pipelines.Stats `json:"stats"`
}

func Workflow(ctx workflow.Context, input Input) (Result, error) {
	log := workflow.GetLogger(ctx)
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 4 * time.Hour,
		HeartbeatTimeout:    5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 30 * time.Second,
			MaximumAttempts: 3,
		},
	})

	names := input.Providers
	if len(names) == 0 {
		if err := workflow.ExecuteActivity(ctx, ActivityListProviders).Get(ctx, &names); err != nil {
			return Result{}, err
		}
	}

	var result Result
	for _, name := range names {
		var stats pipelines.Stats
		if err := workflow.ExecuteActivity(ctx, ActivitySyncName, SyncRequest{Provider: name, Force: input.Force}).Get(ctx, &stats); err != nil {
			// One provider exhausting its retries must not sink the rest.
			log.Error("provider sync activity failed", "provider", name, "error", err)
			continue
		}
		result.Stats = append(result.Stats, stats)
	}
	return result, nil
}
