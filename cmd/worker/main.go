package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/openlearn/catalog-backend/internal/app"
	"github.com/openlearn/catalog-backend/internal/temporalx/temporalworker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	if application.Temporal == nil {
		fmt.Println("TEMPORAL_ADDRESS not set; the worker has nothing to serve")
		os.Exit(1)
	}

	runner, err := temporalworker.NewRunner(application.Log, application.Temporal, application.Pipelines, application.OCW)
	if err != nil {
		fmt.Printf("init worker: %v\n", err)
		os.Exit(1)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runner.Run(ctx)
	})
	if application.Index != nil {
		g.Go(func() error {
			return application.Dispatcher.RunRetryConsumer(ctx)
		})
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		application.Log.Error("worker exited", "error", err)
		os.Exit(1)
	}
}
