package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/openlearn/catalog-backend/internal/app"
	"github.com/openlearn/catalog-backend/internal/ocwsync"
	"github.com/openlearn/catalog-backend/internal/platform/envutil"
	"github.com/openlearn/catalog-backend/internal/types"
)

func main() {
	var provider string
	var prefix string
	var force bool
	var cutoff string
	flag.StringVar(&provider, "provider", "", "provider pipeline to run (empty lists the registered providers)")
	flag.StringVar(&prefix, "prefix", "", "sync a single OCW course prefix instead of discovering all of them")
	flag.BoolVar(&force, "force", false, "bypass the staleness gate")
	flag.StringVar(&cutoff, "cutoff", "", "resync OCW courses last synced before this time (RFC3339 or YYYY-MM-DD)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	if provider == "" && prefix == "" {
		names := application.Pipelines.Providers()
		if application.OCW != nil {
			names = append(names, types.PlatformOCW)
		}
		fmt.Printf("available providers: %s\n", strings.Join(names, ", "))
		return
	}

	if provider == types.PlatformOCW || prefix != "" {
		if application.OCW == nil {
			fmt.Println("COURSE_GCS_BUCKET_NAME not set; OCW sync is unavailable")
			os.Exit(1)
		}
		opts := ocwsync.Options{Force: force}
		if cutoff != "" {
			opts.Cutoff, err = parseCutoff(cutoff)
			if err != nil {
				fmt.Printf("bad -cutoff: %v\n", err)
				os.Exit(1)
			}
		}
		if prefix != "" {
			if err := application.OCW.SyncPrefix(ctx, prefix, opts); err != nil {
				fmt.Printf("sync %s: %v\n", prefix, err)
				os.Exit(1)
			}
			fmt.Printf("synced %s\n", prefix)
			return
		}
		root := envutil.Str("OCW_COURSE_PREFIX", "courses/")
		prefixes, err := application.OCW.DiscoverPrefixes(ctx, root)
		if err != nil {
			fmt.Printf("discover prefixes under %s: %v\n", root, err)
			os.Exit(1)
		}
		application.OCW.SyncAll(ctx, prefixes, opts)
		fmt.Printf("synced %d course prefixes\n", len(prefixes))
		return
	}

	stats, err := application.Pipelines.Run(ctx, provider)
	if err != nil {
		fmt.Printf("run %s: %v\n", provider, err)
		os.Exit(1)
	}
	out, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(out))
}

func parseCutoff(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
