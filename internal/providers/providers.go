// Package providers holds the source-specific extract/transform stages. Each
// provider package exposes a pure Transform over the raw payload its Extract
// pulls from the network; the registry binds those pairs into provider-
// agnostic callables for the pipelines.
package providers

import (
	"context"
	"fmt"
	"sort"

	"github.com/openlearn/catalog-backend/internal/canonical"
	"github.com/openlearn/catalog-backend/internal/platform/logger"
)

// Results is everything one provider produced in canonical shape.
type Results struct {
	Courses  []canonical.Course
	Programs []canonical.Program
	Channels []canonical.VideoChannel
	Podcasts []canonical.Podcast
}

func (r Results) Empty() bool {
	return len(r.Courses) == 0 && len(r.Programs) == 0 && len(r.Channels) == 0 && len(r.Podcasts) == 0
}

// Func runs a provider's extract then transform. A provider whose required
// configuration is absent returns an empty Results with a nil error.
type Func func(ctx context.Context) (Results, error)

// Registry maps provider name to its bound extract/transform callable so the
// sync controller and pipelines stay provider-agnostic.
type Registry struct {
	log     *logger.Logger
	sources map[string]Func
}

func NewRegistry(baseLog *logger.Logger) *Registry {
	return &Registry{
		log:     baseLog.With("service", "ProviderRegistry"),
		sources: map[string]Func{},
	}
}

func (r *Registry) Register(name string, fn Func) {
	r.sources[name] = safe(r.log, name, fn)
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes one provider. Failures are absorbed here so a single
// provider's failure never aborts a batch run across providers.
func (r *Registry) Run(ctx context.Context, name string) (Results, error) {
	fn, ok := r.sources[name]
	if !ok {
		return Results{}, fmt.Errorf("unknown provider %q", name)
	}
	return fn(ctx)
}

// safe logs and swallows errors and panics, returning the empty-collection
// sentinel instead.
func safe(log *logger.Logger, name string, fn Func) Func {
	return func(ctx context.Context) (results Results, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("provider panicked", "provider", name, "panic", rec)
				results = Results{}
				err = nil
			}
		}()
		results, runErr := fn(ctx)
		if runErr != nil {
			log.Error("provider failed; continuing batch", "provider", name, "error", runErr)
			return Results{}, nil
		}
		return results, nil
	}
}
