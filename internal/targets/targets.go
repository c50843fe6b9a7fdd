// Package targets assembles the per-kind target lists a batch runs over.
package targets

import (
	"context"

	"go.uber.org/zap"

	"github.com/hamed0406/probeexporter/internal/domain"
)

// Source yields targets for one probe kind.
type Source interface {
	Targets(ctx context.Context, kind domain.Kind) ([]string, error)
}

// Static serves the lists from the config file.
type Static map[domain.Kind][]string

func (s Static) Targets(_ context.Context, kind domain.Kind) ([]string, error) {
	return append([]string(nil), s[kind]...), nil
}

type namedSource struct {
	name string
	src  Source
}

// Registry concatenates its sources in the order they were added. Duplicates
// across sources are kept; each one is probed.
type Registry struct {
	log     *zap.Logger
	sources []namedSource
}

func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{log: log}
}

func (r *Registry) Add(name string, src Source) *Registry {
	r.sources = append(r.sources, namedSource{name: name, src: src})
	return r
}

// Targets never fails: a source that errors is logged and skipped so the
// remaining sources still get probed.
func (r *Registry) Targets(ctx context.Context, kind domain.Kind) []string {
	var out []string
	for _, s := range r.sources {
		ts, err := s.src.Targets(ctx, kind)
		if err != nil {
			r.log.Error("target_source_failed",
				zap.String("source", s.name),
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
			continue
		}
		out = append(out, ts...)
	}
	return out
}
