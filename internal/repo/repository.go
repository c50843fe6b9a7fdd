package repo

import (
	"context"

	"github.com/hamed0406/probeexporter/internal/domain"
)

// ResultStore keeps the latest result per target key. Implementations must
// replace an entry as a single unit so readers never see a partial result.
type ResultStore[R domain.Result] interface {
	Upsert(key string, r R)
	Get(key string) (R, bool)
	Snapshot() map[string]R
	Len() int
}

// TargetStore yields probe targets kept outside the config file.
type TargetStore interface {
	Targets(ctx context.Context, kind domain.Kind) ([]string, error)
}
