// Package probe holds the protocol checks run against a single target.
//
// Every checker is total: whatever goes wrong on the wire is folded into the
// returned result's status and error text, never returned as a Go error.
package probe

import (
	"context"
	"time"

	"github.com/hamed0406/probeexporter/internal/domain"
)

// Checker performs a single check for a given target.
type Checker[R domain.Result] interface {
	Check(ctx context.Context, target string) R
}

// CheckerFunc adapts a plain function to Checker.
type CheckerFunc[R domain.Result] func(ctx context.Context, target string) R

func (f CheckerFunc[R]) Check(ctx context.Context, target string) R {
	return f(ctx, target)
}

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

func elapsedMS(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
