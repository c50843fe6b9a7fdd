package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Rechecker triggers one kind's batch on a fixed interval.
type Rechecker struct {
	Logger   *zap.Logger
	Batch    Batch
	Interval time.Duration
	Enabled  bool
}

func NewRechecker(logger *zap.Logger, b Batch, interval time.Duration, enabled bool) *Rechecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval < 0 {
		interval = 0
	}
	return &Rechecker{Logger: logger, Batch: b, Interval: interval, Enabled: enabled}
}

// Run triggers an immediate pass, then one per tick. Triggers do not wait
// for the previous batch, so slow batches may overlap. Stops when ctx is
// cancelled; batches already started run to completion.
func (r *Rechecker) Run(ctx context.Context) {
	kind := zap.String("kind", string(r.Batch.Kind()))
	if !r.Enabled || r.Interval == 0 {
		r.Logger.Info("rechecker_disabled", kind)
		return
	}
	t := time.NewTicker(r.Interval)
	defer t.Stop()

	r.Logger.Info("rechecker_started", kind, zap.Duration("interval", r.Interval))
	r.Batch.Trigger()

	for {
		select {
		case <-ctx.Done():
			r.Logger.Info("rechecker_stopped", kind)
			return
		case <-t.C:
			r.Batch.Trigger()
		}
	}
}
