package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/probeexporter/internal/domain"
	"github.com/hamed0406/probeexporter/internal/probe"
	"github.com/hamed0406/probeexporter/internal/repo"
)

// TargetLister yields the current targets for a kind. It cannot fail;
// sources that do are expected to log and contribute nothing.
type TargetLister interface {
	Targets(ctx context.Context, kind domain.Kind) []string
}

// Batch is the kind-agnostic face of a Runner, used by the periodic trigger
// and the HTTP surface.
type Batch interface {
	Kind() domain.Kind
	RunOnce(ctx context.Context)
	Trigger()
}

// Runner probes every target of one kind concurrently and publishes each
// result to the kind's store as soon as it is ready.
type Runner[R domain.Result] struct {
	kind        domain.Kind
	logger      *zap.Logger
	targets     TargetLister
	checker     probe.Checker[R]
	store       repo.ResultStore[R]
	failed      func(target string, err error) R
	concurrency int

	onResult   []func(R)
	onComplete []func(ctx context.Context, results []R)
}

// NewRunner builds a runner. failed turns a probe that panicked into the
// ERROR result published in its place. concurrency < 1 means one goroutine
// per target.
func NewRunner[R domain.Result](
	kind domain.Kind,
	logger *zap.Logger,
	targets TargetLister,
	checker probe.Checker[R],
	store repo.ResultStore[R],
	failed func(target string, err error) R,
	concurrency int,
) *Runner[R] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner[R]{
		kind:        kind,
		logger:      logger,
		targets:     targets,
		checker:     checker,
		store:       store,
		failed:      failed,
		concurrency: concurrency,
	}
}

func (r *Runner[R]) Kind() domain.Kind { return r.kind }

// OnResult registers a hook called with every published result, from the
// probing goroutine.
func (r *Runner[R]) OnResult(fn func(R)) { r.onResult = append(r.onResult, fn) }

// OnComplete registers a hook called once per batch after every target has
// been published.
func (r *Runner[R]) OnComplete(fn func(ctx context.Context, results []R)) {
	r.onComplete = append(r.onComplete, fn)
}

// Trigger starts a batch in the background and returns immediately. The
// batch is detached from any caller context.
func (r *Runner[R]) Trigger() {
	go r.RunOnce(context.Background())
}

// RunOnce pulls the current targets and runs them as one batch.
func (r *Runner[R]) RunOnce(ctx context.Context) {
	r.RunBatch(ctx, r.targets.Targets(ctx, r.kind))
}

// RunBatch probes targets concurrently, publishes each result, waits for all
// of them and then runs the completion hooks. Results come back in target
// order.
func (r *Runner[R]) RunBatch(ctx context.Context, targets []string) []R {
	kind := string(r.kind)
	if len(targets) == 0 {
		r.logger.Info("batch_skipped_no_targets", zap.String("kind", kind))
		return nil
	}

	start := time.Now()
	r.logger.Info("batch_started", zap.String("kind", kind), zap.Int("targets", len(targets)))

	n := r.concurrency
	if n < 1 || n > len(targets) {
		n = len(targets)
	}
	sem := make(chan struct{}, n)
	var wg sync.WaitGroup
	results := make([]R, len(targets))

	for i, tgt := range targets {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, tgt string) {
			defer func() { <-sem }()
			defer wg.Done()

			res := r.probe(ctx, tgt)
			r.store.Upsert(res.Key(), res)
			for _, fn := range r.onResult {
				fn(res)
			}
			results[i] = res
		}(i, tgt)
	}
	wg.Wait()

	healthy, undetermined := 0, 0
	for _, res := range results {
		switch st := res.State(); {
		case st.Healthy():
			healthy++
		case st.Undetermined():
			undetermined++
		}
	}
	r.logger.Info("batch_completed",
		zap.String("kind", kind),
		zap.Int("targets", len(targets)),
		zap.Int("healthy", healthy),
		zap.Int("undetermined", undetermined),
		zap.Duration("took", time.Since(start)),
	)
	for _, fn := range r.onComplete {
		fn(ctx, results)
	}
	return results
}

// probe runs one check. A panicking checker still yields a result.
func (r *Runner[R]) probe(ctx context.Context, target string) (res R) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("probe_panic",
				zap.String("kind", string(r.kind)),
				zap.String("target", target),
				zap.Any("panic", p),
			)
			res = r.failed(target, fmt.Errorf("probe panicked: %v", p))
		}
	}()
	return r.checker.Check(ctx, target)
}
