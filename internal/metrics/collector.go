// Package metrics exports cached probe results as OpenTelemetry gauges.
//
// Each kind gets a Collector. A target key is bound the first time one of its
// results is observed; after that every collection reads the latest result
// straight from the cache, so the gauges never lag behind the query API.
package metrics

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hamed0406/probeexporter/internal/domain"
	"github.com/hamed0406/probeexporter/internal/repo"
)

// Gauge describes one exported series per target.
type Gauge[R domain.Result] struct {
	Name        string
	Description string
	Unit        string
	Value       func(R) float64
	// Fallback is reported when a bound key has no cached result.
	Fallback float64
}

type binding struct {
	attrs metric.MeasurementOption
}

// Collector binds target keys to a fixed set of observable gauges.
type Collector[R domain.Result] struct {
	store  repo.ResultStore[R]
	labels func(R) []attribute.KeyValue
	gauges []Gauge[R]
	insts  []metric.Float64ObservableGauge

	mu    sync.RWMutex
	bound map[string]binding
	order []string

	reg metric.Registration
}

// NewCollector creates the instruments and registers one callback that
// observes every bound key.
func NewCollector[R domain.Result](
	meter metric.Meter,
	store repo.ResultStore[R],
	labels func(R) []attribute.KeyValue,
	gauges []Gauge[R],
) (*Collector[R], error) {
	c := &Collector[R]{
		store:  store,
		labels: labels,
		gauges: gauges,
		bound:  make(map[string]binding),
	}
	insts := make([]metric.Observable, 0, len(gauges))
	for _, g := range gauges {
		opts := []metric.Float64ObservableGaugeOption{metric.WithDescription(g.Description)}
		if g.Unit != "" {
			opts = append(opts, metric.WithUnit(g.Unit))
		}
		inst, err := meter.Float64ObservableGauge(g.Name, opts...)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", g.Name, err)
		}
		c.insts = append(c.insts, inst)
		insts = append(insts, inst)
	}
	reg, err := meter.RegisterCallback(c.observe, insts...)
	if err != nil {
		return nil, fmt.Errorf("registering callback: %w", err)
	}
	c.reg = reg
	return c, nil
}

// Observe binds r's key on first sight. Later calls for the same key are
// no-ops; the attribute set captured at bind time is kept.
func (c *Collector[R]) Observe(r R) {
	key := r.Key()
	c.mu.RLock()
	_, ok := c.bound[key]
	c.mu.RUnlock()
	if ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.bound[key]; ok {
		return
	}
	c.bound[key] = binding{attrs: metric.WithAttributes(c.labels(r)...)}
	c.order = append(c.order, key)
}

// Bound returns how many keys are exported.
func (c *Collector[R]) Bound() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.bound)
}

func (c *Collector[R]) observe(_ context.Context, o metric.Observer) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, key := range c.order {
		b := c.bound[key]
		r, ok := c.store.Get(key)
		for i, g := range c.gauges {
			v := g.Fallback
			if ok {
				v = g.Value(r)
			}
			o.ObserveFloat64(c.insts[i], v, b.attrs)
		}
	}
	return nil
}

// Unregister detaches the callback from the meter.
func (c *Collector[R]) Unregister() error {
	return c.reg.Unregister()
}
