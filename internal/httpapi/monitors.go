package httpapi

import (
	"github.com/hamed0406/probeexporter/internal/domain"
	"github.com/hamed0406/probeexporter/internal/repo"
	"github.com/hamed0406/probeexporter/internal/repo/memory"
	"github.com/hamed0406/probeexporter/internal/scheduler"
)

// Monitor is what the router needs from one probe kind.
type Monitor interface {
	Kind() domain.Kind
	// Triggered is the acknowledgement text returned by the check route.
	Triggered() string
	Trigger()
	Snapshot() any
	Lookup(key string) (any, bool)
	Summary() map[string]int
}

type monitor[R domain.Result] struct {
	batch     scheduler.Batch
	store     repo.ResultStore[R]
	triggered string
	lookup    func(key string) (R, bool)
	summarize func(map[string]R) map[string]int
}

func (m *monitor[R]) Kind() domain.Kind { return m.batch.Kind() }
func (m *monitor[R]) Triggered() string { return m.triggered }
func (m *monitor[R]) Trigger()          { m.batch.Trigger() }
func (m *monitor[R]) Snapshot() any     { return m.store.Snapshot() }

func (m *monitor[R]) Lookup(key string) (any, bool) {
	r, ok := m.lookup(key)
	if !ok {
		return nil, false
	}
	return r, true
}

func (m *monitor[R]) Summary() map[string]int { return m.summarize(m.store.Snapshot()) }

func expirySummary[R domain.Result](expired, warning func(R) bool) func(map[string]R) map[string]int {
	return func(snap map[string]R) map[string]int {
		out := map[string]int{"total": len(snap), "expired": 0, "warning": 0}
		for _, r := range snap {
			if expired(r) {
				out["expired"]++
			}
			if warning(r) {
				out["warning"]++
			}
		}
		return out
	}
}

func NewDomainMonitor(b scheduler.Batch, store repo.ResultStore[domain.DomainResult]) Monitor {
	return &monitor[domain.DomainResult]{
		batch:     b,
		store:     store,
		triggered: "Domain WHOIS check triggered",
		lookup:    store.Get,
		summarize: expirySummary(
			func(r domain.DomainResult) bool { return r.Expired },
			func(r domain.DomainResult) bool { return r.Warning },
		),
	}
}

func NewCertMonitor(b scheduler.Batch, store repo.ResultStore[domain.CertResult]) Monitor {
	return &monitor[domain.CertResult]{
		batch:     b,
		store:     store,
		triggered: "SSL certificate check triggered",
		lookup:    store.Get,
		summarize: expirySummary(
			func(r domain.CertResult) bool { return r.Expired },
			func(r domain.CertResult) bool { return r.Warning },
		),
	}
}

func NewPortMonitor(b scheduler.Batch, store repo.ResultStore[domain.PortResult]) Monitor {
	return &monitor[domain.PortResult]{
		batch:     b,
		store:     store,
		triggered: "Port connectivity check triggered",
		lookup:    store.Get,
		summarize: func(snap map[string]domain.PortResult) map[string]int {
			out := map[string]int{"total": len(snap), "open": 0, "closed": 0}
			for _, r := range snap {
				if r.Open {
					out["open"]++
				} else {
					out["closed"]++
				}
			}
			return out
		},
	}
}

// NewHTTPMonitor looks results up by URL hash, since a URL cannot travel as
// a single path segment.
func NewHTTPMonitor(b scheduler.Batch, store *memory.Store[domain.HTTPResult]) Monitor {
	return &monitor[domain.HTTPResult]{
		batch:     b,
		store:     store,
		triggered: "HTTP service availability check triggered",
		lookup: func(hash string) (domain.HTTPResult, bool) {
			return store.Find(func(url string, _ domain.HTTPResult) bool {
				return domain.URLHash(url) == hash
			})
		},
		summarize: func(snap map[string]domain.HTTPResult) map[string]int {
			out := map[string]int{"total": len(snap), "available": 0, "unavailable": 0}
			for _, r := range snap {
				if r.Available {
					out["available"]++
				} else {
					out["unavailable"]++
				}
			}
			return out
		},
	}
}
