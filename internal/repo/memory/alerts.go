package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hamed0406/probeexporter/internal/domain"
	"github.com/hamed0406/probeexporter/internal/repo"
)

type alertKey struct {
	kind domain.Kind
	key  string
}

// Alerts keeps alert state for the life of the process.
type Alerts struct {
	mu   sync.Mutex
	recs map[alertKey]repo.AlertRecord
}

func NewAlerts() *Alerts {
	return &Alerts{recs: make(map[alertKey]repo.AlertRecord)}
}

func (a *Alerts) Get(_ context.Context, kind domain.Kind, key string) (*repo.AlertRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.recs[alertKey{kind, key}]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (a *Alerts) Set(_ context.Context, kind domain.Kind, key string, status domain.Status, sentAt time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	k := alertKey{kind, key}
	r := a.recs[k]
	r.Kind, r.Key, r.LastStatus = kind, key, status
	if !sentAt.IsZero() {
		ts := sentAt
		r.LastSentAt = &ts
	}
	a.recs[k] = r
	return nil
}

var _ repo.AlertStore = (*Alerts)(nil)
