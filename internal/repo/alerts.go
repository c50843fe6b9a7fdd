package repo

import (
	"context"
	"time"

	"github.com/hamed0406/probeexporter/internal/domain"
)

// AlertRecord holds the last status we saw for a target and the last time we
// sent a notification for it (used for cooldown).
type AlertRecord struct {
	Kind       domain.Kind
	Key        string
	LastStatus domain.Status
	LastSentAt *time.Time
}

// AlertStore is implemented by a persistence layer to store alert state.
type AlertStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context, kind domain.Kind, key string) (*AlertRecord, error)
	// Set upserts the record. If sentAt.IsZero() the previous send time is kept.
	Set(ctx context.Context, kind domain.Kind, key string, status domain.Status, sentAt time.Time) error
}
