package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/probeexporter/internal/domain"
	"github.com/hamed0406/probeexporter/internal/repo"
)

func (s *Store) Get(ctx context.Context, kind domain.Kind, key string) (*repo.AlertRecord, error) {
	const q = `SELECT last_status, last_sent_at FROM alerts WHERE kind=$1 AND key=$2`
	r := repo.AlertRecord{Kind: kind, Key: key}
	var (
		status   string
		lastSent *time.Time
	)
	err := s.pool.QueryRow(ctx, q, string(kind), key).Scan(&status, &lastSent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get alert: %w", err)
	}
	r.LastStatus = domain.Status(status)
	r.LastSentAt = lastSent
	return &r, nil
}

func (s *Store) Set(ctx context.Context, kind domain.Kind, key string, status domain.Status, sentAt time.Time) error {
	const q = `
		INSERT INTO alerts (kind, key, last_status, last_sent_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (kind, key)
		DO UPDATE SET last_status=EXCLUDED.last_status,
		              last_sent_at=COALESCE(EXCLUDED.last_sent_at, alerts.last_sent_at)
	`
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	if _, err := s.pool.Exec(ctx, q, string(kind), key, string(status), ts); err != nil {
		return fmt.Errorf("set alert: %w", err)
	}
	return nil
}
