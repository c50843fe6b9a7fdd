package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/probeexporter/internal/domain"
	"github.com/hamed0406/probeexporter/internal/repo"
)

var _ repo.TargetStore = (*Store)(nil)
var _ repo.AlertStore = (*Store)(nil)

// Schema creates the target inventory and alert state tables.
const Schema = `
CREATE TABLE IF NOT EXISTS targets (
  kind       TEXT NOT NULL,
  target     TEXT NOT NULL,
  enabled    BOOLEAN NOT NULL DEFAULT TRUE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (kind, target)
);

CREATE TABLE IF NOT EXISTS alerts (
  kind         TEXT NOT NULL,
  key          TEXT NOT NULL,
  last_status  TEXT NOT NULL,
  last_sent_at TIMESTAMPTZ NULL,
  PRIMARY KEY (kind, key)
);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate applies Schema. Safe to run on every start.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// ---- TargetStore ----

// Targets lists enabled targets of one kind in insertion order.
func (s *Store) Targets(ctx context.Context, kind domain.Kind) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT target
		   FROM targets
		  WHERE kind = $1 AND enabled
		  ORDER BY created_at, target`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list %s targets: %w", kind, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s targets: %w", kind, err)
	}
	s.log.Debug("pg_targets_loaded", zap.String("kind", string(kind)), zap.Int("count", len(out)))
	return out, nil
}

// AddTarget registers a target; adding an existing one re-enables it.
func (s *Store) AddTarget(ctx context.Context, kind domain.Kind, target string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO targets (kind, target)
		 VALUES ($1, $2)
		 ON CONFLICT (kind, target) DO UPDATE SET enabled = TRUE`,
		string(kind), target)
	if err != nil {
		return fmt.Errorf("insert target: %w", err)
	}
	return nil
}
