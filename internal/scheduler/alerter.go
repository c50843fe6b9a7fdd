package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/probeexporter/internal/domain"
	"github.com/hamed0406/probeexporter/internal/notify"
	"github.com/hamed0406/probeexporter/internal/repo"
)

type AlerterConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration
}

// Alerter compares each batch's results with the last status it recorded
// and notifies when a target turns unhealthy (or recovers).
type Alerter struct {
	logger   *zap.Logger
	alertDB  repo.AlertStore
	notifier notify.Notifier
	cfg      AlerterConfig
	now      func() time.Time
}

func NewAlerter(logger *zap.Logger, alertDB repo.AlertStore, notifier notify.Notifier, cfg AlerterConfig) *Alerter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Alerter{logger: logger, alertDB: alertDB, notifier: notifier, cfg: cfg, now: time.Now}
}

// AlertHook adapts an Alerter to a Runner's completion hook.
func AlertHook[R domain.Result](a *Alerter, kind domain.Kind) func(context.Context, []R) {
	return func(ctx context.Context, results []R) {
		rs := make([]domain.Result, len(results))
		for i, r := range results {
			rs[i] = r
		}
		a.scan(ctx, kind, rs)
	}
}

func (a *Alerter) scan(ctx context.Context, kind domain.Kind, results []domain.Result) {
	now := a.now()

	for _, r := range results {
		key, status := r.Key(), r.State()
		rec, err := a.alertDB.Get(ctx, kind, key)
		if err != nil {
			a.logger.Warn("alert_state_read_error", zap.String("kind", string(kind)), zap.String("key", key), zap.Error(err))
			continue
		}

		up := status.Healthy()
		// A target seen healthy for the first time is not news.
		changed := (rec == nil && !up) || (rec != nil && rec.LastStatus != status)

		// Cooldown only matters for DOWN alerts (suppresses noisy repeats).
		cooled := true
		if rec != nil && rec.LastSentAt != nil {
			cooled = now.Sub(*rec.LastSentAt) >= a.cfg.Cooldown
		}

		wasUp := rec != nil && rec.LastStatus.Healthy()
		downAlert := changed && !up && cooled
		recoveryAlert := changed && up && !wasUp && a.cfg.AlertOnRecovery // bypass cooldown

		if downAlert || recoveryAlert {
			title := fmt.Sprintf("🔴 %s %s: %s", kind, status, key)
			if up {
				title = fmt.Sprintf("🟢 %s RECOVERED: %s", kind, key)
			}
			detail := r.Failure()
			if detail == "" {
				detail = "n/a"
			}
			text := fmt.Sprintf("Target: %s\nStatus: %s\nDetail: %s\nChecked: %s",
				key, status, detail, r.CheckedAt().Format(time.RFC3339))

			if err := a.notifier.Send(ctx, title, text); err != nil {
				a.logger.Warn("alert_send_error", zap.String("kind", string(kind)), zap.String("key", key), zap.Error(err))
			} else {
				a.logger.Info("alert_sent", zap.String("kind", string(kind)), zap.String("key", key), zap.String("status", string(status)))
			}
			_ = a.alertDB.Set(ctx, kind, key, status, now)
			continue
		}

		// Record the new status even when nothing was sent (first healthy
		// sighting, DOWN within cooldown, recovery alerts disabled).
		if rec == nil || changed {
			_ = a.alertDB.Set(ctx, kind, key, status, time.Time{})
		}
	}
}
