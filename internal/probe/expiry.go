package probe

import (
	"time"

	"github.com/hamed0406/probeexporter/internal/domain"
)

const day = 24 * time.Hour

// DaysUntil returns the whole days from now until t, floored, so anything
// that expired even a minute ago counts as -1.
func DaysUntil(now, t time.Time) int64 {
	d := t.Sub(now)
	days := int64(d / day)
	if d < 0 && d%day != 0 {
		days--
	}
	return days
}

// ClassifyExpiry maps a day count onto VALID, WARNING or EXPIRED.
func ClassifyExpiry(days int64, warningDays int) domain.Status {
	switch {
	case days < 0:
		return domain.StatusExpired
	case days <= int64(warningDays):
		return domain.StatusWarning
	default:
		return domain.StatusValid
	}
}

// expiry is the classified form of an expiration instant shared by the
// domain and certificate results.
type expiry struct {
	at      time.Time
	days    int64
	status  domain.Status
	expired bool
	warning bool
}

func classify(now, at time.Time, warningDays int) expiry {
	days := DaysUntil(now, at)
	st := ClassifyExpiry(days, warningDays)
	return expiry{
		at:      at,
		days:    days,
		status:  st,
		expired: st == domain.StatusExpired,
		warning: st == domain.StatusWarning,
	}
}
