package probe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/probeexporter/internal/domain"
)

func TestDaysUntil_Floors(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		at   time.Time
		want int64
	}{
		{"exact days", now.Add(10 * day), 10},
		{"partial day ahead", now.Add(10*day + time.Hour), 10},
		{"just under a day", now.Add(day - time.Minute), 0},
		{"same instant", now, 0},
		{"a minute ago", now.Add(-time.Minute), -1},
		{"exactly one day ago", now.Add(-day), -1},
		{"a day and a bit ago", now.Add(-day - time.Second), -2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, DaysUntil(now, c.at))
		})
	}
}

func TestClassifyExpiry(t *testing.T) {
	assert.Equal(t, domain.StatusExpired, ClassifyExpiry(-1, 30))
	assert.Equal(t, domain.StatusWarning, ClassifyExpiry(0, 30))
	assert.Equal(t, domain.StatusWarning, ClassifyExpiry(30, 30))
	assert.Equal(t, domain.StatusValid, ClassifyExpiry(31, 30))
}

func TestClassify_FlagsFollowStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	e := classify(now, now.Add(-2*day), 30)
	require.Equal(t, domain.StatusExpired, e.status)
	assert.True(t, e.expired)
	assert.False(t, e.warning)

	e = classify(now, now.Add(5*day), 30)
	require.Equal(t, domain.StatusWarning, e.status)
	assert.True(t, e.warning)
	assert.False(t, e.expired)

	e = classify(now, now.Add(90*day), 30)
	require.Equal(t, domain.StatusValid, e.status)
	assert.Equal(t, int64(90), e.days)
}
