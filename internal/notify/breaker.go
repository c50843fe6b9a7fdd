package notify

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Breaker stops calling a failing notifier for a while. Once it opens, Send
// fails fast with gobreaker.ErrOpenState until timeout has passed and a
// single trial send gets through.
type Breaker struct {
	next Notifier
	cb   *gobreaker.CircuitBreaker[struct{}]
}

func NewBreaker(name string, next Notifier, maxFailures int, timeout time.Duration, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxFailures < 1 {
		maxFailures = 1
	}
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return int(counts.ConsecutiveFailures) >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("notifier_breaker_state",
				zap.String("notifier", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) Send(ctx context.Context, title, text string) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Send(ctx, title, text)
	})
	return err
}

func (b *Breaker) State() gobreaker.State { return b.cb.State() }
