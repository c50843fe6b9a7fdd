package notify

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Multi fans a notification out to every notifier and reports all failures.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Send(ctx, title, text))
	}
	return err
}

// Log writes notifications to the service log. Used when no chat webhook is
// configured so transitions are still visible.
type Log struct {
	Logger *zap.Logger
}

func (l Log) Send(_ context.Context, title, text string) error {
	l.Logger.Warn("alert", zap.String("title", title), zap.String("text", text))
	return nil
}
