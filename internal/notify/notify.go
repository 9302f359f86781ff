// Package notify carries marketplace notifications to their consumers:
// the structured log, the Redis pub/sub channel, and the archive.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/blockmart/blockmart/pkg/models"
)

// Notifier receives one event per successful marketplace operation.
// Publish is called after the operation's state is committed; a failing
// sink must not affect the operation outcome.
type Notifier interface {
	Publish(ctx context.Context, ev models.Event)
}

// Nop discards all events.
type Nop struct{}

func (Nop) Publish(context.Context, models.Event) {}

// Multi fans an event out to every notifier in order.
type Multi []Notifier

func (m Multi) Publish(ctx context.Context, ev models.Event) {
	for _, n := range m {
		n.Publish(ctx, ev)
	}
}

// Logging writes events to the structured log.
type Logging struct {
	logger *zap.Logger
}

// NewLogging creates a notifier that logs every event at info level.
func NewLogging(logger *zap.Logger) *Logging {
	return &Logging{logger: logger}
}

func (l *Logging) Publish(_ context.Context, ev models.Event) {
	l.logger.Info("marketplace event",
		zap.String("event_id", ev.ID.String()),
		zap.String("type", string(ev.Type)),
		zap.Uint64("token_id", ev.TokenID),
		zap.String("actor", ev.Actor),
		zap.String("counterparty", ev.Counterparty),
		zap.String("amount", ev.Amount.String()),
	)
}
