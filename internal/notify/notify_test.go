package notify

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/blockmart/blockmart/pkg/models"
)

type recorder struct {
	events []models.Event
}

func (r *recorder) Publish(_ context.Context, ev models.Event) {
	r.events = append(r.events, ev)
}

func sample() models.Event {
	return models.Event{
		ID:           uuid.New(),
		Type:         models.EventSold,
		TokenID:      1,
		Actor:        "0xbuyer",
		Counterparty: "0xseller",
		Amount:       decimal.RequireFromString("1.5"),
		Time:         time.Now(),
	}
}

func TestMultiFansOutInOrder(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := Multi{a, b}

	ev := sample()
	m.Publish(context.Background(), ev)

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
	assert.Equal(t, ev.ID, a.events[0].ID)
}

func TestLoggingPublish(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogging(zap.New(core))

	ev := sample()
	n.Publish(context.Background(), ev)

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "marketplace event", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, string(models.EventSold), fields["type"])
	assert.Equal(t, "1.5", fields["amount"])
}

func TestNopPublish(t *testing.T) {
	Nop{}.Publish(context.Background(), sample())
}
