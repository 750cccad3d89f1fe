package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Event is a user-facing status change worth telling the user about.
type Event struct {
	UserID   uuid.UUID
	Kind     string // e.g. "deposit_approved", "withdrawal_rejected", "investment_completed"
	Title    string
	Body     string
	EntityID uuid.UUID
}

// Dispatcher delivers notifications. Delivery is fire-and-forget: it runs
// outside the ledger transaction and failures never affect money movement.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event)
}

// LogDispatcher logs events instead of delivering them. Stands in for the
// notification service in development and tests.
type LogDispatcher struct{}

func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, event Event) {
	log.Info().
		Str("user_id", event.UserID.String()).
		Str("kind", event.Kind).
		Str("entity_id", event.EntityID.String()).
		Str("title", event.Title).
		Msg("notification dispatched")
}

// Async wraps a dispatcher so callers never block on delivery.
type Async struct {
	inner   Dispatcher
	timeout time.Duration
}

func NewAsync(inner Dispatcher) *Async {
	return &Async{inner: inner, timeout: 10 * time.Second}
}

func (a *Async) Dispatch(ctx context.Context, event Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		a.inner.Dispatch(ctx, event)
	}()
}
