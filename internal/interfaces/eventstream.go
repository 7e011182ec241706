package interfaces

import (
	"context"

	"github.com/okuma-coupler/bridge/internal/domain"
)

// EventSink is the auxiliary event-stream sink receiving MacMan envelopes.
// Publishing is best-effort and fire-and-continue (spec.md §1 Non-goals,
// §7 "Event-stream publish failure").
type EventSink interface {
	Publish(ctx context.Context, key string, envelope domain.Envelope) error
	Close() error
}
