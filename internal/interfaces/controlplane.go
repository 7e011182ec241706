// Package interfaces defines the narrow boundaries the core couples
// against: the OPC UA control-plane session, the native OSPAPI session per
// machine, and the event-stream sink. Concrete adapters live under
// internal/services/*; the core only ever depends on these interfaces.
package interfaces

import (
	"context"
	"time"

	"github.com/okuma-coupler/bridge/internal/domain"
)

// Notification is one OPC UA change-notification delivered from a
// monitored item, as consumed by the Dispatcher (spec.md §4.3).
type Notification struct {
	NodeID          string
	Value           domain.Value
	SourceTimestamp time.Time
}

// BrowseResult is one child returned by Browse.
type BrowseResult struct {
	NodeID      string
	DisplayName string
}

// ControlPlaneClient wraps the OPC UA session (spec.md §4.2). A single
// instance is shared by every worker; the underlying library is assumed
// internally thread-safe (§5 "Shared resources").
type ControlPlaneClient interface {
	// Read performs a single-attribute read. ok is false on any not-good
	// status; absence of a node is information, not an error.
	Read(ctx context.Context, nodeID string) (value domain.Value, ok bool)

	// Write performs a single-attribute write, returning the good-status
	// bit only.
	Write(ctx context.Context, nodeID string, value domain.Value) (ok bool)

	// Browse performs a forward hierarchical browse with a variable+object
	// node-class mask.
	Browse(ctx context.Context, nodeID string) ([]BrowseResult, error)

	// Subscribe adds a monitored item at the configured sampling interval
	// and remembers nodeID in the process-wide subscription set.
	Subscribe(ctx context.Context, nodeID string) error

	// RestoreSubscriptions resubscribes to every node ID requested since
	// startup; invoked after a reconnect (spec.md §4.2).
	RestoreSubscriptions(ctx context.Context) error

	// Notifications is the single dedicated delivery channel fanning out
	// into the Dispatcher (spec.md §5 "Scheduling").
	Notifications() <-chan Notification

	// Close releases the session at final teardown.
	Close(ctx context.Context) error
}
