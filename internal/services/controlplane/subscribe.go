package controlplane

import (
	"context"
	"sync"
	"time"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"

	"github.com/okuma-coupler/bridge/internal/interfaces"
)

// subscriptionSet is the process-wide, append-only set of node IDs
// requested since startup (spec.md §5 "Shared resources"). It is never
// pruned; lifecycle is the process lifetime, and it is the source of
// truth RestoreSubscriptions replays after a reconnect.
type subscriptionSet struct {
	mu      sync.Mutex
	nodeIDs []string
	seen    map[string]bool
}

func newSubscriptionSet() *subscriptionSet {
	return &subscriptionSet{seen: make(map[string]bool)}
}

func (s *subscriptionSet) add(nodeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[nodeID] {
		return false
	}
	s.seen[nodeID] = true
	s.nodeIDs = append(s.nodeIDs, nodeID)
	return true
}

func (s *subscriptionSet) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.nodeIDs))
	copy(out, s.nodeIDs)
	return out
}

// activeSubscription is the single shared gopcua subscription carrying
// every monitored item. The client hands out its own client handles and
// keeps the reverse mapping, since the library only echoes the handle
// back on notification, not the node ID.
type activeSubscription struct {
	sub    *opcua.Subscription
	cancel context.CancelFunc

	mu       sync.Mutex
	nextID   uint32
	handleOf map[uint32]string
}

func (a *activeSubscription) allocate(nodeID string) uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	a.handleOf[a.nextID] = nodeID
	return a.nextID
}

func (a *activeSubscription) resolve(handle uint32) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	nodeID, ok := a.handleOf[handle]
	return nodeID, ok
}

// Subscribe adds a monitored item at the configured sampling interval and
// remembers nodeID for replay across reconnects (spec.md §4.2 Subscribe).
func (c *Client) Subscribe(ctx context.Context, nodeID string) error {
	isNew := c.subs.add(nodeID)
	if !isNew {
		return nil
	}
	return c.monitor(ctx, nodeID)
}

// RestoreSubscriptions resubscribes to every node ID requested since
// startup, after a reconnect (spec.md §4.2 RestoreSubscriptions).
func (c *Client) RestoreSubscriptions(ctx context.Context) error {
	c.mu.Lock()
	if c.active != nil {
		c.active.cancel()
		c.active = nil
	}
	c.mu.Unlock()

	ids := c.subs.all()
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		if err := c.monitor(ctx, id); err != nil {
			c.logger.Error("Failed to restore subscription", "nodeID", id, "error", err)
		}
	}
	c.logger.Info("Subscriptions restored", "count", len(ids))
	return nil
}

// monitor creates the shared subscription (if absent) and adds one
// monitored item for nodeID, forwarding notifications onto notifyCh.
func (c *Client) monitor(ctx context.Context, nodeID string) error {
	id, err := ua.ParseNodeID(nodeID)
	if err != nil {
		return err
	}

	active, err := c.ensureSubscription(ctx)
	if err != nil {
		return err
	}

	handle := active.allocate(nodeID)
	req := opcua.NewMonitoredItemCreateRequestWithDefaults(id, ua.AttributeIDValue, handle)
	req.RequestedParameters.SamplingInterval = float64(c.cfg.DefaultSamplingIntervalMs)
	_, err = active.sub.Monitor(ctx, ua.TimestampsToReturnBoth, req)
	return err
}

func (c *Client) ensureSubscription(ctx context.Context) (*activeSubscription, error) {
	c.mu.Lock()
	if c.active != nil {
		defer c.mu.Unlock()
		return c.active, nil
	}
	c.mu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	notifyCh := make(chan *opcua.PublishNotificationData, 64)
	sub, err := c.activeConn().Subscribe(subCtx, &opcua.SubscriptionParameters{
		Interval: time.Duration(c.cfg.PublishingIntervalMs) * time.Millisecond,
	}, notifyCh)
	if err != nil {
		cancel()
		return nil, err
	}

	active := &activeSubscription{sub: sub, cancel: cancel, handleOf: make(map[uint32]string)}

	c.mu.Lock()
	c.active = active
	c.mu.Unlock()

	go sub.Run(subCtx)
	go c.pump(subCtx, active, notifyCh)

	return active, nil
}

func (c *Client) pump(ctx context.Context, active *activeSubscription, ch <-chan *opcua.PublishNotificationData) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			c.forward(active, msg)
		}
	}
}

func (c *Client) forward(active *activeSubscription, msg *opcua.PublishNotificationData) {
	if msg.Error != nil {
		c.logger.Warn("Publish notification error", "error", msg.Error)
		return
	}
	dcn, ok := msg.Value.(*ua.DataChangeNotification)
	if !ok {
		return
	}
	for _, item := range dcn.MonitoredItems {
		nodeID, ok := active.resolve(item.ClientHandle)
		if !ok {
			continue
		}
		n := interfaces.Notification{
			NodeID:          nodeID,
			Value:           variantToValue(item.Value.Value),
			SourceTimestamp: item.Value.SourceTimestamp,
		}
		select {
		case c.notifyCh <- n:
		default:
			c.logger.Warn("Notification channel full, dropping", "nodeID", nodeID)
		}
	}
}
