// Package controlplane wraps a single persistent OPC UA session with the
// narrow Read/Write/Browse/Subscribe surface spec.md §4.2 requires,
// grounded on dvalnn-mes-v2's internal/net/plc.Client, which wraps
// *opcua.Client for the same Read/Write primitives. Subscribe, Browse and
// reconnect-driven subscription restoration are generalized from the same
// library's documented subscription and auto-reconnect support.
package controlplane

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"

	"github.com/okuma-coupler/bridge/internal/domain"
	"github.com/okuma-coupler/bridge/internal/interfaces"
	"github.com/okuma-coupler/bridge/internal/middleware/logging"
)

// Config carries the §6.2 OPCUA_* environment variables this client needs.
type Config struct {
	ServerURL                 string
	Username                  string
	Password                  string
	ReconnectIntervalSeconds  int
	PublishingIntervalMs      int
	DefaultSamplingIntervalMs int
	MaxReconnectAttempts      int
}

// Client is the concrete interfaces.ControlPlaneClient implementation.
type Client struct {
	cfg    Config
	logger *logging.Logger

	mu   sync.RWMutex
	conn *opcua.Client

	subs        *subscriptionSet
	notifyCh    chan interfaces.Notification
	sessionOpts []opcua.Option
	active      *activeSubscription
}

// New constructs a Client. Connect must be called before Read/Write/Browse
// are usable.
func New(cfg Config, logger *logging.Logger) *Client {
	return &Client{
		cfg:      cfg,
		logger:   logger.WithPrefix("CONTROLPLANE"),
		subs:     newSubscriptionSet(),
		notifyCh: make(chan interfaces.Notification, 256),
	}
}

// Connect opens the persistent OPC UA session, polling until successful
// (spec.md §7 "Control-plane unreachable").
func (c *Client) Connect(ctx context.Context) error {
	opts := []opcua.Option{
		opcua.AutoReconnect(true),
		opcua.ReconnectInterval(time.Duration(c.cfg.ReconnectIntervalSeconds) * time.Second),
	}
	if c.cfg.MaxReconnectAttempts > 0 {
		opts = append(opts, opcua.MaxReconnectAttempts(c.cfg.MaxReconnectAttempts))
	}
	if c.cfg.Username != "" {
		opts = append(opts, opcua.AuthUsername(c.cfg.Username, c.cfg.Password))
		opts = append(opts, opcua.SecurityFromEndpoint(nil, ua.UserTokenTypeUserName))
	} else {
		// No server certificate is ever presented or checked under the None
		// policy; this is an explicit choice, not an accidental default.
		opts = append(opts, opcua.SecurityPolicy("None"), opcua.SecurityModeString("None"))
	}
	opts = append(opts, certOptions(c.logger)...)
	c.sessionOpts = opts

	client, err := opcua.NewClient(c.cfg.ServerURL, opts...)
	if err != nil {
		return fmt.Errorf("controlplane: building client: %w", err)
	}

	var connectErr error
	for {
		if connectErr = client.Connect(ctx); connectErr == nil {
			break
		}
		c.logger.Warn("Connect failed, retrying", "error", connectErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(c.cfg.ReconnectIntervalSeconds) * time.Second):
		}
	}

	c.mu.Lock()
	c.conn = client
	c.mu.Unlock()

	go c.watchState(ctx)
	return nil
}

// watchState observes the underlying client's connection state and
// restores subscriptions after every reconnect (spec.md §4.2
// RestoreSubscriptions, §7 "A lost connection mid-run...").
func (c *Client) watchState(ctx context.Context) {
	sub := c.conn.SubscribeToStateChanges()
	defer sub.Unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case state := <-sub.C:
			if state == opcua.Connected {
				if err := c.RestoreSubscriptions(ctx); err != nil {
					c.logger.Error("Failed to restore subscriptions after reconnect", "error", err)
				}
			}
		}
	}
}

func (c *Client) activeConn() *opcua.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

// Read performs a single-attribute read. Absence of a node or any
// non-good status collapses to ok=false (spec.md §4.2).
func (c *Client) Read(ctx context.Context, nodeID string) (domain.Value, bool) {
	id, err := ua.ParseNodeID(nodeID)
	if err != nil {
		return domain.Value{}, false
	}
	req := &ua.ReadRequest{
		NodesToRead: []*ua.ReadValueID{{NodeID: id, AttributeID: ua.AttributeIDValue}},
	}
	resp, err := c.activeConn().Read(ctx, req)
	if err != nil || len(resp.Results) == 0 {
		return domain.Value{}, false
	}
	dv := resp.Results[0]
	if dv.Status != ua.StatusOK {
		return domain.Value{}, false
	}
	return variantToValue(dv.Value), true
}

// Write performs a single-attribute write, returning the good-status bit.
func (c *Client) Write(ctx context.Context, nodeID string, value domain.Value) bool {
	id, err := ua.ParseNodeID(nodeID)
	if err != nil {
		return false
	}
	variant, err := valueToVariant(value)
	if err != nil {
		return false
	}
	req := &ua.WriteRequest{
		NodesToWrite: []*ua.WriteValue{{
			NodeID:      id,
			AttributeID: ua.AttributeIDValue,
			Value:       &ua.DataValue{EncodingMask: ua.DataValueValue, Value: variant},
		}},
	}
	resp, err := c.activeConn().Write(ctx, req)
	if err != nil || len(resp.Results) == 0 {
		return false
	}
	return resp.Results[0] == ua.StatusOK
}

func (c *Client) Notifications() <-chan interfaces.Notification {
	return c.notifyCh
}

func (c *Client) Close(ctx context.Context) error {
	conn := c.activeConn()
	if conn == nil {
		return nil
	}
	return conn.Close(ctx)
}
