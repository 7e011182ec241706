package controlplane

import (
	"context"
	"strings"

	"github.com/okuma-coupler/bridge/internal/domain"
)

// ReadMachineConfig reads the MachineConfig subtree for one machine,
// satisfying sessionpool.MachineConfigReader (spec.md §3 "Machine").
func (c *Client) ReadMachineConfig(machineName string) (domain.Machine, error) {
	ctx := context.Background()

	ip, _ := c.Read(ctx, domain.MachineConfigIPAddressNodeID(machineName))
	id, _ := c.Read(ctx, domain.MachineConfigMachineIDNodeID(machineName))
	enabled, _ := c.Read(ctx, domain.MachineConfigEnabledNodeID(machineName))
	kindRaw, _ := c.Read(ctx, domain.MachineConfigKindNodeID(machineName))

	m := domain.Machine{
		Name:      machineName,
		IPAddress: ip.String,
		MachineID: id.String,
		Enabled:   enabled.Bool,
		Kind:      deriveKind(kindRaw.String),
	}
	if m.MachineID == "" {
		m.MachineID = domain.DeriveMachineID(machineName)
	}
	return m, nil
}

// deriveKind maps the optional MachineConfig.MachineType string onto a
// MachineKind, defaulting to machining-center when absent or unrecognized
// (see DESIGN.md Open Question).
func deriveKind(raw string) domain.MachineKind {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "lathe"):
		return domain.KindLathe
	case strings.Contains(lower, "grind"):
		return domain.KindGrinder
	default:
		return domain.KindMachiningCenter
	}
}

// WriteConnected/WriteDisconnected satisfy sessionpool.ConnectionStatusWriter
// (spec.md §3 "Connection-status mirror": exactly one of the two nodes
// holds the current timestamp, the other holds 0).
func (c *Client) WriteConnected(machineName string, unixSeconds int64) error {
	ctx := context.Background()
	c.Write(ctx, domain.ConnectedNodeID(machineName), domain.Int32Value(int32(unixSeconds)))
	c.Write(ctx, domain.DisConnectedNodeID(machineName), domain.Int32Value(0))
	return nil
}

func (c *Client) WriteDisconnected(machineName string, unixSeconds int64) error {
	ctx := context.Background()
	c.Write(ctx, domain.DisConnectedNodeID(machineName), domain.Int32Value(int32(unixSeconds)))
	c.Write(ctx, domain.ConnectedNodeID(machineName), domain.Int32Value(0))
	return nil
}
