// Package domain holds the data model shared by every collector and the
// dispatcher: machines, data descriptors, MacMan screens, tagged values and
// the program-management workflow state.
package domain

import "strings"

// MachineKind selects the native ProgID used to open an OSPAPI session.
type MachineKind string

const (
	KindMachiningCenter MachineKind = "machining-center"
	KindLathe           MachineKind = "lathe"
	KindGrinder         MachineKind = "grinder"
)

// Machine is a discovered Okuma controller, keyed by its OPC UA node name
// (the segment after "Okuma.Machines.").
type Machine struct {
	Name      string // OPC UA node name, e.g. "M001 - Lathe 3"
	IPAddress string
	MachineID string // conventionally the prefix of Name before " - "
	Enabled   bool
	Kind      MachineKind
}

// DeriveMachineID extracts the conventional "<id> - <rest>" prefix from a
// machine node name. Returns the whole name if the separator is absent.
func DeriveMachineID(name string) string {
	if idx := strings.Index(name, " - "); idx >= 0 {
		return name[:idx]
	}
	return name
}

// systemNameTokens are the case-insensitive substrings that mark a browsed
// child of "Okuma.Machines" as infrastructure rather than a real machine.
var systemNameTokens = []string{"system", "config", "global", "server"}

// IsSystemName reports whether a discovered node name is a system/config
// node rather than a real machine, per spec.md §4.3 Discovery.
func IsSystemName(name string) bool {
	lower := strings.ToLower(name)
	for _, tok := range systemNameTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}
