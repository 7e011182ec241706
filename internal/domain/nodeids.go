package domain

import "fmt"

// Node ID construction for the Okuma.Machines address space (spec.md §6.1).
// All node IDs live in namespace 2 as string identifiers.

const machinesRoot = "ns=2;s=Okuma.Machines"

func MachinesRootNodeID() string { return machinesRoot }

func machinePrefix(machineName string) string {
	return fmt.Sprintf("%s.%s", machinesRoot, machineName)
}

func MachineConfigEnabledNodeID(machineName string) string {
	return machinePrefix(machineName) + ".MachineConfig.Enabled"
}

func MachineConfigIPAddressNodeID(machineName string) string {
	return machinePrefix(machineName) + ".MachineConfig.IPAddress"
}

func MachineConfigMachineIDNodeID(machineName string) string {
	return machinePrefix(machineName) + ".MachineConfig.MachineId"
}

// MachineConfigKindNodeID is an optional node; absence falls back to
// KindMachiningCenter (see DESIGN.md Open Question on MachineKind
// derivation).
func MachineConfigKindNodeID(machineName string) string {
	return machinePrefix(machineName) + ".MachineConfig.MachineType"
}

func ConnectedNodeID(machineName string) string {
	return machinePrefix(machineName) + ".Connected"
}

func DisConnectedNodeID(machineName string) string {
	return machinePrefix(machineName) + ".DisConnected"
}

func DataFieldNodeID(machineName, field, leaf string) string {
	return fmt.Sprintf("%s.Data.%s.%s", machinePrefix(machineName), field, leaf)
}

func MacManExtractNodeID(machineName string) string {
	return machinePrefix(machineName) + ".Data.MacManData.extract"
}

func MacManLastProcessedNodeID(machineName string, screen ScreenType) string {
	return fmt.Sprintf("%s.Data.MacManData.LastProcessed.%s", machinePrefix(machineName), screen)
}

func ProgramManagementNodeID(machineName, leaf string) string {
	return machinePrefix(machineName) + ".ProgramManagement." + leaf
}
