// Package dispatcher turns OPC UA change-notifications into typed work
// items routed to the three collectors, enforcing per-node single-flight
// (spec.md §4.3).
package dispatcher

import (
	"context"
	"strings"
	"sync"

	"github.com/okuma-coupler/bridge/internal/domain"
	"github.com/okuma-coupler/bridge/internal/interfaces"
	"github.com/okuma-coupler/bridge/internal/middleware/logging"
)

// kind is the classification a node ID suffix resolves to.
type kind int

const (
	kindDrop kind = iota
	kindProgramManagement
	kindMacMan
	kindGeneral
)

const (
	suffixProgramManagementCtrl = ".ProgramManagement.Ctrl"
	suffixExtract               = ".extract"
	segmentMacManData           = "Data.MacManData"
	segmentData                 = ".Data."
)

// classify implements the §4.3 suffix match, in order.
func classify(nodeID string) kind {
	switch {
	case strings.HasSuffix(nodeID, suffixProgramManagementCtrl):
		return kindProgramManagement
	case strings.Contains(nodeID, segmentMacManData) && strings.HasSuffix(nodeID, suffixExtract):
		return kindMacMan
	case strings.Contains(nodeID, segmentData) && strings.HasSuffix(nodeID, suffixExtract):
		return kindGeneral
	default:
		return kindDrop
	}
}

// GeneralCollector runs one General Collector pass for a rising-edge
// <machine>.Data.<field>.extract trigger (spec.md §4.4).
type GeneralCollector interface {
	Collect(ctx context.Context, machineName, field string) error
}

// MacManCollector runs one MacMan Collector pass for a rising-edge
// <machine>.Data.MacManData.extract trigger (spec.md §4.5).
type MacManCollector interface {
	Collect(ctx context.Context, machineName string) error
}

// ProgramManagementExecutor drives the program-management workflow
// (spec.md §4.6). Cancel handles the falling edge of Ctrl.
type ProgramManagementExecutor interface {
	Start(ctx context.Context, machineName string) error
	Cancel(ctx context.Context, machineName string) error
}

// work is the per-node single-flight slot (spec.md §4.3 "Single-flight").
type work struct {
	mu      sync.Mutex
	running bool
	pending bool
}

type Dispatcher struct {
	cp       interfaces.ControlPlaneClient
	general  GeneralCollector
	macman   MacManCollector
	progmgmt ProgramManagementExecutor
	logger   *logging.Logger

	workerPool chan struct{}

	mu        sync.Mutex
	lastValue map[string]bool
	inflight  map[string]*work
}

func New(cp interfaces.ControlPlaneClient, general GeneralCollector, macman MacManCollector, progmgmt ProgramManagementExecutor, workerPoolSize int, logger *logging.Logger) *Dispatcher {
	if workerPoolSize <= 0 {
		workerPoolSize = 8
	}
	return &Dispatcher{
		cp:         cp,
		general:    general,
		macman:     macman,
		progmgmt:   progmgmt,
		logger:     logger.WithPrefix("DISPATCHER"),
		workerPool: make(chan struct{}, workerPoolSize),
		lastValue:  make(map[string]bool),
		inflight:   make(map[string]*work),
	}
}

// Run drains the control-plane notification channel until ctx is done
// (spec.md §5 "a single dedicated notification-delivery thread ... fans
// out into the dispatcher").
func (d *Dispatcher) Run(ctx context.Context) {
	ch := d.cp.Notifications()
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			d.handle(ctx, n)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, n interfaces.Notification) {
	k := classify(n.NodeID)
	if k == kindDrop {
		d.logger.Debug("Dropping unclassified notification", "node", n.NodeID)
		return
	}

	rising, falling := d.edge(n.NodeID, n.Value.Bool)

	switch k {
	case kindProgramManagement:
		machineName := machineNameFromSuffix(n.NodeID, suffixProgramManagementCtrl)
		if falling {
			d.dispatch(n.NodeID, func(ctx context.Context) error {
				return d.progmgmt.Cancel(ctx, machineName)
			})
			return
		}
		if rising {
			d.dispatch(n.NodeID, func(ctx context.Context) error {
				return d.progmgmt.Start(ctx, machineName)
			})
		}
	case kindMacMan:
		if !rising {
			return
		}
		machineName := machineNameFromMacMan(n.NodeID)
		d.dispatch(n.NodeID, func(ctx context.Context) error {
			return d.macman.Collect(ctx, machineName)
		})
	case kindGeneral:
		if !rising {
			return
		}
		machineName, field := machineAndFieldFromGeneral(n.NodeID)
		d.dispatch(n.NodeID, func(ctx context.Context) error {
			return d.general.Collect(ctx, machineName, field)
		})
	}
}

// edge tracks the last observed boolean value per node ID and reports
// whether this notification is a rising (false→true) or falling
// (true→false) transition (spec.md §3 "Trigger node").
func (d *Dispatcher) edge(nodeID string, value bool) (rising, falling bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev, seen := d.lastValue[nodeID]
	d.lastValue[nodeID] = value
	if !seen {
		return value, false
	}
	return !prev && value, prev && !value
}

// dispatch enforces per-node single-flight: if a run for nodeID is already
// in progress, at most one additional rising edge is coalesced into a
// rerun once the in-flight run finishes; further overlaps are dropped
// (spec.md §4.3 "Single-flight").
func (d *Dispatcher) dispatch(nodeID string, fn func(context.Context) error) {
	d.mu.Lock()
	w, exists := d.inflight[nodeID]
	if !exists {
		w = &work{}
		d.inflight[nodeID] = w
	}
	d.mu.Unlock()

	w.mu.Lock()
	if w.running {
		w.pending = true
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	d.workerPool <- struct{}{}
	go d.runLoop(nodeID, w, fn)
}

func (d *Dispatcher) runLoop(nodeID string, w *work, fn func(context.Context) error) {
	defer func() { <-d.workerPool }()
	for {
		if err := fn(context.Background()); err != nil {
			d.logger.Error("Workflow failed", "node", nodeID, "error", err)
		}

		w.mu.Lock()
		if w.pending {
			w.pending = false
			w.mu.Unlock()
			continue
		}
		w.running = false
		w.mu.Unlock()
		return
	}
}

func machineNameFromSuffix(nodeID, suffix string) string {
	trimmed := strings.TrimSuffix(nodeID, suffix)
	return lastSegment(trimmed)
}

func machineNameFromMacMan(nodeID string) string {
	trimmed := strings.TrimSuffix(nodeID, ".Data.MacManData.extract")
	return lastSegment(trimmed)
}

func machineAndFieldFromGeneral(nodeID string) (machineName, field string) {
	trimmed := strings.TrimSuffix(nodeID, suffixExtract)
	idx := strings.LastIndex(trimmed, segmentData)
	if idx < 0 {
		return "", ""
	}
	field = trimmed[idx+len(segmentData):]
	machineName = lastSegment(trimmed[:idx])
	return machineName, field
}

// lastSegment returns the text after the final "." in a node ID, which for
// "ns=2;s=Okuma.Machines.<Name>" is the machine name segment.
func lastSegment(nodeID string) string {
	idx := strings.LastIndex(nodeID, ".")
	if idx < 0 {
		return nodeID
	}
	return nodeID[idx+1:]
}

// Discover browses the address space for trigger nodes and subscribes to
// them (spec.md §4.3 "Discovery"). It is safe to call again after a full
// reconnect.
func (d *Dispatcher) Discover(ctx context.Context) error {
	machines, err := d.cp.Browse(ctx, domain.MachinesRootNodeID())
	if err != nil {
		return err
	}

	for _, m := range machines {
		if domain.IsSystemName(m.DisplayName) {
			d.logger.Debug("Skipping system-like machine name", "name", m.DisplayName)
			continue
		}
		if err := d.discoverMachine(ctx, m.NodeID); err != nil {
			d.logger.Warn("Discovery failed for machine", "node", m.NodeID, "error", err)
		}
	}
	return nil
}

func (d *Dispatcher) discoverMachine(ctx context.Context, machineNodeID string) error {
	children, err := d.cp.Browse(ctx, machineNodeID)
	if err != nil {
		return err
	}
	for _, c := range children {
		switch {
		case strings.HasSuffix(c.NodeID, suffixProgramManagementCtrl):
			d.subscribe(ctx, c.NodeID)
		case strings.HasSuffix(c.NodeID, "."+"Data"):
			if err := d.discoverDataSubtree(ctx, c.NodeID); err != nil {
				d.logger.Warn("Discovery failed for Data subtree", "node", c.NodeID, "error", err)
			}
		}
	}
	return nil
}

func (d *Dispatcher) discoverDataSubtree(ctx context.Context, dataNodeID string) error {
	fields, err := d.cp.Browse(ctx, dataNodeID)
	if err != nil {
		return err
	}
	for _, f := range fields {
		leaves, err := d.cp.Browse(ctx, f.NodeID)
		if err != nil {
			d.logger.Warn("Failed to browse data field", "node", f.NodeID, "error", err)
			continue
		}
		for _, leaf := range leaves {
			if strings.HasSuffix(leaf.NodeID, suffixExtract) {
				d.subscribe(ctx, leaf.NodeID)
			}
		}
	}
	return nil
}

func (d *Dispatcher) subscribe(ctx context.Context, nodeID string) {
	if err := d.cp.Subscribe(ctx, nodeID); err != nil {
		d.logger.Warn("Subscribe failed", "node", nodeID, "error", err)
	}
}
