// Package sessionpool owns the one-session-per-machine invariant: the
// Machine Session Pool of spec.md §4.1. Sessions are native OSPAPI
// handles and are never closed on transient error — churning them is the
// leading cause of controller instability (spec.md §4.1 "Never close on
// error").
package sessionpool

import (
	"fmt"
	"sync"
	"time"

	"github.com/okuma-coupler/bridge/internal/domain"
	"github.com/okuma-coupler/bridge/internal/interfaces"
	"github.com/okuma-coupler/bridge/internal/middleware/logging"
)

// entry is one slot in the pool map. A nil session with connecting=true is
// the single-flight sentinel described in spec.md §5 "Session-pool mutex".
type entry struct {
	mu         sync.Mutex // serializes every call into this machine's session
	session    interfaces.NativeSession
	connecting bool
	ready      chan struct{} // closed once the in-flight open attempt finishes
}

// MachineConfigReader resolves the live MachineConfig subtree for a
// machine; the pool never caches it beyond a single Acquire.
type MachineConfigReader interface {
	ReadMachineConfig(machineName string) (domain.Machine, error)
}

// ConnectionStatusWriter mirrors connection state into the control plane
// (spec.md §3 "Connection-status mirror").
type ConnectionStatusWriter interface {
	WriteConnected(machineName string, unixSeconds int64) error
	WriteDisconnected(machineName string, unixSeconds int64) error
}

type Pool struct {
	binding interfaces.OSPAPIBinding
	config  MachineConfigReader
	status  ConnectionStatusWriter
	logger  *logging.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

func New(binding interfaces.OSPAPIBinding, config MachineConfigReader, status ConnectionStatusWriter, logger *logging.Logger) *Pool {
	return &Pool{
		binding: binding,
		config:  config,
		status:  status,
		logger:  logger.WithPrefix("SESSIONPOOL"),
		entries: make(map[string]*entry),
	}
}

// Acquire returns the existing open session for machineName, or opens one.
// Concurrent acquisitions for the same name collapse onto a single open
// attempt; the second caller blocks on the sentinel and observes its
// result (spec.md §4.1 Contract, §5 "Session-pool mutex").
func (p *Pool) Acquire(machineName string) (interfaces.NativeSession, error) {
	p.mu.Lock()
	e, exists := p.entries[machineName]
	if !exists {
		e = &entry{connecting: true, ready: make(chan struct{})}
		p.entries[machineName] = e
		p.mu.Unlock()
		return p.open(machineName, e)
	}
	if e.session != nil {
		p.mu.Unlock()
		return e.session, nil
	}
	if e.connecting {
		ready := e.ready
		p.mu.Unlock()
		<-ready
		p.mu.Lock()
		defer p.mu.Unlock()
		if e.session == nil {
			return nil, fmt.Errorf("sessionpool: open failed for %q", machineName)
		}
		return e.session, nil
	}
	// Previously failed; re-attempt.
	e.connecting = true
	e.ready = make(chan struct{})
	p.mu.Unlock()
	return p.open(machineName, e)
}

// Get performs a non-blocking lookup; it never opens a session.
func (p *Pool) Get(machineName string) (interfaces.NativeSession, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, exists := p.entries[machineName]
	if !exists || e.session == nil {
		return nil, false
	}
	return e.session, true
}

// Disconnect tears down a session. Used only on shutdown and for
// program-management forced reset (spec.md §4.1 Contract).
func (p *Pool) Disconnect(machineName string) {
	p.mu.Lock()
	e, exists := p.entries[machineName]
	if !exists {
		p.mu.Unlock()
		return
	}
	delete(p.entries, machineName)
	p.mu.Unlock()

	if e.session == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.session.Disconnect(); err != nil {
		p.logger.Warn("Disconnect failed", "machine", machineName, "error", err)
	}
}

// DisconnectAll tears down every open session; used at shutdown.
func (p *Pool) DisconnectAll() {
	p.mu.Lock()
	names := make([]string, 0, len(p.entries))
	for name := range p.entries {
		names = append(names, name)
	}
	p.mu.Unlock()
	for _, name := range names {
		p.Disconnect(name)
	}
}

// WithSession acquires machineName's session and runs fn under its
// per-machine mutex, serializing every call (spec.md §4.1 "Serialization").
func (p *Pool) WithSession(machineName string, fn func(interfaces.NativeSession) error) error {
	if _, err := p.Acquire(machineName); err != nil {
		return err
	}
	p.mu.Lock()
	e := p.entries[machineName]
	p.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return fmt.Errorf("sessionpool: no open session for %q", machineName)
	}
	return fn(e.session)
}

func (p *Pool) open(machineName string, e *entry) (interfaces.NativeSession, error) {
	var openErr error
	defer func() {
		p.mu.Lock()
		e.connecting = false
		close(e.ready)
		if openErr != nil && e.session == nil {
			// Leave the failed entry in place so the next Acquire retries
			// through the same slot rather than racing a second opener.
		}
		p.mu.Unlock()
	}()

	machine, err := p.config.ReadMachineConfig(machineName)
	if err != nil || machine.IPAddress == "" {
		openErr = fmt.Errorf("sessionpool: unreadable IPAddress for %q: %w", machineName, err)
		p.markDisconnected(machineName)
		return nil, openErr
	}

	session, err := p.binding.Connect(machine.IPAddress, machine.Kind)
	if err != nil {
		openErr = fmt.Errorf("sessionpool: connect to %q (%s) failed: %w", machineName, machine.IPAddress, err)
		p.markDisconnected(machineName)
		return nil, openErr
	}

	p.mu.Lock()
	e.session = session
	p.mu.Unlock()

	p.markConnected(machineName)
	p.logger.Info("Session opened", "machine", machineName, "ip", machine.IPAddress)
	return session, nil
}

func (p *Pool) markConnected(machineName string) {
	now := time.Now().Unix()
	if err := p.status.WriteConnected(machineName, now); err != nil {
		p.logger.Warn("Failed to write Connected mirror", "machine", machineName, "error", err)
	}
}

func (p *Pool) markDisconnected(machineName string) {
	now := time.Now().Unix()
	if err := p.status.WriteDisconnected(machineName, now); err != nil {
		p.logger.Warn("Failed to write DisConnected mirror", "machine", machineName, "error", err)
	}
}
