//go:build !ospapi_native

// Package ospapi wraps the proprietary OSPAPI native library behind the
// interfaces.OSPAPIBinding/NativeSession boundary. Fake stands in for the
// cgo-backed binding (binding.go, built only with the ospapi_native tag)
// in local development and tests, where no real controller is reachable.
package ospapi

import (
	"fmt"
	"sync"

	"github.com/okuma-coupler/bridge/internal/domain"
	"github.com/okuma-coupler/bridge/internal/interfaces"
)

// Fake is an in-memory interfaces.OSPAPIBinding. Responses are keyed by
// (subsystem, major, subscript, minor, style) so tests can script exact
// controller replies.
type Fake struct {
	mu        sync.Mutex
	Connected map[string]*FakeSession // by ip
	ConnectErr map[string]error
}

func NewFake() *Fake {
	return &Fake{
		Connected:  make(map[string]*FakeSession),
		ConnectErr: make(map[string]error),
	}
}

// NewBinding is the build-tag-stable constructor the composition root
// wires regardless of which implementation this build includes.
func NewBinding() interfaces.OSPAPIBinding { return NewFake() }

func (f *Fake) Connect(ip string, kind domain.MachineKind) (interfaces.NativeSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.ConnectErr[ip]; ok {
		return nil, err
	}
	if s, ok := f.Connected[ip]; ok {
		return s, nil
	}
	s := &FakeSession{Kind: kind, Responses: make(map[callKey]callResponse)}
	f.Connected[ip] = s
	return s, nil
}

type callKey struct {
	subsystem, major, subscript, minor, style int
}

type callResponse struct {
	value, errMessage string
	err               error
}

// FakeSession is a scriptable interfaces.NativeSession.
type FakeSession struct {
	mu             sync.Mutex
	Kind           domain.MachineKind
	Responses      map[callKey]callResponse
	Disconnected   bool
	StartUpdateErr error
	WaitUpdateErr  error
	SelectResult   int
	SelectErrMsg   string
	SelectErr      error
}

// SetResponse scripts the reply GetByString returns for one argument tuple.
func (s *FakeSession) SetResponse(subsystem, major, subscript, minor, style int, value, errMessage string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Responses[callKey{subsystem, major, subscript, minor, style}] = callResponse{value, errMessage, err}
}

func (s *FakeSession) GetByString(subsystem, major, subscript, minor, style int) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.Responses[callKey{subsystem, major, subscript, minor, style}]
	if !ok {
		return "", "", fmt.Errorf("ospapi fake: no scripted response for (%d,%d,%d,%d,%d)", subsystem, major, subscript, minor, style)
	}
	return r.value, r.errMessage, r.err
}

func (s *FakeSession) StartUpdate(a, b int) error    { return s.StartUpdateErr }
func (s *FakeSession) WaitUpdateEnd() error          { return s.WaitUpdateErr }

func (s *FakeSession) SelectMainProgram(mainFile, subFile, programName string, mode int) (int, string, error) {
	return s.SelectResult, s.SelectErrMsg, s.SelectErr
}

func (s *FakeSession) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Disconnected = true
	return nil
}
