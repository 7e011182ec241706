package interfaces

import "github.com/okuma-coupler/bridge/internal/domain"

// OSPAPIBinding opens native sessions for one machine kind. It is the
// narrow boundary over the proprietary OSPAPI native library (spec.md §1,
// "assumed to expose connect/disconnect, a five-argument GetByString,
// StartUpdate/WaitUpdateEnd, and SelectMainProgram").
type OSPAPIBinding interface {
	Connect(ip string, kind domain.MachineKind) (NativeSession, error)
}

// NativeSession is one opaque native connection handle. Every method call
// on a session must be serialized by the caller (spec.md §4.1
// "Serialization") — the binding is not safe under concurrent entry.
type NativeSession interface {
	// GetByString issues the five-argument OSPAPI read. errMessage is the
	// binding's own error text; a non-empty value means the call failed
	// without necessarily returning a Go error (spec.md §4.4 step 4).
	GetByString(subsystem, major, subscript, minor, style int) (value string, errMessage string, err error)

	// StartUpdate/WaitUpdateEnd perform one controller-wide MacMan update
	// cycle (spec.md §4.5 step 3).
	StartUpdate(a, b int) error
	WaitUpdateEnd() error

	// SelectMainProgram dispatches a program-selection command. A non-zero
	// result is a failure; errMessage becomes the exception text.
	SelectMainProgram(mainFile, subFile, programName string, mode int) (result int, errMessage string, err error)

	// Disconnect tears down the native handle. Only called on shutdown or
	// an explicit forced reset — never on a transient call failure
	// (spec.md §4.1 "Never close on error").
	Disconnect() error
}
