//go:build ospapi_native

// Package ospapi wraps the proprietary OSPAPI native library behind the
// interfaces.OSPAPIBinding/NativeSession boundary (spec.md §1 "the native
// OSPAPI binding ... out of scope"). The real binding is a cgo wrapper
// compiled only with the ospapi_native build tag, grounded on the FOCAS2
// cgo wrapper's CFLAGS/LDFLAGS and C-helper-function shape; without that
// tag, Fake (fake.go) stands in for local development and tests.
package ospapi

/*
#cgo CFLAGS: -I../../
#cgo LDFLAGS: -L../../ -losp -Wl,-rpath,'$ORIGIN'

#include <stdlib.h>
#include <string.h>
#include "osplib.h"

// ---- C helpers ----

static short go_osp_connect(const char* ip, unsigned short kind, unsigned short* handle_out) {
    return ospConnect(ip, kind, handle_out);
}

static short go_osp_disconnect(unsigned short h) {
    return ospDisconnect(h);
}

static short go_osp_get_by_string(unsigned short h, int subsystem, int major, int subscript, int minor, int style,
                                   char* value_out, int value_cap, char* err_out, int err_cap) {
    return ospGetDataByString(h, subsystem, major, subscript, minor, style, value_out, value_cap, err_out, err_cap);
}

static short go_osp_start_update(unsigned short h, int a, int b) {
    return ospStartUpdate(h, a, b);
}

static short go_osp_wait_update_end(unsigned short h) {
    return ospWaitUpdateEnd(h);
}

static short go_osp_select_main_program(unsigned short h, const char* main_file, const char* sub_file,
                                         const char* program_name, int mode, char* err_out, int err_cap) {
    return ospSelectMainProgram(h, main_file, sub_file, program_name, mode, err_out, err_cap);
}
*/
import "C"

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/okuma-coupler/bridge/internal/domain"
	"github.com/okuma-coupler/bridge/internal/interfaces"
)

const (
	valueBufSize = 256
	errBufSize   = 256
)

// nativeKind maps a domain.MachineKind onto the ProgID the native library
// expects to select the correct controller personality (spec.md §3
// "Machine ... Derived: a short MachineKind ... used to select the
// native ProgID").
func nativeKind(kind domain.MachineKind) C.ushort {
	switch kind {
	case domain.KindLathe:
		return 1
	case domain.KindGrinder:
		return 2
	default:
		return 0
	}
}

// Binding is the cgo-backed interfaces.OSPAPIBinding.
type Binding struct{}

func New() *Binding { return &Binding{} }

// NewBinding is the build-tag-stable constructor the composition root
// wires regardless of which implementation this build includes.
func NewBinding() interfaces.OSPAPIBinding { return New() }

func (b *Binding) Connect(ip string, kind domain.MachineKind) (interfaces.NativeSession, error) {
	cip := C.CString(ip)
	defer C.free(unsafe.Pointer(cip))

	var handle C.ushort
	rc := C.go_osp_connect(cip, nativeKind(kind), &handle)
	if rc != 0 {
		return nil, fmt.Errorf("ospapi: connect to %s failed, rc=%d", ip, int16(rc))
	}
	return &session{handle: handle}, nil
}

// session is one opaque native connection handle (spec.md §3 "Session").
type session struct {
	handle C.ushort
}

func (s *session) GetByString(subsystem, major, subscript, minor, style int) (string, string, error) {
	valueBuf := make([]byte, valueBufSize)
	errBuf := make([]byte, errBufSize)

	rc := C.go_osp_get_by_string(
		s.handle,
		C.int(subsystem), C.int(major), C.int(subscript), C.int(minor), C.int(style),
		(*C.char)(unsafe.Pointer(&valueBuf[0])), C.int(len(valueBuf)),
		(*C.char)(unsafe.Pointer(&errBuf[0])), C.int(len(errBuf)),
	)
	if rc != 0 {
		return "", "", fmt.Errorf("ospapi: GetByString rc=%d", int16(rc))
	}
	return trimNull(string(valueBuf)), trimNull(string(errBuf)), nil
}

func (s *session) StartUpdate(a, b int) error {
	rc := C.go_osp_start_update(s.handle, C.int(a), C.int(b))
	if rc != 0 {
		return fmt.Errorf("ospapi: StartUpdate rc=%d", int16(rc))
	}
	return nil
}

func (s *session) WaitUpdateEnd() error {
	rc := C.go_osp_wait_update_end(s.handle)
	if rc != 0 {
		return fmt.Errorf("ospapi: WaitUpdateEnd rc=%d", int16(rc))
	}
	return nil
}

func (s *session) SelectMainProgram(mainFile, subFile, programName string, mode int) (int, string, error) {
	cMain := C.CString(mainFile)
	cSub := C.CString(subFile)
	cName := C.CString(programName)
	defer C.free(unsafe.Pointer(cMain))
	defer C.free(unsafe.Pointer(cSub))
	defer C.free(unsafe.Pointer(cName))

	errBuf := make([]byte, errBufSize)
	rc := C.go_osp_select_main_program(s.handle, cMain, cSub, cName, C.int(mode),
		(*C.char)(unsafe.Pointer(&errBuf[0])), C.int(len(errBuf)))
	return int(rc), trimNull(string(errBuf)), nil
}

func (s *session) Disconnect() error {
	rc := C.go_osp_disconnect(s.handle)
	if rc != 0 {
		return fmt.Errorf("ospapi: disconnect rc=%d", int16(rc))
	}
	return nil
}

func trimNull(s string) string {
	return strings.TrimRight(s, "\x00")
}
