package programmgmt

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okuma-coupler/bridge/internal/domain"
	"github.com/okuma-coupler/bridge/internal/interfaces"
	"github.com/okuma-coupler/bridge/internal/middleware/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(&logging.Config{Enabled: false}, "test")
}

type stubConfig struct{ machine domain.Machine }

func (s *stubConfig) ReadMachineConfig(machineName string) (domain.Machine, error) {
	return s.machine, nil
}

type scriptedSession struct {
	result     int
	errMessage string
	err        error
}

func (s *scriptedSession) GetByString(subsystem, major, subscript, minor, style int) (string, string, error) {
	return "", "", nil
}
func (s *scriptedSession) StartUpdate(a, b int) error { return nil }
func (s *scriptedSession) WaitUpdateEnd() error       { return nil }
func (s *scriptedSession) SelectMainProgram(mainFile, subFile, programName string, mode int) (int, string, error) {
	return s.result, s.errMessage, s.err
}
func (s *scriptedSession) Disconnect() error { return nil }

type stubSessions struct{ session *scriptedSession }

func (s *stubSessions) WithSession(machineName string, fn func(interfaces.NativeSession) error) error {
	return fn(s.session)
}

type recordingControlPlane struct {
	mu     sync.Mutex
	values map[string]domain.Value
	writes map[string]domain.Value
}

func newRecordingControlPlane() *recordingControlPlane {
	return &recordingControlPlane{values: map[string]domain.Value{}, writes: map[string]domain.Value{}}
}
func (c *recordingControlPlane) Read(ctx context.Context, nodeID string) (domain.Value, bool) {
	v, ok := c.values[nodeID]
	return v, ok
}
func (c *recordingControlPlane) Write(ctx context.Context, nodeID string, value domain.Value) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes[nodeID] = value
	return true
}
func (c *recordingControlPlane) Browse(ctx context.Context, nodeID string) ([]interfaces.BrowseResult, error) {
	return nil, nil
}
func (c *recordingControlPlane) Subscribe(ctx context.Context, nodeID string) error { return nil }
func (c *recordingControlPlane) RestoreSubscriptions(ctx context.Context) error     { return nil }
func (c *recordingControlPlane) Notifications() <-chan interfaces.Notification     { return nil }
func (c *recordingControlPlane) Close(ctx context.Context) error                   { return nil }

func TestStart_HappyPathStagesAndSelectsMainProgram(t *testing.T) {
	srcDir := t.TempDir()
	srcPath := filepath.Join(srcDir, "PROGRAM.MIN")
	require.NoError(t, os.WriteFile(srcPath, []byte("O0001;"), 0o644))

	cp := newRecordingControlPlane()
	cp.values[domain.ProgramManagementNodeID("M001", "Filepath")] = domain.StringValue(srcPath)
	cp.values[domain.ProgramManagementNodeID("M001", "MainFile")] = domain.StringValue("PROGRAM.MIN")

	session := &scriptedSession{result: 0}
	e := New(&stubSessions{session: session}, &stubConfig{machine: domain.Machine{IPAddress: "10.1.1.1", MachineID: "M001"}}, cp, testLogger())
	e.stagingRoot = t.TempDir()
	e.crashDumpDir = t.TempDir()

	err := e.Start(context.Background(), "M001")
	require.NoError(t, err)

	staged := filepath.Join(e.stagingRoot, "10.1.1.1", "PROGRAM.MIN")
	_, statErr := os.Stat(staged)
	assert.NoError(t, statErr)

	assert.Equal(t, domain.BoolValue(true), cp.writes[domain.ProgramManagementNodeID("M001", "Stat")])
	assert.Equal(t, domain.StringValue(""), cp.writes[domain.ProgramManagementNodeID("M001", "Exception")])
}

func TestStart_MissingSourceFileReportsExactErrorText(t *testing.T) {
	cp := newRecordingControlPlane()
	missing := filepath.Join(t.TempDir(), "GONE.MIN")
	cp.values[domain.ProgramManagementNodeID("M002", "Filepath")] = domain.StringValue(missing)
	cp.values[domain.ProgramManagementNodeID("M002", "MainFile")] = domain.StringValue("GONE.MIN")

	e := New(&stubSessions{session: &scriptedSession{}}, &stubConfig{machine: domain.Machine{IPAddress: "10.1.1.2", MachineID: "M002"}}, cp, testLogger())
	e.stagingRoot = t.TempDir()
	e.crashDumpDir = t.TempDir()

	err := e.Start(context.Background(), "M002")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "File copy failed: Source file does not exist - "+missing)

	exception := cp.writes[domain.ProgramManagementNodeID("M002", "Exception")]
	assert.Equal(t, "File copy failed: Source file does not exist - "+missing, exception.String)
}

func TestStart_SelectMainProgramNonZeroResultReportsErrMessage(t *testing.T) {
	srcDir := t.TempDir()
	srcPath := filepath.Join(srcDir, "PROGRAM.MIN")
	require.NoError(t, os.WriteFile(srcPath, []byte("O0001;"), 0o644))

	cp := newRecordingControlPlane()
	cp.values[domain.ProgramManagementNodeID("M003", "Filepath")] = domain.StringValue(srcPath)
	cp.values[domain.ProgramManagementNodeID("M003", "MainFile")] = domain.StringValue("PROGRAM.MIN")

	session := &scriptedSession{result: 1, errMessage: "program not found"}
	e := New(&stubSessions{session: session}, &stubConfig{machine: domain.Machine{IPAddress: "10.1.1.3", MachineID: "M003"}}, cp, testLogger())
	e.stagingRoot = t.TempDir()
	e.crashDumpDir = t.TempDir()

	err := e.Start(context.Background(), "M003")
	require.Error(t, err)
	assert.Equal(t, "program not found", err.Error())
	assert.Equal(t, "program not found", cp.writes[domain.ProgramManagementNodeID("M003", "Exception")].String)
}

func TestCancel_WritesStatFalseOnly(t *testing.T) {
	cp := newRecordingControlPlane()
	e := New(&stubSessions{session: &scriptedSession{}}, &stubConfig{machine: domain.Machine{}}, cp, testLogger())

	err := e.Cancel(context.Background(), "M004")
	require.NoError(t, err)
	assert.Equal(t, domain.BoolValue(false), cp.writes[domain.ProgramManagementNodeID("M004", "Stat")])
	_, exceptionWritten := cp.writes[domain.ProgramManagementNodeID("M004", "Exception")]
	assert.False(t, exceptionWritten)
}
