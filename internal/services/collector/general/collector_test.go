package general

import (
	"context"
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

type stubRegistry struct {
	descriptors map[string]domain.Descriptor
}

func (r *stubRegistry) Resolve(field string) (domain.Descriptor, bool) {
	d, ok := r.descriptors[field]
	return d, ok
}

type stubSessions struct {
	value      string
	errMessage string
	err        error
}

func (s *stubSessions) WithSession(machineName string, fn func(interfaces.NativeSession) error) error {
	return fn(&stubSession{value: s.value, errMessage: s.errMessage, err: s.err})
}

type stubSession struct {
	value, errMessage string
	err               error
}

func (s *stubSession) GetByString(subsystem, major, subscript, minor, style int) (string, string, error) {
	return s.value, s.errMessage, s.err
}
func (s *stubSession) StartUpdate(a, b int) error { return nil }
func (s *stubSession) WaitUpdateEnd() error       { return nil }
func (s *stubSession) SelectMainProgram(mainFile, subFile, programName string, mode int) (int, string, error) {
	return 0, "", nil
}
func (s *stubSession) Disconnect() error { return nil }

type recordingControlPlane struct {
	mu     sync.Mutex
	writes map[string]domain.Value
}

func newRecordingControlPlane() *recordingControlPlane {
	return &recordingControlPlane{writes: make(map[string]domain.Value)}
}
func (c *recordingControlPlane) Read(ctx context.Context, nodeID string) (domain.Value, bool) { return domain.Value{}, false }
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

func TestCollect_HappyPath(t *testing.T) {
	registry := &stubRegistry{descriptors: map[string]domain.Descriptor{
		"WorkCounterA_Counted": {
			APIName: "WorkCounterA_Counted", DataFieldName: "WorkCounterA_Counted",
			SubsystemIndex: 0, MajorIndex: 3066, MinorIndex: 0, Subscript: 0,
			StyleCode: 8, HasStyleCode: true, DataType: domain.TypeFloat, Enabled: true,
		},
	}}
	sessions := &stubSessions{value: "  42.50  "}
	cp := newRecordingControlPlane()

	c := New(registry, sessions, cp, testLogger())
	err := c.Collect(context.Background(), "M001", "WorkCounterA_Counted")
	require.NoError(t, err)

	assert.Equal(t, domain.BoolValue(false), cp.writes[domain.DataFieldNodeID("M001", "WorkCounterA_Counted", "extract")])
	assert.Equal(t, domain.DoubleValue(42.5), cp.writes[domain.DataFieldNodeID("M001", "WorkCounterA_Counted", "value")])
	_, ok := cp.writes[domain.DataFieldNodeID("M001", "WorkCounterA_Counted", "lastupdated")]
	assert.True(t, ok)
}

func TestCollect_DisabledDescriptorResetsTriggerOnly(t *testing.T) {
	registry := &stubRegistry{descriptors: map[string]domain.Descriptor{
		"WorkCounterA_Counted": {DataFieldName: "WorkCounterA_Counted", Enabled: false},
	}}
	cp := newRecordingControlPlane()
	c := New(registry, &stubSessions{}, cp, testLogger())

	err := c.Collect(context.Background(), "M001", "WorkCounterA_Counted")
	assert.Error(t, err)

	assert.Equal(t, domain.BoolValue(false), cp.writes[domain.DataFieldNodeID("M001", "WorkCounterA_Counted", "extract")])
	_, valueWritten := cp.writes[domain.DataFieldNodeID("M001", "WorkCounterA_Counted", "value")]
	assert.False(t, valueWritten)
}

func TestCollect_GetByStringErrorMessageWritesZeroValue(t *testing.T) {
	registry := &stubRegistry{descriptors: map[string]domain.Descriptor{
		"Temp": {DataFieldName: "Temp", DataType: domain.TypeFloat, Enabled: true},
	}}
	sessions := &stubSessions{errMessage: "controller busy"}
	cp := newRecordingControlPlane()

	c := New(registry, sessions, cp, testLogger())
	err := c.Collect(context.Background(), "M002", "Temp")
	assert.Error(t, err)
	assert.Equal(t, domain.DoubleValue(0), cp.writes[domain.DataFieldNodeID("M002", "Temp", "value")])
	assert.Equal(t, domain.BoolValue(false), cp.writes[domain.DataFieldNodeID("M002", "Temp", "extract")])
}
