package dispatcher

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okuma-coupler/bridge/internal/domain"
	"github.com/okuma-coupler/bridge/internal/interfaces"
	"github.com/okuma-coupler/bridge/internal/middleware/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(&logging.Config{Enabled: false}, "test")
}

type fakeControlPlane struct {
	mu    sync.Mutex
	ch    chan interfaces.Notification
	browseResults map[string][]interfaces.BrowseResult
	subscribed    []string
}

func newFakeControlPlane() *fakeControlPlane {
	return &fakeControlPlane{ch: make(chan interfaces.Notification, 16), browseResults: make(map[string][]interfaces.BrowseResult)}
}

func (f *fakeControlPlane) Read(ctx context.Context, nodeID string) (domain.Value, bool) { return domain.Value{}, false }
func (f *fakeControlPlane) Write(ctx context.Context, nodeID string, value domain.Value) bool { return true }
func (f *fakeControlPlane) Browse(ctx context.Context, nodeID string) ([]interfaces.BrowseResult, error) {
	return f.browseResults[nodeID], nil
}
func (f *fakeControlPlane) Subscribe(ctx context.Context, nodeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribed = append(f.subscribed, nodeID)
	return nil
}
func (f *fakeControlPlane) RestoreSubscriptions(ctx context.Context) error     { return nil }
func (f *fakeControlPlane) Notifications() <-chan interfaces.Notification     { return f.ch }
func (f *fakeControlPlane) Close(ctx context.Context) error                   { return nil }

type countingGeneral struct{ calls int32 }

func (c *countingGeneral) Collect(ctx context.Context, machineName, field string) error {
	atomic.AddInt32(&c.calls, 1)
	return nil
}

type countingMacMan struct{ calls int32 }

func (c *countingMacMan) Collect(ctx context.Context, machineName string) error {
	atomic.AddInt32(&c.calls, 1)
	return nil
}

type countingProgMgmt struct {
	starts, cancels int32
}

func (c *countingProgMgmt) Start(ctx context.Context, machineName string) error {
	atomic.AddInt32(&c.starts, 1)
	return nil
}
func (c *countingProgMgmt) Cancel(ctx context.Context, machineName string) error {
	atomic.AddInt32(&c.cancels, 1)
	return nil
}

func TestClassify(t *testing.T) {
	assert.Equal(t, kindProgramManagement, classify("ns=2;s=Okuma.Machines.M001.ProgramManagement.Ctrl"))
	assert.Equal(t, kindMacMan, classify("ns=2;s=Okuma.Machines.M001.Data.MacManData.extract"))
	assert.Equal(t, kindGeneral, classify("ns=2;s=Okuma.Machines.M001.Data.WorkCounterA_Counted.extract"))
	assert.Equal(t, kindDrop, classify("ns=2;s=Okuma.Machines.M001.Connected"))
}

func TestDispatch_GeneralRisingEdgeTriggersCollect(t *testing.T) {
	cp := newFakeControlPlane()
	general := &countingGeneral{}
	d := New(cp, general, &countingMacMan{}, &countingProgMgmt{}, 4, testLogger())

	nodeID := "ns=2;s=Okuma.Machines.M001.Data.WorkCounterA_Counted.extract"
	d.handle(context.Background(), interfaces.Notification{NodeID: nodeID, Value: domain.BoolValue(true)})

	require.Eventually(t, func() bool { return atomic.LoadInt32(&general.calls) == 1 }, time.Second, time.Millisecond)
}

func TestDispatch_FallingEdgeIsIgnoredForGeneral(t *testing.T) {
	cp := newFakeControlPlane()
	general := &countingGeneral{}
	d := New(cp, general, &countingMacMan{}, &countingProgMgmt{}, 4, testLogger())

	nodeID := "ns=2;s=Okuma.Machines.M001.Data.WorkCounterA_Counted.extract"
	d.handle(context.Background(), interfaces.Notification{NodeID: nodeID, Value: domain.BoolValue(false)})
	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 0, general.calls)
}

func TestDispatch_ProgramManagementRespondsToBothEdges(t *testing.T) {
	cp := newFakeControlPlane()
	prog := &countingProgMgmt{}
	d := New(cp, &countingGeneral{}, &countingMacMan{}, prog, 4, testLogger())

	nodeID := "ns=2;s=Okuma.Machines.M001.ProgramManagement.Ctrl"
	d.handle(context.Background(), interfaces.Notification{NodeID: nodeID, Value: domain.BoolValue(true)})
	require.Eventually(t, func() bool { return atomic.LoadInt32(&prog.starts) == 1 }, time.Second, time.Millisecond)

	d.handle(context.Background(), interfaces.Notification{NodeID: nodeID, Value: domain.BoolValue(false)})
	require.Eventually(t, func() bool { return atomic.LoadInt32(&prog.cancels) == 1 }, time.Second, time.Millisecond)
}

func TestMachineAndFieldFromGeneral(t *testing.T) {
	m, f := machineAndFieldFromGeneral("ns=2;s=Okuma.Machines.M001 - Lathe 3.Data.WorkCounterA_Counted.extract")
	assert.Equal(t, "M001 - Lathe 3", m)
	assert.Equal(t, "WorkCounterA_Counted", f)
}

func TestDiscover_SkipsSystemNamesAndSubscribesTriggers(t *testing.T) {
	cp := newFakeControlPlane()
	root := domain.MachinesRootNodeID()
	cp.browseResults[root] = []interfaces.BrowseResult{
		{NodeID: root + ".SystemConfig", DisplayName: "SystemConfig"},
		{NodeID: root + ".M001", DisplayName: "M001"},
	}
	cp.browseResults[root+".SystemConfig"] = []interfaces.BrowseResult{
		{NodeID: root + ".SystemConfig.ProgramManagement.Ctrl", DisplayName: "Ctrl"},
	}
	cp.browseResults[root+".M001"] = []interfaces.BrowseResult{
		{NodeID: root + ".M001.Data", DisplayName: "Data"},
		{NodeID: root + ".M001.ProgramManagement.Ctrl", DisplayName: "Ctrl"},
	}
	cp.browseResults[root+".M001.Data"] = []interfaces.BrowseResult{
		{NodeID: root + ".M001.Data.WorkCounterA_Counted", DisplayName: "WorkCounterA_Counted"},
	}
	cp.browseResults[root+".M001.Data.WorkCounterA_Counted"] = []interfaces.BrowseResult{
		{NodeID: root + ".M001.Data.WorkCounterA_Counted.extract", DisplayName: "extract"},
	}

	d := New(cp, &countingGeneral{}, &countingMacMan{}, &countingProgMgmt{}, 4, testLogger())
	err := d.Discover(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		root + ".M001.ProgramManagement.Ctrl",
		root + ".M001.Data.WorkCounterA_Counted.extract",
	}, cp.subscribed)
}
