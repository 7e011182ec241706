// Package macman implements the MacMan Collector (spec.md §4.5): per-machine
// incremental historical collection across five screen types, with
// watermark read/advance and event-stream publish.
package macman

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/okuma-coupler/bridge/internal/domain"
	"github.com/okuma-coupler/bridge/internal/interfaces"
	"github.com/okuma-coupler/bridge/internal/middleware/logging"
)

const defaultMachineIP = "127.0.0.1"
const batchSize = 1000

// SessionAcquirer serializes calls into a machine's native session.
type SessionAcquirer interface {
	WithSession(machineName string, fn func(interfaces.NativeSession) error) error
}

// MachineConfigReader resolves a machine's IP for envelope framing.
type MachineConfigReader interface {
	ReadMachineConfig(machineName string) (domain.Machine, error)
}

type Collector struct {
	sessions SessionAcquirer
	config   MachineConfigReader
	cp       interfaces.ControlPlaneClient
	sink     interfaces.EventSink
	logger   *logging.Logger
}

func New(sessions SessionAcquirer, config MachineConfigReader, cp interfaces.ControlPlaneClient, sink interfaces.EventSink, logger *logging.Logger) *Collector {
	return &Collector{sessions: sessions, config: config, cp: cp, sink: sink, logger: logger.WithPrefix("MACMAN")}
}

// Collect runs one full incremental pass over all five screens for
// machineName (spec.md §4.5 steps 1-6).
func (c *Collector) Collect(ctx context.Context, machineName string) error {
	machine, err := c.config.ReadMachineConfig(machineName)
	machineIP := defaultMachineIP
	if err == nil && machine.IPAddress != "" {
		machineIP = machine.IPAddress
	}
	machineID := parseMachineIDInt(machine.MachineID)

	watermarks := make(map[domain.ScreenType]time.Time, len(domain.AllScreenTypes))
	for _, screen := range domain.AllScreenTypes {
		watermarks[screen] = readWatermark(ctx, c.cp, machineName, screen)
	}

	runErr := c.sessions.WithSession(machineName, func(session interfaces.NativeSession) error {
		if err := session.StartUpdate(0, 0); err != nil {
			c.logger.Warn("StartUpdate reported a warning", "machine", machineName, "error", err)
		}
		if err := session.WaitUpdateEnd(); err != nil {
			c.logger.Warn("WaitUpdateEnd reported a warning", "machine", machineName, "error", err)
		}

		for _, screen := range domain.AllScreenTypes {
			c.collectScreen(ctx, session, machineName, machineIP, machineID, screen, watermarks[screen])
		}
		return nil
	})

	extractNode := domain.MacManExtractNodeID(machineName)
	if ok := c.cp.Write(ctx, extractNode, domain.BoolValue(false)); !ok {
		c.logger.Warn("Failed to reset MacManData.extract", "machine", machineName)
	}

	return runErr
}

// collectScreen runs one screen's collection routine with
// skipUpdate=true (the controller-wide update already ran once per
// machine), iterating newest-to-oldest until the comparator says stop
// (spec.md §4.5 step 4).
func (c *Collector) collectScreen(ctx context.Context, session interfaces.NativeSession, machineName, machineIP string, machineID int, screen domain.ScreenType, watermark time.Time) {
	spec := screenSpecs[screen]

	count := spec.FixedCount
	if count == 0 {
		count = c.readCount(session, spec)
	}
	if count > batchSize {
		count = batchSize
	}

	var records []domain.MacManRecord
	for i := 0; i < count; i++ {
		dateStr, _, err := session.GetByString(spec.DateSubsystem, spec.DateMajor, i, spec.DateMinor, spec.DateStyle)
		if err != nil {
			c.logger.Warn("Failed to read record date, stopping screen", "machine", machineName, "screen", screen, "index", i, "error", err)
			break
		}

		var timeStr string
		if spec.TimeMajor != 0 {
			timeStr, _, err = session.GetByString(spec.DateSubsystem, spec.TimeMajor, i, spec.DateMinor, spec.DateStyle)
			if err != nil {
				c.logger.Warn("Failed to read record time, stopping screen", "machine", machineName, "screen", screen, "index", i, "error", err)
				break
			}
		}

		ts, ok := parseRecordTimestamp(dateStr, timeStr)
		if !ok {
			c.logger.Warn("Unparseable record timestamp, stopping screen", "machine", machineName, "screen", screen, "index", i, "date", dateStr, "time", timeStr)
			break
		}

		collect, stop := spec.Comparator(ts, watermark)
		if collect {
			fields := map[string]any{spec.DateFieldName: dateStr}
			if spec.TimeFieldName != "" {
				fields[spec.TimeFieldName] = timeStr
			}
			if screen == domain.ScreenMachiningReport {
				c.readMachiningReportFields(session, i, fields)
			}
			records = append(records, domain.MacManRecord{Screen: screen, Timestamp: ts, Fields: fields})
		}
		if stop {
			break
		}
	}

	if len(records) == 0 {
		return
	}

	newest := records[0].Timestamp
	for _, rec := range records[1:] {
		if rec.Timestamp.After(newest) {
			newest = rec.Timestamp
		}
	}

	c.publishBatch(ctx, machineID, machineIP, machineName, records)
	writeWatermark(ctx, c.cp, machineName, screen, newest)
}

// readMachiningReportFields reads the two "PERIOD mode" numbered fields
// the design notes call out (§9): preserve the literal arithmetic, do not
// normalize the constants.
func (c *Collector) readMachiningReportFields(session interfaces.NativeSession, index int, fields map[string]any) {
	if v, _, err := session.GetByString(1, machiningReportMajorA(), index, 0, 9); err == nil {
		fields["PeriodModeFieldA"] = v
	}
	if v, _, err := session.GetByString(1, machiningReportMajorB(), index, 0, 9); err == nil {
		fields["PeriodModeFieldB"] = v
	}
}

func (c *Collector) readCount(session interfaces.NativeSession, spec screenSpec) int {
	raw, errMessage, err := session.GetByString(spec.CountSubsystem, spec.CountMajor, 0, 0, spec.CountStyle)
	if err != nil || errMessage != "" {
		return 0
	}
	n, convErr := strconv.Atoi(strings.TrimSpace(raw))
	if convErr != nil {
		return 0
	}
	return n
}

// publishBatch frames and publishes every collected record in order.
// Publishing is best-effort: a failure is logged and collection continues
// (spec.md §7 "Event-stream publish failure").
func (c *Collector) publishBatch(ctx context.Context, machineID int, machineIP, machineName string, records []domain.MacManRecord) {
	now := time.Now()
	for _, rec := range records {
		processedDate, have := rec.Timestamp, true
		envelope := domain.BuildEnvelope(machineID, machineIP, machineName, rec, processedDate, have, now)
		key := fmt.Sprintf("%s:%s", machineName, rec.Screen)
		if err := c.sink.Publish(ctx, key, envelope); err != nil {
			c.logger.Warn("Event-stream publish failed", "machine", machineName, "screen", rec.Screen, "error", err)
		}
	}
}

// parseMachineIDInt extracts the leading run of digits from a machine ID
// string such as "M001", falling back to 0 when none is present.
func parseMachineIDInt(machineID string) int {
	var digits strings.Builder
	for _, r := range machineID {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		} else if digits.Len() > 0 {
			break
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return n
}
