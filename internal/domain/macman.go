package domain

import "time"

// ScreenType is one of the five MacMan historical screens (spec.md §3).
type ScreenType string

const (
	ScreenAlarmHistory       ScreenType = "ALARM_HISTORY_DISPLAY"
	ScreenMachiningReport    ScreenType = "MACHINING_REPORT_DISPLAY"
	ScreenNCStatusAtAlarm    ScreenType = "NC_STATUS_AT_ALARM_DISPLAY"
	ScreenOperatingReport    ScreenType = "OPERATING_REPORT_DISPLAY"
	ScreenOperationHistory   ScreenType = "OPERATION_HISTORY_DISPLAY"
)

// AllScreenTypes is the fixed iteration order used by the MacMan collector.
// Order is not significant for correctness (each screen has its own
// watermark and record batch) but is kept stable for deterministic logging.
var AllScreenTypes = []ScreenType{
	ScreenAlarmHistory,
	ScreenMachiningReport,
	ScreenNCStatusAtAlarm,
	ScreenOperatingReport,
	ScreenOperationHistory,
}

// Epoch is the watermark value a missing/unparseable LastProcessed node
// collapses to (spec.md §3 "MacMan watermark").
var Epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// MacManRecord is one collected historical row, already converted to a
// generic field map ready for event-stream framing.
type MacManRecord struct {
	Screen    ScreenType
	Timestamp time.Time // parsed record timestamp, local time
	Fields    map[string]any
}
