package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEnvelope_UsesRecordTimeExceptForOperatingReport(t *testing.T) {
	recordTime := time.Date(2025, 9, 1, 10, 30, 0, 0, time.UTC)
	now := time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC)

	rec := MacManRecord{
		Screen:    ScreenAlarmHistory,
		Timestamp: recordTime,
		Fields: map[string]any{
			"Date":         "20250901",
			"Time":         "103000",
			"AlarmCode":    "E001",
			"MainProgramName": "O1234",
		},
	}

	env := BuildEnvelope(1, "192.168.1.10", "M001 - Lathe 3", rec, recordTime, true, now)

	require.Equal(t, recordTime.UTC().Format(iso8601Millis), env.Timestamp)
	assert.Equal(t, now.UTC().Format(iso8601Millis), env.ProcessedDate)
	assert.Equal(t, "ALARM_HISTORY_DISPLAY", env.MeasurementType)
	assert.Equal(t, "M001 - Lathe 3", env.Tags["machine_name"])
	assert.Equal(t, "O1234", env.Tags["MainProgramName"])
	assert.Equal(t, "E001", env.Fields["AlarmCode"])
	assert.NotContains(t, env.Fields, "Date")
	assert.NotContains(t, env.Fields, "MainProgramName")
}

func TestBuildEnvelope_OperatingReportAlwaysUsesNow(t *testing.T) {
	recordTime := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 9, 2, 12, 0, 0, 0, time.UTC)

	rec := MacManRecord{Screen: ScreenOperatingReport, Timestamp: recordTime, Fields: map[string]any{"Date": "20250901"}}
	env := BuildEnvelope(1, "192.168.1.10", "M001", rec, recordTime, true, now)

	assert.Equal(t, now.UTC().Format(iso8601Millis), env.Timestamp)
}
