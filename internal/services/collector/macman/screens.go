package macman

import (
	"strings"
	"time"

	"github.com/okuma-coupler/bridge/internal/domain"
)

// comparator decides, for one candidate record timestamp against the
// current watermark, whether to collect it and whether to stop the screen
// afterwards (spec.md §4.5 "Per-screen comparators and specifics").
type comparator func(candidate, watermark time.Time) (collect, stop bool)

func comparatorGTE(candidate, watermark time.Time) (bool, bool) {
	switch {
	case candidate.After(watermark):
		return true, false
	case candidate.Equal(watermark):
		return true, true
	default:
		return false, true
	}
}

func comparatorGT(candidate, watermark time.Time) (bool, bool) {
	if candidate.After(watermark) {
		return true, false
	}
	return false, true
}

func comparatorAlways(candidate, watermark time.Time) (bool, bool) {
	return true, true
}

// machiningReportOffset is the fixed "PERIOD mode" offset the design notes
// call out (§9): preserve the arithmetic exactly, do not normalize.
const machiningReportOffset = 2

func machiningReportMajorA() int { return 5001 + machiningReportOffset*2 }
func machiningReportMajorB() int { return 3042 + machiningReportOffset*12 }

// screenSpec is the per-screen probe table of spec.md §4.5.
type screenSpec struct {
	Screen domain.ScreenType

	CountSubsystem, CountMajor, CountMinor, CountStyle int
	FixedCount                                         int // 0 means "use the probe"; OPERATING_REPORT is always 1

	DateSubsystem, DateMajor, DateMinor, DateStyle int
	TimeMajor                                      int // 0 means date-only (OPERATING_REPORT)

	DateFieldName, TimeFieldName string

	Comparator comparator
}

var screenSpecs = map[domain.ScreenType]screenSpec{
	domain.ScreenMachiningReport: {
		Screen:         domain.ScreenMachiningReport,
		CountSubsystem: 1, CountMajor: 2094, CountStyle: 9,
		DateSubsystem: 1, DateMajor: 5061, DateStyle: 9,
		TimeMajor:     5062,
		DateFieldName: "StartDay", TimeFieldName: "StartTime",
		Comparator: comparatorGTE,
	},
	domain.ScreenAlarmHistory: {
		Screen:         domain.ScreenAlarmHistory,
		CountSubsystem: 1, CountMajor: 2094, CountStyle: 9,
		DateSubsystem: 1, DateMajor: 5063, DateStyle: 9,
		TimeMajor:     5064,
		DateFieldName: "Date", TimeFieldName: "Time",
		Comparator: comparatorGT,
	},
	domain.ScreenOperationHistory: {
		Screen:         domain.ScreenOperationHistory,
		CountSubsystem: 1, CountMajor: 2095, CountStyle: 9,
		DateSubsystem: 1, DateMajor: 5065, DateStyle: 9,
		TimeMajor:     5066,
		DateFieldName: "Date", TimeFieldName: "Time",
		Comparator: comparatorGT,
	},
	domain.ScreenNCStatusAtAlarm: {
		Screen:         domain.ScreenNCStatusAtAlarm,
		CountSubsystem: 1, CountMajor: 2096, CountStyle: 9,
		DateSubsystem: 1, DateMajor: 5068, DateStyle: 9,
		TimeMajor:     5069,
		DateFieldName: "Date", TimeFieldName: "Time",
		Comparator: comparatorGT,
	},
	domain.ScreenOperatingReport: {
		Screen:     domain.ScreenOperatingReport,
		FixedCount: 1,
		DateSubsystem: 1, DateMajor: 5056, DateStyle: 9,
		DateFieldName: "Date",
		Comparator: comparatorAlways,
	},
}

// combinedLayouts is the parse cascade of spec.md §4.5 "Date/time parsing
// attempts in order". The first entry is tried against the date and time
// strings concatenated without a space; the rest are tried against the two
// joined by a space, or against the date alone when there is no time string.
var combinedLayouts = []string{
	"20060102150405",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"01/02/2006 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// parseRecordTimestamp combines a record's date and time strings into a
// local time.Time, trying each layout in order. An unparseable date stops
// the screen immediately per spec.md §4.5.
func parseRecordTimestamp(dateStr, timeStr string) (time.Time, bool) {
	dateStr = strings.TrimSpace(dateStr)
	timeStr = strings.TrimSpace(timeStr)
	if dateStr == "" {
		return time.Time{}, false
	}

	combined := dateStr
	if timeStr != "" {
		combined = dateStr + timeStr
		if t, err := time.ParseInLocation(combinedLayouts[0], combined, time.Local); err == nil {
			return t, true
		}
		combined = dateStr + " " + timeStr
	}

	for _, layout := range combinedLayouts[1:] {
		if t, err := time.ParseInLocation(layout, combined, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
