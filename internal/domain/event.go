package domain

import "time"

// fieldsExcludedFromEnvelope lists the MacMan record fields that carry the
// record's own timestamp/program identity rather than measurement data;
// they are promoted into "tags"/"timestamp" instead of "fields" (§6.4).
var fieldsExcludedFromEnvelope = map[string]bool{
	"StartDay":        true,
	"StartTime":       true,
	"Date":            true,
	"Time":            true,
	"ProcessedDate":   true,
	"MainProgramName": true,
	"ProgramName":     true,
}

const iso8601Millis = "2006-01-02T15:04:05.000Z"

// Envelope is the JSON object published to the event-stream sink for one
// MacMan record, per spec.md §6.4.
type Envelope struct {
	MachineID       int            `json:"machine_id"`
	MachineIP       string         `json:"machine_ip"`
	Timestamp       string         `json:"timestamp"`
	MeasurementType string         `json:"measurement_type"`
	Tags            map[string]any `json:"tags"`
	Fields          map[string]any `json:"fields"`
	ProcessedDate   string         `json:"ProcessedDate"`
}

// BuildEnvelope frames one MacMan record into its publish envelope.
//
// recordProcessedDate is the record's own parsed ProcessedDate field (UTC),
// used as the envelope timestamp for every screen except
// OPERATING_REPORT_DISPLAY, which always carries the current wall-clock
// time per the upstream contract the design notes call out verbatim (§9).
// now is the current wall-clock time (passed in so callers stay testable).
func BuildEnvelope(machineID int, machineIP, machineName string, rec MacManRecord, recordProcessedDate time.Time, haveRecordProcessedDate bool, now time.Time) Envelope {
	fields := make(map[string]any, len(rec.Fields))
	tags := map[string]any{"machine_name": machineName}

	for k, v := range rec.Fields {
		if fieldsExcludedFromEnvelope[k] {
			if k == "MainProgramName" || k == "ProgramName" {
				tags[k] = v
			}
			continue
		}
		fields[k] = v
	}

	ts := now.UTC()
	if rec.Screen != ScreenOperatingReport {
		if haveRecordProcessedDate {
			ts = recordProcessedDate.UTC()
		} else {
			ts = now.UTC()
		}
	}

	return Envelope{
		MachineID:       machineID,
		MachineIP:       machineIP,
		Timestamp:       ts.Format(iso8601Millis),
		MeasurementType: string(rec.Screen),
		Tags:            tags,
		Fields:          fields,
		ProcessedDate:   now.UTC().Format(iso8601Millis),
	}
}
