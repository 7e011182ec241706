package macman

import (
	"context"
	"time"

	"github.com/okuma-coupler/bridge/internal/domain"
	"github.com/okuma-coupler/bridge/internal/interfaces"
)

const watermarkLayout = "2006-01-02T15:04:05.000"

// readWatermark resolves a screen's current watermark, accepting a native
// datetime, Unix seconds (UTC, converted to local), or a parseable string;
// anything else collapses to the epoch (spec.md §3 "MacMan watermark",
// §4.5 step 2).
func readWatermark(ctx context.Context, cp interfaces.ControlPlaneClient, machineName string, screen domain.ScreenType) time.Time {
	nodeID := domain.MacManLastProcessedNodeID(machineName, screen)
	value, ok := cp.Read(ctx, nodeID)
	if !ok {
		return domain.Epoch
	}
	switch value.Kind {
	case domain.KindDateTime:
		return value.DateTime.Local()
	case domain.KindInt64:
		return time.Unix(value.Int64, 0).UTC().Local()
	case domain.KindInt32:
		return time.Unix(int64(value.Int32), 0).UTC().Local()
	case domain.KindString:
		if t, ok := parseRecordTimestamp(value.String, ""); ok {
			return t
		}
		return domain.Epoch
	default:
		return domain.Epoch
	}
}

// writeWatermark advances a screen's watermark using the typed-fallback
// cascade of spec.md §4.5 step 5: formatted local-time string, native
// timestamp, Unix seconds as 64-bit, Unix seconds as 32-bit — the first
// write that reports a good status wins.
func writeWatermark(ctx context.Context, cp interfaces.ControlPlaneClient, machineName string, screen domain.ScreenType, newest time.Time) {
	nodeID := domain.MacManLastProcessedNodeID(machineName, screen)
	local := newest.Local()

	if cp.Write(ctx, nodeID, domain.StringValue(local.Format(watermarkLayout))) {
		return
	}
	if cp.Write(ctx, nodeID, domain.DateTimeValue(local)) {
		return
	}
	if cp.Write(ctx, nodeID, domain.Int64Value(local.Unix())) {
		return
	}
	cp.Write(ctx, nodeID, domain.Int32Value(int32(local.Unix())))
}
