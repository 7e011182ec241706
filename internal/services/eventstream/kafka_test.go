package eventstream

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okuma-coupler/bridge/internal/domain"
	"github.com/okuma-coupler/bridge/internal/middleware/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(&logging.Config{Enabled: false}, "test")
}

func TestNoopSink_PublishNeverErrors(t *testing.T) {
	sink := NewNoopSink(testLogger())
	err := sink.Publish(context.Background(), "M001:ALARM_HISTORY_DISPLAY", domain.Envelope{MachineID: 1})
	require.NoError(t, err)
	assert.NoError(t, sink.Close())
}
