package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okuma-coupler/bridge/internal/domain"
	"github.com/okuma-coupler/bridge/internal/middleware/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(&logging.Config{Enabled: false}, "test")
}

func TestLoad_FallsBackToDefaultOnMissingFile(t *testing.T) {
	r := Load(filepath.Join(t.TempDir(), "missing.json"), testLogger())

	d, ok := r.Resolve("WorkCounterA_Counted")
	require.True(t, ok)
	assert.Equal(t, domain.DefaultDescriptor(), d)
}

func TestResolve_MatchesDataFieldNameOrAPIName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api_config.json")
	const body = `{"Configurations":{"machining-center":{"P300":{"General":[
		{"ApiName":"Foo","DataFieldName":"Bar","SubsystemIndex":0,"MajorIndex":1,"MinorIndex":0,"Subscript":0,"DataType":"string","Enabled":true}
	],"Custom":[]}}}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	r := Load(path, testLogger())

	_, ok := r.Resolve("Bar")
	assert.True(t, ok)
	_, ok = r.Resolve("Foo")
	assert.True(t, ok)
	_, ok = r.Resolve("Nonexistent")
	assert.False(t, ok)
}
