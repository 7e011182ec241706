package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okuma-coupler/bridge/internal/domain"
)

const sampleAPIConfig = `{
  "Configurations": {
    "machining-center": {
      "P300": {
        "General": [
          {
            "ApiName": "WorkCounterA_Counted",
            "Type": "data",
            "SubsystemIndex": 0,
            "MajorIndex": 3066,
            "MinorIndex": 0,
            "StyleCode": 8,
            "Subscript": 0,
            "DataFieldName": "WorkCounterA_Counted",
            "DataFieldDescription": "Work counter A",
            "DataType": "float",
            "CollectionIntervalMs": 5000,
            "Enabled": true,
            "MinimumChangeThreshold": 0.0
          }
        ],
        "Custom": [
          {
            "ApiName": "CustomField",
            "Type": "data",
            "SubsystemIndex": 0,
            "MajorIndex": 100,
            "MinorIndex": 0,
            "StyleCode": null,
            "Subscript": 0,
            "DataFieldName": "CustomField",
            "DataFieldDescription": "",
            "DataType": "string",
            "CollectionIntervalMs": 1000,
            "Enabled": false,
            "MinimumChangeThreshold": 0.0
          }
        ]
      }
    }
  }
}`

func writeTempConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "api_config.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleAPIConfig), 0o644))
	return path
}

func TestLoadAPIConfig_ParsesGeneralAndCustom(t *testing.T) {
	path := writeTempConfig(t)

	descriptors, err := LoadAPIConfig(path)
	require.NoError(t, err)
	require.Len(t, descriptors, 2)

	var general, custom bool
	for _, d := range descriptors {
		switch d.DataFieldName {
		case "WorkCounterA_Counted":
			general = true
			assert.True(t, d.HasStyleCode)
			assert.Equal(t, 8, d.StyleCode)
			assert.Equal(t, domain.TypeFloat, d.DataType)
		case "CustomField":
			custom = true
			assert.False(t, d.HasStyleCode)
			assert.False(t, d.Enabled)
		}
	}
	assert.True(t, general)
	assert.True(t, custom)
}

func TestLoadAPIConfig_MissingFileErrors(t *testing.T) {
	_, err := LoadAPIConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
