package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveMachineID(t *testing.T) {
	assert.Equal(t, "M001", DeriveMachineID("M001 - Lathe 3"))
	assert.Equal(t, "NoSeparator", DeriveMachineID("NoSeparator"))
}

func TestIsSystemName(t *testing.T) {
	assert.True(t, IsSystemName("System Config"))
	assert.True(t, IsSystemName("GlobalServer"))
	assert.True(t, IsSystemName("server-1"))
	assert.False(t, IsSystemName("M001 - Lathe 3"))
}
