//go:build !ospapi_native

package ospapi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okuma-coupler/bridge/internal/domain"
)

func TestFake_ConnectReusesSessionPerIP(t *testing.T) {
	f := NewFake()

	s1, err := f.Connect("10.0.0.1", domain.KindLathe)
	require.NoError(t, err)
	s2, err := f.Connect("10.0.0.1", domain.KindLathe)
	require.NoError(t, err)
	assert.Same(t, s1, s2)
}

func TestFake_ConnectReturnsScriptedError(t *testing.T) {
	f := NewFake()
	f.ConnectErr["10.0.0.2"] = errors.New("refused")

	_, err := f.Connect("10.0.0.2", domain.KindGrinder)
	assert.Error(t, err)
}

func TestFakeSession_GetByStringReturnsScriptedResponse(t *testing.T) {
	f := NewFake()
	session, err := f.Connect("10.0.0.3", domain.KindLathe)
	require.NoError(t, err)
	fs := session.(*FakeSession)
	fs.SetResponse(1, 3066, 0, 0, 8, "123.45", "", nil)

	value, errMessage, err := session.GetByString(1, 3066, 0, 0, 8)
	require.NoError(t, err)
	assert.Empty(t, errMessage)
	assert.Equal(t, "123.45", value)
}

func TestFakeSession_GetByStringUnscriptedCallErrors(t *testing.T) {
	f := NewFake()
	session, err := f.Connect("10.0.0.4", domain.KindLathe)
	require.NoError(t, err)

	_, _, err = session.GetByString(1, 9999, 0, 0, 9)
	assert.Error(t, err)
}

func TestFakeSession_DisconnectMarksDisconnected(t *testing.T) {
	f := NewFake()
	session, err := f.Connect("10.0.0.5", domain.KindLathe)
	require.NoError(t, err)
	fs := session.(*FakeSession)

	require.NoError(t, session.Disconnect())
	assert.True(t, fs.Disconnected)
}
