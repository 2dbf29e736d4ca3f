package logx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerComponent(t *testing.T) {
	logger := NewLogger("pipeline")
	assert.Equal(t, "pipeline", logger.Component())
}

func TestWithComponent(t *testing.T) {
	logger := NewLogger("pipeline")
	derived := logger.WithComponent("stages")
	assert.Equal(t, "stages", derived.Component())
	assert.Equal(t, "pipeline", logger.Component(), "original logger must be unchanged")
}

func TestSetDebugTogglesGlobalFlag(t *testing.T) {
	orig := IsDebugEnabled()
	defer SetDebug(orig)

	SetDebug(true)
	assert.True(t, IsDebugEnabled())

	SetDebug(false)
	assert.False(t, IsDebugEnabled())
}

func TestDomainFilteringDisabledWhenDebugOff(t *testing.T) {
	orig := IsDebugEnabled()
	defer SetDebug(orig)

	SetDebug(false)
	assert.False(t, IsDebugEnabledForDomain("pipeline"))
}

func TestDomainFilteringAllowsAllWithoutDomainList(t *testing.T) {
	orig := IsDebugEnabled()
	defer SetDebug(orig)

	debugMu.Lock()
	debugCfg.domains = nil
	debugMu.Unlock()

	SetDebug(true)
	assert.True(t, IsDebugEnabledForDomain("anything"))
}

func TestErrorfReturnsError(t *testing.T) {
	err := Errorf("boom: %d", 42)
	require.Error(t, err)
	assert.Equal(t, "boom: 42", err.Error())
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "context"))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := Errorf("cause")
	wrapped := Wrap(cause, "loading session")
	require.Error(t, wrapped)
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "loading session")
}
