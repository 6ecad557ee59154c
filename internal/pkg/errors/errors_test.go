package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := Configuration("target_size must be > 0")
	assert.Equal(t, "CONFIGURATION_ERROR: target_size must be > 0", err.Error())

	wrapped := Internal("decode").WithError(errors.New("boom"))
	assert.Equal(t, "INTERNAL_ERROR: decode (boom)", wrapped.Error())
}

func TestIsHelpers_ThroughWrapping(t *testing.T) {
	base := Configurationf("max_domain_ratio must be in (0,1], got %.2f", 1.5)
	wrapped := fmt.Errorf("select: %w", base)

	assert.True(t, IsConfiguration(wrapped))
	assert.False(t, IsOptimizerExhausted(wrapped))
	assert.False(t, IsConfiguration(errors.New("plain")))

	appErr := GetAppError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, CodeConfiguration, appErr.Code)
}

func TestOptimizerExhausted_UnwrapsCause(t *testing.T) {
	cause := errors.New("run 0 failed")
	err := OptimizerExhausted(3, cause)

	assert.True(t, IsOptimizerExhausted(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "all 3 optimizer runs failed")
}

func TestWithDetail(t *testing.T) {
	err := InvalidInput("bad line").WithDetail("line", "4")
	assert.Equal(t, map[string]string{"line": "4"}, err.Details)
	assert.True(t, IsInvalidInput(err))
}
