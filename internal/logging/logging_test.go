package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewDefaultsToInfoLevel(t *testing.T) {
	logger, err := New(false)
	require.NoError(t, err)
	defer logger.Sync()

	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel), "expected debug level disabled when verbose is false")
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel), "expected info level enabled by default")
}

func TestNewVerboseEnablesDebugLevel(t *testing.T) {
	logger, err := New(true)
	require.NoError(t, err)
	defer logger.Sync()

	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel), "expected debug level enabled when verbose is true")
}

func TestNopDiscardsWithoutError(t *testing.T) {
	logger := Nop()
	logger.Info("this should go nowhere")
	assert.NoError(t, logger.Sync())
}
