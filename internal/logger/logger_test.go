package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("Should build a console logger at the requested level", func(t *testing.T) {
		log, err := New("debug", false)
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
	})
	t.Run("Should build a structured logger", func(t *testing.T) {
		log, err := New("info", true)
		require.NoError(t, err)
		assert.NotNil(t, log)
	})
	t.Run("Should reject an unknown level", func(t *testing.T) {
		_, err := New("loud", false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported log level")
	})
}
