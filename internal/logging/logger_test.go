package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"lapor-chat/internal/config"
)

func TestNew(t *testing.T) {
	t.Run("should honour the configured level", func(t *testing.T) {
		req := require.New(t)

		log, err := New(config.LogConfig{Level: "warn"})

		req.NoError(err)
		req.False(log.Desugar().Core().Enabled(zapcore.InfoLevel))
		req.True(log.Desugar().Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("should reject an unknown level", func(t *testing.T) {
		req := require.New(t)

		_, err := New(config.LogConfig{Level: "loud"})

		req.Error(err)
	})

	t.Run("should build a development logger", func(t *testing.T) {
		req := require.New(t)

		log, err := New(config.LogConfig{Development: true})

		req.NoError(err)
		req.NotNil(log)
	})
}
