package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timada-org/doorphone/internal/logger"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	t.Run("writes json", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := logger.New("info", &buf)
		require.NoError(t, err)

		l.Info("door pressed", zap.Int64("door_id", 5))
		require.NoError(t, l.Sync())

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "door pressed", entry["message"])
		assert.Equal(t, float64(5), entry["door_id"])
	})

	t.Run("filters below level", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := logger.New("warn", &buf)
		require.NoError(t, err)

		l.Info("hidden")
		assert.Empty(t, buf.String())
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := logger.New("loud")
		require.Error(t, err)
	})
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, logger.OrNop(nil))

	l := zap.NewExample()
	assert.Same(t, l, logger.OrNop(l))
}
