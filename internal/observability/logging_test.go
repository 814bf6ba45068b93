package observability

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/guildmanager/internal/config"
)

func TestNewLogger_JSON(t *testing.T) {
	cfg := config.LoggingConfig{Level: "info", Format: "json"}
	logger, err := NewLogger(cfg, "simulate")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewLogger_Console(t *testing.T) {
	cfg := config.LoggingConfig{Level: "debug", Format: "console"}
	logger, err := NewLogger(cfg, "simulate")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	cfg := config.LoggingConfig{Level: "trace", Format: "json"}
	_, err := NewLogger(cfg, "simulate")
	assert.Error(t, err)
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	cfg := config.LoggingConfig{Level: "info", Format: "xml"}
	_, err := NewLogger(cfg, "simulate")
	assert.Error(t, err)
}

func TestNewLogger_AllLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := config.LoggingConfig{Level: level, Format: "json"}
		logger, err := NewLogger(cfg, "simulate")
		require.NoError(t, err, "level %q should be valid", level)
		assert.NotNil(t, logger)
	}
}

func TestLoggerConfig_ServiceFieldAndNoSampling(t *testing.T) {
	zapCfg, err := loggerConfig(config.LoggingConfig{Level: "warn", Format: "json"}, "expedition")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"service": "expedition"}, zapCfg.InitialFields)
	assert.Nil(t, zapCfg.Sampling)
	assert.Equal(t, zapcore.WarnLevel, zapCfg.Level.Level())

	zapCfg, err = loggerConfig(config.LoggingConfig{Level: "info", Format: "console"}, "")
	require.NoError(t, err)
	assert.Empty(t, zapCfg.InitialFields)
}

func TestExpeditionLogger_AddsRunFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	runID := uuid.MustParse("6f1c2a1e-8c1f-4b7a-9d55-2b1f0d0c9e11")

	ExpeditionLogger(zap.New(core), runID, 12, 1700000000).Info("floor cleared")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, runID.String(), fields["run_id"])
	assert.Equal(t, int64(12), fields["expedition"])
	assert.Equal(t, int64(1700000000), fields["seed"])
}
