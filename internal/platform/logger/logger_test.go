package logger

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelforge/reelforge-api/internal/config"
)

func TestSetupValidLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := Setup(config.ServerConfig{Port: 8080, LogLevel: level})
		require.NoError(t, err)
		assert.NotNil(t, logger)
	}
}

func TestSetupInvalidLevelFallsBackToInfo(t *testing.T) {
	logger, err := Setup(config.ServerConfig{Port: 8080, LogLevel: "chatty"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestFromContext(t *testing.T) {
	base := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := WithLogger(context.Background(), base)

	assert.Same(t, base, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}
