package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/sape94/NIQ-sp-proj/internal/config"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.LogConfig
		debug bool
	}{
		{"default is info", config.LogConfig{}, false},
		{"debug", config.LogConfig{Level: "debug"}, true},
		{"development warn", config.LogConfig{Level: "warn", Development: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.debug, logger.Core().Enabled(zapcore.DebugLevel))
		})
	}
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}
