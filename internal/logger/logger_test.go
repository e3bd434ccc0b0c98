package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantLevel zapcore.Level
	}{
		{name: "development", cfg: Config{IsDevelopment: true, Encoding: "console", Level: "debug"}, wantLevel: zapcore.DebugLevel},
		{name: "production", cfg: Config{Encoding: "json", Level: "warn"}, wantLevel: zapcore.WarnLevel},
		{name: "unknown level", cfg: Config{Level: "loud"}, wantLevel: zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tt.wantLevel))
			assert.False(t, log.Core().Enabled(tt.wantLevel-1))
		})
	}
}

func TestNew_BadEncoding(t *testing.T) {
	_, err := New(Config{Encoding: "yaml"})
	assert.Error(t, err)
}
