package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		verbose bool
		debug   bool
	}{
		{"production", "", false, false},
		{"production verbose", "", true, true},
		{"development", "development", false, true},
		{"dev verbose", "dev", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENV", tt.env)
			Initialize(tt.verbose)
			defer Sync()

			if got := Log.Core().Enabled(zapcore.DebugLevel); got != tt.debug {
				t.Errorf("debug enabled = %v, want %v", got, tt.debug)
			}
			if !Log.Core().Enabled(zapcore.InfoLevel) {
				t.Error("Expected info level to be enabled")
			}
		})
	}
}
