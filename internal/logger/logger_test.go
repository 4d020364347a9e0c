package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected log.Level
	}{
		{"debug", log.DebugLevel},
		{"INFO", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"fatal", log.FatalLevel},
		{"", log.InfoLevel},
		{"verbose", log.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestConfigure_FlagOverridesEnv(t *testing.T) {
	t.Setenv(LevelEnvVar, "error")
	t.Cleanup(func() { SetOutput(os.Stderr) })

	require.NoError(t, Configure("debug", ""))
	assert.Equal(t, log.DebugLevel, Logger.GetLevel())

	require.NoError(t, Configure("", ""))
	assert.Equal(t, log.ErrorLevel, Logger.GetLevel())
}

func TestConfigure_LogFile(t *testing.T) {
	t.Cleanup(func() { SetOutput(os.Stderr) })
	path := filepath.Join(t.TempDir(), "run.log")

	require.NoError(t, Configure("info", path))
	Info("sample processed", "sample", 3)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sample processed")
	assert.Contains(t, string(data), "sample=3")
}

func TestConfigure_BadLogFile(t *testing.T) {
	t.Cleanup(func() { SetOutput(os.Stderr) })
	err := Configure("info", filepath.Join(t.TempDir(), "missing", "run.log"))
	assert.Error(t, err)
}

func TestNewStyledLogger_UsesPrefixAndLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		Logger.SetLevel(log.InfoLevel)
	})
	Logger.SetLevel(log.WarnLevel)

	component := NewStyledLogger("harness")
	assert.Equal(t, log.WarnLevel, component.GetLevel())

	component.Info("hidden")
	component.Warn("quota exceeded", "provider", "cerebras")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "harness")
	assert.Contains(t, out, "quota exceeded")
}
