package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedLogger(buf *bytes.Buffer, cfg LoggerConfig) *DefaultLogger {
	cfg.Output = buf
	l := New(cfg)
	l.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }
	return l
}

func TestTextOutput(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, LoggerConfig{Level: InfoLevel})

	l.Warn("skipping function", "name", "f", "line", 12, "error", "missing body")
	assert.Equal(t, "[2024-03-01 12:30:00] WARN: skipping function name=f line=12 error=\"missing body\"\n", buf.String())
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, LoggerConfig{Level: WarnLevel})

	l.Debug("hidden")
	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Error("shown")
	assert.Contains(t, buf.String(), "ERROR: shown")

	buf.Reset()
	l.SetLevel(DebugLevel)
	l.Debug("now shown")
	assert.Contains(t, buf.String(), "DEBUG: now shown")
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, LoggerConfig{Level: InfoLevel, JSONOutput: true})

	l.Info("analyzed", "file", "a.py", "functions", 3, "error", errors.New("boom"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "analyzed", entry["message"])
	assert.Equal(t, "a.py", entry["file"])
	assert.Equal(t, float64(3), entry["functions"])
	assert.Equal(t, "boom", entry["error"])
}

func TestFormatMessageOddArgs(t *testing.T) {
	assert.Equal(t, "msg", formatMessage("msg"))
	assert.Equal(t, "msg extra=x k=v", formatMessage("msg", "x", "k", "v"))
	assert.Equal(t, "msg k=v", formatMessage("msg", 1, 2, "k", "v"))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"loud", InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
