package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &e), "line: %s", line)
		out = append(out, e)
	}
	return out
}

func TestLoggerWritesJSONEntry(t *testing.T) {
	var buf bytes.Buffer
	logger := New(DebugLevel, &buf)

	logger.Info("route optimized", map[string]interface{}{
		"tour_id": 42,
		"stops":   5,
	})

	got := entries(t, &buf)
	require.Len(t, got, 1)
	e := got[0]
	assert.Equal(t, "INFO", e["level"])
	assert.Equal(t, "route optimized", e["message"])
	assert.Equal(t, float64(42), e["tour_id"])
	assert.Equal(t, float64(5), e["stops"])
	assert.Contains(t, e["caller"], ":")

	ts, ok := e["timestamp"].(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339Nano, ts)
	assert.NoError(t, err)
}

func TestLoggerLevelThreshold(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WarnLevel, &buf)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	logger.Error("shown")

	assert.Len(t, entries(t, &buf), 2)
}

func TestLoggerBoundFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(InfoLevel, &buf)
	derived := base.WithField("service", "optimizer").
		WithFields(map[string]interface{}{"tour_id": 7}).
		WithError(errors.New("venue unreachable"))

	derived.Info("degraded")
	base.Info("plain")

	got := entries(t, &buf)
	require.Len(t, got, 2)

	assert.Equal(t, "optimizer", got[0]["service"])
	assert.Equal(t, float64(7), got[0]["tour_id"])
	assert.Equal(t, "venue unreachable", got[0]["error"])

	// Deriving never mutates the parent logger.
	assert.NotContains(t, got[1], "service")
	assert.NotContains(t, got[1], "error")
}

func TestNewLoggerConfig(t *testing.T) {
	logger, err := NewLogger(nil)
	require.NoError(t, err)
	assert.NotNil(t, logger)

	logger, err = NewLogger(&Config{Level: "debug", Output: "stderr"})
	require.NoError(t, err)
	assert.Equal(t, DebugLevel, logger.level)

	assert.Equal(t, WarnLevel, parseLevel("warn"))
	assert.Equal(t, ErrorLevel, parseLevel("ERROR"))
	assert.Equal(t, InfoLevel, parseLevel("verbose"))
	assert.Equal(t, InfoLevel, parseLevel(""))
}

func TestFromContext(t *testing.T) {
	// A bare context still yields a usable logger.
	fallback := FromContext(context.Background())
	require.NotNil(t, fallback)

	var buf bytes.Buffer
	cl := &CtxLogger{New(InfoLevel, &buf)}
	ctx := cl.WithContext(context.Background())
	assert.Same(t, cl, FromContext(ctx))
}
