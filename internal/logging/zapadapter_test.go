package logging

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestZapLoggerBridgesFields(t *testing.T) {
	var buf bytes.Buffer
	z := NewZapLogger(New(DebugLevel, &buf))

	z.Warn("chat completion failed, retrying",
		zap.String("model", "gpt-4o"),
		zap.Int("attempt", 2),
		zap.Float64("distance_km", 1545.5),
		zap.Bool("degraded", true),
		zap.Duration("backoff", 1500*time.Millisecond),
		zap.Error(errors.New("status 503: overloaded")))

	got := entries(t, &buf)
	require.Len(t, got, 1)
	e := got[0]
	assert.Equal(t, "WARN", e["level"])
	assert.Equal(t, "chat completion failed, retrying", e["message"])
	assert.Equal(t, "gpt-4o", e["model"])
	assert.Equal(t, float64(2), e["attempt"])
	// Floats travel through zap as raw bits and must come out intact.
	assert.Equal(t, 1545.5, e["distance_km"])
	assert.Equal(t, true, e["degraded"])
	assert.Equal(t, "1.5s", e["backoff"])
	assert.Equal(t, "status 503: overloaded", e["error"])
}

func TestZapLoggerRespectsThreshold(t *testing.T) {
	var buf bytes.Buffer
	z := NewZapLogger(New(ErrorLevel, &buf))

	z.Debug("hidden")
	z.Info("hidden")
	z.Error("shown")

	got := entries(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "shown", got[0]["message"])
}

func TestZapLoggerWithCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	z := NewZapLogger(New(InfoLevel, &buf)).With(zap.String("component", "ai-client"))

	z.Info("request sent")

	got := entries(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "ai-client", got[0]["component"])
}
