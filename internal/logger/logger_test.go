package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestNewJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{Level: "info", Format: "json", Output: &buf, ServiceName: "r2gate-test"})

	log.WithField(FieldObjectKey, "docs/a.txt").Info("uploaded")

	line := decodeLine(t, &buf)
	assert.Equal(t, "uploaded", line["message"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "r2gate-test", line["service"])
	assert.Equal(t, "docs/a.txt", line[FieldObjectKey])
	assert.Contains(t, line, "timestamp")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{Level: "warn", Output: &buf})

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(&Config{Level: "debug", Output: &buf})

	ctx := base.WithContext(context.Background())
	ctx = SetRequestID(ctx, "req-1")
	ctx = SetComponent(ctx, "gateway")
	ctx = SetObjectKey(ctx, "a/b.png")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "gateway", GetFieldString(ctx, FieldComponent))

	CtxInfo(ctx, "hello %s", "world")
	line := decodeLine(t, &buf)
	assert.Equal(t, "hello world", line["message"])
	assert.Equal(t, "req-1", line[FieldRequestID])
	assert.Equal(t, "a/b.png", line[FieldObjectKey])
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, GetDefault(), FromContext(context.Background()))
}

func TestEntryMetricFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := New(&Config{Output: &buf}).WithContext(context.Background())

	With(Fields{FieldStatus: 201}).WithSize(5).WithDuration(time.Now()).Info(ctx, "done")

	line := decodeLine(t, &buf)
	assert.EqualValues(t, 201, line[FieldStatus])
	assert.EqualValues(t, 5, line[FieldSize])
	assert.Contains(t, line, FieldDurationMs)
}

func TestNewFromEnvExplicitOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewFromEnv(&EnvConfig{Level: "info", Format: "text", Output: &buf, ServiceName: "svc", Environment: "prod"})

	log.Info("text line")
	assert.Contains(t, buf.String(), "text line")
	assert.Contains(t, buf.String(), "service=svc")
	assert.NoError(t, Sync())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_MAX_SIZE", "12")
	t.Setenv("LOG_COMPRESS", "not-a-bool")

	cfg := LoadFromEnv()
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, 12, cfg.MaxSize)
	assert.True(t, cfg.Compress)
	assert.Equal(t, "r2gate", cfg.ServiceName)
}
