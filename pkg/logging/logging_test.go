package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerInjectsContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := Logger(&buf, false, slog.LevelInfo)

	ctx := AppendCtx(context.Background(), slog.String("run_id", "abc123"))
	logger.InfoContext(ctx, "hello", "key", "value")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "abc123", record["run_id"])
	assert.Equal(t, "value", record["key"])
	assert.Equal(t, "hello", record["msg"])
}

func TestAppendCtxMergesAcrossCalls(t *testing.T) {
	var buf bytes.Buffer
	logger := Logger(&buf, false, slog.LevelInfo)

	ctx := AppendCtx(context.Background(), slog.String("a", "1"))
	ctx = AppendCtx(ctx, slog.String("b", "2"))

	logger.InfoContext(ctx, "merged")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "1", record["a"])
	assert.Equal(t, "2", record["b"])
}

func TestLoggerWithoutContextAttrsStillLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := Logger(&buf, false, slog.LevelInfo)

	logger.Info("plain")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "plain", record["msg"])
}
