// logging_test.go: tests for logger construction and adapters
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("nil gives a silent logger", func(t *testing.T) {
		logger := NewLogger(nil)
		assert.IsType(t, &NoOpLogger{}, logger)
		assert.NotPanics(t, func() {
			logger.With("k", "v").Info("ignored")
		})
	})

	t.Run("Logger is used directly", func(t *testing.T) {
		testLogger := NewTestLogger()
		assert.Same(t, testLogger, NewLogger(testLogger))
	})

	t.Run("unsupported type panics", func(t *testing.T) {
		assert.Panics(t, func() { NewLogger("stdout") })
	})
}

func TestLogFunc(t *testing.T) {
	var lines []string
	collect := func(level, msg string) { lines = append(lines, level+" "+msg) }

	logger := NewLogger(LogFunc(collect)).With("component", "loader")
	logger.Info("Module loaded", "path", "/m/a.so")
	logger.Warn("Dangling key", "orphan")
	logger.Debug("Plain")

	plain := NewLogger(collect)
	plain.Error("No fields")

	assert.Equal(t, []string{
		"INFO Module loaded component=loader path=/m/a.so",
		"WARN Dangling key component=loader orphan",
		"DEBUG Plain component=loader",
		"ERROR No fields",
	}, lines)
}

func TestTestLogger(t *testing.T) {
	logger := NewTestLogger()
	child := logger.With("dispatch_id", "abc")

	logger.Info("Manager started")
	child.Error("Dispatched operation panicked", "target", "x")
	child.Error("Dispatched operation panicked", "target", "y")

	assert.True(t, logger.HasMessage("INFO", "Manager started"))
	assert.False(t, logger.HasMessage("ERROR", "Manager started"))
	assert.Equal(t, 2, logger.CountMessages("ERROR", "Dispatched operation panicked"))

	messages := logger.Messages()
	require.Len(t, messages, 3)
	assert.Equal(t, []any{"dispatch_id", "abc", "target", "x"}, messages[1].Args)

	logger.Clear()
	assert.Empty(t, logger.Messages())
	assert.Empty(t, child.(*TestLogger).Messages(), "children share the capture buffer")
}

func TestZerologAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologAdapter(zerolog.New(&buf).Level(zerolog.DebugLevel)).With("component", "manager")

	logger.Info("Module scan completed", "modules", 3, "dir", "/opt/modules", "error", errors.New("boom"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Module scan completed", entry["message"])
	assert.Equal(t, "manager", entry["component"])
	assert.Equal(t, float64(3), entry["modules"])
	assert.Equal(t, "/opt/modules", entry["dir"])
	assert.Equal(t, "boom", entry["error"])

	buf.Reset()
	logger.Debug("dangling", "flag")
	logger.Warn("warned")
	logger.Error("failed")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"flag":true`)
	assert.Contains(t, lines[1], `"level":"warn"`)
	assert.Contains(t, lines[2], `"level":"error"`)
}
