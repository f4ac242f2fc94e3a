package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/compositor/internal/logging"
)

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Output: &buf})
	require.NoError(t, err)

	logger.Info("exporting frames", "frames", 120, "output", "out dir/a.mp4")
	logger.Debug("hidden")

	line := buf.String()
	assert.Contains(t, line, "INFO  exporting frames")
	assert.Contains(t, line, "frames=120")
	assert.Contains(t, line, `output="out dir/a.mp4"`)
	assert.NotContains(t, line, "hidden")
	assert.NotContains(t, line, "\033[", "buffers are never colourised")
	assert.Equal(t, 1, strings.Count(line, "\n"))
}

func TestConsoleGroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Output: &buf})
	require.NoError(t, err)

	logger.With("component", "c1").WithGroup("media").Debug("peek", "pos", 1500,
		slog.Group("size", "w", 640, "h", 480))

	line := buf.String()
	assert.Contains(t, line, "component=c1")
	assert.Contains(t, line, "media.pos=1500")
	assert.Contains(t, line, "media.size.w=640")
	assert.Contains(t, line, "media.size.h=480")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "json", Output: &buf})
	require.NoError(t, err)

	logger.Info("skipped")
	logger.Warn("sink slow", "frame", 7)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "warn", rec["level"])
	assert.Equal(t, "sink slow", rec["msg"])
	assert.EqualValues(t, 7, rec["frame"])
	assert.Contains(t, rec, "ts")
}

func TestFileCopy(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "compositor.log")
	logger, err := logging.New(logging.Options{Output: &buf, FilePath: path})
	require.NoError(t, err)

	logger.Info("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestInvalidOptions(t *testing.T) {
	_, err := logging.New(logging.Options{Format: "xml"})
	require.Error(t, err)

	_, err = logging.New(logging.Options{Level: "loud"})
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := logging.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestDiscard(t *testing.T) {
	logger := logging.Discard()
	assert.False(t, logger.Enabled(t.Context(), slog.LevelError))
}
