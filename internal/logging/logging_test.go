package logging

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", zap.String("source", "a.jpg"))
	require.NoError(t, logger.Sync())

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "shown")
	require.Contains(t, out, "a.jpg")
	require.Contains(t, out, "WARN")
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pixresize.log")
	logger, err := New(Config{Level: "DEBUG", File: path, MaxSize: 1}, nil)
	require.NoError(t, err)

	logger.Debug("resized", zap.Int("width", 10))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	require.True(t, strings.HasPrefix(line, "{"), line)
	require.Contains(t, line, `"msg":"resized"`)
	require.Contains(t, line, `"width":10`)
}

func TestNewWithoutSinksIsNop(t *testing.T) {
	logger, err := New(Config{Level: "info"}, io.Discard)
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Info("nothing happens")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"}, &bytes.Buffer{})
	require.Error(t, err)
}
