package telemetry_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/peechi-bot/peechi/internal/setup/config"
	"github.com/peechi-bot/peechi/internal/setup/telemetry"
	"github.com/peechi-bot/peechi/internal/setup/telemetry/alert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestGetLoggersWritesSession(t *testing.T) {
	t.Parallel()
	logDir := t.TempDir()
	queue := alert.NewQueue(1)

	manager := telemetry.NewManager("bot", logDir, &config.Debug{
		LogLevel:      "debug",
		MaxLogsToKeep: 3,
		MaxLogLines:   100,
	}, queue, zapcore.ErrorLevel)
	t.Cleanup(func() { manager.Close() })

	mainLogger, dbLogger, err := manager.GetLoggers()
	require.NoError(t, err)

	mainLogger.Info("hello")
	dbLogger.Error("query failed")
	require.NoError(t, mainLogger.Sync())

	data, err := os.ReadFile(filepath.Join(manager.GetCurrentSessionDir(), "bot.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), manager.GetInstanceID())

	// Only the error entry reached the queue.
	assert.Equal(t, int64(0), queue.Dropped())
	assert.False(t, queue.Push(alert.Entry{}))
}

func TestRotateLogSessions(t *testing.T) {
	t.Parallel()
	logDir := t.TempDir()

	old := []string{"2024-01-01_00-00-00", "2024-01-02_00-00-00", "2024-01-03_00-00-00"}
	for i, name := range old {
		dir := filepath.Join(logDir, name)
		require.NoError(t, os.Mkdir(dir, 0o755))
		stamp := time.Now().Add(time.Duration(i-10) * time.Hour)
		require.NoError(t, os.Chtimes(dir, stamp, stamp))
	}

	manager := telemetry.NewManager("bot", logDir, &config.Debug{
		LogLevel:      "info",
		MaxLogsToKeep: 2,
		MaxLogLines:   10,
	}, nil, zapcore.ErrorLevel)
	t.Cleanup(func() { manager.Close() })

	_, _, err := manager.GetLoggers()
	require.NoError(t, err)

	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	require.Len(t, names, 2)
	assert.Equal(t, "2024-01-03_00-00-00", names[0])
	assert.False(t, strings.HasPrefix(names[1], "2024"))
}

func TestInvalidLogLevel(t *testing.T) {
	t.Parallel()
	manager := telemetry.NewManager("bot", t.TempDir(), &config.Debug{
		LogLevel:      "loud",
		MaxLogsToKeep: 1,
		MaxLogLines:   10,
	}, nil, zapcore.ErrorLevel)

	_, _, err := manager.GetLoggers()
	assert.Error(t, err)
}
