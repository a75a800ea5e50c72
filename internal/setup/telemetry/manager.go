// Package telemetry builds the process loggers and the log session layout.
package telemetry

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/peechi-bot/peechi/internal/setup/config"
	"github.com/peechi-bot/peechi/internal/setup/telemetry/alert"
	"github.com/peechi-bot/peechi/internal/setup/telemetry/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// sessionLayout names a session directory after its start time.
const sessionLayout = "2006-01-02_15-04-05"

// Manager owns the log directory of one process run. Each run writes into a
// timestamped session directory; older sessions past maxLogsToKeep are removed.
type Manager struct {
	alerts        *alert.Queue
	alertLevel    zapcore.Level
	files         []io.Closer
	instanceID    string
	component     string
	sessionDir    string
	logDir        string
	level         string
	maxLogsToKeep int
	maxLogLines   int
}

// NewManager creates a Manager for component writing below logDir.
// When alerts is non-nil, entries at alertLevel or above are also queued there.
func NewManager(component, logDir string, debugCfg *config.Debug, alerts *alert.Queue, alertLevel zapcore.Level) *Manager {
	return &Manager{
		alerts:        alerts,
		alertLevel:    alertLevel,
		instanceID:    uuid.NewString(),
		component:     component,
		logDir:        logDir,
		level:         debugCfg.LogLevel,
		maxLogsToKeep: debugCfg.MaxLogsToKeep,
		maxLogLines:   debugCfg.MaxLogLines,
	}
}

// GetLoggers creates a fresh session directory and returns the main and
// database loggers writing into it.
func (m *Manager) GetLoggers() (*zap.Logger, *zap.Logger, error) {
	if err := m.setupLogDirectories(); err != nil {
		return nil, nil, err
	}

	mainLogger, err := m.initLogger(filepath.Join(m.sessionDir, m.component+".log"), true)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize main logger: %w", err)
	}

	dbLogger, err := m.initLogger(filepath.Join(m.sessionDir, "database.log"), true)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database logger: %w", err)
	}

	instance := zap.String("instanceID", m.instanceID)

	return mainLogger.With(instance), dbLogger.With(instance), nil
}

// GetNotifierLogger returns a logger for the alert notifier. It is never teed
// into the alert queue.
func (m *Manager) GetNotifierLogger() *zap.Logger {
	log, err := m.initLogger(filepath.Join(m.getOrCreateSessionDir(), "alerts.log"), false)
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// GetCurrentSessionDir returns the directory of this run's logs.
func (m *Manager) GetCurrentSessionDir() string {
	return m.getOrCreateSessionDir()
}

// GetInstanceID returns the identifier of this process run.
func (m *Manager) GetInstanceID() string {
	return m.instanceID
}

// Close closes every log file opened by the manager.
func (m *Manager) Close() error {
	var errs []error
	for _, f := range m.files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	m.files = nil
	return errors.Join(errs...)
}

func (m *Manager) setupLogDirectories() error {
	if err := os.MkdirAll(m.logDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	if err := m.rotateLogSessions(); err != nil {
		return fmt.Errorf("failed to rotate log sessions: %w", err)
	}

	m.sessionDir = filepath.Join(m.logDir, time.Now().Format(sessionLayout))
	if err := os.MkdirAll(m.sessionDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	return nil
}

// getOrCreateSessionDir falls back to the base directory if no session can be created.
func (m *Manager) getOrCreateSessionDir() string {
	if m.sessionDir != "" {
		return m.sessionDir
	}

	sessionDir := filepath.Join(m.logDir, time.Now().Format(sessionLayout))
	if err := os.MkdirAll(sessionDir, os.ModePerm); err != nil {
		return m.logDir
	}

	m.sessionDir = sessionDir
	return sessionDir
}

func (m *Manager) initLogger(path string, withAlerts bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(m.level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	file, err := logger.OpenCappedFile(path, m.maxLogLines)
	if err != nil {
		return nil, err
	}
	m.files = append(m.files, file)

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(file), level),
	}

	if withAlerts && m.alerts != nil {
		cores = append(cores, alert.NewCore(m.alertLevel, m.alerts))
	}

	return zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

// rotateLogSessions removes the oldest sessions so at most maxLogsToKeep remain
// once the new one is created.
func (m *Manager) rotateLogSessions() error {
	sessions, err := filepath.Glob(filepath.Join(m.logDir, "*"))
	if err != nil {
		return err
	}

	keep := max(m.maxLogsToKeep-1, 0)
	if len(sessions) <= keep {
		return nil
	}

	sort.Slice(sessions, func(i, j int) bool {
		iInfo, iErr := os.Stat(sessions[i])
		jInfo, jErr := os.Stat(sessions[j])
		if iErr != nil || jErr != nil {
			return sessions[i] < sessions[j]
		}
		return iInfo.ModTime().Before(jInfo.ModTime())
	})

	for _, session := range sessions[:len(sessions)-keep] {
		if err := os.RemoveAll(session); err != nil {
			return err
		}
	}

	return nil
}
