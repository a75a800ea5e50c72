// Package logger provides log file writers for the telemetry manager.
package logger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrInvalidLineLimit is returned for a non-positive line cap.
var ErrInvalidLineLimit = errors.New("line limit must be positive")

// CappedFile is an append-only log file that is periodically trimmed to its
// most recent maxLines lines.
type CappedFile struct {
	path  string
	file  *os.File
	ring  *lineRing
	mutex sync.Mutex
}

// OpenCappedFile opens or creates path for appending.
func OpenCappedFile(path string, maxLines int) (*CappedFile, error) {
	if maxLines <= 0 {
		return nil, ErrInvalidLineLimit
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file %s: %w", path, err)
	}

	return &CappedFile{
		path: path,
		file: file,
		ring: newLineRing(maxLines),
	}, nil
}

// Write implements io.Writer. The file is rewritten with the kept lines once
// twice the cap has been written since the last trim.
func (f *CappedFile) Write(p []byte) (int, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	n, err := f.file.Write(p)
	if err != nil {
		return n, err
	}

	for line := range strings.SplitSeq(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}

		f.ring.add(line)

		if f.ring.seen >= 2*len(f.ring.lines) {
			if err := f.trim(); err != nil {
				return n, fmt.Errorf("failed to trim log file: %w", err)
			}
			f.ring.seen = f.ring.size
		}
	}

	return n, nil
}

// Sync flushes the file.
func (f *CappedFile) Sync() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.file.Sync()
}

// Close closes the file.
func (f *CappedFile) Close() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.file.Close()
}

// trim replaces the file with the kept lines through a temp file rename.
func (f *CappedFile) trim() error {
	lines := f.ring.snapshot()
	if len(lines) == 0 {
		return nil
	}

	temp, err := os.CreateTemp(filepath.Dir(f.path), "trim-log-")
	if err != nil {
		return err
	}
	tempPath := temp.Name()

	if _, err := temp.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return err
	}

	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}

	f.file.Close()

	if err := os.Rename(tempPath, f.path); err != nil {
		return err
	}

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	f.file = file

	return nil
}
