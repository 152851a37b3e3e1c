// Package diaglog appends free-text diagnostic lines to a log file in the
// temp directory. It backs the controller's diagnostics boundary: permission
// telemetry and full error detail land here, while the user only ever sees a
// generic message.
package diaglog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultFileName is the log file created under os.TempDir.
const DefaultFileName = "vtype.log"

// Logger appends timestamped lines to a single file.
type Logger struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// New opens (or creates) the diagnostic log at path. An empty path defaults
// to the temp directory.
func New(path string) (*Logger, error) {
	if path == "" {
		path = filepath.Join(os.TempDir(), DefaultFileName)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open diagnostic log: %w", err)
	}
	return &Logger{path: path, file: file}, nil
}

// Log appends one message line, prefixed with a unix timestamp.
func (l *Logger) Log(message string) {
	if l == nil {
		return
	}
	line := fmt.Sprintf("[%d] %s\n", time.Now().Unix(), message)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	_, _ = l.file.WriteString(line)
}

// Logf formats and appends one message line.
func (l *Logger) Logf(format string, args ...any) {
	l.Log(fmt.Sprintf(format, args...))
}

// Path returns the location of the log file.
func (l *Logger) Path() string { return l.path }

// Close closes the underlying file. Further Log calls are no-ops.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
