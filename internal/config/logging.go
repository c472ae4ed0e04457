package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jrick/logrotate/rotator"
	"github.com/lightningnetwork/lnd/clock"
)

// LogLevel represents logging verbosity levels.
type LogLevel int

// Log level constants.
const (
	LogLevelOff LogLevel = iota
	LogLevelError
	LogLevelDebug
)

// ParseLogLevel parses a log level string.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return LogLevelOff
	case "error":
		return LogLevelError
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelError
	}
}

// String returns the string representation of a log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelOff:
		return "off"
	case LogLevelError:
		return "error"
	case LogLevelDebug:
		return "debug"
	default:
		return "error"
	}
}

// Logger writes leveled lines to a size-rotated log file.
// Callers must never pass mnemonics, seeds or private keys.
type Logger struct {
	mu       sync.Mutex
	level    LogLevel
	out      io.WriteCloser
	filePath string
	clock    clock.Clock
}

// NewLogger creates a logger with the default rotation settings.
func NewLogger(level LogLevel, filePath string) (*Logger, error) {
	return NewRotatingLogger(level, filePath, DefaultLogMaxSizeKB, DefaultLogMaxRolls)
}

// NewRotatingLogger creates a logger whose file rolls over after maxSizeKB
// kilobytes, keeping at most maxRolls old files.
func NewRotatingLogger(level LogLevel, filePath string, maxSizeKB int64, maxRolls int) (*Logger, error) {
	logger := &Logger{
		level:    level,
		filePath: filePath,
		clock:    clock.NewDefaultClock(),
	}

	if level == LogLevelOff || filePath == "" {
		return logger, nil
	}

	filePath = ExpandPath(filePath)
	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return nil, err
	}

	if maxSizeKB <= 0 {
		maxSizeKB = DefaultLogMaxSizeKB
	}
	r, err := rotator.New(filePath, maxSizeKB, false, maxRolls)
	if err != nil {
		return nil, fmt.Errorf("creating log rotator: %w", err)
	}

	logger.out = r
	logger.filePath = filePath

	return logger, nil
}

// NewWriterLogger creates a logger writing to w with the given clock.
// Used by tests to capture output with fixed timestamps.
func NewWriterLogger(level LogLevel, w io.WriteCloser, clk clock.Clock) *Logger {
	if clk == nil {
		clk = clock.NewDefaultClock()
	}
	return &Logger{level: level, out: w, clock: clk}
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.out != nil {
		err := l.out.Close()
		l.out = nil
		return err
	}
	return nil
}

// SetLevel changes the log level.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Path returns the resolved log file path.
func (l *Logger) Path() string {
	return l.filePath
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.log(LogLevelDebug, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.log(LogLevelError, format, args...)
}

// log writes a log message if the level is appropriate.
func (l *Logger) log(level LogLevel, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.level == LogLevelOff || level > l.level || l.out == nil {
		return
	}

	timestamp := l.clock.Now().Format("2006-01-02 15:04:05.000")
	levelStr := strings.ToUpper(level.String())
	msg := fmt.Sprintf(format, args...)

	_, _ = fmt.Fprintf(l.out, "%s [%s] %s\n", timestamp, levelStr, msg)
}

// NullLogger returns a logger that discards all output.
func NullLogger() *Logger {
	return &Logger{level: LogLevelOff, clock: clock.NewDefaultClock()}
}
