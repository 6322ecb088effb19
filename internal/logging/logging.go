package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

// Config selects where log output goes.
type Config struct {
	File         string // Optional log file; rotated after RotationDays
	Level        string
	RotationDays int
	// Quiet drops the stderr copy; the file still receives everything.
	Quiet bool
	// Stderr replaces os.Stderr as the console writer.
	Stderr io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates a logger writing to stderr and, when cfg.File is set, to a
// rotating log file. The returned Closer closes the file.
func New(cfg Config) (*log.Logger, io.Closer, error) {
	var writers []io.Writer
	if !cfg.Quiet {
		if cfg.Stderr != nil {
			writers = append(writers, cfg.Stderr)
		} else {
			writers = append(writers, os.Stderr)
		}
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("ensure log directory: %w", err)
		}

		rotateDays := 30 // default
		if cfg.RotationDays > 0 {
			rotateDays = cfg.RotationDays
		}
		// Rotate logs if needed
		rotateLogsIfNeeded(cfg.File, rotateDays)

		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file %s: %w", cfg.File, err)
		}
		writers = append(writers, f)
		closer = f
	}

	var out io.Writer = io.Discard
	if len(writers) > 0 {
		out = io.MultiWriter(writers...)
	}
	return log.New(out, "", log.LstdFlags|log.Lmicroseconds), closer, nil
}

// Level orders log severities.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel maps a config value to a Level. Unknown values give LevelWarn
// and an error.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning", "":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelWarn, fmt.Errorf("unknown log level %q", s)
}

// Leveled wraps a *log.Logger with level filtering and key-value formatting.
// It satisfies the small Logger interfaces the other packages declare.
type Leveled struct {
	logger *log.Logger
	level  atomic.Int32
}

// NewLeveled wraps l; a nil l uses log.Default().
func NewLeveled(l *log.Logger, level Level) *Leveled {
	if l == nil {
		l = log.Default()
	}
	lv := &Leveled{logger: l}
	lv.level.Store(int32(level))
	return lv
}

// SetLevel changes the minimum level that is written.
func (l *Leveled) SetLevel(level Level) {
	l.level.Store(int32(level))
}

// Enabled reports whether messages at level are written.
func (l *Leveled) Enabled(level Level) bool {
	return level >= Level(l.level.Load())
}

func (l *Leveled) Debug(msg string, args ...interface{}) { l.logWithLevel(LevelDebug, msg, args...) }
func (l *Leveled) Info(msg string, args ...interface{})  { l.logWithLevel(LevelInfo, msg, args...) }
func (l *Leveled) Warn(msg string, args ...interface{})  { l.logWithLevel(LevelWarn, msg, args...) }
func (l *Leveled) Error(msg string, args ...interface{}) { l.logWithLevel(LevelError, msg, args...) }

func (l *Leveled) logWithLevel(level Level, msg string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level, msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	l.logger.Println(b.String())
}

// rotateLogsIfNeeded rotates log files older than the specified days
func rotateLogsIfNeeded(logPath string, rotationDays int) {
	info, err := os.Stat(logPath)
	if err != nil {
		// Log file doesn't exist yet, nothing to rotate
		return
	}

	// Check if log file is older than rotation days
	cutoffTime := time.Now().AddDate(0, 0, -rotationDays)
	if info.ModTime().Before(cutoffTime) {
		// Rotate: rename current log with timestamp
		timestamp := info.ModTime().Format("20060102-150405")
		rotatedPath := logPath + "." + timestamp

		if err := os.Rename(logPath, rotatedPath); err != nil {
			log.Printf("failed to rotate log file: %v", err)
			return
		}

		// Clean up old rotated logs
		cleanupOldLogs(logPath, rotationDays)
	}
}

// cleanupOldLogs removes log files older than rotation days
func cleanupOldLogs(logPath string, rotationDays int) {
	logDir := filepath.Dir(logPath)
	baseName := filepath.Base(logPath)

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	cutoffTime := time.Now().AddDate(0, 0, -rotationDays)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		// Check if this is a rotated log file
		name := entry.Name()
		if !strings.HasPrefix(filepath.Base(name), filepath.Base(baseName)+".") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		// Delete if older than rotation days
		if info.ModTime().Before(cutoffTime) {
			fullPath := filepath.Join(logDir, name)
			if err := os.Remove(fullPath); err != nil {
				log.Printf("failed to remove old log file %s: %v", fullPath, err)
			}
		}
	}
}
