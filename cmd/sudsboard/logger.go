package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	charmLog "github.com/charmbracelet/log"

	"github.com/hylla/sudsboard/internal/app"
	"github.com/hylla/sudsboard/internal/config"
)

var _ app.Logger = (*runtimeLogger)(nil)

// loggerOptions carries what the runtime logger needs from flags, config and platform paths.
type loggerOptions struct {
	Console io.Writer
	AppName string
	DevMode bool
	Logging config.LoggingConfig
	// DataDir anchors a relative logging.dev_file.dir.
	DataDir string
	Now     func() time.Time
}

// runtimeLogger writes every event to the console and, in dev mode, to a daily logfmt file.
// The console can be muted while the dashboard owns the terminal.
type runtimeLogger struct {
	mu      sync.RWMutex
	console *charmLog.Logger
	file    *charmLog.Logger
	muted   bool
	logFile *os.File
}

// newRuntimeLogger builds the console sink and, when enabled, opens the dev log file.
func newRuntimeLogger(opts loggerOptions) (*runtimeLogger, error) {
	level, err := charmLog.ParseLevel(opts.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", opts.Logging.Level, err)
	}
	console := opts.Console
	if console == nil {
		console = io.Discard
	}
	l := &runtimeLogger{console: newSink(console, opts.AppName, level, charmLog.TextFormatter)}
	if !opts.DevMode || !opts.Logging.DevFile.Enabled {
		return l, nil
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	path := devLogFilePath(opts.Logging.DevFile.Dir, opts.DataDir, opts.AppName, now().UTC())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dev log file: %w", err)
	}
	l.logFile = f
	l.file = newSink(f, opts.AppName, level, charmLog.LogfmtFormatter)
	return l, nil
}

// newSink configures one charm logger with the shared prefix and timestamp layout.
func newSink(w io.Writer, prefix string, level charmLog.Level, formatter charmLog.Formatter) *charmLog.Logger {
	return charmLog.NewWithOptions(w, charmLog.Options{
		Level:           level,
		Prefix:          prefix,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       formatter,
	})
}

// DevLogPath returns the open dev log file, or "" when file logging is off.
func (l *runtimeLogger) DevLogPath() string {
	if l == nil || l.logFile == nil {
		return ""
	}
	return l.logFile.Name()
}

// Close closes the dev log file.
func (l *runtimeLogger) Close() error {
	if l == nil || l.logFile == nil {
		return nil
	}
	return l.logFile.Close()
}

// SetConsoleEnabled mutes or restores the console sink. The file sink is unaffected.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.muted = !enabled
	l.mu.Unlock()
}

// SetLevel applies a reloaded logging level to both sinks.
func (l *runtimeLogger) SetLevel(raw string) error {
	if l == nil {
		return nil
	}
	level, err := charmLog.ParseLevel(raw)
	if err != nil {
		return fmt.Errorf("parse logging level %q: %w", raw, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console.SetLevel(level)
	if l.file != nil {
		l.file.SetLevel(level)
	}
	return nil
}

// consoleActive reports whether events currently reach the console.
func (l *runtimeLogger) consoleActive() bool {
	if l == nil {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return !l.muted
}

func (l *runtimeLogger) emit(level charmLog.Level, msg string, keyvals []any) {
	if l == nil {
		return
	}
	l.mu.RLock()
	console, file, muted := l.console, l.file, l.muted
	l.mu.RUnlock()
	if !muted {
		console.Log(level, msg, keyvals...)
	}
	if file != nil {
		file.Log(level, msg, keyvals...)
	}
}

func (l *runtimeLogger) Debug(msg string, keyvals ...any) { l.emit(charmLog.DebugLevel, msg, keyvals) }
func (l *runtimeLogger) Info(msg string, keyvals ...any)  { l.emit(charmLog.InfoLevel, msg, keyvals) }
func (l *runtimeLogger) Warn(msg string, keyvals ...any)  { l.emit(charmLog.WarnLevel, msg, keyvals) }
func (l *runtimeLogger) Error(msg string, keyvals ...any) { l.emit(charmLog.ErrorLevel, msg, keyvals) }

// devLogFilePath names the log file of one run day: <dir>/<app>-YYYYMMDD.log.
// A relative dir lives under dataDir.
func devLogFilePath(dir, dataDir, appName string, day time.Time) string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = config.DefaultDevLogDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(dataDir, dir)
	}
	return filepath.Join(filepath.Clean(dir), logFileStem(appName)+"-"+day.Format("20060102")+".log")
}

// logFileStem keeps letters, digits, dots, dashes and underscores of the app name.
func logFileStem(appName string) string {
	stem := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		default:
			return '-'
		}
	}, strings.TrimSpace(appName))
	stem = strings.Trim(stem, "-.")
	if stem == "" {
		return "sudsboard"
	}
	return stem
}
