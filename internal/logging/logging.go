package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tphakala/wtracker/internal/conf"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelTrace sits below debug and carries SQL statements.
const LevelTrace = slog.Level(-8)

var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
}

// replaceLevelNames renders the custom TRACE level by name.
func replaceLevelNames(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level, ok := a.Value.Any().(slog.Level)
		if !ok {
			return a
		}
		levelLabel, exists := levelNames[level]
		if !exists {
			levelLabel = level.String()
		}
		a.Value = slog.StringValue(levelLabel)
	}
	return a
}

// ParseLevel converts a configured level name to a slog level. Unknown
// names fall back to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init initializes the logging system. Human-readable text logs always go to
// stderr; when the main log is enabled, JSON logs are also written to the
// rotated log file. The returned function closes the log file.
func Init(settings *conf.Settings) (func() error, error) {
	level := ParseLevel(settings.Main.Log.Level)
	if settings.Debug {
		level = slog.LevelDebug
	}

	closeFunc := func() error { return nil }
	var structuredOutput io.Writer = io.Discard
	if settings.Main.Log.Enabled {
		writer, err := newRotatingWriter(settings.Main.Log)
		if err != nil {
			return nil, err
		}
		structuredOutput = writer
		closeFunc = writer.Close
	}

	SetOutput(structuredOutput, os.Stderr, level)
	return closeFunc, nil
}

// SetOutput installs a default logger fanning out to a JSON handler and a
// text handler writing to the given writers.
func SetOutput(structuredOutput, humanReadableOutput io.Writer, level slog.Level) {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: replaceLevelNames}

	structured := slog.New(slog.NewJSONHandler(structuredOutput, opts))
	human := slog.New(slog.NewTextHandler(humanReadableOutput, opts))

	slog.SetDefault(slog.New(fanoutHandler{structured.Handler(), human.Handler()}))
}

// ForService creates a new logger instance with the 'service' attribute added.
// Before Init it falls back to slog.Default().
func ForService(serviceName string) *slog.Logger {
	return slog.Default().With("service", serviceName)
}

// --- Convenience functions using the default logger ---

// Debug logs a debug message using the default slog logger.
func Debug(msg string, args ...any) {
	slog.Debug(msg, args...)
}

// Info logs an info message using the default slog logger.
func Info(msg string, args ...any) {
	slog.Info(msg, args...)
}

// Warn logs a warning message using the default slog logger.
func Warn(msg string, args ...any) {
	slog.Warn(msg, args...)
}

// Error logs an error message using the default slog logger.
func Error(msg string, args ...any) {
	slog.Error(msg, args...)
}

// Trace logs a trace message using the custom Trace level.
func Trace(msg string, args ...any) {
	slog.Log(context.TODO(), LevelTrace, msg, args...)
}

// newRotatingWriter configures lumberjack from the main log settings.
func newRotatingWriter(logConf conf.LogConfig) (*lumberjack.Logger, error) {
	// lumberjack doesn't create directories
	logDir := filepath.Dir(logConf.Path)
	if logDir != "." {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
	}

	logWriter := &lumberjack.Logger{
		Filename: logConf.Path,
		Compress: false,
	}

	maxSizeMB := 100
	maxBackups := 3
	maxAge := 28 // days

	if configMaxSizeMB := int(logConf.MaxSize / (1024 * 1024)); configMaxSizeMB > 0 {
		maxSizeMB = configMaxSizeMB
	}

	switch logConf.Rotation {
	case conf.RotationDaily:
		maxAge = 1
		maxBackups = 30
	case conf.RotationWeekly:
		maxAge = 7
		maxBackups = 4
	case conf.RotationSize:
	default:
		slog.Warn("Unknown log rotation type in config, using size-based defaults", "configuredType", logConf.Rotation)
	}

	logWriter.MaxSize = maxSizeMB
	logWriter.MaxBackups = maxBackups
	logWriter.MaxAge = maxAge

	return logWriter, nil
}

// fanoutHandler sends each record to every wrapped handler that accepts its level.
type fanoutHandler []slog.Handler

func (h fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, handler := range h {
		if !handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := handler.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanoutHandler, len(h))
	for i, handler := range h {
		out[i] = handler.WithAttrs(attrs)
	}
	return out
}

func (h fanoutHandler) WithGroup(name string) slog.Handler {
	out := make(fanoutHandler, len(h))
	for i, handler := range h {
		out[i] = handler.WithGroup(name)
	}
	return out
}
