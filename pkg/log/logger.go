// Package log configures structured logging for the autompg pipeline on top
// of log/slog. Errors produced by pkg/errors are expanded into a stacktrace
// attribute by ErrFmtHandler.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Setup installs the default slog logger writing JSON records to stdout.
func Setup(loglevel string) {
	SetupWithWriter(loglevel, os.Stdout)
}

// SetupWithWriter installs the default slog logger writing to w. Tests use
// this to capture output.
func SetupWithWriter(loglevel string, w io.Writer) {
	ops := slog.HandlerOptions{
		Level: ToLogLevel(loglevel),
	}
	handler := slog.NewJSONHandler(w, &ops)
	slog.SetDefault(slog.New(WrapByErrFmtHandler(handler)))
}

// ToLogLevel converts a level name to a slog.Level.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

const (
	// ErrAttrKey is the attribute key under which errors are logged.
	ErrAttrKey = "error"
	// StacktraceAttrKey is the attribute key for extracted stack traces.
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr wraps err for passing to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
