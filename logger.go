package ndfilter

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for ndfilter and all its sub-packages.
// By default, ndfilter produces no log output. Pass nil to restore the
// silent default.
//
// Log levels used by ndfilter:
//   - [slog.LevelDebug]: per-primitive diagnostics (shapes, dispatch sizes)
//   - [slog.LevelInfo]: lifecycle events (backend opened, GPU adapter selected)
//   - [slog.LevelWarn]: non-fatal issues (GPU to CPU fallback)
//
// Example:
//
//	ndfilter.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	for _, b := range openedBackends() {
		propagateLogger(b, l)
	}
}

// Logger returns the current logger used by ndfilter.
// Sub-packages call this to share the same logger configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by backends that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to a backend if it implements
// loggerSetter.
func propagateLogger(b Backend, l *slog.Logger) {
	if ls, ok := b.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
