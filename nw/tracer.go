package nw

import (
	"strings"

	"github.com/gox/netrt/log"
)

// Tracer is the injected trace sink every client, server, and wrapper
// takes at construction. Per the design note against a process-wide
// logger, nothing in this package calls the log package directly except
// through the defaultTracer adapter below, so tests can observe trace
// output without touching global state.
type Tracer interface {
	Trace(format string, args ...any)
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// defaultTracer adapts gox/netrt/log's existing global logger so callers
// that pass a nil Tracer keep the teacher's original logging behaviour.
type defaultTracer struct{}

func (defaultTracer) Trace(format string, args ...any) { log.Debug(logArgs(format, args...)...) }
func (defaultTracer) Debug(format string, args ...any) { log.Debug(logArgs(format, args...)...) }
func (defaultTracer) Info(format string, args ...any)  { log.Info(logArgs(format, args...)...) }
func (defaultTracer) Warn(format string, args ...any)  { log.Warn(logArgs(format, args...)...) }
func (defaultTracer) Error(format string, args ...any) { log.Error(logArgs(format, args...)...) }

func logArgs(format string, args ...any) []any {
	all := make([]any, 0, len(args)+1)
	all = append(all, format)
	return append(all, args...)
}

// DefaultTracer returns the package-wide fallback Tracer.
func DefaultTracer() Tracer { return defaultTracer{} }

func traceOf(t Tracer) Tracer {
	if t == nil {
		return defaultTracer{}
	}
	return t
}

// LogLevel selects the minimum severity a Tracer actually emits, per the
// "log level (trace/debug/info/warn/error/critical/none)" build-time
// config option spec.md §6 names alongside buffer capacity and backlog.
// LogLevelUnset is the zero value so Config/ClientConfig's withDefaults
// can tell "not configured" apart from an explicit choice, matching
// config.go's existing zero-value-default convention for the other options.
type LogLevel int

const (
	LogLevelUnset LogLevel = iota
	LogLevelTrace
	LogLevelDebug
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelCritical
	LogLevelNone
)

// ParseLogLevel maps a config string onto a LogLevel, defaulting to
// LogLevelInfo for anything empty or unrecognised.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LogLevelTrace
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	case "critical":
		return LogLevelCritical
	case "none":
		return LogLevelNone
	case "info":
		return LogLevelInfo
	default:
		return LogLevelInfo
	}
}

// leveledTracer wraps a Tracer and drops any call below level. Trace
// through Warn gate their own-named method; Error gates at
// LogLevelError, since nothing in this package distinguishes an
// "error" call from a "critical" one — Critical/None both mean every
// call this package currently makes is suppressed.
type leveledTracer struct {
	level LogLevel
	next  Tracer
}

func newLeveledTracer(level LogLevel, next Tracer) Tracer {
	if level == LogLevelUnset {
		level = LogLevelInfo
	}
	return &leveledTracer{level: level, next: next}
}

func (this_ *leveledTracer) Trace(format string, args ...any) {
	if this_.level <= LogLevelTrace {
		this_.next.Trace(format, args...)
	}
}

func (this_ *leveledTracer) Debug(format string, args ...any) {
	if this_.level <= LogLevelDebug {
		this_.next.Debug(format, args...)
	}
}

func (this_ *leveledTracer) Info(format string, args ...any) {
	if this_.level <= LogLevelInfo {
		this_.next.Info(format, args...)
	}
}

func (this_ *leveledTracer) Warn(format string, args ...any) {
	if this_.level <= LogLevelWarn {
		this_.next.Warn(format, args...)
	}
}

func (this_ *leveledTracer) Error(format string, args ...any) {
	if this_.level <= LogLevelError {
		this_.next.Error(format, args...)
	}
}
