// Package log provides named per-component loggers on top of zap.
//
// Every line carries a "[name>]" marker so output from the coordinator, the
// transport and individual regions can be told apart with grep:
//
//	l := log.ForService("coordinator")
//	l.Infof("round %d started for %q", gen, phrase)
//	l.Debugf("region %s: %d items", region, n) // only with debug enabled
//
// Debug output can be enabled globally (SetGlobalDebug) or for a single
// service (EnableDebugFor).
package log

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level names as rendered in the output.
const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelDebug = "DEBUG"
)

// Logger is a named logger.
type Logger struct {
	name  string
	sugar atomic.Pointer[zap.SugaredLogger]
}

var (
	globalDebug  atomic.Bool
	serviceDebug sync.Map // map[string]*atomic.Bool
	loggers      sync.Map // map[string]*Logger
	base         atomic.Pointer[zap.Logger]
)

func init() {
	base.Store(newZap(os.Stderr))
}

// newZap builds a console logger writing to w. The level filter is left at
// debug; gating happens in Debugf so it can be decided per service.
func newZap(w io.Writer) *zap.Logger {
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		MessageKey:       "msg",
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05.000000"),
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		ConsoleSeparator: " ",
	})
	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), zapcore.DebugLevel)
	return zap.New(core)
}

// ForService returns (and memoizes) the logger for name.
func ForService(name string) *Logger {
	if name == "" {
		name = "unknown"
	}
	if l, ok := loggers.Load(name); ok {
		return l.(*Logger)
	}
	logger := &Logger{name: name}
	logger.sugar.Store(base.Load().Sugar())
	actual, _ := loggers.LoadOrStore(name, logger)
	return actual.(*Logger)
}

// SetGlobalDebug enables or disables debug logging for every service.
func SetGlobalDebug(enabled bool) {
	globalDebug.Store(enabled)
}

// GlobalDebug reports whether global debug logging is enabled.
func GlobalDebug() bool {
	return globalDebug.Load()
}

// EnableDebugFor enables debug logging for a single service.
func EnableDebugFor(name string) {
	if name == "" {
		return
	}
	val, _ := serviceDebug.LoadOrStore(name, &atomic.Bool{})
	val.(*atomic.Bool).Store(true)
}

// DisableDebugFor disables debug logging for a single service.
func DisableDebugFor(name string) {
	if name == "" {
		return
	}
	if val, ok := serviceDebug.Load(name); ok {
		val.(*atomic.Bool).Store(false)
	}
}

// DebugEnabledFor reports whether debug output is on for name, either
// globally or for the service itself.
func DebugEnabledFor(name string) bool {
	if globalDebug.Load() {
		return true
	}
	if val, ok := serviceDebug.Load(name); ok {
		return val.(*atomic.Bool).Load()
	}
	return false
}

// SetOutput redirects all loggers, existing ones included, to w.
func SetOutput(w io.Writer) {
	if w == nil {
		return
	}
	zl := newZap(w)
	base.Store(zl)
	loggers.Range(func(_, v any) bool {
		v.(*Logger).sugar.Store(zl.Sugar())
		return true
	})
}

// Flush syncs the underlying zap core.
func Flush() {
	_ = base.Load().Sync()
}

func (l *Logger) prefix() string {
	return "[" + l.name + ">] "
}

// Infof logs an informational message.
func (l *Logger) Infof(format string, args ...any) {
	l.sugar.Load().Infof(l.prefix()+format, args...)
}

// Warnf logs a warning.
func (l *Logger) Warnf(format string, args ...any) {
	l.sugar.Load().Warnf(l.prefix()+format, args...)
}

// Errorf logs an error.
func (l *Logger) Errorf(format string, args ...any) {
	l.sugar.Load().Errorf(l.prefix()+format, args...)
}

// Debugf logs only when debug is enabled for this logger's service.
func (l *Logger) Debugf(format string, args ...any) {
	if !DebugEnabledFor(l.name) {
		return
	}
	l.sugar.Load().Debugf(l.prefix()+format, args...)
}
