package logger

import (
	"sync"

	"github.com/code19m/errx"
)

//nolint:gochecknoglobals // process-wide logger
var (
	globalMu  sync.RWMutex
	global    Logger
	globalSet bool
)

// SetGlobal installs the process-wide logger built from cfg. Only the first
// call succeeds.
func SetGlobal(cfg Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}

	globalMu.Lock()
	defer globalMu.Unlock()

	if globalSet {
		return errx.New("[logger]: global logger is already set")
	}
	global, globalSet = l, true
	return nil
}

// Named returns the global logger scoped under name.
func Named(name string) Logger {
	return getGlobal().Named(name)
}

// Errorx logs err at error level on the global logger.
func Errorx(err error) {
	getGlobal().Errorx(err)
}

// Sync flushes the global logger.
func Sync() error {
	return getGlobal().Sync()
}

// getGlobal falls back to a debug-level pretty logger until SetGlobal runs.
func getGlobal() Logger {
	globalMu.RLock()
	l := global
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		global, _ = New(Config{Level: "debug", Encoding: encPretty})
	}
	return global
}
