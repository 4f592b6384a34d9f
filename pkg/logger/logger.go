package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	root   *zap.Logger
	rootMu sync.RWMutex
)

func init() {
	// Packages may log before Init runs during start-up.
	root = zap.NewNop()
}

// Init builds the process-wide logger at the given level. Unknown level
// strings fall back to info.
func Init(level string) error {
	cfg := zap.NewProductionConfig()

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	built, err := cfg.Build()
	if err != nil {
		return err
	}

	rootMu.Lock()
	defer rootMu.Unlock()

	root = built
	return nil
}

// Logger returns the process-wide logger.
func Logger() *zap.Logger {
	rootMu.RLock()
	defer rootMu.RUnlock()

	return root
}

// Sync flushes buffered log entries.
func Sync() error {
	return Logger().Sync()
}

// WithModule returns a child logger tagged with the owning module.
func WithModule(module string) *zap.Logger {
	return Logger().With(zap.String("module", module))
}
