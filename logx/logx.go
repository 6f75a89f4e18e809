// Package logx configures zap logging for go-ext programs.
//
// Before Setup runs, loggers fall back to a console core on stderr
// so libraries can log unconditionally. Setup installs a file sink
// with a root level and optional per-component level overrides,
// looked up by logger name in Named.
package logx

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls the process-wide logging setup.
type Config struct {
	// File is the log sink, opened in append mode. Empty means
	// stderr.
	File string `toml:"file"`

	// Level is the root level. Empty means debug.
	Level string `toml:"level"`

	// Levels overrides the minimum level per component name, as
	// passed to Named. Overrides can only raise the level above the
	// root's.
	Levels map[string]string `toml:"levels"`
}

var state = struct {
	mu        sync.RWMutex
	root      *zap.Logger
	overrides map[string]zapcore.Level
}{
	root: consoleLogger(zapcore.DebugLevel),
}

// Setup installs the configured root logger. Components obtained
// from Named after Setup honor the per-name level overrides.
func Setup(cfg Config) error {
	level := zapcore.DebugLevel
	if cfg.Level != "" {
		var err error
		level, err = zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("logx: parse level %q: %w", cfg.Level, err)
		}
	}

	overrides := make(map[string]zapcore.Level, len(cfg.Levels))
	for name, s := range cfg.Levels {
		lvl, err := zapcore.ParseLevel(s)
		if err != nil {
			return fmt.Errorf("logx: parse level %q for %q: %w", s, name, err)
		}
		overrides[name] = lvl
	}

	sink := zapcore.AddSync(os.Stderr)
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("logx: open log file: %w", err)
		}
		sink = zapcore.AddSync(f)
	}

	core := zapcore.NewCore(encoder(), sink, level)

	state.mu.Lock()
	state.root = zap.New(core)
	state.overrides = overrides
	state.mu.Unlock()
	return nil
}

// L returns the root logger.
func L() *zap.Logger {
	state.mu.RLock()
	defer state.mu.RUnlock()
	return state.root
}

// Named returns a logger for one component, honoring the level
// override configured for that name.
func Named(name string) *zap.Logger {
	state.mu.RLock()
	defer state.mu.RUnlock()
	l := state.root.Named(name)
	if lvl, ok := state.overrides[name]; ok {
		l = l.WithOptions(zap.IncreaseLevel(lvl))
	}
	return l
}

type ctxKey struct{}

// WithContext returns a context carrying l, for request- or
// job-scoped logging.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger carried by ctx, or the root
// logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return L()
}

func consoleLogger(level zapcore.Level) *zap.Logger {
	core := zapcore.NewCore(encoder(), zapcore.AddSync(os.Stderr), level)
	return zap.New(core)
}

// encoder lays lines out as "time level name message fields".
func encoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		NameKey:        "N",
		MessageKey:     "M",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
}
