// Package logging provides the shared zap logger construction and the
// category naming used across the diagnostics engine. Each subsystem logs
// through a named child logger so log output can be filtered per concern.
package logging

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names a logging subsystem.
type Category string

const (
	CategoryBoot        Category = "boot"        // Startup and CLI wiring
	CategoryConfig      Category = "config"      // Config loading and hot reload
	CategoryCatalog     Category = "catalog"     // Prototype/expression/corpus loading
	CategoryOverlap     Category = "overlap"     // Pairwise overlap analysis
	CategoryFeasibility Category = "feasibility" // Clause feasibility analysis
	CategoryConflict    Category = "conflict"    // Axis conflict analysis
	CategorySimilarity  Category = "similarity"  // Emotion similarity lookups
	CategoryStore       Category = "store"       // Report archive operations
)

// Options selects the logger behavior. Zero value means info-level console.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// New builds the root logger for the engine. Subsystems derive their own
// loggers from it via For.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	switch opts.Level {
	case "", "info":
	case "debug":
		level = zapcore.DebugLevel
	case "warn", "warning":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("unknown log level %q", opts.Level)
	}

	var cfg zap.Config
	switch opts.Format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// For returns the named child logger for a category.
func For(base *zap.Logger, c Category) *zap.Logger {
	if base == nil {
		return zap.NewNop()
	}
	return base.Named(string(c))
}

// Timer measures an operation's duration and logs it on Stop.
type Timer struct {
	log   *zap.Logger
	op    string
	start time.Time
}

// StartTimer begins timing an operation against the given logger.
func StartTimer(log *zap.Logger, op string) *Timer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Timer{log: log, op: op, start: time.Now()}
}

// Stop ends the timer and logs the elapsed time at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	t.log.Debug("operation complete", zap.String("op", t.op), zap.Duration("elapsed", elapsed))
	return elapsed
}

// StopWithThreshold logs a warning when the operation exceeded the threshold.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		t.log.Warn("slow operation",
			zap.String("op", t.op),
			zap.Duration("elapsed", elapsed),
			zap.Duration("threshold", threshold))
	} else {
		t.log.Debug("operation complete", zap.String("op", t.op), zap.Duration("elapsed", elapsed))
	}
	return elapsed
}
