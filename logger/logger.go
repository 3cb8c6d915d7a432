// Package logger provides structured logging using Zap.
package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.Mutex
	base *zap.Logger
)

// New builds a logger for the given environment. "production" uses a JSON
// encoder; anything else a human-readable console encoder. An empty level
// keeps the environment's default.
func New(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("logger.New: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}

// Init replaces the global logger. It falls back to a nop logger when the
// level cannot be parsed.
func Init(env, level string) error {
	l, err := New(env, level)
	if err != nil {
		l = zap.NewNop()
	}
	mu.Lock()
	base = l
	mu.Unlock()
	return err
}

// Get returns the global logger.
// If Init has not been called, it initializes a development logger.
func Get() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if base == nil {
		l, err := New("development", "")
		if err != nil {
			l = zap.NewNop()
		}
		base = l
	}
	return base
}

// Sync flushes any buffered log entries. Call this before application exit.
func Sync() {
	mu.Lock()
	l := base
	mu.Unlock()
	if l != nil {
		_ = l.Sync()
	}
}
