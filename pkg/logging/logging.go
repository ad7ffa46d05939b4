// Package logging provides the structured logger every stage, the
// store, and the client are constructed with, following the teacher
// corpus's convention of injecting a *zap.Logger rather than using a
// package-level global.
package logging

import "go.uber.org/zap"

// New builds a production zap logger, falling back to a no-op logger if
// construction fails (mirrors the teacher's fail-soft logging setup).
func New() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Named returns a child logger scoped to a pipeline component, matching
// the teacher's per-component-named-logger convention.
func Named(base *zap.Logger, component string) *zap.Logger {
	if base == nil {
		return zap.NewNop()
	}
	return base.Named(component)
}
