// Package logger defines the logging interface used across the engine and
// its zerolog-backed implementation. Derivation code never logs; only
// long-lived components (facade, refresher, HTTP layer, CLI) take a Logger.
package logger

// Logger exposes logging methods for common severity levels.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Nop is a Logger that discards everything. Useful as a default so callers
// never have to nil-check.
type Nop struct{}

func (Nop) Debugf(string, ...any)          {}
func (Nop) Debugw(string, map[string]any)  {}
func (Nop) Infof(string, ...any)           {}
func (Nop) Warnf(string, ...any)           {}
func (Nop) Errorf(string, ...any)          {}
