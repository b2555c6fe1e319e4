//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/ooni/probe-cli/blob/v3.20.1/internal/netxlite/dialer.go
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/x/netcore/dialer.go
//

package xnet

// SLogger abstracts [*slog.Logger] so callers can substitute a test double
// or a no-op logger without pulling log/slog into every signature.
//
// The dial pipeline uses Info for connection lifecycle events (connect,
// close) and Debug for per-I/O events (read, write, set deadline).
//
// [*slog.Logger] satisfies this interface as-is.
type SLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// DefaultSLogger returns a no-op [SLogger]; plugins fall back to it unless
// given a real logger, so the forwarder stays silent until configured.
func DefaultSLogger() SLogger {
	return discardSLogger{}
}

// discardSLogger is a no-op [SLogger] that discards all log messages.
type discardSLogger struct{}

var _ SLogger = discardSLogger{}

// Debug implements [SLogger].
func (discardSLogger) Debug(msg string, args ...any) {
	// nothing
}

// Info implements [SLogger].
func (discardSLogger) Info(msg string, args ...any) {
	// nothing
}
