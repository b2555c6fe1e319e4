// SPDX-License-Identifier: GPL-3.0-or-later

package xnet

import (
	"context"
	"net"
)

// NewCancelWatchFunc returns a new [*CancelWatchFunc].
func NewCancelWatchFunc() *CancelWatchFunc {
	return &CancelWatchFunc{}
}

// CancelWatchFunc is the second stage of the forwarder's dial pipeline: it
// arranges for the connection passed through it to be closed when the
// context is done (cancelled or deadline exceeded), so a query whose
// context is cancelled (e.g. by SIGINT via signal.NotifyContext) doesn't
// have to wait out a per-operation timeout.
//
// The returned connection wraps the one it was given. Closing it
// unregisters the context watcher before closing the underlying
// connection, so no goroutine is leaked even if the context is never
// cancelled.
type CancelWatchFunc struct{}

// Call registers a context watcher using [context.AfterFunc] that closes
// the connection when the context is done. The returned [net.Conn] wraps
// the input: closing it unregisters the watcher and closes the underlying
// connection.
func (op *CancelWatchFunc) Call(ctx context.Context, conn net.Conn) (net.Conn, error) {
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	return &cancelWatchedConn{Conn: conn, stop: stop}, nil
}

// cancelWatchedConn wraps a [net.Conn] with a context cancellation watcher.
type cancelWatchedConn struct {
	net.Conn
	stop func() bool
}

// Close unregisters the context watcher and closes the underlying connection.
func (c *cancelWatchedConn) Close() error {
	c.stop()
	return c.Conn.Close()
}
