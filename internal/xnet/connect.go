//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/ooni/probe-cli/blob/v3.20.1/internal/netxlite/dialer.go
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/x/netcore/dialer.go
//

package xnet

import (
	"context"
	"log/slog"
	"net"
	"net/netip"
	"time"

	"github.com/bassosimone/safeconn"
)

// Dialer abstracts [*net.Dialer] so the forwarder's dial pipeline can be
// exercised against a stub in tests.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// NewConnectFunc builds a [*ConnectFunc] for network ("tcp" or "udp"),
// wiring its dialer, error classifier, and clock from cfg.
func NewConnectFunc(cfg *Config, network string, logger SLogger) *ConnectFunc {
	return &ConnectFunc{
		Dialer:        cfg.Dialer,
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		Network:       network,
		TimeNow:       cfg.TimeNow,
	}
}

// ConnectFunc is the first stage of the forwarder's dial pipeline: it
// turns a [netip.AddrPort] into a [net.Conn], logging the attempt and its
// outcome. It returns either a valid conn or an error, never both.
//
// Fields may be overridden after construction (e.g. by tests) but must
// not be mutated while a [Call] is in flight.
type ConnectFunc struct {
	Dialer        Dialer
	ErrClassifier ErrClassifier
	Logger        SLogger
	Network       string
	TimeNow       func() time.Time
}

// Call dials address over op.Network.
func (op *ConnectFunc) Call(ctx context.Context, address netip.AddrPort) (net.Conn, error) {
	t0 := op.TimeNow()
	deadline, _ := ctx.Deadline()
	addr := address.String()

	op.Logger.Info("connectStart",
		slog.Time("deadline", deadline),
		slog.String("protocol", op.Network),
		slog.String("remoteAddr", addr),
		slog.Time("t", t0),
	)

	conn, err := op.Dialer.DialContext(ctx, op.Network, addr)

	op.Logger.Info("connectDone",
		slog.Time("deadline", deadline),
		slog.Any("err", err),
		slog.String("errClass", op.ErrClassifier.Classify(err)),
		slog.String("localAddr", safeconn.LocalAddr(conn)),
		slog.String("protocol", op.Network),
		slog.String("remoteAddr", addr),
		slog.Time("t0", t0),
		slog.Time("t", op.TimeNow()),
	)

	return conn, err
}
