// SPDX-License-Identifier: GPL-3.0-or-later

// Package xnet provides the concrete stages used to assemble the
// forwarder's outbound connections: dialing, context-bound cancellation,
// and structured I/O logging.
//
// Each stage is a small type with a Call method — [ConnectFunc] dials an
// address, [CancelWatchFunc] makes the resulting conn close when its
// context is done, [ObserveConnFunc] wraps it for I/O logging. The
// forwarder chains these three calls directly to build its direct-UDP
// dial path, and the last two alone to instrument a connection it
// obtained elsewhere (the SOCKS5-tunneled path, whose first hop is a
// proxy dial rather than [ConnectFunc]).
package xnet
