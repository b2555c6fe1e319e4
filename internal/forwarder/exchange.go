// SPDX-License-Identifier: GPL-3.0-or-later

package forwarder

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"

	"github.com/tigerzhang/clean-dns/internal/xnet"
)

// exchangeUDPDirect binds an ephemeral UDP socket, connects, sends the
// query, and awaits one datagram up to 4096 bytes.
func (f *Forward) exchangeUDPDirect(ctx context.Context, u upstream, reqBytes []byte) ([]byte, error) {
	conn, err := f.dial(ctx, "udp", u.udp)
	if err != nil {
		return nil, fmt.Errorf("forward: udp dial: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Write(reqBytes); err != nil {
		return nil, fmt.Errorf("forward: udp write: %w", err)
	}
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("forward: udp read: %w", err)
	}
	return buf[:n], nil
}

// exchangeUDPOverSocks5 tunnels DNS-over-TCP (2-byte length-prefix framed)
// through a SOCKS5 CONNECT to the UDP-declared upstream's host:port.
func (f *Forward) exchangeUDPOverSocks5(ctx context.Context, u upstream, reqBytes []byte) ([]byte, error) {
	conn, err := f.socks5Dialer.DialContext(ctx, "tcp", u.udp.String())
	if err != nil {
		return nil, fmt.Errorf("forward: socks5 dial: %w", err)
	}
	cancelWatched, _ := xnet.NewCancelWatchFunc().Call(ctx, conn)
	observed, _ := xnet.NewObserveConnFunc(f.cfg, f.logger).Call(ctx, cancelWatched)
	defer observed.Close()

	if err := writeLengthPrefixed(observed, reqBytes); err != nil {
		return nil, fmt.Errorf("forward: socks5 write: %w", err)
	}
	respBytes, err := readLengthPrefixed(observed)
	if err != nil {
		return nil, fmt.Errorf("forward: socks5 read: %w", err)
	}
	return respBytes, nil
}

// exchangeDoH POSTs the raw request wire form to the configured DoH URL.
func (f *Forward) exchangeDoH(ctx context.Context, u upstream, reqBytes []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("forward: building DoH request: %w", err)
	}
	req.Header.Set("content-type", "application/dns-message")
	req.Header.Set("accept", "application/dns-message")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forward: DoH round trip: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("forward: DoH non-2xx status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// dial runs the connect -> cancel-watch -> observe pipeline used for the
// direct-UDP path.
func (f *Forward) dial(ctx context.Context, network string, addr netip.AddrPort) (net.Conn, error) {
	conn, err := xnet.NewConnectFunc(f.cfg, network, f.logger).Call(ctx, addr)
	if err != nil {
		return nil, err
	}
	conn, _ = xnet.NewCancelWatchFunc().Call(ctx, conn)
	conn, _ = xnet.NewObserveConnFunc(f.cfg, f.logger).Call(ctx, conn)
	return conn, nil
}

func writeLengthPrefixed(w io.Writer, data []byte) error {
	var prefix [2]byte
	binary.BigEndian.PutUint16(prefix[:], uint16(len(data)))
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readLengthPrefixed(r io.Reader) ([]byte, error) {
	var prefix [2]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint16(prefix[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
