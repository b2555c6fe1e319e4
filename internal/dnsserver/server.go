// SPDX-License-Identifier: GPL-3.0-or-later

// Package dnsserver implements the UDP front-end: one listening socket,
// unbounded per-datagram fan-out, and per-request pipeline invocation.
package dnsserver

import (
	"context"
	"net"
	"net/netip"
	"time"

	"github.com/miekg/dns"

	"github.com/tigerzhang/clean-dns/internal/plugin"
	"github.com/tigerzhang/clean-dns/internal/stats"
	"github.com/tigerzhang/clean-dns/internal/xnet"
)

// recvBufferSize is the maximum client datagram size accepted, per spec.
const recvBufferSize = 512

// Server owns the UDP listener and drives every query through the entry
// plugin.
type Server struct {
	Addr   string
	Entry  plugin.Plugin
	Stats  *stats.Statistics
	Logger xnet.SLogger

	// timeNow is overridable in tests.
	timeNow func() time.Time
}

// New returns a [*Server] ready to [Run].
func New(addr string, entry plugin.Plugin, sink *stats.Statistics) *Server {
	return &Server{
		Addr:    addr,
		Entry:   entry,
		Stats:   sink,
		Logger:  xnet.DefaultSLogger(),
		timeNow: time.Now,
	}
}

// Run binds the UDP socket and serves until ctx is cancelled or a fatal
// listener error occurs.
func (s *Server) Run(ctx context.Context) error {
	conn, err := net.ListenPacket("udp", s.Addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, recvBufferSize)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.Logger.Info("dnsServerReadError", "err", err)
			continue
		}
		query := make([]byte, n)
		copy(query, buf[:n])
		go s.handle(ctx, conn, addr, query)
	}
}

func (s *Server) handle(ctx context.Context, conn net.PacketConn, addr net.Addr, query []byte) {
	req := new(dns.Msg)
	if err := req.Unpack(query); err != nil {
		s.Logger.Debug("dnsServerDecodeError", "err", err)
		return
	}

	clientAddr, _ := netip.ParseAddrPort(addr.String())

	pctx := &plugin.Context{
		Ctx:        ctx,
		ClientAddr: clientAddr,
		Request:    req,
		Stats:      s.Stats,
	}

	if len(req.Question) > 0 {
		s.Stats.RecordRequest(req.Question[0].Name)
	}

	if err := s.Entry.Next(pctx); err != nil {
		s.Logger.Info("dnsServerPluginError", "err", err)
		return
	}

	if pctx.Response == nil {
		return
	}

	if len(req.Question) > 0 {
		domain := req.Question[0].Name
		now := s.timeNow()
		for _, rr := range pctx.Response.Answer {
			if addr, ok := addrFromRR(rr); ok {
				s.Stats.RecordResolvedIP(domain, addr, pctx.IsRemote, now)
			}
		}
	}

	out, err := pctx.Response.Pack()
	if err != nil {
		s.Logger.Info("dnsServerEncodeError", "err", err)
		return
	}
	if _, err := conn.WriteTo(out, addr); err != nil {
		s.Logger.Info("dnsServerWriteError", "err", err)
	}
}

func addrFromRR(rr dns.RR) (netip.Addr, bool) {
	switch v := rr.(type) {
	case *dns.A:
		addr, ok := netip.AddrFromSlice(v.A.To4())
		return addr, ok
	case *dns.AAAA:
		addr, ok := netip.AddrFromSlice(v.AAAA.To16())
		return addr, ok
	default:
		return netip.Addr{}, false
	}
}
