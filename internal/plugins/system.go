// SPDX-License-Identifier: GPL-3.0-or-later

package plugins

import (
	"context"
	"net"
	"net/netip"
	"time"

	"github.com/miekg/dns"
	"gopkg.in/yaml.v3"

	"github.com/tigerzhang/clean-dns/internal/plugin"
)

func init() {
	plugin.Register("system", newSystem)
}

// resolver abstracts [*net.Resolver] for testing.
type resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// System resolves the query using the host's configured stub resolver and,
// on success only, synthesizes a response. Failure leaves the context
// untouched so a downstream plugin (typically fallback's secondary) may
// still try.
type System struct {
	tag      string
	resolver resolver
}

var _ plugin.Plugin = &System{}

func newSystem(tag string, args *yaml.Node, reg *plugin.Registry) (plugin.Plugin, error) {
	return &System{tag: tag, resolver: net.DefaultResolver}, nil
}

// Name implements [plugin.Plugin].
func (s *System) Name() string { return s.tag }

// Next implements [plugin.Plugin].
func (s *System) Next(ctx *plugin.Context) error {
	if ctx.Response != nil {
		return nil
	}
	if len(ctx.Request.Question) == 0 {
		return nil
	}
	q := ctx.Request.Question[0]
	network, ok := networkForQtype(q.Qtype)
	if !ok {
		return nil
	}

	lctx := ctx.Ctx
	if lctx == nil {
		lctx = context.Background()
	}
	lctx, cancel := context.WithTimeout(lctx, 5*time.Second)
	defer cancel()

	addrs, err := s.resolver.LookupNetIP(lctx, network, q.Name)
	if err != nil || len(addrs) == 0 {
		return nil
	}

	resp := new(dns.Msg)
	resp.SetReply(ctx.Request)
	for _, addr := range addrs {
		if rr := addrRecord(q.Name, q.Qtype, addr); rr != nil {
			resp.Answer = append(resp.Answer, rr)
		}
	}
	if len(resp.Answer) == 0 {
		return nil
	}
	ctx.Response = resp
	return nil
}

func networkForQtype(qtype uint16) (string, bool) {
	switch qtype {
	case dns.TypeA:
		return "ip4", true
	case dns.TypeAAAA:
		return "ip6", true
	default:
		return "", false
	}
}
