// SPDX-License-Identifier: GPL-3.0-or-later

package forwarder

import (
	"fmt"
	"net/netip"
	"strings"
)

type upstreamKind int

const (
	kindUDP upstreamKind = iota
	kindDoH
)

type upstream struct {
	kind upstreamKind
	udp  netip.AddrPort
	url  string
}

// forwardConfig is the "args" shape for a forward declaration:
//
//	type: forward
//	args:
//	  addr: 1.1.1.1:53            # or:
//	  upstreams: ["1.1.1.1:53", "https://dns.google/dns-query"]
//	  concurrent: 2
//	  socks5: 127.0.0.1:1080
type forwardConfig struct {
	Addr       string   `yaml:"addr"`
	Upstreams  []string `yaml:"upstreams"`
	Concurrent int      `yaml:"concurrent"`
	Socks5     string   `yaml:"socks5"`
}

func parseUpstreams(cfg forwardConfig) ([]upstream, error) {
	var raw []string
	if cfg.Addr != "" {
		raw = append(raw, cfg.Addr)
	}
	raw = append(raw, cfg.Upstreams...)
	if len(raw) == 0 {
		return nil, fmt.Errorf("forward: at least one of addr/upstreams is required")
	}
	upstreams := make([]upstream, 0, len(raw))
	for _, s := range raw {
		if strings.HasPrefix(s, "https://") {
			upstreams = append(upstreams, upstream{kind: kindDoH, url: s})
			continue
		}
		addr, err := netip.ParseAddrPort(s)
		if err != nil {
			return nil, fmt.Errorf("forward: invalid UDP upstream %q: %w", s, err)
		}
		upstreams = append(upstreams, upstream{kind: kindUDP, udp: addr})
	}
	return upstreams, nil
}
