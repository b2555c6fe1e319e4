// SPDX-License-Identifier: GPL-3.0-or-later

package plugins

import (
	"fmt"

	"github.com/miekg/dns"
	"gopkg.in/yaml.v3"

	"github.com/tigerzhang/clean-dns/internal/plugin"
)

func init() {
	plugin.Register("ttl", newTTL)
}

// ttlConfig is the "args" shape for a ttl declaration:
//
//	type: ttl
//	args:
//	  min: 30
//	  max: 3600
type ttlConfig struct {
	Min uint32 `yaml:"min"`
	Max uint32 `yaml:"max"`
}

// TTL clamps every record's TTL in the current response to [min, max].
// max of 0 means unbounded.
type TTL struct {
	tag string
	min uint32
	max uint32
}

var _ plugin.Plugin = &TTL{}

func newTTL(tag string, args *yaml.Node, reg *plugin.Registry) (plugin.Plugin, error) {
	var cfg ttlConfig
	if args != nil {
		if err := args.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("ttl: %w", err)
		}
	}
	return &TTL{tag: tag, min: cfg.Min, max: cfg.Max}, nil
}

// Name implements [plugin.Plugin].
func (t *TTL) Name() string { return t.tag }

// Next implements [plugin.Plugin]: no-op if no response is present yet.
func (t *TTL) Next(ctx *plugin.Context) error {
	if ctx.Response == nil {
		return nil
	}
	t.clamp(ctx.Response.Answer)
	t.clamp(ctx.Response.Ns)
	t.clamp(ctx.Response.Extra)
	return nil
}

func (t *TTL) clamp(rrs []dns.RR) {
	for _, rr := range rrs {
		hdr := rr.Header()
		ttl := hdr.Ttl
		if ttl < t.min {
			ttl = t.min
		}
		if t.max > 0 && ttl > t.max {
			ttl = t.max
		}
		hdr.Ttl = ttl
	}
}
