// SPDX-License-Identifier: GPL-3.0-or-later

package plugins

import (
	"fmt"

	"github.com/miekg/dns"
	"gopkg.in/yaml.v3"

	"github.com/tigerzhang/clean-dns/internal/plugin"
)

func init() {
	plugin.Register("reject", newReject)
}

// rejectConfig is the "args" shape for a reject declaration:
//
//	type: reject
//	args:
//	  rcode: 3 # default REFUSED=5
type rejectConfig struct {
	RCode *int `yaml:"rcode"`
}

// Reject produces an empty response carrying the configured RCODE and
// aborts the enclosing sequence.
type Reject struct {
	tag   string
	rcode int
}

var _ plugin.Plugin = &Reject{}

func newReject(tag string, args *yaml.Node, reg *plugin.Registry) (plugin.Plugin, error) {
	cfg := rejectConfig{}
	if args != nil {
		if err := args.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("reject: %w", err)
		}
	}
	rcode := dns.RcodeRefused
	if cfg.RCode != nil {
		rcode = *cfg.RCode
	}
	return &Reject{tag: tag, rcode: rcode}, nil
}

// Name implements [plugin.Plugin].
func (r *Reject) Name() string { return r.tag }

// Next implements [plugin.Plugin]: produces an empty RCODE response, id
// copied from the request, and sets Abort.
func (r *Reject) Next(ctx *plugin.Context) error {
	resp := new(dns.Msg)
	resp.SetRcode(ctx.Request, r.rcode)
	ctx.Response = resp
	ctx.Abort = true
	return nil
}
