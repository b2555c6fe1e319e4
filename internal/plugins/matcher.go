// SPDX-License-Identifier: GPL-3.0-or-later

package plugins

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tigerzhang/clean-dns/internal/plugin"
	"github.com/tigerzhang/clean-dns/internal/providers"
)

func init() {
	plugin.Register("matcher", newMatcher)
}

// matcherConfig is the "args" shape for a matcher declaration:
//
//	type: matcher
//	args:
//	  domains: [evil.com, "provider:geosite-cn"]
//	  ips: ["provider:cn-ipset"]
//	  exec: [rejector]
type matcherConfig struct {
	Domains []string `yaml:"domains"`
	IPs     []string `yaml:"ips"`
	Exec    []string `yaml:"exec"`
}

// Matcher evaluates a disjunction over inline domain literals, referenced
// domain-set providers, and referenced ip-set providers (checked against
// the client address). It exposes the "condition" facet for use by if, and
// as a plugin in its own right, runs an exec list when the disjunction is
// true.
type Matcher struct {
	tag            string
	literalDomains map[string]struct{}
	domainSets     []plugin.DomainSet
	ipSets         []plugin.IPSet
	exec           []plugin.Plugin
}

var _ plugin.Plugin = &Matcher{}
var _ plugin.Condition = &Matcher{}

func newMatcher(tag string, args *yaml.Node, reg *plugin.Registry) (plugin.Plugin, error) {
	var cfg matcherConfig
	if args != nil {
		if err := args.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("matcher: %w", err)
		}
	}
	m := &Matcher{tag: tag, literalDomains: make(map[string]struct{})}
	for _, d := range cfg.Domains {
		if strings.HasPrefix(d, "provider:") {
			ds, err := reg.ResolveDomainSet(d)
			if err != nil {
				return nil, fmt.Errorf("matcher: %w", err)
			}
			m.domainSets = append(m.domainSets, ds)
			continue
		}
		m.literalDomains[providers.NormalizeDomain(d)] = struct{}{}
	}
	for _, ref := range cfg.IPs {
		is, err := reg.ResolveIPSet(ref)
		if err != nil {
			return nil, fmt.Errorf("matcher: %w", err)
		}
		m.ipSets = append(m.ipSets, is)
	}
	exec, err := resolveChildren(reg, cfg.Exec)
	if err != nil {
		return nil, fmt.Errorf("matcher: %w", err)
	}
	m.exec = exec
	return m, nil
}

// Name implements [plugin.Plugin].
func (m *Matcher) Name() string { return m.tag }

// Check implements [plugin.Condition].
func (m *Matcher) Check(ctx *plugin.Context) bool {
	name := ctx.QuestionName()
	if name != "" {
		if providers.ContainsDomain(m.literalDomains, name) {
			return true
		}
		for _, ds := range m.domainSets {
			if ds.Contains(name) {
				return true
			}
		}
	}
	if ctx.ClientAddr.IsValid() {
		addr := ctx.ClientAddr.Addr()
		for _, is := range m.ipSets {
			if is.Contains(addr) {
				return true
			}
		}
	}
	return false
}

// Next implements [plugin.Plugin]: runs exec iff Check is true, stopping
// early within exec once a response is produced or Abort is set.
func (m *Matcher) Next(ctx *plugin.Context) error {
	if !m.Check(ctx) {
		return nil
	}
	for _, child := range m.exec {
		if ctx.Response != nil || ctx.Abort {
			return nil
		}
		if err := child.Next(ctx); err != nil {
			return err
		}
	}
	return nil
}
