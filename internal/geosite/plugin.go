// SPDX-License-Identifier: GPL-3.0-or-later

package geosite

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/tigerzhang/clean-dns/internal/plugin"
	"github.com/tigerzhang/clean-dns/internal/providers"
	"github.com/tigerzhang/clean-dns/internal/xnet"
)

func init() {
	plugin.Register("geosite", newGeositePlugin)
}

// pluginConfig is the "args" shape for a geosite declaration:
//
//	type: geosite
//	args:
//	  file: geosite.dat
//	  code: cn
type pluginConfig struct {
	File string `yaml:"file"`
	Code string `yaml:"code"`
}

// Plugin is a domain-set provider backed by one country/category entry of a
// compiled [GeoSiteList]. Full entries match exactly, RootDomain entries
// match by dot-bounded suffix (the same rule domain-set uses), Plain
// entries fall back to the same suffix rule since keyword/substring
// matching does not compose with the dot-bounded domain-set contract used
// elsewhere in this pipeline. Regexp entries are loaded but never matched;
// the first query that would have needed one logs a warning, once.
type Plugin struct {
	tag    string
	code   string
	exact  map[string]struct{}
	suffix map[string]struct{}
	regex  int

	warnOnce sync.Once
	logger   xnet.SLogger
}

var _ plugin.Plugin = &Plugin{}
var _ plugin.DomainSet = &Plugin{}

func newGeositePlugin(tag string, args *yaml.Node, reg *plugin.Registry) (plugin.Plugin, error) {
	var cfg pluginConfig
	if args != nil {
		if err := args.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("geosite: %w", err)
		}
	}
	if cfg.File == "" || cfg.Code == "" {
		return nil, fmt.Errorf("geosite: %q requires both file and code", tag)
	}

	data, err := os.ReadFile(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("geosite: %w", err)
	}
	list, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("geosite: decoding %s: %w", cfg.File, err)
	}

	code := strings.ToUpper(cfg.Code)
	p := &Plugin{
		tag:    tag,
		code:   code,
		exact:  make(map[string]struct{}),
		suffix: make(map[string]struct{}),
		logger: xnet.DefaultSLogger(),
	}

	var found bool
	for _, site := range list.Entry {
		if site.CountryCode != code {
			continue
		}
		found = true
		for _, d := range site.Domain {
			switch d.Type {
			case DomainFull:
				p.exact[providers.NormalizeDomain(d.Value)] = struct{}{}
			case DomainRootDomain, DomainPlain:
				p.suffix[providers.NormalizeDomain(d.Value)] = struct{}{}
			case DomainRegex:
				p.regex++
			}
		}
		break
	}
	if !found {
		return nil, fmt.Errorf("geosite: code %q not found in %s", cfg.Code, cfg.File)
	}
	return p, nil
}

// Name implements [plugin.Plugin].
func (p *Plugin) Name() string { return p.tag }

// Next implements [plugin.Plugin]: geosite is inert in the pipeline, like
// domain-set.
func (p *Plugin) Next(ctx *plugin.Context) error { return nil }

// Contains implements [plugin.DomainSet].
func (p *Plugin) Contains(name string) bool {
	normalized := providers.NormalizeDomain(name)
	if _, ok := p.exact[normalized]; ok {
		return true
	}
	if providers.ContainsDomain(p.suffix, normalized) {
		return true
	}
	if p.regex > 0 {
		p.warnOnce.Do(func() {
			p.logger.Info("geositeRegexUnsupported", "code", p.code, "count", p.regex)
		})
	}
	return false
}
