// SPDX-License-Identifier: GPL-3.0-or-later

// Package providers implements the two inert data-provider plugins,
// domain-set and ip-set: they contribute nothing to the response path,
// only the domain-set/ip-set capability facets consumed by matcher
// elsewhere in the pipeline.
package providers

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tigerzhang/clean-dns/internal/plugin"
)

func init() {
	plugin.Register("domain-set", newDomainSetPlugin)
}

// domainSetConfig is the "args" shape for a domain-set declaration:
//
//	type: domain-set
//	args:
//	  files: [list.txt]
//	  values: [inline.example]
type domainSetConfig struct {
	Files  []string `yaml:"files"`
	Values []string `yaml:"values"`
}

// DomainSet is a dot-bounded-suffix membership set loaded from files and/or
// inline values. Lines starting with "#" and blank lines are ignored.
type DomainSet struct {
	tag     string
	entries map[string]struct{}
}

var _ plugin.Plugin = &DomainSet{}
var _ plugin.DomainSet = &DomainSet{}

func newDomainSetPlugin(tag string, args *yaml.Node, reg *plugin.Registry) (plugin.Plugin, error) {
	var cfg domainSetConfig
	if args != nil {
		if err := args.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("domain-set: %w", err)
		}
	}
	ds := &DomainSet{tag: tag, entries: make(map[string]struct{})}
	for _, v := range cfg.Values {
		ds.add(v)
	}
	for _, path := range cfg.Files {
		if err := ds.loadFile(path); err != nil {
			return nil, fmt.Errorf("domain-set: %w", err)
		}
	}
	return ds, nil
}

func (d *DomainSet) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		d.add(line)
	}
	return scanner.Err()
}

func (d *DomainSet) add(name string) {
	d.entries[NormalizeDomain(name)] = struct{}{}
}

// Name implements [plugin.Plugin].
func (d *DomainSet) Name() string { return d.tag }

// Next implements [plugin.Plugin]: domain-set is inert in the pipeline.
func (d *DomainSet) Next(ctx *plugin.Context) error { return nil }

// Contains implements [plugin.DomainSet]: name matches iff it equals a
// stored entry, or ends with "." + entry (dot-bounded suffix).
func (d *DomainSet) Contains(name string) bool {
	return ContainsDomain(d.entries, name)
}

// NormalizeDomain trims a trailing dot and lowercases, the canonical form
// every stored and queried domain is compared in.
func NormalizeDomain(name string) string {
	name = strings.TrimSuffix(name, ".")
	return strings.ToLower(name)
}

// ContainsDomain reports whether name (already normalized by the caller's
// convention) equals an entry in entries or is a dot-bounded suffix of one.
func ContainsDomain(entries map[string]struct{}, name string) bool {
	name = NormalizeDomain(name)
	for entry := range entries {
		if name == entry || strings.HasSuffix(name, "."+entry) {
			return true
		}
	}
	return false
}
