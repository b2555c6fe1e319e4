// SPDX-License-Identifier: GPL-3.0-or-later

package providers

import (
	"bufio"
	"fmt"
	"net/netip"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tigerzhang/clean-dns/internal/plugin"
)

func init() {
	plugin.Register("ip-set", newIPSetPlugin)
}

// ipSetConfig is the "args" shape for an ip-set declaration:
//
//	type: ip-set
//	args:
//	  files: [cidrs.txt]
//	  values: [10.0.0.0/8, 1.2.3.4]
type ipSetConfig struct {
	Files  []string `yaml:"files"`
	Values []string `yaml:"values"`
}

// IPSet is a CIDR membership set loaded from files and/or inline values.
// A bare IP is treated as a single-host block. Membership is a linear scan
// over the loaded prefixes — correctness, not speed, is the contract.
type IPSet struct {
	tag     string
	prefixes []netip.Prefix
}

var _ plugin.Plugin = &IPSet{}
var _ plugin.IPSet = &IPSet{}

func newIPSetPlugin(tag string, args *yaml.Node, reg *plugin.Registry) (plugin.Plugin, error) {
	var cfg ipSetConfig
	if args != nil {
		if err := args.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("ip-set: %w", err)
		}
	}
	s := &IPSet{tag: tag}
	for _, v := range cfg.Values {
		if err := s.add(v); err != nil {
			return nil, fmt.Errorf("ip-set: %w", err)
		}
	}
	for _, path := range cfg.Files {
		if err := s.loadFile(path); err != nil {
			return nil, fmt.Errorf("ip-set: %w", err)
		}
	}
	return s, nil
}

func (s *IPSet) loadFile(path string) error {
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
		if err := s.add(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (s *IPSet) add(value string) error {
	if strings.Contains(value, "/") {
		p, err := netip.ParsePrefix(value)
		if err != nil {
			return fmt.Errorf("invalid CIDR %q: %w", value, err)
		}
		s.prefixes = append(s.prefixes, p)
		return nil
	}
	addr, err := netip.ParseAddr(value)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", value, err)
	}
	s.prefixes = append(s.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	return nil
}

// Name implements [plugin.Plugin].
func (s *IPSet) Name() string { return s.tag }

// Next implements [plugin.Plugin]: ip-set is inert in the pipeline.
func (s *IPSet) Next(ctx *plugin.Context) error { return nil }

// Contains implements [plugin.IPSet].
func (s *IPSet) Contains(ip netip.Addr) bool {
	for _, p := range s.prefixes {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}
