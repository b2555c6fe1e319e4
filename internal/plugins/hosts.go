// SPDX-License-Identifier: GPL-3.0-or-later

// Package plugins implements the leaf and control-flow plugin types:
// hosts, reject, return, delay, ttl, system, sequence, if, matcher, and
// fallback.
package plugins

import (
	"bufio"
	"fmt"
	"net/netip"
	"os"
	"strings"

	"github.com/miekg/dns"
	"gopkg.in/yaml.v3"

	"github.com/tigerzhang/clean-dns/internal/plugin"
	"github.com/tigerzhang/clean-dns/internal/providers"
)

func init() {
	plugin.Register("hosts", newHosts)
}

// hostsConfig is the "args" shape for a hosts declaration:
//
//	type: hosts
//	args:
//	  files: [/etc/hosts.extra]
//	  entries:
//	    entry.local: [5.6.7.8]
type hostsConfig struct {
	Files   []string            `yaml:"files"`
	Entries map[string][]string `yaml:"entries"`
}

// Hosts answers a query directly from a static name→address table, loaded
// from "<ip> <name>…" lines in files and/or an inline mapping.
type Hosts struct {
	tag     string
	entries map[string][]netip.Addr
}

var _ plugin.Plugin = &Hosts{}

func newHosts(tag string, args *yaml.Node, reg *plugin.Registry) (plugin.Plugin, error) {
	var cfg hostsConfig
	if args != nil {
		if err := args.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("hosts: %w", err)
		}
	}
	h := &Hosts{tag: tag, entries: make(map[string][]netip.Addr)}
	for name, addrs := range cfg.Entries {
		for _, a := range addrs {
			addr, err := netip.ParseAddr(a)
			if err != nil {
				return nil, fmt.Errorf("hosts: invalid address %q for %q: %w", a, name, err)
			}
			h.add(name, addr)
		}
	}
	for _, path := range cfg.Files {
		if err := h.loadFile(path); err != nil {
			return nil, fmt.Errorf("hosts: %w", err)
		}
	}
	return h, nil
}

func (h *Hosts) loadFile(path string) error {
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
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		addr, err := netip.ParseAddr(fields[0])
		if err != nil {
			return fmt.Errorf("invalid address %q: %w", fields[0], err)
		}
		for _, name := range fields[1:] {
			h.add(name, addr)
		}
	}
	return scanner.Err()
}

func (h *Hosts) add(name string, addr netip.Addr) {
	key := providers.NormalizeDomain(name)
	h.entries[key] = append(h.entries[key], addr)
}

// Name implements [plugin.Plugin].
func (h *Hosts) Name() string { return h.tag }

// Next implements [plugin.Plugin]. If no response is yet present and the
// query name is in the table, synthesizes a response with one A or AAAA
// answer (TTL 60) per matching address, mirroring the request header/id.
func (h *Hosts) Next(ctx *plugin.Context) error {
	if ctx.Response != nil {
		return nil
	}
	name := ctx.QuestionName()
	addrs, ok := h.entries[name]
	if !ok || len(addrs) == 0 {
		return nil
	}
	qtype := ctx.Request.Question[0].Qtype

	resp := new(dns.Msg)
	resp.SetReply(ctx.Request)
	for _, addr := range addrs {
		rr := addrRecord(ctx.Request.Question[0].Name, qtype, addr)
		if rr != nil {
			resp.Answer = append(resp.Answer, rr)
		}
	}
	if len(resp.Answer) == 0 {
		return nil
	}
	ctx.Response = resp
	return nil
}

func addrRecord(name string, qtype uint16, addr netip.Addr) dns.RR {
	hdr := dns.RR_Header{Name: name, Rrtype: qtype, Class: dns.ClassINET, Ttl: 60}
	switch {
	case qtype == dns.TypeA && addr.Is4():
		return &dns.A{Hdr: hdr, A: addr.AsSlice()}
	case qtype == dns.TypeAAAA && addr.Is6() && !addr.Is4In6():
		return &dns.AAAA{Hdr: hdr, AAAA: addr.AsSlice()}
	}
	return nil
}
