// SPDX-License-Identifier: GPL-3.0-or-later

package geosite

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Compile reads every file in a v2fly domain-list-community style source
// directory and produces one [GeoSiteList] entry per file, named by the
// file's basename uppercased (matching the upstream project's convention
// of one category per file, e.g. "cn", "google").
//
// Each line is "rule[@attribute...] # comment". Recognized rule prefixes:
//
//	include:name   pull in another file's rules (sibling in the same dir)
//	full:value     -> Regex (preserved from the original generator, not a typo)
//	domain:value   -> RootDomain
//	regexp:value   -> Regex
//	keyword:value  -> Plain
//	value          -> RootDomain (bare entries default to domain+subdomains)
//
// Attributes (the "@foo" suffix v2fly uses for category tagging) are
// stripped and ignored; this plugin has no concept of attribute-scoped
// subsets.
func Compile(sourceDir string) (*GeoSiteList, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("geosite: reading %s: %w", sourceDir, err)
	}

	list := &GeoSiteList{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		domains, err := compileFile(sourceDir, e.Name(), make(map[string]bool))
		if err != nil {
			return nil, err
		}
		list.Entry = append(list.Entry, GeoSite{
			CountryCode: strings.ToUpper(e.Name()),
			Domain:      domains,
		})
	}
	return list, nil
}

func compileFile(sourceDir, name string, seen map[string]bool) ([]Domain, error) {
	if seen[name] {
		return nil, fmt.Errorf("geosite: circular include of %q", name)
	}
	seen[name] = true

	f, err := os.Open(filepath.Join(sourceDir, name))
	if err != nil {
		return nil, fmt.Errorf("geosite: reading %s: %w", name, err)
	}
	defer f.Close()

	var out []Domain
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if idx := strings.Index(line, "@"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if line == "" {
			continue
		}

		if rest, ok := strings.CutPrefix(line, "include:"); ok {
			included, err := compileFile(sourceDir, rest, seen)
			if err != nil {
				return nil, err
			}
			out = append(out, included...)
			continue
		}

		out = append(out, parseRule(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("geosite: reading %s: %w", name, err)
	}
	return out, nil
}

func parseRule(line string) Domain {
	switch {
	case strings.HasPrefix(line, "full:"):
		// Matches the original generator's mapping verbatim (full: -> Regex),
		// not the Full type its name suggests; preserved, not "fixed".
		return Domain{Type: DomainRegex, Value: strings.TrimPrefix(line, "full:")}
	case strings.HasPrefix(line, "domain:"):
		return Domain{Type: DomainRootDomain, Value: strings.TrimPrefix(line, "domain:")}
	case strings.HasPrefix(line, "regexp:"):
		return Domain{Type: DomainRegex, Value: strings.TrimPrefix(line, "regexp:")}
	case strings.HasPrefix(line, "keyword:"):
		return Domain{Type: DomainPlain, Value: strings.TrimPrefix(line, "keyword:")}
	default:
		return Domain{Type: DomainRootDomain, Value: line}
	}
}
