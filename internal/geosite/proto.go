// SPDX-License-Identifier: GPL-3.0-or-later

// Package geosite reads and writes the compiled domain-list format used by
// v2fly's geosite data (github.com/v2fly/domain-list-community), and
// provides a domain-set plugin over a decoded list.
package geosite

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// DomainType mirrors v2fly's Domain.Type enum (common.proto).
type DomainType int32

const (
	// DomainPlain is v2fly's keyword type. [Plugin.Contains] matches it by
	// dot-bounded suffix, not as a substring of the question name.
	DomainPlain DomainType = 0
	// DomainRegex entries are loaded but never matched; see [Plugin.Contains].
	DomainRegex DomainType = 1
	// DomainRootDomain is a dot-bounded suffix match: example.com also
	// matches any subdomain of example.com.
	DomainRootDomain DomainType = 2
	// DomainFull is an exact match.
	DomainFull DomainType = 3
)

// Domain is one entry in a [GeoSite] list.
type Domain struct {
	Type  DomainType
	Value string
}

// GeoSite is every domain entry recorded under one country/category code.
type GeoSite struct {
	CountryCode string
	Domain      []Domain
}

// GeoSiteList is the top-level message compiled from a v2fly source
// directory and consumed by the geosite plugin.
type GeoSiteList struct {
	Entry []GeoSite
}

const (
	fieldDomainType  = 1
	fieldDomainValue = 2

	fieldSiteCountryCode = 1
	fieldSiteDomain      = 2

	fieldListEntry = 1
)

// Marshal encodes l using the wire-compatible subset of v2fly's
// geosite.proto: GeoSiteList{repeated GeoSite entry=1}, GeoSite{string
// country_code=1, repeated Domain domain=2}, Domain{Type type=1, string
// value=2}. Attributes are not produced or consumed; this plugin has no use
// for them.
func Marshal(l *GeoSiteList) []byte {
	var buf []byte
	for _, site := range l.Entry {
		siteBytes := marshalSite(&site)
		buf = protowire.AppendTag(buf, fieldListEntry, protowire.BytesType)
		buf = protowire.AppendBytes(buf, siteBytes)
	}
	return buf
}

func marshalSite(s *GeoSite) []byte {
	var buf []byte
	if s.CountryCode != "" {
		buf = protowire.AppendTag(buf, fieldSiteCountryCode, protowire.BytesType)
		buf = protowire.AppendString(buf, s.CountryCode)
	}
	for _, d := range s.Domain {
		domBytes := marshalDomain(&d)
		buf = protowire.AppendTag(buf, fieldSiteDomain, protowire.BytesType)
		buf = protowire.AppendBytes(buf, domBytes)
	}
	return buf
}

func marshalDomain(d *Domain) []byte {
	var buf []byte
	if d.Type != 0 {
		buf = protowire.AppendTag(buf, fieldDomainType, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(d.Type))
	}
	buf = protowire.AppendTag(buf, fieldDomainValue, protowire.BytesType)
	buf = protowire.AppendString(buf, d.Value)
	return buf
}

// Unmarshal decodes a [GeoSiteList] from its wire form. Unknown fields
// (notably Domain.attribute) are skipped.
func Unmarshal(data []byte) (*GeoSiteList, error) {
	var l GeoSiteList
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("geosite: malformed tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		if num != fieldListEntry || typ != protowire.BytesType {
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return nil, fmt.Errorf("geosite: malformed field: %w", protowire.ParseError(m))
			}
			data = data[m:]
			continue
		}
		raw, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, fmt.Errorf("geosite: malformed entry: %w", protowire.ParseError(n))
		}
		data = data[n:]
		site, err := unmarshalSite(raw)
		if err != nil {
			return nil, err
		}
		l.Entry = append(l.Entry, *site)
	}
	return &l, nil
}

func unmarshalSite(data []byte) (*GeoSite, error) {
	var s GeoSite
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("geosite: malformed site tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch {
		case num == fieldSiteCountryCode && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("geosite: malformed country_code: %w", protowire.ParseError(n))
			}
			s.CountryCode = string(v)
			data = data[n:]
		case num == fieldSiteDomain && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("geosite: malformed domain: %w", protowire.ParseError(n))
			}
			dom, err := unmarshalDomain(v)
			if err != nil {
				return nil, err
			}
			s.Domain = append(s.Domain, *dom)
			data = data[n:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return nil, fmt.Errorf("geosite: malformed site field: %w", protowire.ParseError(m))
			}
			data = data[m:]
		}
	}
	return &s, nil
}

func unmarshalDomain(data []byte) (*Domain, error) {
	var d Domain
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("geosite: malformed domain tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch {
		case num == fieldDomainType && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("geosite: malformed type: %w", protowire.ParseError(n))
			}
			d.Type = DomainType(v)
			data = data[n:]
		case num == fieldDomainValue && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("geosite: malformed value: %w", protowire.ParseError(n))
			}
			d.Value = string(v)
			data = data[n:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return nil, fmt.Errorf("geosite: malformed domain field: %w", protowire.ParseError(m))
			}
			data = data[m:]
		}
	}
	return &d, nil
}
