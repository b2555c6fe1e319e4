// SPDX-License-Identifier: GPL-3.0-or-later

// Package cache implements the cache plugin: a single-mutex-guarded map
// keyed by (qname, qtype, qclass), with a fixed TTL cap and miss-path
// execution that runs with the lock released.
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/miekg/dns"
	"gopkg.in/yaml.v3"

	"github.com/tigerzhang/clean-dns/internal/plugin"
)

func init() {
	plugin.Register("cache", newCache)
}

// defaultTTL is the fixed staleness cap applied to every cache entry,
// independent of the TTLs carried by the stored response's own records.
// This is a deliberate simplification, not an oversight — see the
// project's design notes on cache TTL semantics.
const defaultTTL = 60 * time.Second

// cacheConfig is the "args" shape for a cache declaration:
//
//	type: cache
//	args:
//	  exec: [forward-upstream]
type cacheConfig struct {
	Exec []string `yaml:"exec"`
}

type key struct {
	name   string
	qtype  uint16
	qclass uint16
}

type entry struct {
	response   *dns.Msg
	validUntil time.Time
}

// Cache wraps a miss-path child pipeline with a memoizing lookup. The
// mutex's critical section covers only the map lookup/insert; the
// miss-path pipeline always runs with the lock released, so a slow
// upstream exchange never blocks other queries' cache lookups.
type Cache struct {
	tag     string
	exec    []plugin.Plugin
	ttl     time.Duration
	timeNow func() time.Time

	mu      sync.Mutex
	entries map[key]entry
}

var _ plugin.Plugin = &Cache{}

func newCache(tag string, args *yaml.Node, reg *plugin.Registry) (plugin.Plugin, error) {
	var cfg cacheConfig
	if args != nil {
		if err := args.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
	}
	exec := make([]plugin.Plugin, 0, len(cfg.Exec))
	for _, t := range cfg.Exec {
		p, err := reg.Resolve(t)
		if err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
		exec = append(exec, p)
	}
	return &Cache{
		tag:     tag,
		exec:    exec,
		ttl:     defaultTTL,
		timeNow: time.Now,
		entries: make(map[key]entry),
	}, nil
}

// Name implements [plugin.Plugin].
func (c *Cache) Name() string { return c.tag }

func keyOf(req *dns.Msg) (key, bool) {
	if len(req.Question) == 0 {
		return key{}, false
	}
	q := req.Question[0]
	return key{name: q.Name, qtype: q.Qtype, qclass: q.Qclass}, true
}

// Next implements [plugin.Plugin].
func (c *Cache) Next(ctx *plugin.Context) error {
	k, ok := keyOf(ctx.Request)
	if !ok {
		return c.runMiss(ctx)
	}

	now := c.timeNow()
	c.mu.Lock()
	e, hit := c.entries[k]
	if hit && e.validUntil.After(now) {
		c.mu.Unlock()
		resp := e.response.Copy()
		resp.Id = ctx.Request.Id
		ctx.Response = resp
		ctx.Stats.RecordCacheHit(k.name)
		return nil
	}
	if hit {
		delete(c.entries, k)
	}
	c.mu.Unlock()

	if err := c.runMiss(ctx); err != nil {
		return err
	}

	if ctx.Response != nil {
		c.mu.Lock()
		c.entries[k] = entry{response: ctx.Response.Copy(), validUntil: now.Add(c.ttl)}
		c.mu.Unlock()
	}
	return nil
}

func (c *Cache) runMiss(ctx *plugin.Context) error {
	for _, child := range c.exec {
		if ctx.Abort {
			return nil
		}
		if err := child.Next(ctx); err != nil {
			return err
		}
	}
	return nil
}
