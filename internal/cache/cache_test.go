// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"net/netip"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerzhang/clean-dns/internal/plugin"
)

type countingChild struct {
	calls int
	rcode int
}

func (c *countingChild) Name() string { return "child" }

func (c *countingChild) Next(ctx *plugin.Context) error {
	c.calls++
	resp := new(dns.Msg)
	resp.SetRcode(ctx.Request, c.rcode)
	ctx.Response = resp
	ctx.Abort = true
	return nil
}

type fakeSink struct {
	cacheHits map[string]int
}

func (f *fakeSink) RecordRequest(domain string) {}
func (f *fakeSink) RecordCacheHit(domain string) {
	if f.cacheHits == nil {
		f.cacheHits = make(map[string]int)
	}
	f.cacheHits[domain]++
}
func (f *fakeSink) RecordResolvedIP(domain string, ip netip.Addr, remote bool, when time.Time) {}

func newTestCache(child plugin.Plugin) *Cache {
	return &Cache{
		tag:     "cache",
		exec:    []plugin.Plugin{child},
		ttl:     defaultTTL,
		timeNow: time.Now,
		entries: make(map[key]entry),
	}
}

func TestCacheMissThenHit(t *testing.T) {
	child := &countingChild{rcode: 3}
	c := newTestCache(child)
	sink := &fakeSink{}

	req1 := new(dns.Msg)
	req1.Id = 1
	req1.SetQuestion("x.com.", dns.TypeA)
	ctx1 := &plugin.Context{Request: req1, Stats: sink}
	require.NoError(t, c.Next(ctx1))
	assert.Equal(t, 1, child.calls)
	assert.Equal(t, uint16(1), ctx1.Response.Id)

	req2 := new(dns.Msg)
	req2.Id = 2
	req2.SetQuestion("x.com.", dns.TypeA)
	ctx2 := &plugin.Context{Request: req2, Stats: sink}
	require.NoError(t, c.Next(ctx2))

	assert.Equal(t, 1, child.calls, "hit path must not execute the miss-path child")
	assert.Equal(t, uint16(2), ctx2.Response.Id)
	assert.Equal(t, ctx1.Response.Rcode, ctx2.Response.Rcode)
	assert.Equal(t, 1, sink.cacheHits["x.com."])
}

func TestCacheExpiryTreatsAsMiss(t *testing.T) {
	child := &countingChild{rcode: 3}
	c := newTestCache(child)
	now := time.Now()
	c.timeNow = func() time.Time { return now }

	req := new(dns.Msg)
	req.SetQuestion("x.com.", dns.TypeA)
	require.NoError(t, c.Next(&plugin.Context{Request: req, Stats: &fakeSink{}}))
	assert.Equal(t, 1, child.calls)

	now = now.Add(61 * time.Second)
	require.NoError(t, c.Next(&plugin.Context{Request: req, Stats: &fakeSink{}}))
	assert.Equal(t, 2, child.calls)
}

func TestCacheBypassesWithoutQuestion(t *testing.T) {
	child := &countingChild{rcode: 3}
	c := newTestCache(child)

	req := new(dns.Msg)
	ctx := &plugin.Context{Request: req, Stats: &fakeSink{}}
	require.NoError(t, c.Next(ctx))
	assert.Equal(t, 1, child.calls)
	assert.NotNil(t, ctx.Response)
}
