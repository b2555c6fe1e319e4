// SPDX-License-Identifier: GPL-3.0-or-later

package plugin

import (
	"context"
	"net/netip"

	"github.com/miekg/dns"

	"github.com/tigerzhang/clean-dns/internal/stats"
)

// Context carries one client query through the pipeline. A single Context
// is shared by every plugin a request passes through; plugins mutate it in
// place rather than threading a new value through each call.
type Context struct {
	// Ctx is the suspension-point context for this query: forwarder
	// exchanges and system's resolver lookup derive their own timeouts
	// from it. delay's sleep does not observe it. The server cancels it
	// only when the process is shutting down; individual operations apply
	// their own bounded timeouts on top.
	Ctx context.Context

	// ClientAddr is the address the query arrived from.
	ClientAddr netip.AddrPort

	// Request is the decoded client query. Plugins must not mutate the
	// question section; rewriting (e.g. cache, hosts) targets Response.
	Request *dns.Msg

	// Response is the answer to send back. If it is still nil when the
	// pipeline ends, whether or not Abort is set, the server sends nothing
	// and the client times out.
	Response *dns.Msg

	// Abort stops a sequence from continuing to the next child once set.
	// It does not by itself imply failure: reject sets it alongside a
	// populated RCODE-only Response, while return sets it without touching
	// Response.
	Abort bool

	// IsRemote reports whether the most recent successful forward exchange
	// went through the configured SOCKS5 proxy. Every successful forward
	// exchange overwrites it, so the last one wins across a chain of
	// plugins; other plugins leave it unchanged.
	IsRemote bool

	// Stats is the statistics sink the server and cache record activity
	// into. Never nil; the server wires a [*stats.Statistics].
	Stats stats.Sink
}

// QuestionName returns the lowercase, dot-trimmed name of the first
// question, or "" if the request carries no question — the form hosts
// and matcher's domain checks key on.
func (c *Context) QuestionName() string {
	if c.Request == nil || len(c.Request.Question) == 0 {
		return ""
	}
	return normalizeName(c.Request.Question[0].Name)
}

func normalizeName(name string) string {
	n := dns.Fqdn(name)
	return toLowerASCII(n[:len(n)-1])
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
