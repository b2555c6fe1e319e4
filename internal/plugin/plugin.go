// SPDX-License-Identifier: GPL-3.0-or-later

// Package plugin defines the pipeline contract every plugin implements, the
// optional capability facets a plugin may additionally expose, and the
// registry that resolves tag references between plugins declared in a
// configuration document.
package plugin

import "net/netip"

// Plugin is the contract every pipeline stage implements: given a request
// [Context], either answer it, rewrite it, hand it onward, or abort it.
// Next reports an error only for conditions the caller cannot recover from
// (a malformed upstream response, an I/O failure); anything the pipeline
// can route around (no match, cache miss) is expressed by returning nil
// and leaving ctx.Response unset or ctx.Abort unset, not by an error.
type Plugin interface {
	// Name identifies the plugin instance for logging, usually its tag.
	Name() string

	// Next executes the plugin's behavior against ctx. Implementations
	// that wrap child plugins (sequence, if, matcher, fallback, cache)
	// call the child's Next directly; they never reach back into a
	// [Registry].
	Next(ctx *Context) error
}

// DomainSet is the capability facet a plugin may expose to answer "is this
// domain a member". domain-set and geosite providers implement it;
// matcher discovers it via a type assertion on the resolved tag.
type DomainSet interface {
	Contains(name string) bool
}

// IPSet is the capability facet a plugin may expose to answer "is this
// address a member". ip-set providers implement it.
type IPSet interface {
	Contains(ip netip.Addr) bool
}

// Condition is the capability facet a plugin may expose to evaluate a
// boolean test against the current request context, independent of
// answering it. matcher implements it (true if any configured domain-set
// or ip-set member matches); if consumes it.
type Condition interface {
	Check(ctx *Context) bool
}
