// SPDX-License-Identifier: GPL-3.0-or-later

// Package forwarder implements the forward plugin: UDP-direct, DoH, and
// SOCKS5-tunneled upstream exchange with racing across a selected subset
// of configured upstreams.
package forwarder

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/net/http2"
	"golang.org/x/net/proxy"
	"gopkg.in/yaml.v3"

	"github.com/tigerzhang/clean-dns/internal/plugin"
	"github.com/tigerzhang/clean-dns/internal/xnet"
)

func init() {
	plugin.Register("forward", newForward)
}

// exchangeTimeout bounds a single upstream exchange, per spec: a 5-second
// wall-clock timeout per exchange, not per racing set.
const exchangeTimeout = 5 * time.Second

// Forward selects one or more configured upstreams per call and races
// exchanges against them, the first success winning.
type Forward struct {
	tag        string
	upstreams  []upstream
	concurrent int

	socks5Dialer proxy.ContextDialer // nil unless socks5 is configured
	httpClient   *http.Client        // shared across every call, per spec

	cfg    *xnet.Config
	logger xnet.SLogger

	shuffle func([]upstream)
	pickOne func(n int) int

	// exchangeOneFunc performs a single upstream exchange; overridable in
	// tests to avoid real networking. Defaults to f.exchangeOne.
	exchangeOneFunc func(ctx context.Context, u upstream, reqBytes []byte) ([]byte, bool, error)
}

var _ plugin.Plugin = &Forward{}

func newForward(tag string, args *yaml.Node, reg *plugin.Registry) (plugin.Plugin, error) {
	var cfg forwardConfig
	if args != nil {
		if err := args.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("forward: %w", err)
		}
	}
	upstreams, err := parseUpstreams(cfg)
	if err != nil {
		return nil, err
	}
	concurrent := cfg.Concurrent
	if concurrent <= 0 {
		concurrent = 1
	}

	f := &Forward{
		tag:        tag,
		upstreams:  upstreams,
		concurrent: concurrent,
		cfg:        xnet.NewConfig(),
		logger:     xnet.DefaultSLogger(),
		shuffle: func(u []upstream) {
			rand.Shuffle(len(u), func(i, j int) { u[i], u[j] = u[j], u[i] })
		},
		pickOne: rand.Intn,
	}

	transport := &http.Transport{}
	if cfg.Socks5 != "" {
		dialer, err := proxy.SOCKS5("tcp", cfg.Socks5, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("forward: socks5 dialer: %w", err)
		}
		ctxDialer, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("forward: socks5 dialer does not support contexts")
		}
		f.socks5Dialer = ctxDialer
		transport.DialContext = ctxDialer.DialContext
	}
	if err := http2.ConfigureTransport(transport); err != nil {
		return nil, fmt.Errorf("forward: configuring http2: %w", err)
	}
	f.httpClient = &http.Client{Transport: transport, Timeout: exchangeTimeout}
	f.exchangeOneFunc = f.exchangeOne

	return f, nil
}

// Name implements [plugin.Plugin].
func (f *Forward) Name() string { return f.tag }

// Next implements [plugin.Plugin]. It is skipped entirely if a response is
// already present.
func (f *Forward) Next(ctx *plugin.Context) error {
	if ctx.Response != nil {
		return nil
	}

	reqBytes, err := ctx.Request.Pack()
	if err != nil {
		return fmt.Errorf("forward: packing request: %w", err)
	}

	selected := f.selectUpstreams()

	base := ctx.Ctx
	if base == nil {
		base = context.Background()
	}

	type result struct {
		respBytes []byte
		remote    bool
		err       error
	}
	results := make(chan result, len(selected))
	for _, u := range selected {
		u := u
		go func() {
			respBytes, remote, err := f.exchangeOneFunc(base, u, reqBytes)
			results <- result{respBytes, remote, err}
		}()
	}

	var lastErr error
	for range selected {
		r := <-results
		if r.err != nil {
			lastErr = r.err
			continue
		}
		resp := new(dns.Msg)
		if err := resp.Unpack(r.respBytes); err != nil {
			lastErr = fmt.Errorf("forward: decoding upstream response: %w", err)
			continue
		}
		ctx.Response = resp
		ctx.IsRemote = r.remote
		return nil
	}
	if lastErr == nil {
		lastErr = errors.New("forward: no upstream selected")
	}
	return lastErr
}

func (f *Forward) selectUpstreams() []upstream {
	n := len(f.upstreams)
	if f.concurrent > 1 && n > 1 {
		shuffled := make([]upstream, n)
		copy(shuffled, f.upstreams)
		f.shuffle(shuffled)
		k := f.concurrent
		if k > n {
			k = n
		}
		return shuffled[:k]
	}
	if n > 1 {
		return []upstream{f.upstreams[f.pickOne(n)]}
	}
	return []upstream{f.upstreams[0]}
}

// exchangeOne performs one upstream exchange, returning the raw response
// wire bytes, whether the exchange traveled through the configured SOCKS5
// tunnel, and any error.
func (f *Forward) exchangeOne(ctx context.Context, u upstream, reqBytes []byte) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	switch u.kind {
	case kindDoH:
		b, err := f.exchangeDoH(ctx, u, reqBytes)
		return b, f.socks5Dialer != nil, err
	default:
		if f.socks5Dialer != nil {
			b, err := f.exchangeUDPOverSocks5(ctx, u, reqBytes)
			return b, true, err
		}
		b, err := f.exchangeUDPDirect(ctx, u, reqBytes)
		return b, false, err
	}
}
