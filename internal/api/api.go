// SPDX-License-Identifier: GPL-3.0-or-later

// Package api serves the read-only stats endpoint over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/tigerzhang/clean-dns/internal/stats"
)

// domainStats is the wire shape of one domain's counters.
type domainStats struct {
	Count              uint64    `json:"count"`
	LastResolvedAt     time.Time `json:"last_resolved_at"`
	LastResolvedRemote bool      `json:"last_resolved_remote"`
	IPs                []string  `json:"ips"`
	CacheHits          uint64    `json:"cache_hits"`
}

// statsResponse is the top-level "/stats" JSON body:
// {"domains": {"<qname.>": {count, last_resolved_at, last_resolved_remote, ips, cache_hits}}}
type statsResponse struct {
	Domains map[string]domainStats `json:"domains"`
}

func toResponse(snapshot map[string]stats.Entry) statsResponse {
	domains := make(map[string]domainStats, len(snapshot))
	for name, e := range snapshot {
		ips := make([]string, 0, len(e.IPs))
		for ip := range e.IPs {
			ips = append(ips, ip)
		}
		sort.Strings(ips)
		domains[name] = domainStats{
			Count:              e.Count,
			LastResolvedAt:     e.LastResolvedAt,
			LastResolvedRemote: e.LastResolvedRemote,
			IPs:                ips,
			CacheHits:          e.CacheHits,
		}
	}
	return statsResponse{Domains: domains}
}

// Handler returns the http.Handler mounted at "/stats".
func Handler(sink *stats.Statistics) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(toResponse(sink.Snapshot())); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return mux
}

// NewServer returns an [*http.Server] bound to addr, serving [Handler].
func NewServer(addr string, sink *stats.Statistics) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: Handler(sink),
	}
}
