// SPDX-License-Identifier: GPL-3.0-or-later

package plugins

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tigerzhang/clean-dns/internal/plugin"
)

func init() {
	plugin.Register("delay", newDelay)
}

// delayConfig is the "args" shape for a delay declaration:
//
//	type: delay
//	args:
//	  milliseconds: 250
type delayConfig struct {
	Milliseconds int `yaml:"milliseconds"`
}

// Delay suspends the current query for a configured duration. Since every
// query runs on its own goroutine, this blocks nothing else.
type Delay struct {
	tag      string
	duration time.Duration

	// sleep is overridable in tests to avoid real wall-clock waits.
	sleep func(time.Duration)
}

var _ plugin.Plugin = &Delay{}

func newDelay(tag string, args *yaml.Node, reg *plugin.Registry) (plugin.Plugin, error) {
	var cfg delayConfig
	if args != nil {
		if err := args.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("delay: %w", err)
		}
	}
	return &Delay{
		tag:      tag,
		duration: time.Duration(cfg.Milliseconds) * time.Millisecond,
		sleep:    time.Sleep,
	}, nil
}

// Name implements [plugin.Plugin].
func (d *Delay) Name() string { return d.tag }

// Next implements [plugin.Plugin].
func (d *Delay) Next(ctx *plugin.Context) error {
	d.sleep(d.duration)
	return nil
}
