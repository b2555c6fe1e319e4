// SPDX-License-Identifier: GPL-3.0-or-later

package plugins

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/tigerzhang/clean-dns/internal/plugin"
	"github.com/tigerzhang/clean-dns/internal/xnet"
)

func init() {
	plugin.Register("fallback", newFallback)
}

// fallbackConfig is the "args" shape for a fallback declaration:
//
//	type: fallback
//	args:
//	  primary: upstream-a
//	  secondary: upstream-b
type fallbackConfig struct {
	Primary   string `yaml:"primary"`
	Secondary string `yaml:"secondary"`
}

// Fallback calls primary; on error it calls secondary and surfaces only
// secondary's error (primary's is logged and swallowed). A primary that
// succeeds but produces no response still counts as success — secondary
// is not tried. This is a deliberate, preserved quirk: see the
// "fallback success-with-no-response" decision in the project's design
// notes.
type Fallback struct {
	tag       string
	primary   plugin.Plugin
	secondary plugin.Plugin
	logger    xnet.SLogger
}

var _ plugin.Plugin = &Fallback{}

func newFallback(tag string, args *yaml.Node, reg *plugin.Registry) (plugin.Plugin, error) {
	var cfg fallbackConfig
	if args != nil {
		if err := args.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("fallback: %w", err)
		}
	}
	primary, err := reg.Resolve(cfg.Primary)
	if err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	secondary, err := reg.Resolve(cfg.Secondary)
	if err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	return &Fallback{tag: tag, primary: primary, secondary: secondary, logger: xnet.DefaultSLogger()}, nil
}

// Name implements [plugin.Plugin].
func (f *Fallback) Name() string { return f.tag }

// Next implements [plugin.Plugin].
func (f *Fallback) Next(ctx *plugin.Context) error {
	if err := f.primary.Next(ctx); err != nil {
		f.logger.Info("fallbackPrimaryFailed", "tag", f.tag, "primary", f.primary.Name(), "err", err.Error())
		return f.secondary.Next(ctx)
	}
	return nil
}
