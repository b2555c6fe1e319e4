// SPDX-License-Identifier: GPL-3.0-or-later

package plugins

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/tigerzhang/clean-dns/internal/plugin"
)

func init() {
	plugin.Register("sequence", newSequence)
}

// sequenceConfig is the "args" shape for a sequence declaration:
//
//	type: sequence
//	args:
//	  children: [rejector, logger]
type sequenceConfig struct {
	Children []string `yaml:"children"`
}

// Sequence walks an ordered list of child tags, stopping once ctx.Abort is
// set. A child error propagates immediately, aborting the walk.
type Sequence struct {
	tag      string
	children []plugin.Plugin
}

var _ plugin.Plugin = &Sequence{}

func newSequence(tag string, args *yaml.Node, reg *plugin.Registry) (plugin.Plugin, error) {
	var cfg sequenceConfig
	if args != nil {
		if err := args.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("sequence: %w", err)
		}
	}
	children, err := resolveChildren(reg, cfg.Children)
	if err != nil {
		return nil, fmt.Errorf("sequence: %w", err)
	}
	return &Sequence{tag: tag, children: children}, nil
}

func resolveChildren(reg *plugin.Registry, tags []string) ([]plugin.Plugin, error) {
	children := make([]plugin.Plugin, 0, len(tags))
	for _, tag := range tags {
		p, err := reg.Resolve(tag)
		if err != nil {
			return nil, err
		}
		children = append(children, p)
	}
	return children, nil
}

// Name implements [plugin.Plugin].
func (s *Sequence) Name() string { return s.tag }

// Next implements [plugin.Plugin].
func (s *Sequence) Next(ctx *plugin.Context) error {
	return runChildren(ctx, s.children)
}

// runChildren walks children in order, stopping before any child once
// ctx.Abort is set, and propagating the first child error immediately.
func runChildren(ctx *plugin.Context, children []plugin.Plugin) error {
	for _, child := range children {
		if ctx.Abort {
			return nil
		}
		if err := child.Next(ctx); err != nil {
			return err
		}
	}
	return nil
}
