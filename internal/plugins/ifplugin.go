// SPDX-License-Identifier: GPL-3.0-or-later

package plugins

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/tigerzhang/clean-dns/internal/plugin"
)

func init() {
	plugin.Register("if", newIf)
}

// ifConfig is the "args" shape for an if declaration:
//
//	type: if
//	args:
//	  cond: is-evil
//	  exec: [rejector]
//	  else_exec: [hosts-good]
type ifConfig struct {
	Cond     string   `yaml:"cond"`
	Exec     []string `yaml:"exec"`
	ElseExec []string `yaml:"else_exec"`
}

// If dispatches on a referenced [plugin.Condition]: exec when true,
// else_exec when false, each walked with the same abort-honoring rule as
// [Sequence].
type If struct {
	tag      string
	cond     plugin.Condition
	exec     []plugin.Plugin
	elseExec []plugin.Plugin
}

var _ plugin.Plugin = &If{}

func newIf(tag string, args *yaml.Node, reg *plugin.Registry) (plugin.Plugin, error) {
	var cfg ifConfig
	if args != nil {
		if err := args.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("if: %w", err)
		}
	}
	cond, err := reg.ResolveCondition(cfg.Cond)
	if err != nil {
		return nil, fmt.Errorf("if: %w", err)
	}
	exec, err := resolveChildren(reg, cfg.Exec)
	if err != nil {
		return nil, fmt.Errorf("if: %w", err)
	}
	elseExec, err := resolveChildren(reg, cfg.ElseExec)
	if err != nil {
		return nil, fmt.Errorf("if: %w", err)
	}
	return &If{tag: tag, cond: cond, exec: exec, elseExec: elseExec}, nil
}

// Name implements [plugin.Plugin].
func (i *If) Name() string { return i.tag }

// Next implements [plugin.Plugin].
func (i *If) Next(ctx *plugin.Context) error {
	if i.cond.Check(ctx) {
		return runChildren(ctx, i.exec)
	}
	return runChildren(ctx, i.elseExec)
}
