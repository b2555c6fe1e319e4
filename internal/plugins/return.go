// SPDX-License-Identifier: GPL-3.0-or-later

package plugins

import (
	"gopkg.in/yaml.v3"

	"github.com/tigerzhang/clean-dns/internal/plugin"
)

func init() {
	plugin.Register("return", newReturn)
}

// Return sets Abort without touching the response, stopping the enclosing
// sequence while leaving whatever was already produced (or nothing) as
// the final result.
type Return struct {
	tag string
}

var _ plugin.Plugin = &Return{}

func newReturn(tag string, args *yaml.Node, reg *plugin.Registry) (plugin.Plugin, error) {
	return &Return{tag: tag}, nil
}

// Name implements [plugin.Plugin].
func (r *Return) Name() string { return r.tag }

// Next implements [plugin.Plugin].
func (r *Return) Next(ctx *plugin.Context) error {
	ctx.Abort = true
	return nil
}
