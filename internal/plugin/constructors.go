// SPDX-License-Identifier: GPL-3.0-or-later

package plugin

import "gopkg.in/yaml.v3"

// Constructor builds a [Plugin] from its configuration document fragment.
// tag is the plugin's own declared tag (for Name()). args is the raw
// "args" node for the plugin's declaration; a constructor decodes it into
// its own configuration shape via args.Decode. reg is the registry as
// constructed so far — only tags declared earlier in the document are
// present.
type Constructor func(tag string, args *yaml.Node, reg *Registry) (Plugin, error)

var constructors = make(map[string]Constructor)

// Register associates typeName (the "type" field in a plugin declaration)
// with a [Constructor]. Plugin packages call this from an init() function,
// in the style of database/sql drivers and CoreDNS's plugin.Register: the
// plugin package is blank-imported for its registration side effect, and
// [Lookup] drives construction without this package needing to import
// every plugin package.
func Register(typeName string, c Constructor) {
	if _, dup := constructors[typeName]; dup {
		panic("plugin: duplicate type registration: " + typeName)
	}
	constructors[typeName] = c
}

// Lookup returns the constructor registered for typeName.
func Lookup(typeName string) (Constructor, bool) {
	c, ok := constructors[typeName]
	return c, ok
}
