// SPDX-License-Identifier: GPL-3.0-or-later

package providers

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/tigerzhang/clean-dns/internal/plugin"
)

func TestIPSetContains(t *testing.T) {
	var node yaml.Node
	err := yaml.Unmarshal([]byte("values: [10.0.0.0/8, 1.2.3.4]"), &node)
	assert.NoError(t, err)

	p, err := newIPSetPlugin("ips", node.Content[0], plugin.NewRegistry())
	assert.NoError(t, err)

	is := p.(plugin.IPSet)
	assert.True(t, is.Contains(netip.MustParseAddr("10.1.2.3")))
	assert.True(t, is.Contains(netip.MustParseAddr("1.2.3.4")))
	assert.False(t, is.Contains(netip.MustParseAddr("1.2.3.5")))
	assert.False(t, is.Contains(netip.MustParseAddr("192.168.1.1")))
}
