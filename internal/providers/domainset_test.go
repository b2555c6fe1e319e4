// SPDX-License-Identifier: GPL-3.0-or-later

package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/tigerzhang/clean-dns/internal/plugin"
)

func TestDomainSetContains(t *testing.T) {
	var node yaml.Node
	require := assert.New(t)
	err := yaml.Unmarshal([]byte("values: [example.com]"), &node)
	require.NoError(err)

	p, err := newDomainSetPlugin("ds", node.Content[0], plugin.NewRegistry())
	require.NoError(err)

	ds := p.(plugin.DomainSet)
	assert.True(t, ds.Contains("example.com"))
	assert.True(t, ds.Contains("www.example.com"))
	assert.False(t, ds.Contains("notexample.com"))
	assert.False(t, ds.Contains("example.org"))
}

func TestDomainSetNextIsNoop(t *testing.T) {
	ds := &DomainSet{tag: "ds", entries: map[string]struct{}{}}
	assert.NoError(t, ds.Next(&plugin.Context{}))
	assert.Equal(t, "ds", ds.Name())
}
