// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/tigerzhang/clean-dns/internal/plugins"
	_ "github.com/tigerzhang/clean-dns/internal/providers"
)

const sampleDoc = `
bind: 127.0.0.1:5353
entry: main
plugins:
  - tag: rejector
    type: reject
    args:
      rcode: 3
  - tag: main
    type: sequence
    args:
      children: [rejector]
`

func TestLoadDefaultsEntryAndAPIPort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bind: 127.0.0.1:53\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "main", cfg.Entry)
	assert.Equal(t, defaultAPIPort, cfg.APIPort)
}

func TestBuildResolvesEntryAndSkipsUnknownTypes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := sampleDoc + "  - tag: mystery\n    type: does-not-exist\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	var warnings []string
	reg, entry, err := Build(cfg, func(msg string) { warnings = append(warnings, msg) })
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Len(t, warnings, 1)

	_, ok := reg.Lookup("rejector")
	assert.True(t, ok)
}

func TestBuildFailsOnForwardReference(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := `
bind: 127.0.0.1:53
entry: seq
plugins:
  - tag: seq
    type: sequence
    args:
      children: [later]
  - tag: later
    type: reject
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)

	_, _, err = Build(cfg, nil)
	assert.Error(t, err)
}
