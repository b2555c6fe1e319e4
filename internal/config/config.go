// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the declarative YAML pipeline document and drives
// plugin construction in declaration order.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tigerzhang/clean-dns/internal/plugin"
)

// defaultAPIPort is used when the document omits api_port.
const defaultAPIPort = 3000

// PluginConfig is one entry in the document's "plugins" list.
type PluginConfig struct {
	Tag  string    `yaml:"tag"`
	Type string    `yaml:"type"`
	Args yaml.Node `yaml:"args"`
}

// Config is the top-level configuration document.
type Config struct {
	Bind    string         `yaml:"bind"`
	Entry   string         `yaml:"entry"`
	APIPort int            `yaml:"api_port"`
	Plugins []PluginConfig `yaml:"plugins"`
}

// Load reads and parses the YAML document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if cfg.Entry == "" {
		cfg.Entry = "main"
	}
	if cfg.APIPort == 0 {
		cfg.APIPort = defaultAPIPort
	}
	return &cfg, nil
}

// Build constructs every declared plugin in order into a [*plugin.Registry]
// and resolves the entry plugin. Unknown plugin types are skipped with a
// warning rather than failing the whole document.
func Build(cfg *Config, warn func(msg string)) (*plugin.Registry, plugin.Plugin, error) {
	reg := plugin.NewRegistry()
	for _, pc := range cfg.Plugins {
		ctor, ok := plugin.Lookup(pc.Type)
		if !ok {
			if warn != nil {
				warn(fmt.Sprintf("config: unknown plugin type %q for tag %q, skipping", pc.Type, pc.Tag))
			}
			continue
		}
		args := pc.Args
		p, err := ctor(pc.Tag, &args, reg)
		if err != nil {
			return nil, nil, fmt.Errorf("config: building %q (%s): %w", pc.Tag, pc.Type, err)
		}
		if err := reg.Declare(pc.Tag, p); err != nil {
			return nil, nil, fmt.Errorf("config: %w", err)
		}
	}
	entry, err := reg.Entry(cfg.Entry)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	return reg, entry, nil
}
