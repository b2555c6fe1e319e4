// SPDX-License-Identifier: GPL-3.0-or-later

package plugin

import (
	"fmt"
	"strings"
)

// Registry holds every plugin instance declared in a configuration
// document, indexed by tag. Construction happens strictly in declaration
// order: [Registry.Declare] is the only way to add an entry, so a plugin
// being constructed can never observe a tag that comes later in the
// document. This makes forward references — and therefore reference
// cycles — impossible by construction, not by a separate cycle check.
type Registry struct {
	order []string
	byTag map[string]Plugin
}

// NewRegistry returns an empty [*Registry].
func NewRegistry() *Registry {
	return &Registry{byTag: make(map[string]Plugin)}
}

// Declare adds p under tag. It returns an error if tag is already taken.
func (r *Registry) Declare(tag string, p Plugin) error {
	if _, ok := r.byTag[tag]; ok {
		return fmt.Errorf("plugin: duplicate tag %q", tag)
	}
	r.byTag[tag] = p
	r.order = append(r.order, tag)
	return nil
}

// Lookup returns the plugin declared under tag, if any.
func (r *Registry) Lookup(tag string) (Plugin, bool) {
	p, ok := r.byTag[tag]
	return p, ok
}

// Resolve looks up ref, which may carry the "provider:" prefix used in
// configuration documents to mark a reference to another plugin's
// capability facet rather than its Next behavior. The prefix is purely
// documentation for the config author; resolution is identical either
// way since facets are discovered by type assertion on the looked-up
// [Plugin].
func (r *Registry) Resolve(ref string) (Plugin, error) {
	tag := strings.TrimPrefix(ref, "provider:")
	p, ok := r.byTag[tag]
	if !ok {
		return nil, fmt.Errorf("plugin: undeclared tag %q", tag)
	}
	return p, nil
}

// ResolveDomainSet resolves ref and asserts it exposes [DomainSet].
func (r *Registry) ResolveDomainSet(ref string) (DomainSet, error) {
	p, err := r.Resolve(ref)
	if err != nil {
		return nil, err
	}
	ds, ok := p.(DomainSet)
	if !ok {
		return nil, fmt.Errorf("plugin: %q does not provide a domain-set", ref)
	}
	return ds, nil
}

// ResolveIPSet resolves ref and asserts it exposes [IPSet].
func (r *Registry) ResolveIPSet(ref string) (IPSet, error) {
	p, err := r.Resolve(ref)
	if err != nil {
		return nil, err
	}
	is, ok := p.(IPSet)
	if !ok {
		return nil, fmt.Errorf("plugin: %q does not provide an ip-set", ref)
	}
	return is, nil
}

// ResolveCondition resolves ref and asserts it exposes [Condition].
func (r *Registry) ResolveCondition(ref string) (Condition, error) {
	p, err := r.Resolve(ref)
	if err != nil {
		return nil, err
	}
	c, ok := p.(Condition)
	if !ok {
		return nil, fmt.Errorf("plugin: %q does not provide a condition", ref)
	}
	return c, nil
}

// Entry returns the plugin declared under the document's top-level "entry"
// tag, the pipeline's starting point.
func (r *Registry) Entry(tag string) (Plugin, error) {
	p, ok := r.byTag[tag]
	if !ok {
		return nil, fmt.Errorf("plugin: entry tag %q not declared", tag)
	}
	return p, nil
}
