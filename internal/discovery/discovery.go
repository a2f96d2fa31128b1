// Package discovery provides registry.Source implementations: fixed
// candidate lists, compiled-in plugin modules, descriptor lists read from
// configuration manifests, and chains of other sources.
package discovery

import (
	"context"
	"fmt"

	"github.com/vk/usbq/internal/registry"
)

// Static is a fixed, ordered list of candidates.
type Static []registry.Candidate

// Discover implements registry.Source.
func (s Static) Discover(context.Context) ([]registry.Candidate, error) {
	out := make([]registry.Candidate, len(s))
	copy(out, s)
	return out, nil
}

// Named is implemented by modules that provide their own candidate name.
type Named interface {
	Name() string
}

// FromModules wraps compiled-in modules as candidates, keeping their order.
// A module's candidate name is its Name() when it has one, its Go type
// otherwise.
func FromModules[M any](mods ...M) Static {
	out := make(Static, 0, len(mods))
	for _, m := range mods {
		name := fmt.Sprintf("%T", m)
		if n, ok := any(m).(Named); ok {
			name = n.Name()
		}
		out = append(out, registry.Candidate{Name: name, Impl: m})
	}
	return out
}

// Declarations is a registry.Declarer backed by a descriptor list, such as
// the plugin manifests found in configuration files.
type Declarations []registry.Descriptor

// DeclarePlugins implements registry.Declarer. When the list repeats a name
// the first entry is kept.
func (d Declarations) DeclarePlugins() map[string]registry.Descriptor {
	if len(d) == 0 {
		return nil
	}
	out := make(map[string]registry.Descriptor, len(d))
	for _, desc := range d {
		if _, exists := out[desc.Name]; exists {
			continue
		}
		out[desc.Name] = desc
	}
	return out
}

// FromDescriptors wraps a descriptor list as a single named candidate.
func FromDescriptors(name string, descs ...registry.Descriptor) registry.Candidate {
	return registry.Candidate{Name: name, Impl: Declarations(descs)}
}

// Chain concatenates the candidates of several sources in order.
type Chain []registry.Source

// Discover implements registry.Source.
func (c Chain) Discover(ctx context.Context) ([]registry.Candidate, error) {
	var out []registry.Candidate
	for i, src := range c {
		if src == nil {
			continue
		}
		candidates, err := src.Discover(ctx)
		if err != nil {
			return nil, fmt.Errorf("discovery source %d: %w", i, err)
		}
		out = append(out, candidates...)
	}
	return out, nil
}
