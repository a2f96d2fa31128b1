package config

import (
	"slices"

	"github.com/vk/usbq/internal/options"
)

// Model is the unified, format-agnostic representation of the application
// configuration.
type Model struct {
	Plugins     []*PluginDefinition
	Activations []*Activation
	Disabled    []string
}

// PluginDefinition is a user-supplied plugin manifest entry.
type PluginDefinition struct {
	Name        string
	Description string
	Module      string
	Type        string
	Optional    bool
}

// Activation requests one plugin with constructor options.
type Activation struct {
	Name    string
	Options options.Options
}

// Merge appends other to m. Plugin definitions and activations keep file
// order; disabled names are de-duplicated.
func (m *Model) Merge(other *Model) {
	if other == nil {
		return
	}
	m.Plugins = append(m.Plugins, other.Plugins...)
	m.Activations = append(m.Activations, other.Activations...)
	for _, name := range other.Disabled {
		if !slices.Contains(m.Disabled, name) {
			m.Disabled = append(m.Disabled, name)
		}
	}
}

// ActivationNames returns the requested plugin names in order.
func (m *Model) ActivationNames() []string {
	names := make([]string, len(m.Activations))
	for i, a := range m.Activations {
		names[i] = a.Name
	}
	return names
}
