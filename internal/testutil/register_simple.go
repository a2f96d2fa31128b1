package testutil

import (
	"maps"

	"github.com/vk/usbq/internal/loader"
	"github.com/vk/usbq/internal/registry"
)

// SimpleModule is a test helper for creating a mock module that provides
// factories under one module reference and declares plugins.
type SimpleModule struct {
	ModuleName   string
	ModuleRef    string
	Factories    map[string]loader.Factory
	Declarations map[string]registry.Descriptor
}

// Name implements discovery.Named.
func (m *SimpleModule) Name() string { return m.ModuleName }

// Register implements loader.Module.
func (m *SimpleModule) Register(c *loader.Catalog) {
	for typeName, f := range m.Factories {
		c.Provide(m.ModuleRef, typeName, f)
	}
}

// DeclarePlugins implements registry.Declarer.
func (m *SimpleModule) DeclarePlugins() map[string]registry.Descriptor {
	if m.Declarations == nil {
		return nil
	}
	return maps.Clone(m.Declarations)
}
