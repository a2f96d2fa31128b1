// Package loader replaces loading plugin code by name at runtime with a
// catalog populated at program start. Each code unit (module) registers the
// constructible types it provides; plugin descriptors then name a module
// reference and a type name that the catalog resolves to a Factory.
package loader

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/vk/usbq/internal/options"
)

var (
	// ErrModuleNotFound means no code unit is registered under the module reference.
	ErrModuleNotFound = errors.New("module not found")
	// ErrTypeNotFound means the module exists but does not provide the type.
	ErrTypeNotFound = errors.New("type not found in module")
)

// Factory constructs a plugin instance from its options. Factories validate
// their own options and return a descriptive error when they are rejected.
type Factory func(ctx context.Context, opts options.Options) (any, error)

// Module is implemented by code units that contribute factories to a Catalog.
type Module interface {
	Register(c *Catalog)
}

// Catalog maps module references to the types they provide.
type Catalog struct {
	mu      sync.RWMutex
	modules map[string]map[string]Factory
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{modules: make(map[string]map[string]Factory)}
}

// Provide registers factory as typeName inside moduleRef. Registering the
// same pair twice is a programming error and panics.
func (c *Catalog) Provide(moduleRef, typeName string, factory Factory) {
	if moduleRef == "" || typeName == "" {
		panic("loader: module reference and type name must not be empty")
	}
	if factory == nil {
		panic(fmt.Sprintf("loader: nil factory for %s:%s", moduleRef, typeName))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	types, ok := c.modules[moduleRef]
	if !ok {
		types = make(map[string]Factory)
		c.modules[moduleRef] = types
	}
	if _, exists := types[typeName]; exists {
		panic(fmt.Sprintf("loader: type '%s' already provided by module '%s'", typeName, moduleRef))
	}
	types[typeName] = factory
}

// Resolve locates typeName inside moduleRef. The error wraps
// ErrModuleNotFound or ErrTypeNotFound.
func (c *Catalog) Resolve(moduleRef, typeName string) (Factory, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	types, ok := c.modules[moduleRef]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrModuleNotFound, moduleRef)
	}
	factory, ok := types[typeName]
	if !ok {
		return nil, fmt.Errorf("%w: %q has no %q", ErrTypeNotFound, moduleRef, typeName)
	}
	return factory, nil
}

// Has reports whether Resolve would succeed.
func (c *Catalog) Has(moduleRef, typeName string) bool {
	_, err := c.Resolve(moduleRef, typeName)
	return err == nil
}

// Modules returns the registered module references in sorted order.
func (c *Catalog) Modules() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.modules))
}
