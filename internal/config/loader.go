package config

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/vk/usbq/internal/ctxlog"
	"github.com/vk/usbq/internal/fsutil"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths and translates it into
	// the format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Composite dispatches files to loaders by extension. Extensions include
// the leading dot and are matched case-insensitively.
type Composite struct {
	loaders map[string]Loader
}

// NewComposite creates an empty Composite.
func NewComposite() *Composite {
	return &Composite{loaders: make(map[string]Loader)}
}

// Handle routes files with the given extensions to l.
func (c *Composite) Handle(l Loader, extensions ...string) *Composite {
	for _, ext := range extensions {
		c.loaders[ext] = l
	}
	return c
}

// Extensions returns the handled extensions in sorted order.
func (c *Composite) Extensions() []string {
	return slices.Sorted(maps.Keys(c.loaders))
}

// Load resolves paths into files, loads each one with the loader for its
// extension and merges the results in file order.
func (c *Composite) Load(ctx context.Context, paths ...string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	model := &Model{}
	if len(c.loaders) == 0 {
		return model, nil
	}

	files, err := fsutil.FindFiles(paths, c.Extensions()...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered configuration files.", "count", len(files))

	for _, file := range files {
		l := c.loaderFor(file)
		if l == nil {
			return nil, fmt.Errorf("no loader for %s", file)
		}
		m, err := l.Load(ctx, file)
		if err != nil {
			return nil, err
		}
		model.Merge(m)
	}

	logger.Debug("Configuration loaded.", "plugins", len(model.Plugins), "activations", len(model.Activations), "disabled", len(model.Disabled))
	return model, nil
}

func (c *Composite) loaderFor(file string) Loader {
	for ext, l := range c.loaders {
		if fsutil.HasExtension(file, ext) {
			return l
		}
	}
	return nil
}
