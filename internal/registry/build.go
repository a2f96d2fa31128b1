package registry

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/vk/usbq/internal/ctxlog"
	"github.com/vk/usbq/internal/hook"
)

// Declarer is implemented by discovered objects that declare plugins.
// A nil map means the object declares nothing.
type Declarer interface {
	DeclarePlugins() map[string]Descriptor
}

// DeclareHook is the declaration hook called across all discovered objects.
var DeclareHook = hook.Define("declare_plugins", hook.CollectAll,
	func(_ context.Context, d Declarer, _ struct{}) (map[string]Descriptor, bool, error) {
		decls := d.DeclarePlugins()
		return decls, decls != nil, nil
	})

// Candidate is one discovered object. Impl may implement any hooks;
// only Declarer matters while building the registry.
type Candidate struct {
	Name string
	Impl any
}

// Source enumerates discovery candidates.
type Source interface {
	Discover(ctx context.Context) ([]Candidate, error)
}

// Build registers every discovered candidate with a bootstrap hook manager,
// calls the declaration hook, and merges the declarations so that the first
// implementer to declare a name wins. The reserved usbq_hooks descriptor is
// injected last and replaces any discovered declaration of the same name.
func Build(ctx context.Context, src Source) (*Registry, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building plugin registry...")

	candidates, err := src.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("plugin discovery failed: %w", err)
	}

	bootstrap := hook.New(hook.MustContract(DeclareHook))
	for _, c := range candidates {
		if err := bootstrap.Register(c.Name, c.Impl); err != nil {
			return nil, fmt.Errorf("failed to register discovered candidate %q: %w", c.Name, err)
		}
	}
	logger.Debug("Discovery candidates registered.", "count", len(candidates))

	declarations, err := hook.Call(ctx, bootstrap, DeclareHook, struct{}{})
	if err != nil {
		return nil, fmt.Errorf("plugin declaration failed: %w", err)
	}

	reg := newRegistry()
	for _, decls := range declarations {
		for _, key := range slices.Sorted(maps.Keys(decls)) {
			d := decls[key]
			if existing, shadowed := reg.Lookup(key); shadowed {
				logger.Debug("Plugin declaration shadowed by an earlier one.", "plugin", key, "kept_module", existing.ModuleRef, "ignored_module", d.ModuleRef)
				continue
			}
			// The map key is authoritative for the registry name.
			d.Name = key
			reg.put(d)
		}
	}

	if existing, clobbered := reg.Lookup(UserHooksName); clobbered {
		logger.Warn("Discovered plugin declaration replaced by the built-in user hooks descriptor.", "plugin", UserHooksName, "module", existing.ModuleRef)
	}
	reg.put(UserHooksDescriptor())

	logger.Info("Plugin registry built.", "plugins", reg.Len())
	return reg, nil
}
