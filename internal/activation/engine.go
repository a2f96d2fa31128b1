// Package activation turns an ordered activation request into live plugin
// instances registered with a hook.Manager.
package activation

import (
	"context"
	"fmt"

	"github.com/vk/usbq/internal/ctxlog"
	"github.com/vk/usbq/internal/hook"
	"github.com/vk/usbq/internal/loader"
	"github.com/vk/usbq/internal/options"
	"github.com/vk/usbq/internal/registry"
)

// Entry requests activation of one plugin with constructor options.
type Entry struct {
	Name    string
	Options options.Options
}

// Request is an ordered list of entries. Order determines registration
// order and therefore hook dispatch order.
type Request []Entry

// Engine activates plugins described by a registry, constructed from a
// catalog, into a manager.
type Engine struct {
	registry *registry.Registry
	catalog  *loader.Catalog
	manager  *hook.Manager
}

// New creates an Engine.
func New(reg *registry.Registry, catalog *loader.Catalog, manager *hook.Manager) *Engine {
	return &Engine{registry: reg, catalog: catalog, manager: manager}
}

// Effective returns the entries Activate processes: the request with the
// reserved usbq_hooks entry last. An explicit usbq_hooks entry is moved to
// the end rather than processed twice.
func Effective(req Request) Request {
	out := make(Request, 0, len(req)+1)
	userHooks := Entry{Name: registry.UserHooksName}
	for _, e := range req {
		if e.Name == registry.UserHooksName {
			userHooks = e
			continue
		}
		out = append(out, e)
	}
	return append(out, userHooks)
}

// Activate processes the effective request in order. Unknown names and
// unresolvable required plugins abort the run; plugins registered by earlier
// entries stay registered. Optional plugins that cannot be resolved are
// logged once and skipped. A plugin requested more than once is constructed
// and registered once per entry. Construction and registration errors
// propagate.
// The returned report is non-nil even when an error is returned.
func (e *Engine) Activate(ctx context.Context, req Request, disabled []string) (*Report, error) {
	logger := ctxlog.FromContext(ctx)
	report := &Report{}

	skip := make(map[string]struct{}, len(disabled))
	for _, name := range disabled {
		skip[name] = struct{}{}
	}

	effective := Effective(req)
	logger.Debug("Activating plugins...", "entries", len(effective), "disabled", len(skip))

	for _, entry := range effective {
		if err := e.activate(ctx, entry, skip, report); err != nil {
			report.add(entry.Name, StateFailed, err)
			return report, err
		}
	}

	logger.Info("Plugins activated.", "registered", report.Count(StateRegistered), "skipped", report.Count(StateSkipped), "unavailable", report.Count(StateUnavailable))
	return report, nil
}

func (e *Engine) activate(ctx context.Context, entry Entry, skip map[string]struct{}, report *Report) error {
	d, ok := e.registry.Lookup(entry.Name)
	if !ok {
		return &UnknownPluginError{Name: entry.Name}
	}

	ctx, logger := ctxlog.With(ctx, "plugin", d.Name)

	if _, disabled := skip[d.Name]; disabled {
		logger.Info("Disabling plugin.")
		report.add(d.Name, StateSkipped, nil)
		return nil
	}

	factory, err := e.catalog.Resolve(d.ModuleRef, d.TypeName)
	if err != nil {
		if d.Optional {
			logger.Info("Could not load optional plugin.", "module", d.ModuleRef, "type", d.TypeName, "reason", err.Error())
			report.add(d.Name, StateUnavailable, &OptionalPluginUnavailableError{Descriptor: d, Err: err})
			return nil
		}
		return &MissingRequiredPluginError{Descriptor: d, Err: err}
	}
	logger.Debug("Loaded plugin.", "module", d.ModuleRef, "type", d.TypeName)

	instance, err := factory(ctx, entry.Options)
	if err != nil {
		return fmt.Errorf("constructing plugin %q: %w", d.Name, err)
	}

	registered, err := e.manager.RegisterUnique(d.Name, instance)
	if err != nil {
		return fmt.Errorf("registering plugin %q: %w", d.Name, err)
	}
	logger.Debug("Registered plugin.", "instance", registered, "position", e.manager.Len())
	report.registered(d.Name, registered)
	return nil
}
