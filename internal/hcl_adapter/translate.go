package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/vk/usbq/internal/config"
	"github.com/vk/usbq/internal/ctxlog"
	"github.com/vk/usbq/internal/options"
)

// translate converts one decoded file into the agnostic model.
func translate(ctx context.Context, root *fileRoot) (*config.Model, error) {
	m := &config.Model{}
	for _, p := range root.Plugins {
		m.Plugins = append(m.Plugins, &config.PluginDefinition{
			Name:        p.Name,
			Description: p.Description,
			Module:      p.Module,
			Type:        p.Type,
			Optional:    p.Optional,
		})
	}
	for _, a := range root.Activations {
		act, err := translateActivation(ctx, a)
		if err != nil {
			return nil, err
		}
		m.Activations = append(m.Activations, act)
	}
	m.Merge(&config.Model{Disabled: root.Disabled})
	return m, nil
}

// translateActivation evaluates the attributes of an activate block into
// native option values. Expressions are evaluated without variables.
func translateActivation(ctx context.Context, a *activateBlock) (*config.Activation, error) {
	logger := ctxlog.FromContext(ctx).With("plugin", a.Name)

	attrs, diags := a.Options.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("activate %q: %w", a.Name, diags)
	}

	opts := make(options.Options, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("activate %q: option %q: %w", a.Name, name, diags)
		}
		native, err := options.FromCtyValue(val)
		if err != nil {
			return nil, fmt.Errorf("activate %q: option %q: %w", a.Name, name, err)
		}
		opts[name] = native
	}
	logger.Debug("Translated activation.", "options", opts.Keys())

	return &config.Activation{Name: a.Name, Options: opts}, nil
}
