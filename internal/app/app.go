package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vk/usbq/internal/activation"
	"github.com/vk/usbq/internal/config"
	"github.com/vk/usbq/internal/ctxlog"
	"github.com/vk/usbq/internal/discovery"
	"github.com/vk/usbq/internal/engine"
	"github.com/vk/usbq/internal/hcl_adapter"
	"github.com/vk/usbq/internal/hook"
	"github.com/vk/usbq/internal/loader"
	"github.com/vk/usbq/internal/metrics"
	"github.com/vk/usbq/internal/registry"
	"github.com/vk/usbq/internal/yaml_adapter"
)

// ManifestCandidate is the discovery candidate name of the plugin manifests
// read from configuration files.
const ManifestCandidate = "config"

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	model      *config.Model
	catalog    *loader.Catalog
	registry   *registry.Registry
	manager    *hook.Manager
	metrics    *metrics.Metrics
	gatherer   *prometheus.Registry
	httpServer *http.Server

	// activateMu serializes Activate; report is read by the health check
	// server while activation runs.
	activateMu sync.Mutex
	report     atomic.Pointer[activation.Report]
}

type appOptions struct {
	modules   []Module
	userHooks loader.Factory
	loader    config.Loader
}

// Option customizes NewApp.
type Option func(*appOptions)

// WithModules replaces the compiled-in modules.
func WithModules(mods ...Module) Option {
	return func(o *appOptions) { o.modules = mods }
}

// WithUserHooks provides the constructor of the reserved usbq_hooks plugin.
func WithUserHooks(factory loader.Factory) Option {
	return func(o *appOptions) { o.userHooks = factory }
}

// WithConfigLoader replaces the default HCL and YAML loader.
func WithConfigLoader(l config.Loader) Option {
	return func(o *appOptions) { o.loader = l }
}

// DefaultConfigLoader reads .hcl, .yaml and .yml files.
func DefaultConfigLoader() *config.Composite {
	return config.NewComposite().
		Handle(hcl_adapter.NewLoader(), hcl_adapter.Extension).
		Handle(yaml_adapter.NewLoader(), yaml_adapter.Extensions...)
}

// NewApp is the constructor for the main application. It loads the
// configuration, populates the catalog and builds the plugin registry.
// Plugins are not activated until Activate or Run.
func NewApp(ctx context.Context, outW io.Writer, cfg *Config, opts ...Option) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	o := appOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.modules == nil {
		o.modules = coreModules(outW)
	}
	if o.loader == nil {
		o.loader = DefaultConfigLoader()
	}

	model, err := o.loader.Load(ctx, cfg.ConfigPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded and translated into unified model.")

	catalog := loader.NewCatalog()
	for _, mod := range o.modules {
		mod.Register(catalog)
	}
	if o.userHooks != nil {
		catalog.Provide(registry.UserHooksModule, registry.UserHooksType, o.userHooks)
	}
	logger.Debug("All Go modules registered.", "count", len(o.modules), "catalog_modules", catalog.Modules())

	// Manifests come first so that configuration can shadow built-in declarations.
	source := discovery.Chain{
		discovery.Static{discovery.FromDescriptors(ManifestCandidate, manifestDescriptors(model)...)},
		discovery.FromModules(o.modules...),
	}
	reg, err := registry.Build(ctx, source)
	if err != nil {
		return nil, err
	}
	if missing := reg.MissingRequired(catalog); len(missing) > 0 {
		logger.Warn("Required plugins have no constructible code.", "plugins", missing)
	}

	gatherer := prometheus.NewRegistry()
	m := metrics.New(gatherer)
	manager := hook.New(hook.MustContract(engine.Hooks()...), hook.WithObserver(m))

	return &App{
		ctx:      ctx,
		outW:     outW,
		logger:   logger,
		config:   cfg,
		model:    model,
		catalog:  catalog,
		registry: reg,
		manager:  manager,
		metrics:  m,
		gatherer: gatherer,
	}, nil
}

func manifestDescriptors(model *config.Model) []registry.Descriptor {
	descs := make([]registry.Descriptor, 0, len(model.Plugins))
	for _, p := range model.Plugins {
		descs = append(descs, registry.Descriptor{
			Name:        p.Name,
			Description: p.Description,
			ModuleRef:   p.Module,
			TypeName:    p.Type,
			Optional:    p.Optional,
		})
	}
	return descs
}

// Request assembles the activation request: configured activations, then
// --enable names not already requested, with --set overrides applied.
func (a *App) Request() (activation.Request, error) {
	var req activation.Request
	for _, act := range a.model.Activations {
		req = append(req, activation.Entry{Name: act.Name, Options: act.Options})
	}
	for _, name := range a.config.Enable {
		if !slices.ContainsFunc(req, func(e activation.Entry) bool { return e.Name == name }) {
			req = append(req, activation.Entry{Name: name})
		}
	}

	overrides, err := a.config.Overrides()
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		i := slices.IndexFunc(req, func(e activation.Entry) bool { return e.Name == o.Plugin })
		if i < 0 {
			return nil, fmt.Errorf("option override for %q, which is not activated", o.Plugin)
		}
		req[i].Options = req[i].Options.Merge(map[string]any{o.Key: o.Value})
	}
	return req, nil
}

// Disabled returns the union of the configured and --disable names.
func (a *App) Disabled() []string {
	out := slices.Clone(a.model.Disabled)
	for _, name := range a.config.Disable {
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

// Activate constructs and registers the requested plugins. It may only be
// called once per App.
func (a *App) Activate(ctx context.Context) (*activation.Report, error) {
	a.activateMu.Lock()
	defer a.activateMu.Unlock()
	if a.report.Load() != nil {
		return nil, fmt.Errorf("plugins already activated")
	}
	ctx = ctxlog.WithLogger(ctx, a.logger)

	req, err := a.Request()
	if err != nil {
		return nil, err
	}
	report, err := activation.New(a.registry, a.catalog, a.manager).Activate(ctx, req, a.Disabled())
	a.report.Store(report)
	a.metrics.ObserveActivation(report)
	return report, err
}

// Registry returns the canonical plugin registry.
func (a *App) Registry() *registry.Registry { return a.registry }

// Catalog returns the catalog of constructible plugin types.
func (a *App) Catalog() *loader.Catalog { return a.catalog }

// Manager returns the hook manager holding the live plugins.
func (a *App) Manager() *hook.Manager { return a.manager }

// Model returns the loaded configuration.
func (a *App) Model() *config.Model { return a.model }

// Report returns the last activation report, or nil before Activate.
func (a *App) Report() *activation.Report { return a.report.Load() }
