package hook

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/usbq/internal/ctxlog"
)

// Plugin is a live plugin instance together with its registration name.
type Plugin struct {
	Name string
	Impl any
}

// CallStats summarizes one hook call for an Observer.
type CallStats struct {
	Implementers int
	Results      int
	Elapsed      time.Duration
	Err          error
}

// Observer is notified after every hook call.
type Observer interface {
	ObserveCall(hook string, mode Mode, stats CallStats)
}

// Option configures a Manager.
type Option func(*Manager)

// WithObserver attaches an Observer to the Manager.
func WithObserver(o Observer) Option {
	return func(m *Manager) { m.observer = o }
}

// Manager owns the live plugin instances and dispatches hook calls to them
// in registration order.
type Manager struct {
	contract *Contract
	observer Observer

	mu      sync.RWMutex
	plugins []Plugin
	index   map[string]int

	depth atomic.Int32
}

// New creates a Manager dispatching the hooks declared in contract.
func New(contract *Contract, opts ...Option) *Manager {
	if contract == nil {
		contract = MustContract()
	}
	m := &Manager{
		contract: contract,
		index:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Contract returns the hooks this Manager dispatches.
func (m *Manager) Contract() *Contract { return m.contract }

// Register adds impl to the live set under name. Plugins are never
// unregistered.
func (m *Manager) Register(name string, impl any) error {
	_, err := m.RegisterUnique(name, impl)
	return err
}

// RegisterUnique adds impl to the live set and returns the name it was
// registered under. An empty name is replaced by one derived from the
// instance type and its position. A name already in use gets the first free
// "#<n>" suffix, so Plugin(name) keeps returning the earlier instance.
func (m *Manager) RegisterUnique(name string, impl any) (string, error) {
	if impl == nil {
		return "", ErrNilPlugin
	}
	if m.depth.Load() > 0 {
		return "", ErrRegisterDuringCall
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if name == "" {
		name = fmt.Sprintf("%T#%d", impl, len(m.plugins))
	}
	if _, taken := m.index[name]; taken {
		base := name
		for n := 1; ; n++ {
			name = fmt.Sprintf("%s#%d", base, n)
			if _, taken := m.index[name]; !taken {
				break
			}
		}
	}
	m.index[name] = len(m.plugins)
	m.plugins = append(m.plugins, Plugin{Name: name, Impl: impl})
	return name, nil
}

// Plugin returns the instance registered under name.
func (m *Manager) Plugin(name string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.index[name]
	if !ok {
		return nil, false
	}
	return m.plugins[i].Impl, true
}

// Plugins returns the live plugins in registration order.
func (m *Manager) Plugins() []Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.plugins)
}

// Names returns the registered plugin names in registration order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, len(m.plugins))
	for i, p := range m.plugins {
		names[i] = p.Name
	}
	return names
}

// Len returns the number of registered plugins.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.plugins)
}

// Implementers returns, in dispatch order, the names of the plugins that
// implement h.
func Implementers(m *Manager, h Declared) []string {
	var names []string
	for _, p := range m.Plugins() {
		if h.Implemented(p.Impl) {
			names = append(names, p.Name)
		}
	}
	return names
}

// Call invokes spec on every registered implementer and returns the present
// results in registration order. In FirstResult mode at most one result is
// returned. The first implementer error aborts the call.
func Call[A, R any](ctx context.Context, m *Manager, spec *Spec[A, R], args A) ([]R, error) {
	return call(ctx, m, spec, args, false)
}

// CallAll is Call for hooks that must reach every implementer, such as
// releasing resources. An implementer error does not stop the call: every
// implementer runs and the failures are returned joined, each as a
// *CallError. Results of the implementers that succeeded are returned too.
func CallAll[A, R any](ctx context.Context, m *Manager, spec *Spec[A, R], args A) ([]R, error) {
	return call(ctx, m, spec, args, true)
}

func call[A, R any](ctx context.Context, m *Manager, spec *Spec[A, R], args A, keepGoing bool) ([]R, error) {
	var results []R
	err := m.dispatch(ctx, spec, keepGoing, func(ctx context.Context, p Plugin) (bool, error) {
		r, ok, err := spec.call(ctx, p.Impl, args)
		if err != nil || !ok {
			return false, err
		}
		results = append(results, r)
		return true, nil
	})
	if err != nil && !keepGoing {
		return nil, err
	}
	return results, err
}

// First invokes spec and returns the first present result, if any.
func First[A, R any](ctx context.Context, m *Manager, spec *Spec[A, R], args A) (R, bool, error) {
	var zero R
	results, err := Call(ctx, m, spec, args)
	if err != nil || len(results) == 0 {
		return zero, false, err
	}
	return results[0], true, nil
}

// CallNamed is the untyped entry point: it looks the hook up by name in the
// contract and dispatches it with args, which must match the hook's argument
// type (nil means the zero value).
func (m *Manager) CallNamed(ctx context.Context, name string, args any) ([]any, error) {
	h, ok := m.contract.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUndeclaredHook, name)
	}
	var results []any
	err := m.dispatch(ctx, h, false, func(ctx context.Context, p Plugin) (bool, error) {
		r, ok, err := h.invoke(ctx, p.Impl, args)
		if err != nil || !ok {
			return false, err
		}
		results = append(results, r)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// dispatch walks a snapshot of the live set in registration order and calls
// each for every implementer of h. each reports whether it produced a result.
// The first error stops the walk unless keepGoing is set.
func (m *Manager) dispatch(ctx context.Context, h Declared, keepGoing bool, each func(context.Context, Plugin) (bool, error)) error {
	if declared, ok := m.contract.Lookup(h.Name()); !ok || declared != h {
		return fmt.Errorf("%w: %q", ErrUndeclaredHook, h.Name())
	}

	logger := ctxlog.FromContext(ctx)
	plugins := m.Plugins()

	m.depth.Add(1)
	defer m.depth.Add(-1)

	start := time.Now()
	stats := CallStats{}
	for _, p := range plugins {
		if !h.Implemented(p.Impl) {
			continue
		}
		stats.Implementers++
		produced, err := each(ctx, p)
		if err != nil {
			callErr := &CallError{Hook: h.Name(), Plugin: p.Name, Err: err}
			if !keepGoing {
				stats.Err = callErr
				break
			}
			stats.Err = errors.Join(stats.Err, callErr)
			continue
		}
		if produced {
			stats.Results++
			if h.Mode() == FirstResult {
				break
			}
		}
	}
	stats.Elapsed = time.Since(start)

	logger.Debug("Hook called.", "hook", h.Name(), "mode", h.Mode().String(), "implementers", stats.Implementers, "results", stats.Results)
	if m.observer != nil {
		m.observer.ObserveCall(h.Name(), h.Mode(), stats)
	}
	return stats.Err
}
