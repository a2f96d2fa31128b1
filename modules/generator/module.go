// Package generator provides a synthetic event source. It is useful for
// exercising the plugin pipeline without hardware.
package generator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vk/usbq/internal/ctxlog"
	"github.com/vk/usbq/internal/engine"
	"github.com/vk/usbq/internal/loader"
	"github.com/vk/usbq/internal/options"
	"github.com/vk/usbq/internal/registry"
)

const (
	ModuleRef = "usbq/generator"
	TypeName  = "Generator"
)

// Module implements loader.Module and registry.Declarer for this package.
type Module struct{}

func (m *Module) Name() string { return "generator" }

// DeclarePlugins implements registry.Declarer.
func (m *Module) DeclarePlugins() map[string]registry.Descriptor {
	return map[string]registry.Descriptor{
		"generator": {
			Description: "Emit synthetic events at a fixed interval",
			ModuleRef:   ModuleRef,
			TypeName:    TypeName,
		},
	}
}

// Register implements loader.Module.
func (m *Module) Register(c *loader.Catalog) {
	c.Provide(ModuleRef, TypeName, func(ctx context.Context, opts options.Options) (any, error) {
		return New(ctx, opts)
	})
}

// Options are the Generator constructor options. A zero Count means no limit.
type Options struct {
	Interval time.Duration `cty:"interval"`
	Count    int           `cty:"count"`
	Payload  string        `cty:"payload"`
	Source   string        `cty:"source"`
}

// Generator implements engine.EventSource and engine.Decoder.
type Generator struct {
	opts Options

	mu   sync.Mutex
	seq  uint64
	next time.Time
}

// New creates a Generator. The first event is due one interval after
// construction.
func New(ctx context.Context, opts options.Options) (*Generator, error) {
	o := Options{
		Interval: 100 * time.Millisecond,
		Payload:  "ping",
		Source:   "generator",
	}
	if err := opts.Decode(&o); err != nil {
		return nil, err
	}
	if o.Interval <= 0 {
		return nil, errors.New("interval must be positive")
	}
	if o.Count < 0 {
		return nil, errors.New("count must not be negative")
	}
	ctxlog.FromContext(ctx).Debug("Generator configured.", "interval", o.Interval.String(), "count", o.Count, "source", o.Source)
	return &Generator{opts: o, next: time.Now().Add(o.Interval)}, nil
}

// Exhausted reports whether the generator has emitted Count events.
func (g *Generator) Exhausted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.exhausted()
}

func (g *Generator) exhausted() bool {
	return g.opts.Count > 0 && g.seq >= uint64(g.opts.Count)
}

// WaitForEvent returns the next event once it is due. If it is not due
// within timeout, or the generator is exhausted, it waits out the timeout
// and returns nil.
func (g *Generator) WaitForEvent(ctx context.Context, timeout time.Duration) (*engine.Event, error) {
	g.mu.Lock()
	if g.exhausted() {
		g.mu.Unlock()
		return nil, sleep(ctx, timeout)
	}
	due := time.Until(g.next)
	g.mu.Unlock()

	if due > timeout {
		return nil, sleep(ctx, timeout)
	}
	if err := sleep(ctx, due); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.next = g.next.Add(g.opts.Interval)
	return &engine.Event{
		Source:  g.opts.Source,
		Seq:     g.seq,
		Time:    time.Now(),
		Payload: []byte(g.opts.Payload),
	}, nil
}

// DecodeEvent describes events from this generator's source only.
func (g *Generator) DecodeEvent(_ context.Context, ev *engine.Event) (string, bool, error) {
	if ev.Source != g.opts.Source {
		return "", false, nil
	}
	return fmt.Sprintf("#%d %q", ev.Seq, ev.Payload), true, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
