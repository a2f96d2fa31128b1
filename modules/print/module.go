// Package print provides the Printer plugin, which writes every logged event
// as one line, optionally followed by a hex dump of its payload.
package print

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/vk/usbq/internal/engine"
	"github.com/vk/usbq/internal/loader"
	"github.com/vk/usbq/internal/options"
	"github.com/vk/usbq/internal/registry"
)

const (
	// ModuleRef is the catalog module reference of this package.
	ModuleRef = "usbq/print"
	// TypeName is the constructible type this package provides.
	TypeName = "Printer"
)

// Module implements loader.Module and registry.Declarer for this package.
type Module struct {
	// Out receives the printed lines. Defaults to os.Stdout.
	Out io.Writer
}

// Name returns the discovery candidate name.
func (m *Module) Name() string { return "print" }

// DeclarePlugins implements registry.Declarer.
func (m *Module) DeclarePlugins() map[string]registry.Descriptor {
	return map[string]registry.Descriptor{
		"print": {
			Description: "Print events to standard output",
			ModuleRef:   ModuleRef,
			TypeName:    TypeName,
		},
	}
}

// Register implements loader.Module.
func (m *Module) Register(c *loader.Catalog) {
	c.Provide(ModuleRef, TypeName, func(_ context.Context, opts options.Options) (any, error) {
		out := m.Out
		if out == nil {
			out = os.Stdout
		}
		return NewPrinter(out, opts)
	})
}

// Options are the Printer constructor options.
type Options struct {
	Prefix  string `cty:"prefix"`
	Hexdump bool   `cty:"hexdump"`
}

// Printer implements engine.EventLogger.
type Printer struct {
	mu   sync.Mutex
	out  io.Writer
	opts Options
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer, opts options.Options) (*Printer, error) {
	p := &Printer{out: out}
	if err := opts.Decode(&p.opts); err != nil {
		return nil, err
	}
	return p, nil
}

// LogEvent writes `prefix source: summary`.
func (p *Printer) LogEvent(_ context.Context, rec engine.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	line := fmt.Sprintf("%s: %s", rec.Event.Source, rec.Summary)
	if p.opts.Prefix != "" {
		line = p.opts.Prefix + " " + line
	}
	if _, err := fmt.Fprintln(p.out, line); err != nil {
		return err
	}
	if p.opts.Hexdump && len(rec.Event.Payload) > 0 {
		if _, err := io.WriteString(p.out, hex.Dump(rec.Event.Payload)); err != nil {
			return err
		}
	}
	return nil
}
