// Package socketio provides the Forwarder plugin, which relays every logged
// event to a Socket.IO server.
package socketio

import (
	"context"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/vk/usbq/internal/ctxlog"
	"github.com/vk/usbq/internal/engine"
	"github.com/vk/usbq/internal/loader"
	"github.com/vk/usbq/internal/options"
	"github.com/vk/usbq/internal/registry"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const (
	ModuleRef = "usbq/socketio"
	TypeName  = "Forwarder"
)

// Module implements loader.Module and registry.Declarer for this package.
type Module struct{}

func (m *Module) Name() string { return "socketio" }

// DeclarePlugins implements registry.Declarer. The forwarder is compiled in,
// so it is declared required: an unreachable server is a construction error
// and aborts activation like any other.
func (m *Module) DeclarePlugins() map[string]registry.Descriptor {
	return map[string]registry.Descriptor{
		"socketio": {
			Description: "Forward events to a Socket.IO server",
			ModuleRef:   ModuleRef,
			TypeName:    TypeName,
		},
	}
}

// Register implements loader.Module.
func (m *Module) Register(c *loader.Catalog) {
	c.Provide(ModuleRef, TypeName, func(ctx context.Context, opts options.Options) (any, error) {
		return Dial(ctx, opts)
	})
}

// Options are the Forwarder constructor options.
type Options struct {
	URL                string        `cty:"url"`
	Namespace          string        `cty:"namespace"`
	Event              string        `cty:"event"`
	InsecureSkipVerify bool          `cty:"insecure_skip_verify"`
	ConnectTimeout     time.Duration `cty:"connect_timeout"`
}

// ParseOptions decodes and validates opts, applying defaults.
func ParseOptions(opts options.Options) (Options, error) {
	o := Options{
		Namespace:      "/",
		Event:          "usbq_event",
		ConnectTimeout: 15 * time.Second,
	}
	if err := opts.Decode(&o); err != nil {
		return o, err
	}
	if o.URL == "" {
		return o, errors.New("url is required")
	}
	u, err := url.Parse(o.URL)
	if err != nil {
		return o, fmt.Errorf("failed to parse URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return o, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return o, fmt.Errorf("URL %q has no host", o.URL)
	}
	if o.Event == "" {
		return o, errors.New("event must not be empty")
	}
	if o.ConnectTimeout <= 0 {
		return o, errors.New("connect_timeout must be positive")
	}
	return o, nil
}

// Forwarder implements engine.EventLogger and engine.Teardowner.
type Forwarder struct {
	event      string
	emit       func(event string, args ...any)
	disconnect func()

	mu     sync.Mutex
	closed bool
}

// Dial connects to the configured server and returns a Forwarder once the
// connection is established.
func Dial(ctx context.Context, opts options.Options) (*Forwarder, error) {
	o, err := ParseOptions(opts)
	if err != nil {
		return nil, err
	}
	io, err := connect(ctx, o)
	if err != nil {
		return nil, err
	}
	return &Forwarder{
		event:      o.Event,
		emit:       func(event string, args ...any) { io.Emit(event, args...) },
		disconnect: func() { io.Disconnect() },
	}, nil
}

func connect(ctx context.Context, o Options) (*socket.Socket, error) {
	logger := ctxlog.FromContext(ctx).With("url", o.URL, "namespace", o.Namespace)
	logger.Info("Connecting to Socket.IO server...")

	parsedURL, err := url.Parse(o.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	sopts := socket.DefaultOptions()
	sopts.SetPath(parsedURL.Path)
	if o.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sopts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sopts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sopts)
	io := manager.Socket(o.Namespace, sopts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})

	io.Connect()

	timer := time.NewTimer(o.ConnectTimeout)
	defer timer.Stop()
	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return io, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-timer.C:
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", o.ConnectTimeout)
	}
}

// Message is the payload emitted for each event.
func Message(rec engine.Record) map[string]any {
	return map[string]any{
		"source":  rec.Event.Source,
		"seq":     rec.Event.Seq,
		"time":    rec.Event.Time.Format(time.RFC3339Nano),
		"summary": rec.Summary,
		"payload": hex.EncodeToString(rec.Event.Payload),
	}
}

// LogEvent emits the record. Events logged after Teardown are dropped.
func (f *Forwarder) LogEvent(ctx context.Context, rec engine.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		ctxlog.FromContext(ctx).Debug("Forwarder closed, dropping event.", "seq", rec.Event.Seq)
		return nil
	}
	f.emit(f.event, Message(rec))
	return nil
}

// Teardown disconnects from the server. It is idempotent.
func (f *Forwarder) Teardown(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	f.disconnect()
	ctxlog.FromContext(ctx).Info("Disconnected from Socket.IO server.")
	return nil
}
