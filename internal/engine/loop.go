package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/usbq/internal/ctxlog"
	"github.com/vk/usbq/internal/hook"
)

// DefaultEventTimeout bounds a single wait_for_event call.
const DefaultEventTimeout = time.Second

// Stats counts what a Run did.
type Stats struct {
	Steps  int
	Events int
}

// Loop calls the runtime hooks on a manager's live plugins.
type Loop struct {
	manager *hook.Manager
	timeout time.Duration
}

// NewLoop creates a Loop. A non-positive timeout selects DefaultEventTimeout.
func NewLoop(m *hook.Manager, timeout time.Duration) *Loop {
	if timeout <= 0 {
		timeout = DefaultEventTimeout
	}
	return &Loop{manager: m, timeout: timeout}
}

// Step runs one iteration: tick, wait for an event, decode it and hand the
// record to the loggers. It returns nil when no event arrived. Without any
// event source the step idles for the timeout.
func (l *Loop) Step(ctx context.Context) (*Record, error) {
	if _, err := hook.Call(ctx, l.manager, TickHook, struct{}{}); err != nil {
		return nil, err
	}

	if len(hook.Implementers(l.manager, WaitForEventHook)) == 0 {
		return nil, idle(ctx, l.timeout)
	}

	ev, ok, err := hook.First(ctx, l.manager, WaitForEventHook, l.timeout)
	if err != nil || !ok {
		return nil, err
	}

	summary, ok, err := hook.First(ctx, l.manager, DecodeEventHook, ev)
	if err != nil {
		return nil, err
	}
	if !ok {
		summary = Summarize(ev)
	}

	rec := Record{Event: ev, Summary: summary}
	if _, err := hook.Call(ctx, l.manager, LogEventHook, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Run steps until ctx is done or iterations steps have run; a non-positive
// iterations means no limit. Teardown is always called, even after an error
// or cancellation. Cancellation is not reported as an error.
func (l *Loop) Run(ctx context.Context, iterations int) (Stats, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Event loop started.", "iterations", iterations, "event_timeout", l.timeout.String())

	var stats Stats
	var runErr error
	for iterations <= 0 || stats.Steps < iterations {
		if ctx.Err() != nil {
			break
		}
		rec, err := l.Step(ctx)
		if err != nil {
			if ctx.Err() == nil || !errors.Is(err, ctx.Err()) {
				runErr = fmt.Errorf("loop step %d: %w", stats.Steps+1, err)
			}
			break
		}
		stats.Steps++
		if rec != nil {
			stats.Events++
		}
	}

	if err := Teardown(context.WithoutCancel(ctx), l.manager); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("teardown: %w", err))
	}

	logger.Info("Event loop stopped.", "steps", stats.Steps, "events", stats.Events)
	return stats, runErr
}

// Teardown calls teardown on every live plugin that implements it. A failing
// plugin does not keep later ones from releasing their resources; all
// failures are returned joined.
func Teardown(ctx context.Context, m *hook.Manager) error {
	_, err := hook.CallAll(ctx, m, TeardownHook, struct{}{})
	return err
}

func idle(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
