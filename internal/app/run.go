package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/usbq/internal/ctxlog"
	"github.com/vk/usbq/internal/engine"
)

// Run activates the plugins and drives the event loop until ctx is done or
// the configured iterations have run.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	if _, err := a.Activate(ctx); err != nil {
		// Plugins registered before the failure stay live; release them.
		return errors.Join(fmt.Errorf("plugin activation failed: %w", err), a.Teardown(ctx))
	}

	loop := engine.NewLoop(a.manager, a.config.EventTimeout)
	if _, err := loop.Run(ctx, a.config.Iterations); err != nil {
		return fmt.Errorf("event loop failed: %w", err)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// Teardown calls the teardown hook on every live plugin. Run does this on its
// own; callers that only Activate use it to release plugin resources.
func (a *App) Teardown(ctx context.Context) error {
	ctx = ctxlog.WithLogger(context.WithoutCancel(ctx), a.logger)
	if err := engine.Teardown(ctx, a.manager); err != nil {
		return fmt.Errorf("teardown: %w", err)
	}
	return nil
}
