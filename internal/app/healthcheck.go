package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vk/usbq/internal/metrics"
)

// pluginStatus is one entry of the /plugins response.
type pluginStatus struct {
	Name     string `json:"name"`
	Instance string `json:"instance,omitempty"`
	State    string `json:"state"`
	Optional bool   `json:"optional"`
	Error    string `json:"error,omitempty"`
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (a *App) pluginsHandler(w http.ResponseWriter, _ *http.Request) {
	statuses := []pluginStatus{}
	if report := a.report.Load(); report != nil {
		for _, o := range report.Outcomes {
			s := pluginStatus{Name: o.Name, Instance: o.Instance, State: o.State.String()}
			if d, ok := a.registry.Lookup(o.Name); ok {
				s.Optional = d.Optional
			}
			if o.Err != nil {
				s.Error = o.Err.Error()
			}
			statuses = append(statuses, s)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(statuses); err != nil {
		a.logger.Error("Failed to encode plugin status", "error", err)
	}
}

// handler returns the mux served by the health check server.
func (a *App) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.HandleFunc("/plugins", a.pluginsHandler)
	mux.Handle("/metrics", metrics.Handler(a.gatherer))
	return mux
}

// healthCheckServer initializes and runs the health check HTTP server.
func (a *App) healthCheckServer() {
	a.logger.Debug("Configuring health check server.")
	if a.config.HealthcheckPort <= 0 {
		a.logger.Debug("Health check server not started: disabled")
		return
	}

	addr := fmt.Sprintf(":%d", a.config.HealthcheckPort)
	a.httpServer = &http.Server{
		Addr:              addr,
		Handler:           a.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		// ListenAndServe returns ErrServerClosed on graceful shutdown.
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Health check server failed unexpectedly", "error", err)
		}
	}()
}

func (a *App) closeHealthCheckServer() error {
	if a.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(a.ctx), 5*time.Second)
	defer cancel()

	a.logger.Info("🩺 Shutting down health check server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("Health check server shutdown failed", "error", err)
		return err
	}
	a.logger.Debug("Health check server shut down gracefully.")
	return nil
}
