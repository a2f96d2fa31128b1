package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/usbq/internal/activation"
	"github.com/vk/usbq/internal/app"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	Report    *activation.Report
}

// Harness configures one integration run.
type Harness struct {
	// Files maps relative paths to content, written under a temporary
	// configuration directory.
	Files map[string]string
	// Config is the base app configuration. ConfigPaths is set by the harness.
	Config app.Config
	// Options are passed to app.NewApp.
	Options []app.Option
	// Run drives the event loop after activation when true.
	Run bool
}

// RunIntegrationTest runs h with a background context.
func RunIntegrationTest(t *testing.T, h Harness) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, h)
}

// RunIntegrationTestWithContext writes the configuration files, builds the
// app, activates the plugins and optionally runs the loop. Startup panics are
// recovered and reported as errors.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, h Harness) *HarnessResult {
	t.Helper()

	configDir := t.TempDir()
	for name, content := range h.Files {
		filePath := filepath.Join(configDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	cfg := h.Config
	cfg.ConfigPaths = []string{configDir}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}
	t.Cleanup(func() {
		if os.Getenv("USBQ_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	result := &HarnessResult{}
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.Err = fmt.Errorf("application startup panicked | %v", r)
			}
		}()
		result.App, result.Err = app.NewApp(ctx, logBuffer, appConfig, h.Options...)
	}()

	if result.Err == nil {
		if h.Run {
			result.Err = result.App.Run(ctx)
		} else {
			_, result.Err = result.App.Activate(ctx)
		}
		result.Report = result.App.Report()
	}

	result.LogOutput = logBuffer.String()
	return result
}
