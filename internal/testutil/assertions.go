package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/usbq/internal/activation"
)

// AssertRegistered checks that exactly names are live, in that order.
func AssertRegistered(t *testing.T, result *HarnessResult, names ...string) {
	t.Helper()
	require.NotNil(t, result.App, "app was not constructed: %v", result.Err)
	got := result.App.Manager().Names()
	if len(names) == 0 {
		require.Empty(t, got)
		return
	}
	require.Equal(t, names, got)
}

// AssertOutcome checks the activation state recorded for name.
func AssertOutcome(t *testing.T, result *HarnessResult, name string, state activation.State) {
	t.Helper()
	require.NotNil(t, result.Report, "no activation report")
	for _, o := range result.Report.Outcomes {
		if o.Name == name {
			require.Equal(t, state, o.State, "plugin %q", name)
			return
		}
	}
	require.Failf(t, "missing outcome", "no outcome recorded for plugin %q", name)
}

// CountLogLines returns how many log lines contain every one of parts.
func CountLogLines(output string, parts ...string) int {
	n := 0
	for _, line := range strings.Split(output, "\n") {
		matched := true
		for _, p := range parts {
			if !strings.Contains(line, p) {
				matched = false
				break
			}
		}
		if matched && line != "" {
			n++
		}
	}
	return n
}
