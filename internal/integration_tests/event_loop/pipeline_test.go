package event_loop_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/usbq/internal/app"
	"github.com/vk/usbq/internal/loader"
	"github.com/vk/usbq/internal/registry"
	"github.com/vk/usbq/internal/testutil"
	"github.com/vk/usbq/modules/generator"
)

// The generator feeds events through decode and into a recording logger,
// which is torn down when the loop stops.
func TestPipeline_GeneratorToRecorder(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	log := &testutil.CallLog{}
	recorder := &testutil.SimpleModule{
		ModuleName: "recorder",
		ModuleRef:  "test/recorder",
		Factories:  map[string]loader.Factory{"Recorder": testutil.RecorderFactory("sink", log)},
		Declarations: map[string]registry.Descriptor{
			"sink": {ModuleRef: "test/recorder", TypeName: "Recorder"},
		},
	}
	files := map[string]string{"main.hcl": `
		activate "generator" {
			interval = "1ms"
			count    = 2
			payload  = "abc"
		}
		activate "sink" {}
	`}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, testutil.Harness{
		Files:   files,
		Config:  app.Config{Iterations: 3, EventTimeout: 20 * time.Millisecond},
		Options: []app.Option{app.WithModules(&generator.Module{}, recorder)},
		Run:     true,
	})

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.Equal(t, []string{
		"sink.new",
		`sink.log:#1 "abc"`,
		`sink.log:#2 "abc"`,
		"sink.teardown",
	}, log.Calls())
	assert.True(t, strings.Contains(result.LogOutput, "Event loop stopped."))
}
