package activation_scenarios_test

import (
	"github.com/vk/usbq/internal/app"
	"github.com/vk/usbq/internal/loader"
	"github.com/vk/usbq/internal/registry"
	"github.com/vk/usbq/internal/testutil"
)

// proxyModule provides "usbq/proxy" with the Proxy and Decoder types and
// declares the proxy and decoder plugins.
func proxyModule(log *testutil.CallLog) *testutil.SimpleModule {
	return &testutil.SimpleModule{
		ModuleName: "proxy",
		ModuleRef:  "usbq/proxy",
		Factories: map[string]loader.Factory{
			"Proxy":   testutil.RecorderFactory("proxy", log),
			"Decoder": testutil.RecorderFactory("decoder", log),
		},
		Declarations: map[string]registry.Descriptor{
			"proxy":   {ModuleRef: "usbq/proxy", TypeName: "Proxy", Description: "USB proxy"},
			"decoder": {ModuleRef: "usbq/proxy", TypeName: "Decoder", Description: "Decoder"},
		},
	}
}

func withModules(mods ...*testutil.SimpleModule) app.Option {
	out := make([]app.Module, len(mods))
	for i, m := range mods {
		out[i] = m
	}
	return app.WithModules(out...)
}

func harness(files map[string]string, mods ...*testutil.SimpleModule) testutil.Harness {
	return testutil.Harness{Files: files, Options: []app.Option{withModules(mods...)}}
}
