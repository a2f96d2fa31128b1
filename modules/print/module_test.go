package print

import (
	"bytes"
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/usbq/internal/engine"
	"github.com/vk/usbq/internal/loader"
	"github.com/vk/usbq/internal/options"
)

func TestPrinter_LogEvent(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name string
		opts options.Options
		want string
	}{
		{name: "plain", opts: nil, want: "dev1: 2 bytes\n"},
		{name: "prefix", opts: options.Options{"prefix": ">>"}, want: ">> dev1: 2 bytes\n"},
		{
			name: "hexdump",
			opts: options.Options{"hexdump": true},
			want: "dev1: 2 bytes\n" + hex.Dump([]byte{0xca, 0xfe}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			// --- Arrange ---
			var out bytes.Buffer
			p, err := NewPrinter(&out, tc.opts)
			require.NoError(t, err)

			// --- Act ---
			err = p.LogEvent(context.Background(), engine.Record{
				Event:   &engine.Event{Source: "dev1", Payload: []byte{0xca, 0xfe}},
				Summary: "2 bytes",
			})

			// --- Assert ---
			require.NoError(t, err)
			assert.Equal(t, tc.want, out.String())
		})
	}
}

func TestModule_RegistersFactory(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	m := &Module{Out: &out}
	c := loader.NewCatalog()
	m.Register(c)

	d := m.DeclarePlugins()["print"]
	factory, err := c.Resolve(d.ModuleRef, d.TypeName)
	require.NoError(t, err)

	_, err = factory(context.Background(), options.Options{"colour": "red"})
	require.ErrorContains(t, err, "unsupported option(s): colour")

	inst, err := factory(context.Background(), nil)
	require.NoError(t, err)
	assert.Implements(t, (*engine.EventLogger)(nil), inst)
}
