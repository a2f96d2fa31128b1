package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/usbq/internal/ctxlog"
	"pgregory.net/rapid"
)

type sliceSource []Candidate

func (s sliceSource) Discover(context.Context) ([]Candidate, error) { return s, nil }

type failingSource struct{ err error }

func (s failingSource) Discover(context.Context) ([]Candidate, error) { return nil, s.err }

type declarer map[string]Descriptor

func (d declarer) DeclarePlugins() map[string]Descriptor { return d }

// notADeclarer implements no declaration hook.
type notADeclarer struct{}

func desc(name, module string) Descriptor {
	return Descriptor{Name: name, ModuleRef: module, TypeName: "Plugin"}
}

func TestBuild_FirstRegisteredWinsPerKey(t *testing.T) {
	src := sliceSource{
		{Name: "A", Impl: declarer{"x": desc("x", "a/x"), "a": desc("a", "a/a")}},
		{Name: "B", Impl: declarer{"x": desc("x", "b/x"), "b": desc("b", "b/b")}},
	}

	reg, err := Build(context.Background(), src)
	require.NoError(t, err)

	x, ok := reg.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, "a/x", x.ModuleRef, "the implementer dispatched first keeps the key")
	assert.Equal(t, []string{"a", "x", "b", UserHooksName}, reg.Names())
}

func TestBuild_InjectsUserHooksLast(t *testing.T) {
	reg, err := Build(context.Background(), sliceSource{
		{Name: "A", Impl: declarer{"proxy": desc("proxy", "usbq/proxy")}},
		{Name: "quiet", Impl: notADeclarer{}},
		{Name: "empty", Impl: declarer(nil)},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"proxy", UserHooksName}, reg.Names())
	d, ok := reg.Lookup(UserHooksName)
	require.True(t, ok)
	assert.Equal(t, UserHooksDescriptor(), d)
	assert.True(t, d.Optional)
	assert.Equal(t, UserHooksModule, d.ModuleRef)
	assert.Equal(t, UserHooksType, d.TypeName)
}

func TestBuild_UserHooksClobbersDiscoveredDeclaration(t *testing.T) {
	logs := &bytes.Buffer{}
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(logs, nil)))

	reg, err := Build(ctx, sliceSource{
		{Name: "A", Impl: declarer{UserHooksName: {ModuleRef: "evil/hooks", TypeName: "Evil"}, "z": desc("z", "z")}},
	})
	require.NoError(t, err)

	d, _ := reg.Lookup(UserHooksName)
	assert.Equal(t, UserHooksDescriptor(), d)
	assert.Equal(t, []string{"z", UserHooksName}, reg.Names(), "the injected descriptor is placed last")
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "module=evil/hooks")
}

func TestBuild_NormalizesNameToKey(t *testing.T) {
	reg, err := Build(context.Background(), sliceSource{
		{Name: "A", Impl: declarer{"decoder": {Description: "no name set", ModuleRef: "m", TypeName: "T"}}},
	})
	require.NoError(t, err)

	d, ok := reg.Lookup("decoder")
	require.True(t, ok)
	assert.Equal(t, "decoder", d.Name)
}

func TestBuild_Errors(t *testing.T) {
	boom := errors.New("index unavailable")
	_, err := Build(context.Background(), failingSource{err: boom})
	require.ErrorIs(t, err, boom)

	_, err = Build(context.Background(), sliceSource{
		{Name: "dup", Impl: declarer{}},
		{Name: "dup", Impl: declarer{}},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), `candidate "dup"`)
}

func TestRegistry_ReadOnlyViews(t *testing.T) {
	reg, err := Build(context.Background(), sliceSource{
		{Name: "A", Impl: declarer{"a": desc("a", "m")}},
	})
	require.NoError(t, err)

	names := reg.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"a", UserHooksName}, reg.Names())
	assert.Equal(t, 2, reg.Len())
	assert.True(t, reg.Has("a"))
	assert.False(t, reg.Has("mutated"))
	assert.Len(t, reg.Descriptors(), 2)
}

// TestBuild_PropertyFirstDeclarationWins checks, for arbitrary declaration
// layouts, that every registry entry equals the declaration of the earliest
// candidate that declared the key.
func TestBuild_PropertyFirstDeclarationWins(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		candidateCount := rapid.IntRange(1, 6).Draw(t, "candidates")
		keys := []string{"proxy", "decoder", "encoder", "hexdump", "pcap", "x"}

		var src sliceSource
		want := make(map[string]string)
		for i := range candidateCount {
			decls := declarer{}
			for _, key := range rapid.SliceOfDistinct(rapid.SampledFrom(keys), func(s string) string { return s }).Draw(t, fmt.Sprintf("keys%d", i)) {
				module := fmt.Sprintf("candidate%d/%s", i, key)
				decls[key] = desc(key, module)
				if _, seen := want[key]; !seen {
					want[key] = module
				}
			}
			src = append(src, Candidate{Name: fmt.Sprintf("c%d", i), Impl: decls})
		}

		reg, err := Build(context.Background(), src)
		if err != nil {
			t.Fatalf("Build() returned an unexpected error: %v", err)
		}

		assert.Equal(t, len(want)+1, reg.Len())
		for key, module := range want {
			d, ok := reg.Lookup(key)
			if assert.True(t, ok, "missing %s", key) {
				assert.Equal(t, module, d.ModuleRef)
			}
		}
		last := reg.Names()[reg.Len()-1]
		assert.Equal(t, UserHooksName, last)
	})
}
