package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/usbq/internal/registry"
)

type namedModule struct{ name string }

func (m namedModule) Name() string { return m.name }

func (m namedModule) DeclarePlugins() map[string]registry.Descriptor {
	return map[string]registry.Descriptor{m.name: {ModuleRef: "builtin/" + m.name, TypeName: "Plugin"}}
}

type anonymousModule struct{}

type brokenSource struct{}

func (brokenSource) Discover(context.Context) ([]registry.Candidate, error) {
	return nil, errors.New("index corrupted")
}

func TestFromModules_Names(t *testing.T) {
	src := FromModules[any](namedModule{name: "print"}, &anonymousModule{})

	candidates, err := src.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "print", candidates[0].Name)
	assert.Equal(t, "*discovery.anonymousModule", candidates[1].Name)
}

func TestDeclarations_FirstEntryWins(t *testing.T) {
	decls := Declarations{
		{Name: "fancy", ModuleRef: "first"},
		{Name: "fancy", ModuleRef: "second"},
		{Name: "other", ModuleRef: "other"},
	}

	got := decls.DeclarePlugins()
	assert.Equal(t, "first", got["fancy"].ModuleRef)
	assert.Len(t, got, 2)
	assert.Nil(t, Declarations(nil).DeclarePlugins())
}

func TestChain_ManifestsShadowModules(t *testing.T) {
	src := Chain{
		Static{FromDescriptors("config", registry.Descriptor{Name: "print", ModuleRef: "contrib/print", TypeName: "Fancy"})},
		nil,
		FromModules(namedModule{name: "print"}, namedModule{name: "generator"}),
	}

	reg, err := registry.Build(context.Background(), src)
	require.NoError(t, err)

	d, ok := reg.Lookup("print")
	require.True(t, ok)
	assert.Equal(t, "contrib/print", d.ModuleRef)
	assert.Equal(t, []string{"print", "generator", registry.UserHooksName}, reg.Names())
}

func TestChain_PropagatesErrors(t *testing.T) {
	_, err := Chain{Static{}, brokenSource{}}.Discover(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discovery source 1: index corrupted")
}
