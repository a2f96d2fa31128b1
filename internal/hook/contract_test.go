package hook

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContract_RejectsDuplicateNames(t *testing.T) {
	again := Define("claim", CollectAll, func(ctx context.Context, impl claimer, _ struct{}) (string, bool, error) {
		return "", false, nil
	})

	_, err := NewContract(claimHook, again)
	require.ErrorIs(t, err, ErrDuplicateHook)
	require.Panics(t, func() { MustContract(claimHook, again) })
}

func TestContract_LookupAndOrder(t *testing.T) {
	c := MustContract(describeHook, claimHook)

	h, ok := c.Lookup("claim")
	require.True(t, ok)
	assert.Equal(t, FirstResult, h.Mode())

	_, ok = c.Lookup("missing")
	assert.False(t, ok)

	var names []string
	for _, h := range c.Hooks() {
		names = append(names, h.Name())
	}
	assert.Equal(t, []string{"describe", "claim"}, names)
}

func TestDefine_ImplementedChecksCapability(t *testing.T) {
	assert.True(t, describeHook.Implemented(&describePlugin{}))
	assert.False(t, describeHook.Implemented(&claimPlugin{}))
	assert.False(t, describeHook.Implemented(nil))
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "collect_all", CollectAll.String())
	assert.Equal(t, "first_result", FirstResult.String())
	assert.Equal(t, "mode(7)", Mode(7).String())
}
