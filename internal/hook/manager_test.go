package hook

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namer interface {
	Describe(ctx context.Context, prefix string) (string, error)
}

type claimer interface {
	Claim(ctx context.Context) (string, bool)
}

type describePlugin struct {
	name string
	err  error
}

func (p *describePlugin) Describe(_ context.Context, prefix string) (string, error) {
	return prefix + p.name, p.err
}

type claimPlugin struct {
	value string
	calls int
}

func (p *claimPlugin) Claim(context.Context) (string, bool) {
	p.calls++
	return p.value, p.value != ""
}

// silentPlugin implements no hook at all.
type silentPlugin struct{}

var (
	describeHook = Define("describe", CollectAll, func(ctx context.Context, impl namer, prefix string) (string, bool, error) {
		s, err := impl.Describe(ctx, prefix)
		return s, err == nil, err
	})
	claimHook = Define("claim", FirstResult, func(ctx context.Context, impl claimer, _ struct{}) (string, bool, error) {
		s, ok := impl.Claim(ctx)
		return s, ok, nil
	})
)

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	contract, err := NewContract(describeHook, claimHook)
	require.NoError(t, err)
	return New(contract, opts...)
}

func TestCall_CollectAllPreservesRegistrationOrder(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Register("proxy", &describePlugin{name: "proxy"}))
	require.NoError(t, m.Register("silent", &silentPlugin{}))
	require.NoError(t, m.Register("decoder", &describePlugin{name: "decoder"}))

	results, err := Call(context.Background(), m, describeHook, "got:")

	require.NoError(t, err)
	assert.Equal(t, []string{"got:proxy", "got:decoder"}, results)
}

func TestCall_OrderIsReproducible(t *testing.T) {
	names := []string{"e", "b", "d", "a", "c", "f", "h", "g"}
	for range 20 {
		m := newTestManager(t)
		for _, n := range names {
			require.NoError(t, m.Register(n, &describePlugin{name: n}))
		}
		results, err := Call(context.Background(), m, describeHook, "")
		require.NoError(t, err)
		require.Equal(t, names, results)
	}
}

func TestCall_FirstResultStopsAtFirstPresentValue(t *testing.T) {
	m := newTestManager(t)
	empty := &claimPlugin{}
	winner := &claimPlugin{value: "usb0"}
	later := &claimPlugin{value: "usb1"}
	require.NoError(t, m.Register("empty", empty))
	require.NoError(t, m.Register("winner", winner))
	require.NoError(t, m.Register("later", later))

	value, ok, err := First(context.Background(), m, claimHook, struct{}{})

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "usb0", value)
	assert.Equal(t, 1, empty.calls, "absent results do not stop dispatch")
	assert.Equal(t, 1, winner.calls)
	assert.Zero(t, later.calls, "dispatch stops after the first present result")
}

func TestCall_NoImplementers(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Register("silent", &silentPlugin{}))

	results, err := Call(context.Background(), m, describeHook, "")
	require.NoError(t, err)
	assert.Empty(t, results)

	_, ok, err := First(context.Background(), m, claimHook, struct{}{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCall_ImplementerErrorAbortsAndUnwraps(t *testing.T) {
	m := newTestManager(t)
	boom := errors.New("boom")
	require.NoError(t, m.Register("ok", &describePlugin{name: "ok"}))
	require.NoError(t, m.Register("broken", &describePlugin{name: "broken", err: boom}))
	require.NoError(t, m.Register("never", &describePlugin{name: "never"}))

	results, err := Call(context.Background(), m, describeHook, "")

	require.Nil(t, results)
	require.ErrorIs(t, err, boom)
	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "describe", callErr.Hook)
	assert.Equal(t, "broken", callErr.Plugin)
}

func TestCall_UndeclaredHook(t *testing.T) {
	m := New(MustContract(claimHook))
	require.NoError(t, m.Register("p", &describePlugin{name: "p"}))

	_, err := Call(context.Background(), m, describeHook, "")
	require.ErrorIs(t, err, ErrUndeclaredHook)

	_, err = m.CallNamed(context.Background(), "describe", "")
	require.ErrorIs(t, err, ErrUndeclaredHook)
}

func TestCall_SameNameDifferentSpecIsUndeclared(t *testing.T) {
	m := newTestManager(t)
	impostor := Define("describe", CollectAll, func(ctx context.Context, impl namer, prefix string) (string, bool, error) {
		return "", false, nil
	})

	_, err := Call(context.Background(), m, impostor, "")
	require.ErrorIs(t, err, ErrUndeclaredHook)
}

func TestCallNamed(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Register("a", &describePlugin{name: "a"}))
	require.NoError(t, m.Register("b", &claimPlugin{value: "claimed"}))

	results, err := m.CallNamed(context.Background(), "describe", ">")
	require.NoError(t, err)
	assert.Equal(t, []any{">a"}, results)

	results, err = m.CallNamed(context.Background(), "claim", nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"claimed"}, results)

	_, err = m.CallNamed(context.Background(), "describe", 42)
	require.ErrorIs(t, err, ErrArgumentType)
}

func TestRegister(t *testing.T) {
	m := newTestManager(t)

	first := &silentPlugin{}
	require.ErrorIs(t, m.Register("nil", nil), ErrNilPlugin)
	require.NoError(t, m.Register("proxy", first))
	require.NoError(t, m.Register("", &silentPlugin{}))

	assert.Equal(t, []string{"proxy", "*hook.silentPlugin#1"}, m.Names())
	assert.Equal(t, 2, m.Len())

	impl, ok := m.Plugin("proxy")
	require.True(t, ok)
	assert.Same(t, first, impl)

	_, ok = m.Plugin("ghost")
	assert.False(t, ok)
}

func TestRegisterUnique_SameNameTwice(t *testing.T) {
	m := newTestManager(t)
	first := &describePlugin{name: "first"}
	second := &describePlugin{name: "second"}
	third := &describePlugin{name: "third"}

	name, err := m.RegisterUnique("print", first)
	require.NoError(t, err)
	assert.Equal(t, "print", name)
	name, err = m.RegisterUnique("print", second)
	require.NoError(t, err)
	assert.Equal(t, "print#1", name)
	require.NoError(t, m.Register("print", third))

	assert.Equal(t, []string{"print", "print#1", "print#2"}, m.Names())
	impl, ok := m.Plugin("print")
	require.True(t, ok)
	assert.Same(t, first, impl)

	results, err := Call(context.Background(), m, describeHook, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, results, "every instance is dispatched in registration order")
}

type registeringPlugin struct {
	m   *Manager
	err error
}

func (p *registeringPlugin) Describe(context.Context, string) (string, error) {
	p.err = p.m.Register("late", &silentPlugin{})
	return "", nil
}

func TestRegister_RejectedDuringCall(t *testing.T) {
	m := newTestManager(t)
	p := &registeringPlugin{m: m}
	require.NoError(t, m.Register("reentrant", p))

	_, err := Call(context.Background(), m, describeHook, "")
	require.NoError(t, err)

	require.ErrorIs(t, p.err, ErrRegisterDuringCall)
	assert.Equal(t, []string{"reentrant"}, m.Names())
	require.NoError(t, m.Register("after", &silentPlugin{}), "registration works again once the call returns")
}

func TestImplementers(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Register("a", &describePlugin{}))
	require.NoError(t, m.Register("b", &claimPlugin{}))
	require.NoError(t, m.Register("c", &describePlugin{}))

	assert.Equal(t, []string{"a", "c"}, Implementers(m, describeHook))
	assert.Equal(t, []string{"b"}, Implementers(m, claimHook))
}

type recordingObserver struct {
	hooks []string
	stats []CallStats
}

func (o *recordingObserver) ObserveCall(hook string, _ Mode, stats CallStats) {
	o.hooks = append(o.hooks, hook)
	o.stats = append(o.stats, stats)
}

func TestObserver(t *testing.T) {
	obs := &recordingObserver{}
	m := newTestManager(t, WithObserver(obs))
	require.NoError(t, m.Register("a", &describePlugin{name: "a"}))
	require.NoError(t, m.Register("b", &describePlugin{name: "b", err: errors.New("nope")}))

	_, err := Call(context.Background(), m, describeHook, "")
	require.Error(t, err)

	require.Equal(t, []string{"describe"}, obs.hooks)
	stats := obs.stats[0]
	assert.Equal(t, 2, stats.Implementers)
	assert.Equal(t, 1, stats.Results)
	assert.Error(t, stats.Err)
	assert.GreaterOrEqual(t, stats.Elapsed, time.Duration(0))
}

func TestCallAll_ContinuesPastErrors(t *testing.T) {
	obs := &recordingObserver{}
	m := newTestManager(t, WithObserver(obs))
	errA := errors.New("a failed")
	errC := errors.New("c failed")
	require.NoError(t, m.Register("a", &describePlugin{name: "a", err: errA}))
	require.NoError(t, m.Register("b", &describePlugin{name: "b"}))
	require.NoError(t, m.Register("c", &describePlugin{name: "c", err: errC}))

	results, err := CallAll(context.Background(), m, describeHook, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errC)
	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "a", callErr.Plugin)
	assert.Equal(t, []string{"b"}, results)

	require.Len(t, obs.stats, 1)
	assert.Equal(t, 3, obs.stats[0].Implementers)
	assert.Equal(t, 1, obs.stats[0].Results)
}
