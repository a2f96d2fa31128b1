package hook

import (
	"context"
	"fmt"
)

// Mode selects how results of a hook call are aggregated.
type Mode int

const (
	// CollectAll invokes every implementer and returns all present results.
	CollectAll Mode = iota
	// FirstResult stops at the first implementer returning a present result.
	FirstResult
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case CollectAll:
		return "collect_all"
	case FirstResult:
		return "first_result"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Declared is the type-erased view of a hook declaration used by the
// Contract and the Manager.
type Declared interface {
	Name() string
	Mode() Mode
	// Implemented reports whether plugin satisfies the hook's capability interface.
	Implemented(plugin any) bool

	invoke(ctx context.Context, plugin any, args any) (any, bool, error)
}

// Spec is a typed hook declaration taking arguments of type A and producing
// results of type R.
type Spec[A, R any] struct {
	name        string
	mode        Mode
	implemented func(plugin any) bool
	call        func(ctx context.Context, plugin any, args A) (R, bool, error)
}

// Define declares a hook named name. Plugins implement it by satisfying the
// interface I; fn adapts a call on I into a result, where a false ok marks
// the result as absent.
func Define[I, A, R any](name string, mode Mode, fn func(ctx context.Context, impl I, args A) (R, bool, error)) *Spec[A, R] {
	if name == "" {
		panic("hook: name must not be empty")
	}
	if fn == nil {
		panic(fmt.Sprintf("hook %q: call function must not be nil", name))
	}
	return &Spec[A, R]{
		name: name,
		mode: mode,
		implemented: func(plugin any) bool {
			_, ok := plugin.(I)
			return ok
		},
		call: func(ctx context.Context, plugin any, args A) (R, bool, error) {
			return fn(ctx, plugin.(I), args)
		},
	}
}

// Name returns the hook name.
func (s *Spec[A, R]) Name() string { return s.name }

// Mode returns the aggregation mode.
func (s *Spec[A, R]) Mode() Mode { return s.mode }

// Implemented reports whether plugin satisfies the hook's capability interface.
func (s *Spec[A, R]) Implemented(plugin any) bool {
	return plugin != nil && s.implemented(plugin)
}

func (s *Spec[A, R]) invoke(ctx context.Context, plugin any, args any) (any, bool, error) {
	var typed A
	if args != nil {
		v, ok := args.(A)
		if !ok {
			return nil, false, fmt.Errorf("%w: hook %q expects %T, got %T", ErrArgumentType, s.name, typed, args)
		}
		typed = v
	}
	return s.call(ctx, plugin, typed)
}
