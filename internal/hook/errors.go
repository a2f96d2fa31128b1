package hook

import (
	"errors"
	"fmt"
)

var (
	// ErrUndeclaredHook is returned when calling a hook missing from the contract.
	ErrUndeclaredHook = errors.New("hook is not declared in the contract")
	// ErrDuplicateHook is returned when two declarations share a name.
	ErrDuplicateHook = errors.New("hook already declared")
	// ErrNilPlugin is returned when registering a nil instance.
	ErrNilPlugin = errors.New("cannot register a nil plugin")
	// ErrRegisterDuringCall is returned when a hook implementation tries to
	// register a plugin while a hook call is in progress.
	ErrRegisterDuringCall = errors.New("cannot register a plugin during a hook call")
	// ErrArgumentType is returned by CallNamed when args do not match the hook.
	ErrArgumentType = errors.New("hook argument type mismatch")
)

// CallError reports a failure raised by one implementer during a hook call.
type CallError struct {
	Hook   string
	Plugin string
	Err    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("hook %q failed in plugin %q: %v", e.Hook, e.Plugin, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }
