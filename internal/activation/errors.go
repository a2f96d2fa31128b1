package activation

import (
	"errors"
	"fmt"

	"github.com/vk/usbq/internal/registry"
)

var (
	// ErrUnknownPlugin matches *UnknownPluginError.
	ErrUnknownPlugin = errors.New("unknown plugin")
	// ErrMissingRequiredPlugin matches *MissingRequiredPluginError.
	ErrMissingRequiredPlugin = errors.New("missing required plugin")
	// ErrOptionalPluginUnavailable matches *OptionalPluginUnavailableError.
	ErrOptionalPluginUnavailable = errors.New("optional plugin unavailable")
)

// UnknownPluginError reports a requested name absent from the registry.
type UnknownPluginError struct {
	Name string
}

func (e *UnknownPluginError) Error() string {
	return fmt.Sprintf("%s is not a valid plugin", e.Name)
}

func (e *UnknownPluginError) Is(target error) bool { return target == ErrUnknownPlugin }

// MissingRequiredPluginError reports a non-optional plugin whose module or
// type could not be resolved.
type MissingRequiredPluginError struct {
	Descriptor registry.Descriptor
	Err        error
}

func (e *MissingRequiredPluginError) Error() string {
	return fmt.Sprintf("required plugin %q could not be loaded from %s:%s: %v",
		e.Descriptor.Name, e.Descriptor.ModuleRef, e.Descriptor.TypeName, e.Err)
}

func (e *MissingRequiredPluginError) Unwrap() error { return e.Err }

func (e *MissingRequiredPluginError) Is(target error) bool { return target == ErrMissingRequiredPlugin }

// OptionalPluginUnavailableError records an optional plugin that could not
// be resolved. It never aborts activation; it only appears in the Report.
type OptionalPluginUnavailableError struct {
	Descriptor registry.Descriptor
	Err        error
}

func (e *OptionalPluginUnavailableError) Error() string {
	return fmt.Sprintf("optional plugin %q unavailable: %v", e.Descriptor.Name, e.Err)
}

func (e *OptionalPluginUnavailableError) Unwrap() error { return e.Err }

func (e *OptionalPluginUnavailableError) Is(target error) bool {
	return target == ErrOptionalPluginUnavailable
}
