package registry

import "slices"

// Reserved optional extension point, always attempted last during activation.
const (
	UserHooksName   = "usbq_hooks"
	UserHooksModule = "./usbq_hooks"
	UserHooksType   = "USBQHooks"
)

// Descriptor describes one installable plugin.
type Descriptor struct {
	Name        string
	Description string
	ModuleRef   string
	TypeName    string
	// Optional plugins may be missing at activation time.
	Optional bool
}

// UserHooksDescriptor returns the descriptor injected for the reserved
// user-supplied hooks module.
func UserHooksDescriptor() Descriptor {
	return Descriptor{
		Name:        UserHooksName,
		Description: "Optional user-provided hook implementations automatically loaded from " + UserHooksModule,
		ModuleRef:   UserHooksModule,
		TypeName:    UserHooksType,
		Optional:    true,
	}
}

// Registry is the canonical mapping from plugin name to descriptor. It is
// built once by Build and never mutated afterwards.
type Registry struct {
	byName map[string]Descriptor
	order  []string
}

func newRegistry() *Registry {
	return &Registry{byName: make(map[string]Descriptor)}
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Has reports whether name is a known plugin.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Names returns plugin names in merge order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// Descriptors returns all descriptors in merge order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	return len(r.order)
}

// put adds or replaces a descriptor; a replaced name moves to the end.
func (r *Registry) put(d Descriptor) {
	if _, exists := r.byName[d.Name]; exists {
		r.order = slices.DeleteFunc(r.order, func(n string) bool { return n == d.Name })
	}
	r.byName[d.Name] = d
	r.order = append(r.order, d.Name)
}
