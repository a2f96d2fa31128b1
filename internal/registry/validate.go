package registry

// Resolver reports whether a module provides a type. loader.Catalog
// satisfies it.
type Resolver interface {
	Has(moduleRef, typeName string) bool
}

// Availability describes whether a descriptor can currently be loaded.
type Availability struct {
	Descriptor
	Available bool
}

// CheckAvailability resolves every descriptor against r, in registry order.
func (reg *Registry) CheckAvailability(r Resolver) []Availability {
	out := make([]Availability, 0, reg.Len())
	for _, d := range reg.Descriptors() {
		out = append(out, Availability{Descriptor: d, Available: r.Has(d.ModuleRef, d.TypeName)})
	}
	return out
}

// MissingRequired returns the names of non-optional plugins whose code
// cannot be resolved. Activating any of them would abort startup.
func (reg *Registry) MissingRequired(r Resolver) []string {
	var missing []string
	for _, a := range reg.CheckAvailability(r) {
		if !a.Available && !a.Optional {
			missing = append(missing, a.Name)
		}
	}
	return missing
}
