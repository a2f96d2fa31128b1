package hook

import "fmt"

// Contract is the set of hooks a Manager may dispatch, keyed by name.
type Contract struct {
	hooks map[string]Declared
	order []string
}

// NewContract builds a contract from the given declarations.
func NewContract(hooks ...Declared) (*Contract, error) {
	c := &Contract{hooks: make(map[string]Declared, len(hooks))}
	for _, h := range hooks {
		if err := c.Add(h); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustContract is like NewContract but panics on error. It is meant for
// package-level contracts assembled from static declarations.
func MustContract(hooks ...Declared) *Contract {
	c, err := NewContract(hooks...)
	if err != nil {
		panic(err)
	}
	return c
}

// Add declares a hook. Hook names are unique within a contract.
func (c *Contract) Add(h Declared) error {
	if h == nil {
		return fmt.Errorf("hook: cannot declare a nil hook")
	}
	if _, exists := c.hooks[h.Name()]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateHook, h.Name())
	}
	c.hooks[h.Name()] = h
	c.order = append(c.order, h.Name())
	return nil
}

// Lookup returns the hook declared under name.
func (c *Contract) Lookup(name string) (Declared, bool) {
	h, ok := c.hooks[name]
	return h, ok
}

// Hooks returns the declarations in the order they were added.
func (c *Contract) Hooks() []Declared {
	out := make([]Declared, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.hooks[name])
	}
	return out
}
