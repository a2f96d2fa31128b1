package activation

import "fmt"

// State is the terminal state of one activation entry.
type State int

const (
	// StateRegistered means the plugin was constructed and registered.
	StateRegistered State = iota
	// StateSkipped means the plugin was in the disabled set.
	StateSkipped
	// StateUnavailable means an optional plugin could not be resolved.
	StateUnavailable
	// StateFailed means the entry aborted activation.
	StateFailed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateSkipped:
		return "skipped"
	case StateUnavailable:
		return "unavailable"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome is the result of processing one entry. Instance is the name the
// plugin is registered under in the manager; it differs from Name when the
// same plugin is requested more than once.
type Outcome struct {
	Name     string
	Instance string
	State    State
	Err      error
}

// Report lists the outcome of every processed entry in processing order.
// Entries after a fatal failure are not processed and do not appear.
type Report struct {
	Outcomes []Outcome
}

func (r *Report) add(name string, state State, err error) {
	r.Outcomes = append(r.Outcomes, Outcome{Name: name, State: state, Err: err})
}

func (r *Report) registered(name, instance string) {
	r.Outcomes = append(r.Outcomes, Outcome{Name: name, Instance: instance, State: StateRegistered})
}

// Names returns the names of the outcomes in the given state.
func (r *Report) Names(state State) []string {
	var names []string
	for _, o := range r.Outcomes {
		if o.State == state {
			names = append(names, o.Name)
		}
	}
	return names
}

// Count returns the number of outcomes in the given state.
func (r *Report) Count(state State) int {
	return len(r.Names(state))
}
