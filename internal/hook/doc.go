// Package hook implements the hook contract and the dispatcher that
// broadcasts hook calls to live plugin instances.
//
// A hook is declared once with Define, naming the capability interface a
// plugin must satisfy to take part in it. Plugins are registered with a
// Manager in a fixed order, and every call visits the implementers in that
// order. Plugins that do not satisfy a hook's interface are skipped, so a
// plugin only implements the hooks it cares about.
//
// Two dispatch modes exist. CollectAll returns the result of every
// implementer that produced one. FirstResult stops at the first implementer
// that produced a result, which suits hooks backed by an exclusive resource.
//
// The Manager is built for a single driving goroutine: hook calls must not
// run concurrently with each other, and registering a plugin from inside a
// hook call is rejected.
package hook
