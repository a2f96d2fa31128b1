// Package engine drives the registered plugins. It declares the runtime hooks
// (tick, wait_for_event, decode_event, log_event, teardown) and the Loop that
// calls them in sequence.
package engine
