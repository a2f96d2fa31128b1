package testutil

import (
	"context"
	"sync"

	"github.com/vk/usbq/internal/engine"
	"github.com/vk/usbq/internal/loader"
	"github.com/vk/usbq/internal/options"
)

// CallLog is a shared, ordered record of plugin calls across instances.
type CallLog struct {
	mu    sync.Mutex
	calls []string
}

// Add appends one call.
func (l *CallLog) Add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

// Calls returns a copy of the recorded calls.
func (l *CallLog) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// Recorder is a plugin that logs its construction, every logged event and
// its teardown to a CallLog.
type Recorder struct {
	Name    string
	Options options.Options
	log     *CallLog
}

// RecorderFactory returns a factory building Recorders named name.
func RecorderFactory(name string, log *CallLog) loader.Factory {
	return func(_ context.Context, opts options.Options) (any, error) {
		log.Add(name + ".new")
		return &Recorder{Name: name, Options: opts, log: log}, nil
	}
}

// LogEvent implements engine.EventLogger.
func (r *Recorder) LogEvent(_ context.Context, rec engine.Record) error {
	r.log.Add(r.Name + ".log:" + rec.Summary)
	return nil
}

// Teardown implements engine.Teardowner.
func (r *Recorder) Teardown(context.Context) error {
	r.log.Add(r.Name + ".teardown")
	return nil
}
