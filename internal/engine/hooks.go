package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/usbq/internal/hook"
)

// Event is one unit of traffic produced by an event source.
type Event struct {
	Source  string
	Seq     uint64
	Time    time.Time
	Payload []byte
}

// Record is a decoded event handed to the log_event implementers.
type Record struct {
	Event   *Event
	Summary string
}

// Ticker is called once at the start of every loop step.
type Ticker interface {
	Tick(ctx context.Context) error
}

// EventSource waits up to timeout for the next event. A nil event means
// nothing arrived.
type EventSource interface {
	WaitForEvent(ctx context.Context, timeout time.Duration) (*Event, error)
}

// Decoder describes an event. ok is false when the decoder does not
// recognize it.
type Decoder interface {
	DecodeEvent(ctx context.Context, ev *Event) (summary string, ok bool, err error)
}

// EventLogger receives every decoded event.
type EventLogger interface {
	LogEvent(ctx context.Context, rec Record) error
}

// Teardowner releases resources when the loop stops.
type Teardowner interface {
	Teardown(ctx context.Context) error
}

var (
	TickHook = hook.Define("tick", hook.CollectAll,
		func(ctx context.Context, t Ticker, _ struct{}) (struct{}, bool, error) {
			return struct{}{}, true, t.Tick(ctx)
		})

	WaitForEventHook = hook.Define("wait_for_event", hook.FirstResult,
		func(ctx context.Context, s EventSource, timeout time.Duration) (*Event, bool, error) {
			ev, err := s.WaitForEvent(ctx, timeout)
			return ev, ev != nil, err
		})

	DecodeEventHook = hook.Define("decode_event", hook.FirstResult,
		func(ctx context.Context, d Decoder, ev *Event) (string, bool, error) {
			return d.DecodeEvent(ctx, ev)
		})

	LogEventHook = hook.Define("log_event", hook.CollectAll,
		func(ctx context.Context, l EventLogger, rec Record) (struct{}, bool, error) {
			return struct{}{}, true, l.LogEvent(ctx, rec)
		})

	TeardownHook = hook.Define("teardown", hook.CollectAll,
		func(ctx context.Context, t Teardowner, _ struct{}) (struct{}, bool, error) {
			return struct{}{}, true, t.Teardown(ctx)
		})
)

// Hooks returns the runtime hooks in declaration order.
func Hooks() []hook.Declared {
	return []hook.Declared{TickHook, WaitForEventHook, DecodeEventHook, LogEventHook, TeardownHook}
}

// Summarize is the fallback description of an event no decoder recognized.
func Summarize(ev *Event) string {
	return fmt.Sprintf("%d bytes", len(ev.Payload))
}
