// Package telemetry provides a fire-and-forget error sink. Operations report
// failures here before returning them to the caller; reporting never blocks
// the request path and a full buffer drops the event rather than stalling.
package telemetry

import (
	"log"
	"sync"
)

// Reporter receives error events from the engine's operations
type Reporter interface {
	ReportError(op string, err error, fields map[string]any)
}

// LogReporter writes error events to the process log through a bounded
// buffer drained by a background goroutine.
type LogReporter struct {
	events chan event
	done   chan struct{}
	once   sync.Once
}

type event struct {
	op     string
	err    error
	fields map[string]any
}

// NewLogReporter creates a reporter with the given buffer capacity
func NewLogReporter(capacity int) *LogReporter {
	if capacity <= 0 {
		capacity = 256
	}
	return &LogReporter{
		events: make(chan event, capacity),
		done:   make(chan struct{}),
	}
}

// Start launches the drain goroutine
func (r *LogReporter) Start() {
	go func() {
		defer close(r.done)
		for evt := range r.events {
			if len(evt.fields) > 0 {
				log.Printf("[ERROR] op=%s err=%v fields=%v", evt.op, evt.err, evt.fields)
			} else {
				log.Printf("[ERROR] op=%s err=%v", evt.op, evt.err)
			}
		}
	}()
}

// ReportError enqueues an error event. Drops the event when the buffer is
// full so a slow sink cannot back-pressure request handling.
func (r *LogReporter) ReportError(op string, err error, fields map[string]any) {
	if err == nil {
		return
	}
	select {
	case r.events <- event{op: op, err: err, fields: fields}:
	default:
	}
}

// Close stops accepting events and waits for the drain goroutine to finish
func (r *LogReporter) Close() {
	r.once.Do(func() {
		close(r.events)
	})
	<-r.done
}
