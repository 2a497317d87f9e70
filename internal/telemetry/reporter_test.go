package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReportErrorNeverBlocksWhenFull(t *testing.T) {
	// not started, so nothing drains the buffer
	r := NewLogReporter(1)

	err := errors.New("boom")
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			r.ReportError("op", err, nil)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ReportError blocked on a full buffer")
	}
}

func TestReporterIgnoresNilErrors(t *testing.T) {
	r := NewLogReporter(1)
	r.Start()

	r.ReportError("op", nil, nil)
	r.Close()

	assert.Empty(t, r.events)
}

func TestReporterCloseDrains(t *testing.T) {
	r := NewLogReporter(16)
	r.Start()

	for i := 0; i < 5; i++ {
		r.ReportError("op", errors.New("boom"), map[string]any{"attempt": i})
	}

	done := make(chan struct{})
	go func() {
		r.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after draining")
	}
}
