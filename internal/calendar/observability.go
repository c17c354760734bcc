package calendar

import (
	"fmt"
	"io"
	"time"
)

// CallEvent records metadata about a single hosted calendar request.
type CallEvent struct {
	Operation string
	Status    int
	LatencyMs int64
	Success   bool
}

// Observer receives events about calendar API calls.
type Observer interface {
	OnCallComplete(event CallEvent)
}

// LogObserver writes call events to an io.Writer.
type LogObserver struct {
	w io.Writer
}

// NewLogObserver creates an Observer that logs events to w.
func NewLogObserver(w io.Writer) *LogObserver {
	return &LogObserver{w: w}
}

func (o *LogObserver) OnCallComplete(event CallEvent) {
	ts := time.Now().UTC().Format(time.RFC3339)
	status := "ok"
	if !event.Success {
		status = fmt.Sprintf("err:%d", event.Status)
	}
	fmt.Fprintf(o.w, "[%s] calendar_call op=%s latency_ms=%d status=%s\n",
		ts, event.Operation, event.LatencyMs, status)
}

// NoopObserver discards all events.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(CallEvent) {}
