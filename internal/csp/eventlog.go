package csp

import "fmt"

// EventLog is an append-only sequence of human-readable progress records
// (SPEC_FULL.md §4.7). It buffers every message in memory and, if an
// EventSink was configured, forwards each one as it's appended so an outer
// caller (the realtime hub, a progress bar) can observe the run live.
type EventLog struct {
	entries []string
	sink    func(string)
}

// NewEventLog creates an EventLog. sink may be nil.
func NewEventLog(sink func(string)) *EventLog {
	return &EventLog{sink: sink}
}

// Logf appends a formatted message and forwards it to the sink, if any.
func (l *EventLog) Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.entries = append(l.entries, msg)
	if l.sink != nil {
		l.sink(msg)
	}
}

// Entries returns the messages appended so far, in append order.
func (l *EventLog) Entries() []string {
	return l.entries
}
