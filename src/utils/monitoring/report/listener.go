package report

import "go.uber.org/atomic"

type ListenerState struct {
	EventsForwarded atomic.Int64 `json:"events_forwarded"`
}

type ListenerReport struct {
	State ListenerState `json:"state"`
}
