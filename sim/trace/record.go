// Package trace provides a bounded lifecycle event log for a simulation run.
// It has no dependencies on sim/ or sim/cluster/ and stores pure data types.
package trace

import (
	"fmt"
	"time"
)

// EventKind names a step in a request's lifecycle.
type EventKind string

const (
	EventCreated   EventKind = "created"   // generator emitted the request
	EventRejected  EventKind = "rejected"  // a queue was full
	EventAssigned  EventKind = "assigned"  // dispatcher enqueued on a server
	EventStarted   EventKind = "started"   // server began service
	EventProcessed EventKind = "processed" // server finished service
)

// NoServer marks events that are not tied to a server.
const NoServer = -1

// Event captures one lifecycle step.
type Event struct {
	Kind         EventKind
	RequestID    uint64
	Server       int           // server index, or NoServer
	Stage        string        // rejection stage ("pending", "server"); empty otherwise
	Clock        time.Time     // simulated time of the event
	ResponseTime time.Duration // set on EventProcessed
}

func (e Event) String() string {
	ts := e.Clock.Format("15:04:05.000")
	switch e.Kind {
	case EventCreated:
		return fmt.Sprintf("[%s] Request #%d created", ts, e.RequestID)
	case EventRejected:
		if e.Server != NoServer {
			return fmt.Sprintf("[%s] Request #%d rejected by Server %d (queue full)", ts, e.RequestID, e.Server+1)
		}
		return fmt.Sprintf("[%s] Request #%d rejected (%s queue full)", ts, e.RequestID, e.Stage)
	case EventAssigned:
		return fmt.Sprintf("[%s] Request #%d assigned to Server %d", ts, e.RequestID, e.Server+1)
	case EventStarted:
		return fmt.Sprintf("[%s] Server %d started processing Request #%d", ts, e.Server+1, e.RequestID)
	case EventProcessed:
		return fmt.Sprintf("[%s] Server %d processed Request #%d in %v", ts, e.Server+1, e.RequestID, e.ResponseTime)
	}
	return fmt.Sprintf("[%s] Request #%d %s", ts, e.RequestID, e.Kind)
}
