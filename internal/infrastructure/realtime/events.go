package realtime

import (
	"time"

	"github.com/calldeck-team/calldeck/internal/adapter/dto/call"
)

// Event is the common envelope for every message pushed to subscribers
type Event struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
}

func newEvent(name string) Event {
	return Event{Event: name, Timestamp: time.Now().UTC()}
}

// ConnectedEvent greets a subscriber when its socket is established
type ConnectedEvent struct {
	Event
	Connected bool `json:"connected"`
}

// NewCallEvent carries one finalized call record. Subscribers that connect
// after it was published never receive it; there is no replay.
type NewCallEvent struct {
	Event
	Call call.Response `json:"call"`
}
