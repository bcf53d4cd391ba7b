package server

import (
	"sync"

	"github.com/heartnote/heartnote/pkg/pipeline"
)

// ActivityBuffer stores a ring buffer of recent pipeline outcomes.
// Outcomes carry no user text, so the feed is safe to expose.
type ActivityBuffer struct {
	mu     sync.RWMutex
	events []pipeline.Outcome
	size   int
}

// NewActivityBuffer creates a new ring buffer for activity.
func NewActivityBuffer(size int) *ActivityBuffer {
	if size < 1 {
		size = 1
	}
	return &ActivityBuffer{
		events: make([]pipeline.Outcome, 0, size),
		size:   size,
	}
}

// Add adds an event to the buffer. It has the pipeline.Observer signature.
func (ab *ActivityBuffer) Add(event pipeline.Outcome) {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	if len(ab.events) >= ab.size {
		ab.events = ab.events[1:]
	}
	ab.events = append(ab.events, event)
}

// GetEvents returns a copy of the recorded events, oldest first.
func (ab *ActivityBuffer) GetEvents() []pipeline.Outcome {
	ab.mu.RLock()
	defer ab.mu.RUnlock()

	res := make([]pipeline.Outcome, len(ab.events))
	copy(res, ab.events)
	return res
}
