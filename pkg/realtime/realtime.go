// Package realtime fans out round events to in-process listeners such as
// WebSocket sessions or the CLI progress printer.
//
// Delivery is best effort: every listener has its own buffered channel and an
// event is dropped for a listener whose buffer is full, so a slow consumer
// never stalls the coordinator. There is no replay; a listener that connects
// mid-round should fetch the round state once and then follow the stream.
package realtime

import (
	"sync"
	"time"
)

// Event types.
const (
	EventRoundStarted    = "round_started"
	EventRegionDone      = "region_done"
	EventRoundComplete   = "round_complete"
	EventRoundSuperseded = "round_superseded"
)

// RoundEvent describes a change in a search round.
//
// RegionID, Outcome and Error are set for region_done events only; Results is
// set for round_complete events.
type RoundEvent struct {
	Type       string    `json:"type"`
	Generation uint64    `json:"generation"`
	Phrase     string    `json:"phrase"`
	RegionID   string    `json:"region,omitempty"`
	Outcome    string    `json:"outcome,omitempty"`
	Error      string    `json:"error,omitempty"`
	Completed  int       `json:"completed"`
	Total      int       `json:"total"`
	Progress   float64   `json:"progress"`
	Results    []string  `json:"results,omitempty"`
	Time       time.Time `json:"time"`
}

// Hub is an in-memory fan-out dispatcher. It is safe for concurrent use.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint64]chan RoundEvent
	nextID    uint64
	bufSize   int
}

// NewHub constructs a hub with the given per-listener buffer size.
// If bufSize <= 0, a default of 64 is used.
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 64
	}
	return &Hub{
		listeners: make(map[uint64]chan RoundEvent),
		bufSize:   bufSize,
	}
}

// Register adds a listener. Callers must Unregister(id) when done.
func (h *Hub) Register() (uint64, <-chan RoundEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan RoundEvent, h.bufSize)
	h.listeners[id] = ch
	return id, ch
}

// Unregister removes the listener and closes its channel. Unknown ids are
// ignored.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// Broadcast delivers ev to every listener whose buffer has room.
func (h *Hub) Broadcast(ev RoundEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- ev:
		default:
			// slow listener
		}
	}
}

// Size returns the number of registered listeners.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

// Close unregisters every listener.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.listeners {
		delete(h.listeners, id)
		close(ch)
	}
}
