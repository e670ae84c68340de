// Package eventstream broadcasts live run progress - path terminations,
// forks, hook dispatches - to subscribed dashboards while a run is in
// flight. It is purely observational: the executor never blocks on a
// slow subscriber, so a broadcast that cannot be enqueued immediately is
// dropped rather than awaited.
package eventstream

import (
	"net/http"
	"sync"
	"time"

	"github.com/archsymex/symex/pkg/sse"
	"github.com/archsymex/symex/pkg/websocket"
)

// EventKind names the three run-progress events a Stream can carry.
// Nothing in the engine publishes EventHookDispatched.
type EventKind string

const (
	EventPathTerminated EventKind = "path_terminated"
	EventForked         EventKind = "forked"
	EventHookDispatched  EventKind = "hook_dispatched"
)

// Event is one broadcastable run-progress notification.
type Event struct {
	Kind      EventKind `json:"kind"`
	RunID     string    `json:"run_id"`
	PathID    string    `json:"path_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Stream fans Events out to WebSocket subscribers (via an internal Hub)
// and, per request, to long-lived SSE connections.
type Stream struct {
	hub     *websocket.Hub
	pending chan Event

	sseMu    sync.Mutex
	sseConns map[chan Event]struct{}
}

// New starts a Stream's internal hub goroutine. Call Close when the run
// finishes to release it.
func New() *Stream {
	s := &Stream{
		hub:      websocket.NewHub(),
		pending:  make(chan Event, 256),
		sseConns: make(map[chan Event]struct{}),
	}
	go s.hub.Run()
	go s.pump()
	return s
}

func (s *Stream) pump() {
	for ev := range s.pending {
		_ = s.hub.BroadcastJSON(ev)

		s.sseMu.Lock()
		for ch := range s.sseConns {
			select {
			case ch <- ev:
			default:
			}
		}
		s.sseMu.Unlock()
	}
}

// Publish enqueues ev for broadcast. If the internal queue is full
// (meaning consumers are not keeping up), ev is dropped rather than
// blocking the caller - this is always called from the executor's own
// goroutine, which must never stall on a dashboard's network I/O.
func (s *Stream) Publish(ev Event) {
	select {
	case s.pending <- ev:
	default:
	}
}

// ServeWebSocket upgrades r to a WebSocket connection subscribed to this
// stream's events.
func (s *Stream) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.HandleWebSocket(w, r)
}

// ServeSSE streams events to r as Server-Sent Events until the request
// context is cancelled (the client disconnects).
func (s *Stream) ServeSSE(w http.ResponseWriter, r *http.Request) {
	writer, err := sse.NewWriter(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ch := make(chan Event, 32)
	s.sseMu.Lock()
	s.sseConns[ch] = struct{}{}
	s.sseMu.Unlock()
	defer func() {
		s.sseMu.Lock()
		delete(s.sseConns, ch)
		s.sseMu.Unlock()
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			_ = writer.Send(sse.Event{Type: string(ev.Kind), Data: ev})
		}
	}
}

// Close shuts down the hub and stops the broadcast pump.
func (s *Stream) Close() {
	s.hub.Shutdown()
	close(s.pending)
}
