package main

import (
	"time"

	"github.com/archsymex/symex/pkg/eventstream"
	"github.com/archsymex/symex/pkg/executor"
)

// eventObserver adapts a *eventstream.Stream to executor.Observer so
// fork/termination notifications reach subscribed dashboards as they
// happen, not after Run returns.
type eventObserver struct {
	stream *eventstream.Stream
	runID  string
}

func (o *eventObserver) Forked() {
	o.stream.Publish(eventstream.Event{Kind: eventstream.EventForked, RunID: o.runID, Timestamp: time.Now()})
}

func (o *eventObserver) PathTerminated(status string, steps int) {
	o.stream.Publish(eventstream.Event{
		Kind:      eventstream.EventPathTerminated,
		RunID:     o.runID,
		Detail:    status,
		Timestamp: time.Now(),
	})
}

// multiObserver fans a single executor.Observer call out to every
// configured collaborator (metrics, event stream) so Explore only ever
// hands the executor one Observer regardless of how many are active.
type multiObserver struct {
	observers []executor.Observer
}

func (m *multiObserver) Forked() {
	for _, o := range m.observers {
		o.Forked()
	}
}

func (m *multiObserver) PathTerminated(status string, steps int) {
	for _, o := range m.observers {
		o.PathTerminated(status, steps)
	}
}
