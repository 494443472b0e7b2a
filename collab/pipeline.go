package collab

import (
	"hash/fnv"
	"runtime/debug"
	"sync"

	"github.com/picshed/picshed/internal/slogging"
)

// EventKind distinguishes client frames from lifecycle events raised by the
// server itself.
type EventKind int

const (
	// EventMessage is a frame received from the client
	EventMessage EventKind = iota
	// EventDisconnect is raised once when a session's transport goes away
	EventDisconnect
)

// EditEvent is one unit of work for the ingestion pipeline. Immutable once
// submitted.
type EditEvent struct {
	Kind    EventKind
	Msg     RequestMessage
	Session *Session
}

// Pipeline decouples the goroutine that reads a frame from the goroutines
// that run handlers and fan out the result. It is a fixed set of lanes, each
// a bounded FIFO drained by one worker. Events are assigned to lanes by
// session id, so events from one session are always processed in submission
// order while sessions on different lanes proceed independently.
//
// Overflow policy is reject-newest: Submit never blocks a read pump, the
// offending event is dropped, counted and logged. SubmitWait exists for
// lifecycle events that must not be lost.
type Pipeline struct {
	lanes   []chan *EditEvent
	handle  func(*EditEvent)
	metrics *Metrics

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewPipeline starts workers lanes with the given per-lane capacity. Events
// are dispatched to handle on worker goroutines.
func NewPipeline(workers, capacity int, handle func(*EditEvent), metrics *Metrics) *Pipeline {
	p := &Pipeline{
		lanes:   make([]chan *EditEvent, workers),
		handle:  handle,
		metrics: metrics,
	}
	for i := range p.lanes {
		p.lanes[i] = make(chan *EditEvent, capacity)
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

func (p *Pipeline) worker(lane int) {
	defer p.wg.Done()
	for event := range p.lanes[lane] {
		p.dispatch(event)
	}
}

// dispatch runs one handler invocation, containing panics so a bad event can
// never stall the lane.
func (p *Pipeline) dispatch(event *EditEvent) {
	defer func() {
		if r := recover(); r != nil {
			p.metrics.HandlerPanics.Inc()
			slogging.Get().Error("PANIC in event handler - session: %s, picture: %d, error: %v, stack: %s",
				event.Session.ID, event.Session.PictureID, r, debug.Stack())
		}
	}()
	p.handle(event)
}

// laneFor hashes a session id onto a lane. All events of one session share a
// lane; that is what preserves per-session FIFO order.
func (p *Pipeline) laneFor(sessionID string) chan *EditEvent {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return p.lanes[int(h.Sum32())%len(p.lanes)]
}

// Submit enqueues an event without blocking. When the session's lane is full
// the event is dropped, the drop counter increments and a warning is logged.
// Returns whether the event was accepted.
func (p *Pipeline) Submit(event *EditEvent) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}

	select {
	case p.laneFor(event.Session.ID) <- event:
		p.metrics.EventsEnqueued.Inc()
		return true
	default:
		p.metrics.EventsDropped.Inc()
		slogging.Get().Warn("Ingestion lane full, dropping %q event - session: %s, picture: %d",
			event.Msg.Type, event.Session.ID, event.Session.PictureID)
		return false
	}
}

// SubmitWait enqueues an event, blocking until lane space frees up. Used for
// disconnect events, which must never be dropped: a lost disconnect would
// leak the session's registry entry and possibly its edit lock.
func (p *Pipeline) SubmitWait(event *EditEvent) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}

	p.laneFor(event.Session.ID) <- event
	p.metrics.EventsEnqueued.Inc()
	return true
}

// Close stops accepting events, drains the lanes and waits for the workers
func (p *Pipeline) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for _, lane := range p.lanes {
		close(lane)
	}
	p.mu.Unlock()

	p.wg.Wait()
}
