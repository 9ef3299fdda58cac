package player

import (
	"sort"
	"sync"

	"github.com/ncestudy/nce/internal/lrc"
)

// EventKind names a player event for subscription.
type EventKind string

const (
	EventSegmentChanged EventKind = "segmentchange"
	EventPlaying        EventKind = "play"
	EventPaused         EventKind = "pause"
	EventRateChanged    EventKind = "ratechange"
	EventError          EventKind = "error"
	EventLessonEnded    EventKind = "lessonend"
	EventSegmentCleared EventKind = "statecleared"
	EventPlayerReset    EventKind = "playerreset"
	EventEnded          EventKind = "ended"
)

// Event is implemented only by the event types of this package, so a type
// switch over them is exhaustive.
type Event interface {
	Kind() EventKind
	isEvent()
}

type SegmentChanged struct {
	Index   int
	Segment lrc.Segment
	// true when the change came from a user action rather than playback
	Manual bool
}

type Playing struct {
	Index   int
	Segment lrc.Segment
}

type Paused struct {
	Index int
}

type RateChanged struct {
	Rate float64
}

type Error struct {
	Err     error
	Message string
}

type LessonEnded struct{}

// current-segment state was dropped, e.g. on a policy change at the end of
// the media or on Reset
type SegmentCleared struct{}

// the player recovered by pausing and rewinding the media
type PlayerReset struct{}

// the media itself reached its end
type Ended struct{}

func (SegmentChanged) Kind() EventKind { return EventSegmentChanged }
func (Playing) Kind() EventKind        { return EventPlaying }
func (Paused) Kind() EventKind         { return EventPaused }
func (RateChanged) Kind() EventKind    { return EventRateChanged }
func (Error) Kind() EventKind          { return EventError }
func (LessonEnded) Kind() EventKind    { return EventLessonEnded }
func (SegmentCleared) Kind() EventKind { return EventSegmentCleared }
func (PlayerReset) Kind() EventKind    { return EventPlayerReset }
func (Ended) Kind() EventKind          { return EventEnded }

func (SegmentChanged) isEvent() {}
func (Playing) isEvent()        {}
func (Paused) isEvent()         {}
func (RateChanged) isEvent()    {}
func (Error) isEvent()          {}
func (LessonEnded) isEvent()    {}
func (SegmentCleared) isEvent() {}
func (PlayerReset) isEvent()    {}
func (Ended) isEvent()          {}

type Listener func(Event)

// wildcard key for OnAny
const anyKind EventKind = "*"

// emitter is a registry of event kind to listeners.
type emitter struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[EventKind]map[uint64]Listener
}

func newEmitter() *emitter {
	return &emitter{listeners: make(map[EventKind]map[uint64]Listener)}
}

func (e *emitter) on(kind EventKind, fn Listener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	if e.listeners[kind] == nil {
		e.listeners[kind] = make(map[uint64]Listener)
	}
	e.listeners[kind][id] = fn

	return func() { e.off(kind, id) }
}

func (e *emitter) off(kind EventKind, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.listeners[kind], id)
}

// emit calls listeners in subscription order, outside the registry lock so
// they may subscribe or unsubscribe while handling.
func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	var fns []listenerEntry
	for _, kind := range []EventKind{ev.Kind(), anyKind} {
		for id, fn := range e.listeners[kind] {
			fns = append(fns, listenerEntry{id: id, fn: fn})
		}
	}
	e.mu.Unlock()

	sort.Slice(fns, func(i, j int) bool { return fns[i].id < fns[j].id })
	for _, l := range fns {
		l.fn(ev)
	}
}

func (e *emitter) clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = make(map[EventKind]map[uint64]Listener)
}

type listenerEntry struct {
	id uint64
	fn Listener
}
