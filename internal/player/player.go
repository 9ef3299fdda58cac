package player

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/ncestudy/nce/internal/logging"
	"github.com/ncestudy/nce/internal/lrc"
)

// NoSegment is the current index when no segment is selected.
const NoSegment = -1

const defaultTerminalThreshold = time.Second

// Player binds a lesson's segments to a media handle. It keeps the current
// segment in step with the playback position and applies the single-sentence
// and loop policies.
//
// All state changes happen in turns under one mutex. Events raised during a
// turn are delivered after the turn ends, so listeners may call back into the
// player. Native media events that arrive while a turn is running are queued
// and handled by that turn before it ends.
type Player struct {
	media  Media
	clock  clock.Clock
	logger *logging.Logger
	events *emitter

	terminalThreshold time.Duration

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()

	mu         sync.Mutex
	segments   []lrc.Segment
	settings   Settings
	current    int
	segmentEnd time.Duration
	destroyed  bool

	// position tracking gates
	transitioning bool
	seeking       bool
	tracking      bool

	playGen uint64

	advanceTimer *clock.Timer
	advanceGen   uint64
	settleTimer  *clock.Timer
	settleGen    uint64
	graceTimer   *clock.Timer
	graceGen     uint64
	seekTimer    *clock.Timer
	seekGen      uint64

	pending []Event

	inboxMu sync.Mutex
	inbox   []MediaEvent
}

type Option func(*Player)

func WithClock(c clock.Clock) Option {
	return func(p *Player) {
		p.clock = c
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(p *Player) {
		p.logger = l
	}
}

func WithSettings(s Settings) Option {
	return func(p *Player) {
		p.settings = s
	}
}

// WithTerminalThreshold sets how close to the end of the media a position
// must be to count as terminal. A rejected play from a terminal position is
// not rolled back.
func WithTerminalThreshold(d time.Duration) Option {
	return func(p *Player) {
		p.terminalThreshold = d
	}
}

func New(media Media, segments []lrc.Segment, opts ...Option) *Player {
	p := &Player{
		media:             media,
		clock:             clock.New(),
		logger:            logging.Nop(),
		events:            newEmitter(),
		terminalThreshold: defaultTerminalThreshold,
		settings:          DefaultSettings(),
		segments:          slices.Clone(segments),
		current:           NoSegment,
	}
	for _, opt := range opts {
		opt(p)
	}
	if !(p.settings.Rate > 0) {
		p.settings.Rate = 1
	}
	p.logger = p.logger.Named("player")
	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.mu.Lock()
	p.media.SetRate(p.settings.Rate)
	p.resolveLastEnd(p.media.Duration())
	p.unsubscribe = p.media.Subscribe(p.onMediaEvent)
	p.unlock()

	return p
}

// PlaySegment seeks to the segment at index and starts playback there. An
// index out of range is ignored. A rejected play is reported as an Error
// event and, unless the media was already at its end, the previous segment
// is restored.
func (p *Player) PlaySegment(ctx context.Context, index int, manual bool) {
	p.mu.Lock()
	if p.destroyed || index < 0 || index >= len(p.segments) {
		p.unlock()
		return
	}

	prevIndex := p.current
	prevPos := p.media.Position()

	p.transitioning = true
	p.graceGen++
	p.stopTimer(&p.graceTimer)
	p.cancelAdvance()
	p.cancelSettle()

	seg := p.segments[index]
	p.media.SetPosition(max(0, seg.Start))
	p.current = index
	p.segmentEnd = p.computeSegmentEnd(index)
	p.queue(SegmentChanged{Index: index, Segment: seg, Manual: manual})

	p.playGen++
	gen := p.playGen
	p.logger.Debugw("playing segment", "index", index, "manual", manual, "end", p.segmentEnd)
	p.unlock()

	err := p.media.Play(ctx)

	p.mu.Lock()
	defer p.unlock()

	if p.destroyed {
		return
	}
	if gen != p.playGen {
		// a newer PlaySegment, Reset or UpdateSegments took over
		if err != nil {
			p.queue(playError(index, err))
		}
		return
	}

	if err != nil {
		p.tracking = false
		if p.atTerminal(prevPos) {
			p.logger.Debugw("play rejected at end of media, keeping segment", "index", index, "error", err)
		} else {
			p.rollback(prevIndex, prevPos)
		}
		p.queue(playError(index, err))
	} else {
		p.tracking = true
		p.queue(Playing{Index: index, Segment: p.segments[index]})
		p.scheduleAdvance()
	}
	p.startGrace()
}

func (p *Player) rollback(prevIndex int, prevPos time.Duration) {
	p.logger.Debugw("play rejected, rolling back", "from", p.current, "to", prevIndex)

	p.media.SetPosition(prevPos)
	if prevIndex == NoSegment || prevIndex >= len(p.segments) {
		p.clearSegment()
		return
	}
	p.current = prevIndex
	p.segmentEnd = p.computeSegmentEnd(prevIndex)
	p.queue(SegmentChanged{Index: prevIndex, Segment: p.segments[prevIndex]})
}

func playError(index int, err error) Error {
	msg := "playback failed"
	var me *MediaError
	if errors.As(err, &me) {
		msg = me.Message()
	}
	return Error{
		Err:     fmt.Errorf("failed to play segment %d: %w", index, err),
		Message: msg,
	}
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.unlock()
	if p.destroyed {
		return
	}

	p.cancelAdvance()
	p.cancelSettle()
	p.pauseMedia()
	p.queue(Paused{Index: p.current})
}

// SetPlaybackRate applies rate to the media. Non-positive rates are ignored.
func (p *Player) SetPlaybackRate(rate float64) {
	p.mu.Lock()
	defer p.unlock()
	if p.destroyed || !(rate > 0) {
		return
	}

	p.settings.Rate = rate
	p.media.SetRate(rate)
	p.queue(RateChanged{Rate: rate})
	if p.current != NoSegment && !p.media.Paused() {
		p.scheduleAdvance()
	}
}

func (p *Player) SetSingleSentenceMode(enabled bool) {
	p.mu.Lock()
	defer p.unlock()
	if p.destroyed {
		return
	}

	p.settings.SingleSentence = enabled
	p.applyPolicy()
}

func (p *Player) SetLoopMode(mode LoopMode) {
	p.mu.Lock()
	defer p.unlock()
	if p.destroyed {
		return
	}

	p.settings.Loop = mode
	p.applyPolicy()
}

// UpdateSegments replaces the segment list and clears the current segment.
func (p *Player) UpdateSegments(segments []lrc.Segment) {
	p.mu.Lock()
	defer p.unlock()
	if p.destroyed {
		return
	}

	p.cancelAdvance()
	p.cancelSettle()
	p.playGen++
	p.segments = slices.Clone(segments)
	p.current = NoSegment
	p.segmentEnd = 0
	p.tracking = false
	p.resolveLastEnd(p.media.Duration())
}

// Reset drops all transient state and keeps the settings. Calling it again
// has no further effect.
func (p *Player) Reset() {
	p.mu.Lock()
	defer p.unlock()
	if p.destroyed {
		return
	}
	p.reset()
}

// HardReset is Reset plus pausing and rewinding the media, announced with a
// PlayerReset event.
func (p *Player) HardReset() {
	p.mu.Lock()
	defer p.unlock()
	if p.destroyed {
		return
	}

	p.reset()
	p.media.Pause()
	p.media.SetPosition(0)
	p.queue(PlayerReset{})
	p.logger.Debugw("player reset")
}

func (p *Player) reset() {
	p.cancelAdvance()
	p.cancelSettle()
	p.graceGen++
	p.stopTimer(&p.graceTimer)
	p.seekGen++
	p.stopTimer(&p.seekTimer)
	p.playGen++

	p.transitioning = false
	p.seeking = false
	p.clearSegment()
}

// Destroy stops all timers, pauses the media and drops every listener. The
// player ignores all calls afterwards.
func (p *Player) Destroy() {
	p.mu.Lock()
	defer p.unlock()
	if p.destroyed {
		return
	}

	p.reset()
	p.media.Pause()
	if p.unsubscribe != nil {
		p.unsubscribe()
	}
	p.destroyed = true
	p.pending = nil
	p.events.clear()
	p.cancel()
}

// CurrentIndex returns the current segment or NoSegment.
func (p *Player) CurrentIndex() int {
	p.mu.Lock()
	defer p.unlock()
	return p.current
}

// SegmentEnd returns the effective end boundary of the current segment,
// zero when unset.
func (p *Player) SegmentEnd() time.Duration {
	p.mu.Lock()
	defer p.unlock()
	return p.segmentEnd
}

func (p *Player) Segments() []lrc.Segment {
	p.mu.Lock()
	defer p.unlock()
	return slices.Clone(p.segments)
}

func (p *Player) Settings() Settings {
	p.mu.Lock()
	defer p.unlock()
	return p.settings
}

func (p *Player) Position() time.Duration {
	return p.media.Position()
}

// On subscribes fn to events of one kind and returns its unsubscribe func.
func (p *Player) On(kind EventKind, fn Listener) func() {
	return p.events.on(kind, fn)
}

// OnAny subscribes fn to every event.
func (p *Player) OnAny(fn Listener) func() {
	return p.events.on(anyKind, fn)
}

// Once subscribes fn for the next event of kind only.
func (p *Player) Once(kind EventKind, fn Listener) func() {
	var (
		mu    sync.Mutex
		fired bool
		off   func()
	)

	mu.Lock()
	defer mu.Unlock()
	off = p.events.on(kind, func(ev Event) {
		mu.Lock()
		if fired {
			mu.Unlock()
			return
		}
		fired = true
		mu.Unlock()

		off()
		fn(ev)
	})
	return off
}

func (p *Player) queue(ev Event) {
	p.pending = append(p.pending, ev)
}

// unlock ends a turn. Media events queued while the lock was held are
// handled first, then the turn's events are delivered with the lock
// released. If more media events arrived meanwhile and nobody else holds the
// lock, another turn drains them.
func (p *Player) unlock() {
	for {
		for {
			evs := p.takeInbox()
			if len(evs) == 0 {
				break
			}
			for _, ev := range evs {
				p.handleMediaEvent(ev)
			}
		}

		events := p.pending
		p.pending = nil
		p.mu.Unlock()

		for _, ev := range events {
			p.events.emit(ev)
		}

		if !p.inboxPending() || !p.mu.TryLock() {
			return
		}
	}
}

func (p *Player) onMediaEvent(ev MediaEvent) {
	p.inboxMu.Lock()
	p.inbox = append(p.inbox, ev)
	p.inboxMu.Unlock()

	if p.mu.TryLock() {
		p.unlock()
	}
}

func (p *Player) takeInbox() []MediaEvent {
	p.inboxMu.Lock()
	defer p.inboxMu.Unlock()
	evs := p.inbox
	p.inbox = nil
	return evs
}

func (p *Player) inboxPending() bool {
	p.inboxMu.Lock()
	defer p.inboxMu.Unlock()
	return len(p.inbox) > 0
}
