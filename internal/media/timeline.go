package media

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/ncestudy/nce/internal/player"
)

// TickInterval is how often a playing timeline reports its position.
const TickInterval = 250 * time.Millisecond

var ErrClosed = errors.New("timeline closed")

// Timeline is a media handle without audio output. Its position runs on a
// clock while playing, which lets the player drive a lesson from the
// terminal or from tests.
type Timeline struct {
	clock clock.Clock

	mu      sync.Mutex
	pos     time.Duration
	anchor  time.Time
	dur     time.Duration
	rate    float64
	paused  bool
	closed  bool
	playErr error

	tickTimer *clock.Timer
	tickGen   uint64
	ticks     int

	subs   map[uint64]func(player.MediaEvent)
	nextID uint64
}

var _ player.Media = (*Timeline)(nil)

func NewTimeline(c clock.Clock) *Timeline {
	if c == nil {
		c = clock.New()
	}
	return &Timeline{
		clock:  c,
		rate:   1,
		paused: true,
		subs:   make(map[uint64]func(player.MediaEvent)),
	}
}

func (t *Timeline) Position() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.position()
}

func (t *Timeline) position() time.Duration {
	if t.paused {
		return t.pos
	}
	elapsed := t.clock.Since(t.anchor)
	pos := t.pos + time.Duration(float64(elapsed)*t.rate)
	if t.dur > 0 && pos > t.dur {
		pos = t.dur
	}
	return pos
}

// sync folds the time played since the anchor into pos.
func (t *Timeline) sync() {
	t.pos = t.position()
	t.anchor = t.clock.Now()
}

func (t *Timeline) SetPosition(pos time.Duration) {
	t.mu.Lock()
	pos = max(0, pos)
	if t.dur > 0 {
		pos = min(pos, t.dur)
	}
	t.pos = pos
	t.anchor = t.clock.Now()
	t.mu.Unlock()

	t.emit(player.MediaEvent{Kind: player.MediaSeeking}, player.MediaEvent{Kind: player.MediaSeeked})
}

func (t *Timeline) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dur
}

func (t *Timeline) Rate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rate
}

func (t *Timeline) SetRate(rate float64) {
	if !(rate > 0) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sync()
	t.rate = rate
}

func (t *Timeline) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

// Play starts the clock. A timeline at its end starts over from zero.
func (t *Timeline) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if err := t.playErr; err != nil {
		t.playErr = nil
		t.mu.Unlock()
		return err
	}
	if !t.paused {
		t.mu.Unlock()
		return nil
	}

	if t.dur > 0 && t.pos >= t.dur {
		t.pos = 0
	}
	t.paused = false
	t.anchor = t.clock.Now()
	t.scheduleTick()
	t.mu.Unlock()

	t.emit(player.MediaEvent{Kind: player.MediaPlay})
	return nil
}

func (t *Timeline) Pause() {
	t.mu.Lock()
	if t.paused {
		t.mu.Unlock()
		return
	}
	t.sync()
	t.paused = true
	t.stopTicks()
	t.mu.Unlock()

	t.emit(player.MediaEvent{Kind: player.MediaPause})
}

func (t *Timeline) Subscribe(fn func(player.MediaEvent)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	id := t.nextID
	t.subs[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs, id)
	}
}

// LoadMetadata makes the duration known, as a loaded audio file would.
func (t *Timeline) LoadMetadata(dur time.Duration) {
	t.mu.Lock()
	t.dur = max(0, dur)
	t.mu.Unlock()

	t.emit(player.MediaEvent{Kind: player.MediaLoadedMetadata})
}

// Fail reports a load or decode failure.
func (t *Timeline) Fail(code player.MediaErrorCode) {
	t.emit(player.MediaEvent{
		Kind: player.MediaFailed,
		Err:  &player.MediaError{Code: code},
	})
}

// RejectPlay makes the next Play call fail with err.
func (t *Timeline) RejectPlay(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playErr = err
}

// Close stops the clock. Play fails with ErrClosed afterwards.
func (t *Timeline) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if !t.paused {
		t.sync()
		t.paused = true
	}
	t.closed = true
	t.stopTicks()
	t.subs = make(map[uint64]func(player.MediaEvent))
}

func (t *Timeline) scheduleTick() {
	t.tickGen++
	gen := t.tickGen
	t.tickTimer = t.clock.AfterFunc(TickInterval, func() {
		t.onTick(gen)
	})
}

func (t *Timeline) stopTicks() {
	t.tickGen++
	if t.tickTimer != nil {
		t.tickTimer.Stop()
		t.tickTimer = nil
	}
}

func (t *Timeline) onTick(gen uint64) {
	t.mu.Lock()
	if gen != t.tickGen || t.paused {
		t.mu.Unlock()
		return
	}
	t.ticks++
	t.sync()

	events := []player.MediaEvent{{Kind: player.MediaTimeUpdate}}
	if t.dur > 0 && t.pos >= t.dur {
		t.paused = true
		t.stopTicks()
		events = append(events,
			player.MediaEvent{Kind: player.MediaPause},
			player.MediaEvent{Kind: player.MediaEnded},
		)
	} else {
		t.scheduleTick()
	}
	t.mu.Unlock()

	t.emit(events...)
}

// emit delivers events outside the lock so handlers may call back in.
func (t *Timeline) emit(events ...player.MediaEvent) {
	t.mu.Lock()
	fns := make([]func(player.MediaEvent), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, ev := range events {
		for _, fn := range fns {
			fn(ev)
		}
	}
}
