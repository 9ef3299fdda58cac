package progress

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/ncestudy/nce/internal/logging"
	"github.com/ncestudy/nce/internal/lrc"
	"github.com/ncestudy/nce/internal/player"
)

// source of the numbers a Recorder saves; *player.Player satisfies it
type Source interface {
	On(kind player.EventKind, fn player.Listener) func()
	Position() time.Duration
	Segments() []lrc.Segment
}

// Recorder saves progress for one lesson whenever the player moves to a
// new segment. Study time counts the wall time spent playing.
type Recorder struct {
	store    *Store
	key      string
	source   Source
	duration func() time.Duration
	clock    clock.Clock
	logger   *logging.Logger

	mu          sync.Mutex
	playingFrom time.Time
	offs        []func()
}

type RecorderOption func(*Recorder)

func WithRecorderClock(c clock.Clock) RecorderOption {
	return func(r *Recorder) {
		r.clock = c
	}
}

func WithRecorderLogger(l *logging.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = l
	}
}

// Record subscribes to src and stores progress under key. duration reports
// the media length, zero when unknown. Call Stop to unsubscribe.
func Record(store *Store, key string, src Source, duration func() time.Duration, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:    store,
		key:      key,
		source:   src,
		duration: duration,
		clock:    clock.New(),
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.offs = append(r.offs,
		src.On(player.EventSegmentChanged, r.onSegment),
		src.On(player.EventPlaying, func(player.Event) { r.startStudy() }),
		src.On(player.EventPaused, func(player.Event) { r.stopStudy() }),
		src.On(player.EventLessonEnded, func(player.Event) { r.stopStudy() }),
	)
	return r
}

func (r *Recorder) onSegment(ev player.Event) {
	sc, ok := ev.(player.SegmentChanged)
	if !ok {
		return
	}
	total := len(r.source.Segments())

	err := r.store.Update(r.key, func(e Entry) Entry {
		e.Index = sc.Index
		e.Position = r.source.Position()
		e.Duration = r.duration()
		e.Percentage = Percentage(sc.Index, total)
		e.LastStudy = r.clock.Now()
		return e
	})
	if err != nil {
		r.logger.Warnw("failed to save progress", "lesson", r.key, "error", err)
	}
}

func (r *Recorder) startStudy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playingFrom.IsZero() {
		r.playingFrom = r.clock.Now()
	}
}

func (r *Recorder) stopStudy() {
	r.mu.Lock()
	from := r.playingFrom
	r.playingFrom = time.Time{}
	r.mu.Unlock()

	if from.IsZero() {
		return
	}
	spent := r.clock.Since(from)
	err := r.store.Update(r.key, func(e Entry) Entry {
		e.StudyTime += spent
		e.LastStudy = r.clock.Now()
		return e
	})
	if err != nil {
		r.logger.Warnw("failed to save study time", "lesson", r.key, "error", err)
	}
}

// Stop flushes pending study time and unsubscribes.
func (r *Recorder) Stop() {
	r.stopStudy()
	for _, off := range r.offs {
		off()
	}
	r.offs = nil
}

// Percentage is the share of segments before index, as whole percent.
func Percentage(index, total int) int {
	if total <= 0 || index < 0 {
		return 0
	}
	return index * 100 / total
}
