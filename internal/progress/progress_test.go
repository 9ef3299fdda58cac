package progress

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncestudy/nce/internal/lrc"
	"github.com/ncestudy/nce/internal/player"
)

type fakeSource struct {
	listeners map[player.EventKind][]player.Listener
	pos       time.Duration
	segments  []lrc.Segment
}

func newFakeSource(n int) *fakeSource {
	return &fakeSource{
		listeners: make(map[player.EventKind][]player.Listener),
		segments:  make([]lrc.Segment, n),
	}
}

func (s *fakeSource) On(kind player.EventKind, fn player.Listener) func() {
	s.listeners[kind] = append(s.listeners[kind], fn)
	i := len(s.listeners[kind]) - 1
	return func() { s.listeners[kind][i] = nil }
}

func (s *fakeSource) Position() time.Duration  { return s.pos }
func (s *fakeSource) Segments() []lrc.Segment { return s.segments }

func (s *fakeSource) emit(ev player.Event) {
	for _, fn := range s.listeners[ev.Kind()] {
		if fn != nil {
			fn(ev)
		}
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.yaml")

	store, err := Open(path)
	require.NoError(t, err)
	assert.Empty(t, store.All())

	last := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	entry := Entry{
		Index:      4,
		Position:   12500 * time.Millisecond,
		Duration:   time.Minute,
		Percentage: 40,
		StudyTime:  3 * time.Minute,
		LastStudy:  last,
	}
	require.NoError(t, store.Put(Key("NCE1", "001"), entry))

	reopened, err := Open(path)
	require.NoError(t, err)
	got, ok := reopened.Get("NCE1/001")
	require.True(t, ok)
	assert.Equal(t, entry.Index, got.Index)
	assert.Equal(t, entry.Position, got.Position)
	assert.Equal(t, entry.StudyTime, got.StudyTime)
	assert.True(t, last.Equal(got.LastStudy))

	require.NoError(t, reopened.Delete("NCE1/001"))
	require.NoError(t, reopened.Delete("NCE1/001"))
	_, ok = reopened.Get("NCE1/001")
	assert.False(t, ok)
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0, Percentage(0, 10))
	assert.Equal(t, 50, Percentage(5, 10))
	assert.Equal(t, 90, Percentage(9, 10))
	assert.Equal(t, 33, Percentage(1, 3))
	assert.Equal(t, 0, Percentage(3, 0))
	assert.Equal(t, 0, Percentage(player.NoSegment, 5))
}

func TestRecorderSavesSegmentChanges(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "progress.yaml"))
	require.NoError(t, err)

	mock := clock.NewMock()
	src := newFakeSource(4)
	rec := Record(store, "NCE1/001", src, func() time.Duration { return time.Minute }, WithRecorderClock(mock))

	src.pos = 20 * time.Second
	src.emit(player.SegmentChanged{Index: 2})

	got, ok := store.Get("NCE1/001")
	require.True(t, ok)
	assert.Equal(t, 2, got.Index)
	assert.Equal(t, 20*time.Second, got.Position)
	assert.Equal(t, time.Minute, got.Duration)
	assert.Equal(t, 50, got.Percentage)
	assert.True(t, mock.Now().Equal(got.LastStudy))

	rec.Stop()
	src.emit(player.SegmentChanged{Index: 3})
	got, _ = store.Get("NCE1/001")
	assert.Equal(t, 2, got.Index)
}

func TestRecorderCountsStudyTime(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "progress.yaml"))
	require.NoError(t, err)

	mock := clock.NewMock()
	src := newFakeSource(2)
	rec := Record(store, "k", src, func() time.Duration { return 0 }, WithRecorderClock(mock))

	src.emit(player.Playing{Index: 0})
	mock.Add(30 * time.Second)
	src.emit(player.Paused{Index: 0})
	mock.Add(time.Hour)

	src.emit(player.Playing{Index: 1})
	mock.Add(10 * time.Second)
	rec.Stop()

	got, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, 40*time.Second, got.StudyTime)
}
