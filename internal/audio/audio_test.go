package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncestudy/nce/internal/lrc"
)

func TestParseProbe(t *testing.T) {
	d, err := parseProbe([]byte(`{"format": {"duration": "62.500000"}}`))
	require.NoError(t, err)
	assert.Equal(t, 62500*time.Millisecond, d)

	_, err = parseProbe([]byte(`{"format": {}}`))
	assert.Error(t, err)

	_, err = parseProbe([]byte(`not json`))
	assert.Error(t, err)
}

func TestPlanClips(t *testing.T) {
	segs := []lrc.Segment{
		{Start: 0, End: 2 * time.Second},
		{Start: 2 * time.Second, End: 2 * time.Second},
		{Start: 2 * time.Second, End: 5 * time.Second},
		{Start: 5 * time.Second},
	}

	jobs := planClips("/lessons/NCE1/001.mp3", segs, "/tmp/out", 8*time.Second)

	require.Len(t, jobs, 3)
	assert.Equal(t, Clip{Index: 0, Path: filepath.Join("/tmp/out", "001_001.mp3"), Start: 0, End: 2 * time.Second}, jobs[0].Clip)
	assert.Equal(t, 2, jobs[1].Index)
	assert.Equal(t, Clip{Index: 3, Path: filepath.Join("/tmp/out", "001_004.mp3"), Start: 5 * time.Second, End: 8 * time.Second}, jobs[2].Clip)
}

func TestPlanClipsCapsAtDuration(t *testing.T) {
	segs := []lrc.Segment{{Start: time.Second, End: 10 * time.Second}, {Start: 12 * time.Second}}

	jobs := planClips("a.mp3", segs, "out", 6*time.Second)

	require.Len(t, jobs, 1)
	assert.Equal(t, 6*time.Second, jobs[0].End)
}

func TestExtractArgs(t *testing.T) {
	args := extractArgs(DefaultTranscriptionOptions())
	assert.Equal(t, "libmp3lame", args["acodec"])
	assert.Equal(t, "64k", args["b:a"])
	assert.Equal(t, 16000, args["ar"])
	assert.Equal(t, 1, args["ac"])

	args = extractArgs(Options{Format: "wav", Bitrate: "128k"})
	assert.Equal(t, "pcm_s16le", args["acodec"])
	assert.NotContains(t, args, "b:a")
	assert.NotContains(t, args, "ar")
}

func TestFileTypes(t *testing.T) {
	assert.True(t, IsAudioFile("lesson.MP3"))
	assert.True(t, IsVideoFile("lesson.mp4"))
	assert.True(t, IsMediaFile("lesson.m4a"))
	assert.False(t, IsMediaFile("lesson.lrc"))
}

func TestMissingInput(t *testing.T) {
	ctx := context.Background()
	missing := filepath.Join(t.TempDir(), "missing.mp3")

	_, err := GetDuration(ctx, missing)
	assert.Error(t, err)
	assert.Error(t, ExtractAudio(ctx, missing, filepath.Join(t.TempDir(), "out.mp3"), DefaultTranscriptionOptions()))
}

func TestClipSegmentsIntegration(t *testing.T) {
	sample := os.Getenv("NCE_TEST_AUDIO")
	if sample == "" {
		t.Skip("NCE_TEST_AUDIO not set")
	}

	segs := []lrc.Segment{{Start: 0, End: time.Second}, {Start: time.Second}}
	clips, err := ClipSegments(context.Background(), sample, segs, t.TempDir(), 2)
	require.NoError(t, err)
	require.Len(t, clips, 2)
	for _, c := range clips {
		assert.FileExists(t, c.Path)
	}
	assert.NoError(t, RemoveClips(clips))
}
