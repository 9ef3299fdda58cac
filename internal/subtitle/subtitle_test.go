package subtitle

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncestudy/nce/internal/lrc"
)

const sampleSRT = "\ufeff1\r\n00:00:01,000 --> 00:00:02,500\r\nExcuse me!\r\n对不起！\r\n\r\n" +
	"2\n00:00:02,500 --> 00:00:04,000\nYes?\n\n" +
	"3\n00:01:00,000 --> 01:00:00,000\nIs this your handbag?\n"

func TestDecodeSRT(t *testing.T) {
	lesson, err := Decode(strings.NewReader(sampleSRT), FormatSRT)
	require.NoError(t, err)
	require.Len(t, lesson.Segments, 3)

	first := lesson.Segments[0]
	assert.Equal(t, time.Second, first.Start)
	assert.Equal(t, 2500*time.Millisecond, first.End)
	assert.Equal(t, "Excuse me!", first.Text)
	assert.Equal(t, "对不起！", first.Translation)

	assert.Equal(t, "Yes?", lesson.Segments[1].Text)
	assert.Empty(t, lesson.Segments[1].Translation)

	assert.Equal(t, time.Minute, lesson.Segments[2].Start)
	assert.Equal(t, time.Hour, lesson.Segments[2].End)
}

func TestDecodeVTT(t *testing.T) {
	input := "WEBVTT - lesson 1\n\n" +
		"NOTE written by hand\nspans two lines\n\n" +
		"intro\n00:01.000 --> 00:02.000 align:start\nExcuse me!\n对不起！\n\n" +
		"00:00:02.000 --> 00:00:03.500\nYes?\n"

	lesson, err := Decode(strings.NewReader(input), FormatVTT)
	require.NoError(t, err)
	require.Len(t, lesson.Segments, 2)

	assert.Equal(t, time.Second, lesson.Segments[0].Start)
	assert.Equal(t, 2*time.Second, lesson.Segments[0].End)
	assert.Equal(t, "Excuse me!", lesson.Segments[0].Text)
	assert.Equal(t, "对不起！", lesson.Segments[0].Translation)
	assert.Equal(t, 3500*time.Millisecond, lesson.Segments[1].End)
}

func TestDecodeVTTRequiresHeader(t *testing.T) {
	_, err := Decode(strings.NewReader("00:01.000 --> 00:02.000\nhi\n"), FormatVTT)
	assert.Error(t, err)
}

func TestEncodeStacksTranslation(t *testing.T) {
	lesson := &lrc.Lesson{Segments: []lrc.Segment{
		{Start: time.Second, End: 2 * time.Second, Text: "Excuse me!", Translation: "对不起！"},
		{Start: 2 * time.Second, Text: "Yes?"},
	}}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, lesson, FormatSRT))
	assert.Equal(t,
		"1\n00:00:01,000 --> 00:00:02,000\nExcuse me!\n对不起！\n\n"+
			"2\n00:00:02,000 --> 00:00:04,000\nYes?\n\n",
		buf.String())

	buf.Reset()
	require.NoError(t, Encode(&buf, lesson, FormatVTT))
	assert.True(t, strings.HasPrefix(buf.String(), "WEBVTT\n\n1\n00:00:01.000 --> 00:00:02.000\n"))
}

func TestConvertRoundTrip(t *testing.T) {
	lesson := lrc.Parse("[ti:Excuse me!]\n[00:01.00]Excuse me! | 对不起！\n[00:02.50]Yes?\n")
	lesson.Segments[1].End = 4 * time.Second

	for _, format := range []Format{FormatSRT, FormatVTT} {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, lesson, format))

		got, err := Decode(&buf, format)
		require.NoError(t, err, format)
		assert.Equal(t, lesson.Segments, got.Segments, format)
	}
}

func TestOpenAndWriteFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "lesson.srt")
	require.NoError(t, os.WriteFile(src, []byte(sampleSRT), 0o644))

	lesson, err := Open(src)
	require.NoError(t, err)

	out := filepath.Join(dir, "lesson.lrc")
	require.NoError(t, WriteFile(out, lesson))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[00:01.00]Excuse me! | 对不起！")

	_, err = Open(filepath.Join(dir, "lesson.ass"))
	assert.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]Format{
		"a.lrc":     FormatLRC,
		"b.SRT":     FormatSRT,
		"dir/c.vtt": FormatVTT,
	} {
		got, err := FormatFromPath(path)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := FormatFromPath("d.txt")
	assert.Error(t, err)
}

func TestFormatTimestamp(t *testing.T) {
	d := time.Hour + 2*time.Minute + 3*time.Second + 45*time.Millisecond
	assert.Equal(t, "01:02:03,045", formatTimestamp(d, ","))
	assert.Equal(t, "00:00:00.000", formatTimestamp(-time.Second, "."))
}
