package lrc

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInlineBilingual(t *testing.T) {
	lesson := Parse("[00:01.00]Hello | 你好")

	require.Len(t, lesson.Segments, 1)
	seg := lesson.Segments[0]
	assert.Equal(t, time.Second, seg.Start)
	assert.Equal(t, "Hello", seg.Text)
	assert.Equal(t, "你好", seg.Translation)
	assert.False(t, seg.HasEnd())
}

func TestParseStackedTranslation(t *testing.T) {
	lesson := Parse("[00:05.00]Good morning\n[00:05.00]早上好")

	require.Len(t, lesson.Segments, 1)
	assert.Equal(t, 5*time.Second, lesson.Segments[0].Start)
	assert.Equal(t, "Good morning", lesson.Segments[0].Text)
	assert.Equal(t, "早上好", lesson.Segments[0].Translation)
}

func TestParseStackedRequiresIdenticalTagsAndCJK(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCount int
	}{
		{
			name:      "different timestamp",
			input:     "[00:05.00]Good morning\n[00:05.10]早上好",
			wantCount: 2,
		},
		{
			name:      "same timestamp without CJK",
			input:     "[00:05.00]Good morning\n[00:05.00]Good evening",
			wantCount: 2,
		},
		{
			name:      "compatibility ideograph",
			input:     "[00:05.00]Good morning\n[00:05.00]豈",
			wantCount: 1,
		},
		{
			name:      "blank line between",
			input:     "[00:05.00]Good morning\n\n[00:05.00]早上好",
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lesson := Parse(tt.input)
			assert.Len(t, lesson.Segments, tt.wantCount)
		})
	}
}

func TestParseEndChaining(t *testing.T) {
	lesson := Parse("[00:00.00]A\n[00:03.00]B\n[00:07.00]C")

	require.Len(t, lesson.Segments, 3)
	ends := []time.Duration{
		lesson.Segments[0].End,
		lesson.Segments[1].End,
		lesson.Segments[2].End,
	}
	assert.Equal(t, []time.Duration{3 * time.Second, 7 * time.Second, 0}, ends)
}

func TestParseMetadata(t *testing.T) {
	input := strings.Join([]string{
		"[ti: Excuse me! ]",
		"[AR:New Concept English]",
		"[al:Book 1]",
		"[by:Alexander]",
		"[offset:200]",
		"[00:01.50]Excuse me!",
	}, "\n")

	lesson := Parse(input)

	assert.Equal(t, Metadata{
		Album:  "Book 1",
		Artist: "New Concept English",
		Title:  "Excuse me!",
		Author: "Alexander",
	}, lesson.Metadata)
	require.Len(t, lesson.Segments, 1)
	assert.Equal(t, 1500*time.Millisecond, lesson.Segments[0].Start)
}

func TestParseTimestamps(t *testing.T) {
	tests := []struct {
		line string
		want time.Duration
	}{
		{"[00:01]x", time.Second},
		{"[01:02.5]x", 62*time.Second + 500*time.Millisecond},
		{"[02:03.45]x", 123*time.Second + 450*time.Millisecond},
		{"[10:00.123]x", 600*time.Second + 123*time.Millisecond},
		{"[00:04.00][00:09.00]x", 4 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			lesson := Parse(tt.line)
			require.Len(t, lesson.Segments, 1)
			assert.Equal(t, tt.want, lesson.Segments[0].Start)
		})
	}
}

func TestParseIgnoresGarbage(t *testing.T) {
	input := "garbage\n[xx:yy]nope\n\r\n   \n[00:02.00] Hi there \r\nmore garbage"

	lesson := Parse(input)

	require.Len(t, lesson.Segments, 1)
	assert.Equal(t, "Hi there", lesson.Segments[0].Text)
	assert.Empty(t, lesson.Segments[0].Translation)
}

func TestParseEmpty(t *testing.T) {
	lesson := Parse("")
	assert.Empty(t, lesson.Segments)
	assert.Equal(t, Metadata{}, lesson.Metadata)
}

func TestParseSplitsOnFirstPipe(t *testing.T) {
	lesson := Parse("[00:01.00]A | B | C")
	require.Len(t, lesson.Segments, 1)
	assert.Equal(t, "A", lesson.Segments[0].Text)
	assert.Equal(t, "B | C", lesson.Segments[0].Translation)
}

func TestParseFileStripsBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lesson.lrc")
	content := "\ufeff[ti:Lesson 1]\n[00:01.00]Excuse me!\n[00:01.00]对不起！\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	lesson, err := ParseFile(path)
	require.NoError(t, err)

	assert.Equal(t, "Lesson 1", lesson.Metadata.Title)
	require.Len(t, lesson.Segments, 1)
	assert.Equal(t, "对不起！", lesson.Segments[0].Translation)
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.lrc"))
	assert.Error(t, err)
}

func TestWriteRoundTrip(t *testing.T) {
	original := &Lesson{
		Metadata: Metadata{Title: "Lesson 3", Album: "NCE1"},
		Segments: []Segment{
			{Start: 0, Text: "Sorry, sir.", Translation: "对不起，先生。"},
			{Start: 2*time.Second + 340*time.Millisecond, Text: "My umbrella, please."},
			{Start: 65 * time.Second, Text: "Here's your umbrella."},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, original))

	assert.Contains(t, buf.String(), "[ti:Lesson 3]\n")
	assert.Contains(t, buf.String(), "[00:02.34]My umbrella, please.\n")
	assert.Contains(t, buf.String(), "[01:05.00]Here's your umbrella.\n")

	parsed := Parse(buf.String())
	assert.Equal(t, original.Metadata, parsed.Metadata)
	require.Len(t, parsed.Segments, 3)
	for i := range original.Segments {
		assert.Equal(t, original.Segments[i].Start, parsed.Segments[i].Start)
		assert.Equal(t, original.Segments[i].Text, parsed.Segments[i].Text)
		assert.Equal(t, original.Segments[i].Translation, parsed.Segments[i].Translation)
	}
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "00:00.00", FormatTimestamp(0))
	assert.Equal(t, "00:00.00", FormatTimestamp(-time.Second))
	assert.Equal(t, "01:01.25", FormatTimestamp(61*time.Second+259*time.Millisecond))
	assert.Equal(t, "120:00.00", FormatTimestamp(2*time.Hour))
}
