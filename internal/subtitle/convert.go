package subtitle

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ncestudy/nce/internal/fsutil"
	"github.com/ncestudy/nce/internal/lrc"
)

// how long a cue with an open end lasts when written out
const openEndLength = 2 * time.Second

// Decode reads a subtitle stream into a lesson. In a cue, the first text
// line is the sentence and any further lines are its translation.
func Decode(r io.Reader, format Format) (*lrc.Lesson, error) {
	var (
		entries []Entry
		err     error
	)
	switch format {
	case FormatLRC:
		return lrc.ParseReader(r)
	case FormatSRT:
		entries, err = decodeSRT(r)
	case FormatVTT:
		entries, err = decodeVTT(r)
	default:
		return nil, fmt.Errorf("unsupported subtitle format: %q", format)
	}
	if err != nil {
		return nil, err
	}
	return toLesson(entries), nil
}

// Encode writes a lesson in the given format. Translations go on the line
// below the sentence.
func Encode(w io.Writer, lesson *lrc.Lesson, format Format) error {
	switch format {
	case FormatLRC:
		return lrc.Write(w, lesson)
	case FormatSRT:
		return encodeSRT(w, toEntries(lesson))
	case FormatVTT:
		return encodeVTT(w, toEntries(lesson))
	default:
		return fmt.Errorf("unsupported subtitle format: %q", format)
	}
}

// Open reads a .lrc, .srt or .vtt file.
func Open(path string) (*lrc.Lesson, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	return Decode(file, format)
}

// WriteFile writes lesson to path in the format its extension names.
func WriteFile(path string, lesson *lrc.Lesson) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := Encode(&buf, lesson, format); err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

func toLesson(entries []Entry) *lrc.Lesson {
	lesson := &lrc.Lesson{}
	for _, e := range entries {
		lines := strings.Split(e.Text, "\n")
		for i := range lines {
			lines[i] = strings.TrimSpace(lines[i])
		}
		lesson.Segments = append(lesson.Segments, lrc.Segment{
			Start:       e.Start,
			End:         e.End,
			Text:        lines[0],
			Translation: strings.TrimSpace(strings.Join(lines[1:], " ")),
		})
	}
	return lesson
}

func toEntries(lesson *lrc.Lesson) []Entry {
	entries := make([]Entry, 0, len(lesson.Segments))
	for i, seg := range lesson.Segments {
		end := seg.End
		if !seg.HasEnd() || end < seg.Start {
			end = seg.Start + openEndLength
		}
		text := seg.Text
		if seg.Translation != "" {
			text += "\n" + seg.Translation
		}
		entries = append(entries, Entry{
			Index: i + 1,
			Start: seg.Start,
			End:   end,
			Text:  text,
		})
	}
	return entries
}
