package lrc

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const readBufferSize = 256 * 1024

var (
	lineRegex = regexp.MustCompile(`^((?:\[\d+:\d+(?:\.\d+)?\])+)(.*)$`)
	metaRegex = regexp.MustCompile(`(?i)^\[(al|ar|ti|by):(.+)\]$`)
	tagRegex  = regexp.MustCompile(`\[(\d+):(\d+)(?:\.(\d+))?\]`)
)

// Parse turns LRC text into a lesson. Lines that are neither metadata nor
// timestamped content are dropped, so the result may be empty but never fails.
func Parse(text string) *Lesson {
	rows := strings.Split(strings.ReplaceAll(text, "\r", ""), "\n")
	lesson := &Lesson{}

	for i := 0; i < len(rows); i++ {
		raw := strings.TrimSpace(rows[i])
		if raw == "" {
			continue
		}

		if m := metaRegex.FindStringSubmatch(raw); m != nil {
			lesson.Metadata.set(m[1], m[2])
			continue
		}

		m := lineRegex.FindStringSubmatch(raw)
		if m == nil {
			continue
		}

		tags, body := m[1], m[2]
		seg := Segment{Start: firstTagTime(tags)}

		var next string
		if i+1 < len(rows) {
			next = rows[i+1]
		}
		var consumed bool
		seg.Text, seg.Translation, consumed = splitContent(body, next, tags)
		if consumed {
			i++
		}

		lesson.Segments = append(lesson.Segments, seg)
	}

	ChainEnds(lesson.Segments)
	return lesson
}

// ParseReader reads the whole stream and parses it.
func ParseReader(r io.Reader) (*Lesson, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, readBufferSize)
	scanner.Buffer(buf, readBufferSize)

	var sb strings.Builder
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading LRC: %w", err)
	}

	return Parse(sb.String()), nil
}

func ParseFile(path string) (*Lesson, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open LRC file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	return ParseReader(file)
}

func (m *Metadata) set(key, value string) {
	value = strings.TrimSpace(value)
	switch strings.ToLower(key) {
	case "al":
		m.Album = value
	case "ar":
		m.Artist = value
	case "ti":
		m.Title = value
	case "by":
		m.Author = value
	}
}

// splitContent resolves the bilingual text of a content line. An inline "|"
// wins; otherwise the next raw line is taken as the translation when it has
// the identical tag string and contains CJK text.
func splitContent(body, next, tags string) (text, translation string, consumed bool) {
	if before, after, ok := strings.Cut(body, "|"); ok {
		return strings.TrimSpace(before), strings.TrimSpace(after), false
	}

	text = strings.TrimSpace(body)
	if next == "" {
		return text, "", false
	}

	m := lineRegex.FindStringSubmatch(strings.TrimSpace(next))
	if m == nil || m[1] != tags {
		return text, "", false
	}

	candidate := strings.TrimSpace(m[2])
	if !HasCJK(candidate) {
		return text, "", false
	}
	return text, candidate, true
}

// only the first of stacked tags counts
func firstTagTime(tags string) time.Duration {
	m := tagRegex.FindStringSubmatch(tags)
	if m == nil {
		return 0
	}

	minutes, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}
	seconds, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return 0
	}

	d := time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
	if frac := m[3]; frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		frac += strings.Repeat("0", 9-len(frac))
		nanos, err := strconv.ParseInt(frac, 10, 64)
		if err == nil {
			d += time.Duration(nanos)
		}
	}
	return d
}

// HasCJK reports whether s contains a CJK unified or compatibility ideograph.
func HasCJK(s string) bool {
	for _, r := range s {
		if (r >= 0x3400 && r <= 0x9FFF) || (r >= 0xF900 && r <= 0xFAFF) {
			return true
		}
	}
	return false
}
