package lrc

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Write renders a lesson as LRC: header tags first, then one line per
// segment with the translation inline after " | ".
func Write(w io.Writer, lesson *Lesson) error {
	bw := bufio.NewWriter(w)

	meta := []struct {
		tag   string
		value string
	}{
		{"ti", lesson.Metadata.Title},
		{"ar", lesson.Metadata.Artist},
		{"al", lesson.Metadata.Album},
		{"by", lesson.Metadata.Author},
	}
	for _, m := range meta {
		if m.value == "" {
			continue
		}
		if _, err := fmt.Fprintf(bw, "[%s:%s]\n", m.tag, m.value); err != nil {
			return err
		}
	}

	for _, seg := range lesson.Segments {
		line := fmt.Sprintf("[%s]%s", FormatTimestamp(seg.Start), seg.Text)
		if seg.Translation != "" {
			line += " | " + seg.Translation
		}
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func WriteFile(path string, lesson *Lesson) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create LRC file: %w", err)
	}

	if err := Write(file, lesson); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write LRC file: %w", err)
	}
	return file.Close()
}

// FormatTimestamp renders d as mm:ss.cc, truncated to centiseconds.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d / time.Minute)
	seconds := int((d % time.Minute) / time.Second)
	centis := int((d % time.Second) / (10 * time.Millisecond))

	return fmt.Sprintf("%02d:%02d.%02d", minutes, seconds, centis)
}
