package subtitle

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// timed cue of an SRT or VTT file
type Entry struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// supported file formats
type Format string

const (
	FormatLRC Format = "lrc"
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".lrc":
		return FormatLRC, nil
	case ".srt":
		return FormatSRT, nil
	case ".vtt":
		return FormatVTT, nil
	default:
		return "", fmt.Errorf("unsupported subtitle format: %q", ext)
	}
}

func parseTimestamp(hours, minutes, seconds, millis string) time.Duration {
	h := atoi(hours)
	m := atoi(minutes)
	s := atoi(seconds)
	ms := atoi(millis)

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond
}

// digits only, guaranteed by the timestamp regexes
func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

func formatTimestamp(d time.Duration, sep string) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d%s%03d", hours, minutes, seconds, sep, millis)
}
