package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// hours are optional in WebVTT
var vttTimestampRegex = regexp.MustCompile(
	`(?:(\d{2,}):)?(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(?:(\d{2,}):)?(\d{2}):(\d{2})\.(\d{3})`,
)

func decodeVTT(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)

	var (
		entries   []Entry
		current   *Entry
		textLines []string
		lineNum   int
	)

	flush := func() {
		if current != nil && len(textLines) > 0 {
			current.Text = strings.Join(textLines, "\n")
			entries = append(entries, *current)
		}
		current, textLines = nil, nil
	}

	skipBlock := func() {
		for scanner.Scan() {
			if strings.TrimSpace(scanner.Text()) == "" {
				return
			}
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
			if !strings.HasPrefix(line, "WEBVTT") {
				return nil, fmt.Errorf("missing WEBVTT header")
			}
			skipBlock()
			continue
		}
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)

		if current == nil && (strings.HasPrefix(trimmed, "NOTE") || strings.HasPrefix(trimmed, "STYLE")) {
			skipBlock()
			continue
		}

		if trimmed == "" {
			flush()
			continue
		}

		if m := vttTimestampRegex.FindStringSubmatch(line); m != nil {
			flush()
			current = &Entry{
				Index: len(entries) + 1,
				Start: parseTimestamp(m[1], m[2], m[3], m[4]),
				End:   parseTimestamp(m[5], m[6], m[7], m[8]),
			}
			continue
		}

		// cue identifiers precede the timing line and are dropped
		if current != nil {
			textLines = append(textLines, line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading VTT: %w", err)
	}
	return entries, nil
}

func encodeVTT(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("WEBVTT\n\n")
	for i, e := range entries {
		fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n",
			i+1,
			formatTimestamp(e.Start, "."),
			formatTimestamp(e.End, "."),
			e.Text,
		)
	}
	return bw.Flush()
}
