package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var srtTimestampRegex = regexp.MustCompile(
	`(\d{2,}):(\d{2}):(\d{2}),(\d{3})\s*-->\s*(\d{2,}):(\d{2}):(\d{2}),(\d{3})`,
)

func decodeSRT(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)

	var (
		entries   []Entry
		current   *Entry
		timed     bool
		textLines []string
		lineNum   int
	)

	flush := func() {
		if current != nil && timed && len(textLines) > 0 {
			current.Text = strings.Join(textLines, "\n")
			entries = append(entries, *current)
		}
		current, timed, textLines = nil, false, nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		line = strings.TrimRight(line, "\r")

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if current == nil {
			if index, err := strconv.Atoi(strings.TrimSpace(line)); err == nil {
				current = &Entry{Index: index}
				continue
			}
		}

		if current != nil && !timed {
			if m := srtTimestampRegex.FindStringSubmatch(line); m != nil {
				current.Start = parseTimestamp(m[1], m[2], m[3], m[4])
				current.End = parseTimestamp(m[5], m[6], m[7], m[8])
				timed = true
				continue
			}
		}

		if current != nil && timed {
			textLines = append(textLines, line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading SRT: %w", err)
	}
	return entries, nil
}

func encodeSRT(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for i, e := range entries {
		fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n",
			i+1,
			formatTimestamp(e.Start, ","),
			formatTimestamp(e.End, ","),
			e.Text,
		)
	}
	return bw.Flush()
}
