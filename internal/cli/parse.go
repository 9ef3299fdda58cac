package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ncestudy/nce/internal/clipboard"
	"github.com/ncestudy/nce/internal/lrc"
	"github.com/ncestudy/nce/internal/subtitle"
)

var parseCmd = &cobra.Command{
	Use:   "parse [lesson_file]",
	Short: "Print the sentences of a lesson",
	Long: `Parse a lesson file and print its metadata and timed sentences.

Accepts .lrc, .srt and .vtt files. With --json the lesson is printed as JSON
with times in seconds; --copy also puts the output on the clipboard.

Examples:
  nce parse "NCE1/001&002-Excuse Me.lrc"
  nce parse lesson.lrc --json --copy`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().Bool("json", false, "Print the lesson as JSON")
	parseCmd.Flags().Bool("copy", false, "Copy the output to the clipboard")
}

type sentenceJSON struct {
	Index       int     `json:"index"`
	Start       float64 `json:"start"`
	End         float64 `json:"end,omitempty"`
	Text        string  `json:"text"`
	Translation string  `json:"translation,omitempty"`
}

type lessonOutput struct {
	Metadata  lrc.Metadata   `json:"metadata"`
	Sentences []sentenceJSON `json:"sentences"`
}

func runParse(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	copyOut, _ := cmd.Flags().GetBool("copy")

	lesson, err := subtitle.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to parse lesson: %w", err)
	}
	logger.Debugw("Parsed lesson", "path", args[0], "segments", len(lesson.Segments))

	var out string
	if asJSON {
		out, err = renderJSON(lesson)
		if err != nil {
			return err
		}
	} else {
		out = renderText(lesson)
	}

	fmt.Fprint(cmd.OutOrStdout(), out)

	if copyOut {
		if clipboard.Unsupported() {
			return fmt.Errorf("clipboard is not available on this system")
		}
		if err := clipboard.WriteAll(out); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		logger.Infow("Copied to clipboard", "bytes", len(out))
	}
	return nil
}

func renderJSON(lesson *lrc.Lesson) (string, error) {
	out := lessonOutput{
		Metadata:  lesson.Metadata,
		Sentences: make([]sentenceJSON, len(lesson.Segments)),
	}
	for i, seg := range lesson.Segments {
		out.Sentences[i] = sentenceJSON{
			Index:       i,
			Start:       seg.Start.Seconds(),
			End:         seg.End.Seconds(),
			Text:        seg.Text,
			Translation: seg.Translation,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode lesson: %w", err)
	}
	return string(data) + "\n", nil
}

func renderText(lesson *lrc.Lesson) string {
	var sb strings.Builder

	meta := lesson.Metadata
	for _, m := range []struct{ label, value string }{
		{"Title", meta.Title},
		{"Artist", meta.Artist},
		{"Album", meta.Album},
		{"By", meta.Author},
	} {
		if m.value != "" {
			fmt.Fprintf(&sb, "%s: %s\n", m.label, m.value)
		}
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}

	for i, seg := range lesson.Segments {
		sb.WriteString(formatSentence(i, seg))
	}
	return sb.String()
}

// "  3 [00:05.00] text" with the translation indented below
func formatSentence(index int, seg lrc.Segment) string {
	line := fmt.Sprintf("%3d [%s] %s\n", index, lrc.FormatTimestamp(seg.Start), seg.Text)
	if seg.Translation != "" {
		line += fmt.Sprintf("%16s%s\n", "", seg.Translation)
	}
	return line
}
