package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ncestudy/nce/internal/audio"
	"github.com/ncestudy/nce/internal/subtitle"
)

var clipCmd = &cobra.Command{
	Use:   "clip [lesson_file]",
	Short: "Cut one audio file per sentence",
	Long: `Cut the lesson recording into one clip per sentence, for drilling
sentences on their own.

The recording defaults to the .mp3 next to the lesson file. Clips are named
<audio>_001.mp3, <audio>_002.mp3 and so on; the last sentence runs to the end
of the recording.

Examples:
  nce clip "NCE1/001&002-Excuse Me.lrc"
  nce clip lesson.lrc --audio lesson.mp3 -o clips --concurrency 8`,
	Args: cobra.ExactArgs(1),
	RunE: runClip,
}

func init() {
	rootCmd.AddCommand(clipCmd)

	clipCmd.Flags().
		StringP("audio", "a", "", "Lesson recording (default: <lesson>.mp3)")
	clipCmd.Flags().
		StringP("output", "o", "", "Output directory (default: <lesson>_clips)")
	clipCmd.Flags().
		Int("concurrency", 4, "Number of parallel ffmpeg processes")
}

func runClip(cmd *cobra.Command, args []string) error {
	lessonPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	audioPath, _ := cmd.Flags().GetString("audio")
	outDir, _ := cmd.Flags().GetString("output")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	base := strings.TrimSuffix(lessonPath, filepath.Ext(lessonPath))
	if audioPath == "" {
		audioPath = base + ".mp3"
	}
	if outDir == "" {
		outDir = base + "_clips"
	}
	if concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}
	if _, err := os.Stat(audioPath); err != nil {
		return fmt.Errorf("audio file not found: %s", audioPath)
	}

	lesson, err := subtitle.Open(lessonPath)
	if err != nil {
		return fmt.Errorf("failed to parse lesson: %w", err)
	}
	if len(lesson.Segments) == 0 {
		return fmt.Errorf("lesson contains no sentences")
	}

	logger.Infow("Cutting sentence clips",
		"lesson", lessonPath,
		"audio", audioPath,
		"output", outDir,
		"sentences", len(lesson.Segments),
	)

	clips, err := audio.ClipSegments(ctx, audioPath, lesson.Segments, outDir, concurrency)
	if err != nil {
		return fmt.Errorf("clipping failed: %w", err)
	}

	absDir, _ := filepath.Abs(outDir)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Clips written to %s\n", absDir)
	for _, c := range clips {
		fmt.Fprintf(out, "  %s  %s\n", filepath.Base(c.Path), lesson.Segments[c.Index].Text)
	}
	return nil
}
