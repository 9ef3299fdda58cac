package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ncestudy/nce/internal/subtitle"
)

var convertCmd = &cobra.Command{
	Use:   "convert [input_file]",
	Short: "Convert a lesson between LRC, SRT and VTT",
	Long: `Convert a lesson file to another format, chosen by the output extension.

Translations become a second line of each cue in SRT and VTT, and an inline
" | " part in LRC.

Examples:
  nce convert lesson.lrc -o lesson.srt
  nce convert lesson.vtt -o lesson.lrc`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringP("output", "o", "", "Output file path (required)")
	_ = convertCmd.MarkFlagRequired("output")
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")

	if _, err := subtitle.FormatFromPath(outputPath); err != nil {
		return err
	}

	lesson, err := subtitle.Open(inputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("lesson file not found: %s", inputPath)
		}
		return fmt.Errorf("failed to read lesson: %w", err)
	}
	if len(lesson.Segments) == 0 {
		return fmt.Errorf("lesson contains no sentences")
	}

	logger.Infow("Converting lesson",
		"input", inputPath,
		"output", outputPath,
		"segments", len(lesson.Segments),
	)

	if err := subtitle.WriteFile(outputPath, lesson); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Lesson converted: %s\n", absOutput)
	return nil
}
