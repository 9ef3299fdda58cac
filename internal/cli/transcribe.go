package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ncestudy/nce/internal/audio"
	"github.com/ncestudy/nce/internal/lrc"
	"github.com/ncestudy/nce/internal/subtitle"
	"github.com/ncestudy/nce/internal/transcribe"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [media_file]",
	Short: "Create a lesson file from a recording using AI",
	Long: `Transcribe an audio or video recording into a timed lesson file.

Video files have their audio extracted first; audio is re-encoded to a small
mono mp3 before upload. The output format follows the output extension and
defaults to .lrc next to the input.

Examples:
  nce transcribe "001&002-Excuse Me.mp3"
  nce transcribe lesson.mp4 --provider openai -o lesson.srt
  nce transcribe lesson.mp3 --title "Excuse me!"`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)

	transcribeCmd.Flags().
		StringP("output", "o", "", "Output lesson path (default: <input>.lrc)")
	transcribeCmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY)")
	transcribeCmd.Flags().
		String("provider", "", "Transcription provider (gemini, openai)")
	transcribeCmd.Flags().
		String("model", "", "Model to use (provider-specific, uses sensible defaults)")
	transcribeCmd.Flags().
		StringP("language", "l", "", "Spoken language of the recording")
	transcribeCmd.Flags().
		String("title", "", "Lesson title written to the [ti:] tag")
	transcribeCmd.Flags().
		String("prompt", "", "Additional instructions for the model")
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	mediaPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	outputPath, _ := cmd.Flags().GetString("output")
	apiKeyFlag, _ := cmd.Flags().GetString("api-key")
	provider, _ := cmd.Flags().GetString("provider")
	model, _ := cmd.Flags().GetString("model")
	language, _ := cmd.Flags().GetString("language")
	title, _ := cmd.Flags().GetString("title")
	prompt, _ := cmd.Flags().GetString("prompt")

	if provider == "" {
		provider = cfg.Transcribe.Provider
	}
	if model == "" {
		model = cfg.Transcribe.Model
	}
	if language == "" {
		language = cfg.Transcribe.Language
	}

	if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", mediaPath)
	}
	if !audio.IsMediaFile(mediaPath) {
		return fmt.Errorf("unsupported file type: %s (expected audio or video file)", filepath.Ext(mediaPath))
	}

	if outputPath == "" {
		outputPath = strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + ".lrc"
	}
	if _, err := subtitle.FormatFromPath(outputPath); err != nil {
		return err
	}

	apiKey, err := apiKeyFor(provider, apiKeyFlag)
	if err != nil {
		return err
	}

	tempDir, err := os.MkdirTemp("", "nce-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(tempDir)
	}()

	logger.Infow("Preparing audio for transcription", "input", mediaPath)
	audioPath := filepath.Join(tempDir, "audio.mp3")
	if err := audio.ExtractAudio(ctx, mediaPath, audioPath, audio.DefaultTranscriptionOptions()); err != nil {
		return fmt.Errorf("failed to prepare audio: %w", err)
	}

	transcriber, err := transcribe.Factory(ctx, transcribe.Provider(provider), apiKey, transcribe.Options{
		Language: language,
		Model:    model,
		Prompt:   prompt,
	})
	if err != nil {
		return fmt.Errorf("failed to create transcriber: %w", err)
	}

	logger.Infow("Transcribing audio", "provider", provider)
	result, err := transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}

	lesson := transcribe.ToLesson(result, lrc.Metadata{Title: title})
	if len(lesson.Segments) == 0 {
		return fmt.Errorf("transcription returned no sentences")
	}
	logger.Infow("Transcription complete", "segments", len(lesson.Segments))

	if err := subtitle.WriteFile(outputPath, lesson); err != nil {
		return fmt.Errorf("failed to write lesson: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Lesson transcribed successfully: %s\n", absOutput)
	fmt.Fprintf(out, "  Sentences: %d\n", len(lesson.Segments))
	if result.Duration > 0 {
		fmt.Fprintf(out, "  Duration: %s\n", result.Duration)
	}
	return nil
}
