package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ncestudy/nce/internal/subtitle"
	"github.com/ncestudy/nce/internal/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate [lesson_file]",
	Short: "Fill in sentence translations using AI",
	Long: `Translate the sentences of a lesson and store each result as the
sentence's translation line.

Sentences that already have a translation are kept unless --overwrite is
given. Provider, model and target language default to the translate section
of the config file.

Examples:
  nce translate lesson.lrc -t Chinese
  nce translate lesson.srt -t Japanese --provider anthropic -o lesson.ja.srt
  nce translate lesson.lrc -t Chinese --overwrite -o lesson.lrc`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().
		StringP("target-language", "t", "", "Target language for translation")
	translateCmd.Flags().
		StringP("language", "l", "English", "Language of the lesson sentences")
	translateCmd.Flags().
		StringP("output", "o", "", "Output file path (default: <input>.<target><ext>)")
	translateCmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY)")
	translateCmd.Flags().
		String("provider", "", "Translation provider (gemini, openai, anthropic)")
	translateCmd.Flags().
		String("model", "", "Model to use (provider-specific, uses sensible defaults)")
	translateCmd.Flags().
		String("prompt", "", "Additional instructions for the model")
	translateCmd.Flags().
		Int("concurrency", 0, "Number of parallel translation workers")
	translateCmd.Flags().
		Int("batch-size", 0, "Number of sentences per API request")
	translateCmd.Flags().
		Bool("overwrite", false, "Replace existing translations")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	targetLang, _ := cmd.Flags().GetString("target-language")
	inputLang, _ := cmd.Flags().GetString("language")
	outputPath, _ := cmd.Flags().GetString("output")
	apiKeyFlag, _ := cmd.Flags().GetString("api-key")
	provider, _ := cmd.Flags().GetString("provider")
	model, _ := cmd.Flags().GetString("model")
	prompt, _ := cmd.Flags().GetString("prompt")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	overwrite, _ := cmd.Flags().GetBool("overwrite")

	if targetLang == "" {
		targetLang = cfg.Translate.TargetLanguage
	}
	if provider == "" {
		provider = cfg.Translate.Provider
	}
	if model == "" {
		model = cfg.Translate.Model
	}
	if concurrency == 0 {
		concurrency = cfg.Translate.Concurrency
	}
	if batchSize == 0 {
		batchSize = cfg.Translate.BatchSize
	}

	if targetLang == "" {
		return fmt.Errorf("target language is required")
	}
	if strings.EqualFold(strings.TrimSpace(inputLang), strings.TrimSpace(targetLang)) {
		return fmt.Errorf(
			"input language %q and target language %q cannot be the same",
			inputLang,
			targetLang,
		)
	}
	if concurrency < 0 {
		return fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}
	if batchSize < 0 {
		return fmt.Errorf("batch-size must be positive, got %d", batchSize)
	}

	apiKey, err := apiKeyFor(provider, apiKeyFlag)
	if err != nil {
		return err
	}

	if _, err := subtitle.FormatFromPath(inputPath); err != nil {
		return err
	}
	if outputPath == "" {
		ext := filepath.Ext(inputPath)
		outputPath = fmt.Sprintf("%s.%s%s", strings.TrimSuffix(inputPath, ext), strings.ToLower(targetLang), ext)
	}

	lesson, err := subtitle.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to parse lesson: %w", err)
	}
	if len(lesson.Segments) == 0 {
		return fmt.Errorf("lesson contains no sentences")
	}

	logger.Infow("Starting lesson translation",
		"input", inputPath,
		"output", outputPath,
		"target_language", targetLang,
		"provider", provider,
		"sentences", len(lesson.Segments),
	)

	translator, err := translate.Factory(ctx, translate.Provider(provider), apiKey, translate.Options{
		InputLanguage:  inputLang,
		TargetLanguage: targetLang,
		Model:          model,
		Prompt:         prompt,
		BatchSize:      batchSize,
	})
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}

	filled, err := translate.FillTranslations(ctx, translator, lesson, concurrency, overwrite)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}
	logger.Infow("Translation complete", "filled", filled)

	if err := subtitle.WriteFile(outputPath, lesson); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Lesson translated successfully: %s\n", absOutput)
	fmt.Fprintf(out, "  Sentences: %d\n", len(lesson.Segments))
	fmt.Fprintf(out, "  Translated: %d\n", filled)
	fmt.Fprintf(out, "  Target language: %s\n", targetLang)
	return nil
}
