package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ncestudy/nce/internal/config"
	"github.com/ncestudy/nce/internal/logging"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "nce",
	Short: "Study New Concept English lessons sentence by sentence",
	Long: `nce reads New Concept English lesson files (LRC with bilingual lines)
and follows the recording sentence by sentence.

It can also cut per-sentence audio clips, convert lessons to SRT or VTT,
fill in translations and transcribe recordings with AI providers, and
serve the lesson library over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logger.Debugw("Loaded config", "path", cfg.Path())
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", defaultConfigPath(), "Config file path")
}

// NCE_CONFIG overrides the default config location
func defaultConfigPath() string {
	if p := os.Getenv("NCE_CONFIG"); p != "" {
		return p
	}
	return config.DefaultPath
}
