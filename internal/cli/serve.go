package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ncestudy/nce/internal/lesson"
	"github.com/ncestudy/nce/internal/progress"
	"github.com/ncestudy/nce/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the lesson library over HTTP",
	Long: `Serve the lesson library, study progress and playback settings as a
JSON API for a browser front end.

Examples:
  nce serve
  nce serve --addr 127.0.0.1:9000 --content ~/nce`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default from config)")
	serveCmd.Flags().String("content", "", "Lesson library root (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	contentDir, _ := cmd.Flags().GetString("content")
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if contentDir == "" {
		contentDir = cfg.ContentDir
	}

	if info, err := os.Stat(contentDir); err != nil || !info.IsDir() {
		return fmt.Errorf("content directory not found: %s", contentDir)
	}

	store, err := progress.Open(cfg.ProgressFile)
	if err != nil {
		return err
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Infow("Starting server", "addr", addr, "content", contentDir)
	srv := server.New(lesson.NewLibrary(contentDir), store, cfg, logger)
	return srv.Run(ctx, addr)
}
