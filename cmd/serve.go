package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/silencecut/silencecut/internal/api"
	"github.com/silencecut/silencecut/internal/cache"
	"github.com/silencecut/silencecut/internal/config"
	"github.com/silencecut/silencecut/internal/logging"
	"github.com/silencecut/silencecut/internal/media"
	"github.com/silencecut/silencecut/internal/playback"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP agent",
	Long: `Serve starts a loopback HTTP server exposing plan previews, timeline
exports and proxy audition to editor panels and other local tooling.`,
	RunE: runServe,
}

var servePort int

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default: SILENCECUT_PORT or 8775)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	startTime := time.Now()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.WithComponent(cfg.NewLogger(), "agent")
	logger.Info("starting silencecut agent", "version", config.Version, "data_dir", logging.SanitizePath(cfg.DataDir))

	tools := media.NewTools(media.Config{
		FFmpegPath:    cfg.FFmpegPath,
		FFprobePath:   cfg.FFprobePath,
		DetectTimeout: cfg.DetectTimeout(),
		Logger:        logger,
	})
	// Report-based planning still works without the tools, so a missing
	// ffmpeg only degrades the agent.
	if err := tools.Check(); err != nil {
		logger.Warn("media tools unavailable, path-based planning disabled", "error", err)
	}

	var store *cache.Store
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Warn("plan cache disabled", "error", err)
	} else if store, err = cache.Open(cfg.DBPath(), logger); err != nil {
		logger.Warn("plan cache disabled", "error", err)
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:            cfg.Port,
		Tools:           tools,
		Cache:           store,
		Playback:        playback.NewServer(logger, media.ProxyPrefix),
		ProxySampleRate: cfg.ProxySampleRate,
		Logger:          logger,
		StartTime:       startTime,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return apiServer.Shutdown(shutdownCtx)
}
