package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/silencecut/silencecut/internal/cache"
	"github.com/silencecut/silencecut/internal/config"
	"github.com/silencecut/silencecut/internal/export"
	"github.com/silencecut/silencecut/internal/logging"
	"github.com/silencecut/silencecut/internal/media"
	"github.com/silencecut/silencecut/internal/plan"
)

var cutCmd = &cobra.Command{
	Use:   "cut <input-file>",
	Short: "Detect silences and export a cut timeline",
	Long: `Cut probes the input, creates a mono audio proxy, runs silencedetect
and writes a timeline document next to the input (or to --output) in
which only the audible segments remain, placed back to back.`,
	Args: cobra.ExactArgs(1),
	RunE: runCut,
}

var (
	thresholdDb float64
	minSilence  float64
	pad         float64
	minKeep     float64
	audioStream int
	formatName  string
	outputPath  string
	regenProxy  bool
	noCache     bool
)

func init() {
	defaults := plan.DefaultParams()

	cutCmd.Flags().Float64VarP(&thresholdDb, "threshold", "t", defaults.ThresholdDb, "silence threshold in dBFS")
	cutCmd.Flags().Float64VarP(&minSilence, "min-silence", "s", defaults.MinSilenceSec, "minimum silence duration in seconds")
	cutCmd.Flags().Float64VarP(&pad, "pad", "p", defaults.PadSec, "seconds of silence to keep around each cut")
	cutCmd.Flags().Float64VarP(&minKeep, "min-keep", "k", defaults.MinKeepSec, "drop kept segments shorter than this")
	cutCmd.Flags().IntVar(&audioStream, "audio-stream", defaults.AudioStreamIndex, "audio stream index to analyze")
	cutCmd.Flags().StringVarP(&formatName, "format", "f", "fcpxml", "output format: fcpxml or edl")
	cutCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path (default: <input>__nosilence.<ext>)")
	cutCmd.Flags().BoolVar(&regenProxy, "regen-proxy", false, "recreate the mono proxy even if one exists")
	cutCmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the plan cache")

	rootCmd.AddCommand(cutCmd)
}

func runCut(cmd *cobra.Command, args []string) error {
	absPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if info, err := os.Stat(absPath); err != nil {
		return fmt.Errorf("input file: %w", err)
	} else if info.IsDir() {
		return fmt.Errorf("input %s is a directory", absPath)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := slog.Default()

	params := plan.Params{
		ThresholdDb:      thresholdDb,
		MinSilenceSec:    minSilence,
		PadSec:           pad,
		MinKeepSec:       minKeep,
		AudioStreamIndex: audioStream,
	}
	if err := params.Validate(); err != nil {
		return err
	}

	format, err := export.ForName(formatName)
	if err != nil {
		return err
	}

	tools := media.NewTools(media.Config{
		FFmpegPath:    cfg.FFmpegPath,
		FFprobePath:   cfg.FFprobePath,
		DetectTimeout: cfg.DetectTimeout(),
		Logger:        logger,
	})
	if err := tools.Check(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := openPlanCache(cfg, logger)
	if store != nil {
		defer store.Close()
	}

	p, cached, err := buildPlan(ctx, tools, store, absPath, params, logger)
	if err != nil {
		return err
	}
	for _, warn := range p.Warnings {
		logger.Warn("silencedetect report irregularity", "line", warn.Line, "message", warn.Message)
	}
	if p.Empty() {
		return fmt.Errorf("plan keeps nothing: the whole recording is silent at %.1f dB", params.ThresholdDb)
	}
	if cached {
		logger.Info("reusing cached plan", "keeps", len(p.Keeps))
	}

	proxyPath, err := tools.EnsureMonoProxy(ctx, absPath, cfg.ProxySampleRate, regenProxy)
	if err != nil {
		return err
	}
	probe, err := tools.Probe(ctx, proxyPath)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(absPath), filepath.Ext(absPath))
	title := export.SanitizeTitle(base + "__nosilence")

	doc, err := format.Render(p, probe.MediaRef(proxyPath), title)
	if err != nil {
		return err
	}

	dest := outputPath
	if dest == "" {
		dest = filepath.Join(filepath.Dir(absPath), title+"."+format.Extension())
	}
	if err := os.WriteFile(dest, doc, 0o644); err != nil {
		return fmt.Errorf("write timeline: %w", err)
	}

	fmt.Printf("Wrote %s\n", dest)
	fmt.Printf("  clips:   %d\n", len(p.Keeps))
	fmt.Printf("  kept:    %.2fs of %.2fs\n", p.KeptDuration(), p.SourceDuration)
	fmt.Printf("  removed: %.2fs\n", p.RemovedDuration())
	return nil
}

// openPlanCache opens the sqlite plan cache, returning nil when caching
// is disabled or unavailable. A broken cache never fails the cut.
func openPlanCache(cfg *config.Config, logger *slog.Logger) *cache.Store {
	if noCache {
		return nil
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Warn("plan cache disabled", "error", err)
		return nil
	}
	store, err := cache.Open(cfg.DBPath(), logger)
	if err != nil {
		logger.Warn("plan cache disabled", "error", err)
		return nil
	}
	return store
}

// buildPlan produces the cut plan for a file, consulting the cache when
// available. The bool result reports a cache hit.
func buildPlan(ctx context.Context, tools *media.Tools, store *cache.Store, path string, params plan.Params, logger *slog.Logger) (*plan.Plan, bool, error) {
	var fingerprint string
	if store != nil {
		fp, err := cache.Fingerprint(path, params)
		if err != nil {
			return nil, false, err
		}
		fingerprint = fp
		if p, ok, err := store.Get(ctx, fingerprint); err == nil && ok {
			return p, true, nil
		}
	}

	duration, err := tools.Duration(ctx, path)
	if err != nil {
		return nil, false, err
	}
	logger.Info("detecting silence",
		"path", logging.SanitizePath(path),
		"threshold_db", params.ThresholdDb,
		"min_silence_sec", params.MinSilenceSec,
	)
	report, err := tools.DetectSilence(ctx, path, params.ThresholdDb, params.MinSilenceSec, params.AudioStreamIndex)
	if err != nil {
		return nil, false, err
	}
	p, err := plan.BuildFromReport(report, duration, params)
	if err != nil {
		return nil, false, err
	}

	if store != nil {
		if err := store.Put(ctx, fingerprint, path, p); err != nil {
			logger.Warn("plan cache write failed", "error", err)
		}
	}
	return p, false, nil
}
