package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DetectSilence runs ffmpeg silencedetect over the file's audio and
// returns the raw stderr report for the parser. Detection is forced to
// mono for stability; streamIndex selects the audio stream (0 = first).
// ffmpeg writes the report to stderr, so stderr is captured in full.
func (t *Tools) DetectSilence(ctx context.Context, path string, thresholdDb, minSilenceSec float64, streamIndex int) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	filter := fmt.Sprintf("silencedetect=noise=%.6gdB:d=%.6g", thresholdDb, minSilenceSec)
	args := []string{"-hide_banner", "-i", path}
	if streamIndex > 0 {
		args = append(args, "-map", fmt.Sprintf("0:a:%d", streamIndex))
	}
	args = append(args, "-vn", "-ac", "1", "-af", filter, "-f", "null", "-")

	cmd := exec.CommandContext(ctx, t.ffmpeg, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = nil

	start := time.Now()
	err := cmd.Run()
	report := stderr.String()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("%w: silencedetect on %s: %v", ErrUpstream, path, ctxErr)
	}
	if err != nil && !strings.Contains(report, "silence") {
		return "", fmt.Errorf("%w: silencedetect on %s: %v: %s", ErrUpstream, path, err, tail(report, 512))
	}
	if strings.TrimSpace(report) == "" {
		return "", fmt.Errorf("%w: ffmpeg produced no silencedetect output for %s", ErrUpstream, path)
	}

	t.logger.Info("silencedetect complete",
		"path", path,
		"threshold_db", thresholdDb,
		"min_silence_sec", minSilenceSec,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return report, nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
