package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ProxyPrefix makes the proxy name unmistakable so an NLE relinking by
// name cannot grab the multichannel original instead.
const ProxyPrefix = "__SILENCECUT_MONO_PROXY__"

// ProxyPath returns the proxy location for an input file: same
// directory, prefixed name, .mov container.
func ProxyPath(input string) string {
	dir := filepath.Dir(input)
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, ProxyPrefix+base+".mov")
}

// EnsureMonoProxy creates the audio-mono proxy for the input unless a
// non-empty one already exists. Video is stream-copied; audio becomes
// 16-bit PCM mono at the given sample rate. regen forces re-creation.
func (t *Tools) EnsureMonoProxy(ctx context.Context, input string, sampleRate int, regen bool) (string, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultProxySampleRate
	}
	out := ProxyPath(input)

	if !regen {
		if info, err := os.Stat(out); err == nil && info.Size() > 0 {
			t.logger.Info("reusing existing mono proxy", "proxy", out)
			return out, nil
		}
	}

	args := []string{
		"-hide_banner", "-y",
		"-i", input,
		"-c:v", "copy",
		"-c:a", "pcm_s16le",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		out,
	}

	cmd := exec.CommandContext(ctx, t.ffmpeg, args...)
	stderr := &limitedWriter{limit: maxStderrBytes}
	cmd.Stderr = stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: mono proxy for %s: %v: %s", ErrUpstream, input, err, tail(stderr.String(), 512))
	}

	info, err := os.Stat(out)
	if err != nil || info.Size() == 0 {
		return "", fmt.Errorf("%w: mono proxy %s missing or empty after ffmpeg run", ErrUpstream, out)
	}

	t.logger.Info("created mono proxy",
		"proxy", out,
		"sample_rate", sampleRate,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return out, nil
}
