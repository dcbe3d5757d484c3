// Package media wraps the external ffmpeg/ffprobe collaborators: probing
// stream metadata, running silencedetect and producing the mono proxy.
// The core pipeline never shells out; everything process-shaped lives here.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// ErrUpstream marks a failure of an external collaborator (ffmpeg or
// ffprobe). It is surfaced to the caller, never retried here.
var ErrUpstream = errors.New("media tool failed")

const (
	// maxStderrBytes bounds the stderr tail kept for diagnostics on
	// commands whose stderr we do not need in full.
	maxStderrBytes = 8 * 1024

	// DefaultProxySampleRate is the audio rate of the mono proxy.
	DefaultProxySampleRate = 48000
)

// Config holds tool paths and timeouts for the wrappers.
type Config struct {
	FFmpegPath    string        // empty = "ffmpeg" from PATH
	FFprobePath   string        // empty = "ffprobe" from PATH
	DetectTimeout time.Duration // 0 = no timeout beyond ctx
	Logger        *slog.Logger
}

// Tools invokes ffmpeg and ffprobe.
type Tools struct {
	ffmpeg  string
	ffprobe string
	timeout time.Duration
	logger  *slog.Logger
}

// NewTools creates the wrapper, defaulting tool names to PATH lookup.
func NewTools(cfg Config) *Tools {
	ffmpeg := cfg.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	ffprobe := cfg.FFprobePath
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Tools{ffmpeg: ffmpeg, ffprobe: ffprobe, timeout: cfg.DetectTimeout, logger: logger}
}

// Check verifies both binaries are reachable on PATH.
func (t *Tools) Check() error {
	for _, name := range []string{t.ffmpeg, t.ffprobe} {
		if _, err := exec.LookPath(name); err != nil {
			return fmt.Errorf("%w: %q not found on PATH", ErrUpstream, name)
		}
	}
	return nil
}

// limitedWriter keeps only the last limit bytes written to it.
type limitedWriter struct {
	buf   bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.buf.Write(p)
	if lw.buf.Len() > lw.limit {
		b := lw.buf.Bytes()
		tail := make([]byte, lw.limit)
		copy(tail, b[len(b)-lw.limit:])
		lw.buf.Reset()
		lw.buf.Write(tail)
	}
	return n, nil
}

func (lw *limitedWriter) String() string {
	return lw.buf.String()
}
