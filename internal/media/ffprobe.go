package media

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/silencecut/silencecut/internal/export"
)

// ProbeResult is the stream metadata ffprobe reports for one file.
type ProbeResult struct {
	Duration   float64
	Width      int
	Height     int
	FrameRate  float64
	SampleRate int
	Channels   int
	ParNum     int
	ParDen     int
	FieldOrder string // none, upper or lower
}

// MediaRef converts a probe of the proxy into the descriptor the
// serializer needs.
func (p *ProbeResult) MediaRef(path string) export.MediaRef {
	return export.MediaRef{
		Path:       path,
		FrameRate:  p.FrameRate,
		SampleRate: p.SampleRate,
		Channels:   p.Channels,
		Width:      p.Width,
		Height:     p.Height,
		ParNum:     p.ParNum,
		ParDen:     p.ParDen,
		FieldOrder: p.FieldOrder,
		Duration:   p.Duration,
	}
}

// Duration reads the container duration in seconds.
func (t *Tools) Duration(ctx context.Context, path string) (float64, error) {
	out, err := t.runProbe(ctx, path,
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
	)
	if err != nil {
		return 0, err
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: unusable duration %q for %s", ErrUpstream, strings.TrimSpace(out), path)
	}
	return d, nil
}

// Probe gathers the duration plus video and audio stream characteristics.
func (t *Tools) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	duration, err := t.Duration(ctx, path)
	if err != nil {
		return nil, err
	}

	video, err := t.runProbe(ctx, path,
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,avg_frame_rate,r_frame_rate,sample_aspect_ratio,field_order",
		"-of", "default=noprint_wrappers=1",
	)
	if err != nil {
		// Audio-only sources have no video stream; keep probing.
		video = ""
	}
	audio, err := t.runProbe(ctx, path,
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate,channels",
		"-of", "default=noprint_wrappers=1",
	)
	if err != nil {
		return nil, err
	}

	fields := parseProbeFields(video)
	for k, v := range parseProbeFields(audio) {
		fields[k] = v
	}

	res := &ProbeResult{Duration: duration}
	res.Width = atoiDefault(fields["width"], 0)
	res.Height = atoiDefault(fields["height"], 0)
	res.SampleRate = atoiDefault(fields["sample_rate"], 0)
	res.Channels = atoiDefault(fields["channels"], 0)

	rate := fields["avg_frame_rate"]
	if fps := parseRational(rate); fps > 0 {
		res.FrameRate = fps
	} else if fps := parseRational(fields["r_frame_rate"]); fps > 0 {
		res.FrameRate = fps
	} else {
		res.FrameRate = 30
	}

	res.ParNum, res.ParDen = parseSampleAspectRatio(fields["sample_aspect_ratio"])
	res.FieldOrder = fieldOrderToFCP(fields["field_order"])

	return res, nil
}

func (t *Tools) runProbe(ctx context.Context, path string, args ...string) (string, error) {
	full := append([]string{"-v", "error"}, args...)
	full = append(full, path)

	cmd := exec.CommandContext(ctx, t.ffprobe, full...)
	var stdout bytes.Buffer
	stderr := &limitedWriter{limit: maxStderrBytes}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: ffprobe %s: %v: %s", ErrUpstream, path, err, stderr.String())
	}
	return stdout.String(), nil
}

// parseProbeFields splits ffprobe "key=value" default output into a map.
func parseProbeFields(out string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return fields
}

// parseRational parses frame rates of the form "30000/1001" or "25/1".
func parseRational(s string) float64 {
	n, d, ok := strings.Cut(s, "/")
	if !ok {
		return 0
	}
	num, err := strconv.ParseFloat(n, 64)
	if err != nil {
		return 0
	}
	den, err := strconv.ParseFloat(d, 64)
	if err != nil || den == 0 {
		return 0
	}
	fps := num / den
	if math.IsNaN(fps) || math.IsInf(fps, 0) || fps <= 0 {
		return 0
	}
	return fps
}

// parseSampleAspectRatio maps ffprobe "N:M" aspect strings to a PAR
// fraction, falling back to square pixels for junk like "0:1".
func parseSampleAspectRatio(sar string) (int, int) {
	a, b, ok := strings.Cut(sar, ":")
	if !ok {
		return 1, 1
	}
	n, err1 := strconv.Atoi(a)
	d, err2 := strconv.Atoi(b)
	if err1 != nil || err2 != nil || n <= 0 || d <= 0 {
		return 1, 1
	}
	return n, d
}

// fieldOrderToFCP maps ffprobe field_order values onto the three values
// the FCP7 schema knows.
func fieldOrderToFCP(field string) string {
	switch strings.ToLower(field) {
	case "tt", "tb":
		return "upper"
	case "bb", "bt":
		return "lower"
	default:
		return "none"
	}
}

func atoiDefault(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
