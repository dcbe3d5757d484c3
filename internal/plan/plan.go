// Package plan assembles silence-detection results into an immutable
// cut plan: the final keep/remove interval sets plus the parameters
// that produced them.
package plan

import (
	"errors"
	"fmt"
	"math"

	"github.com/silencecut/silencecut/internal/silence"
)

// ErrInvalidParameter marks a rejected parameter set. Callers test for
// it with errors.Is.
var ErrInvalidParameter = errors.New("invalid parameter")

// tilingTolerance bounds the floating error allowed when verifying that
// keeps and removes sum to the source duration.
const tilingTolerance = 1e-6

// Params is one detection-parameter combination.
type Params struct {
	ThresholdDb      float64 `json:"threshold_db"`
	MinSilenceSec    float64 `json:"min_silence_sec"`
	PadSec           float64 `json:"pad_sec"`
	MinKeepSec       float64 `json:"min_keep_sec"`
	AudioStreamIndex int     `json:"audio_stream_index"`
}

// DefaultParams mirrors the defaults of the interactive tool.
func DefaultParams() Params {
	return Params{
		ThresholdDb:   -35,
		MinSilenceSec: 0.25,
		PadSec:        0.08,
		MinKeepSec:    0.10,
	}
}

// Validate fails fast on parameters the pipeline cannot honor.
func (p Params) Validate() error {
	if p.ThresholdDb > 0 {
		return fmt.Errorf("%w: threshold_db must be <= 0 dB, got %.2f", ErrInvalidParameter, p.ThresholdDb)
	}
	if p.MinSilenceSec < 0 {
		return fmt.Errorf("%w: min_silence_sec must be >= 0, got %.3f", ErrInvalidParameter, p.MinSilenceSec)
	}
	if p.PadSec < 0 {
		return fmt.Errorf("%w: pad_sec must be >= 0, got %.3f", ErrInvalidParameter, p.PadSec)
	}
	if p.MinKeepSec < 0 {
		return fmt.Errorf("%w: min_keep_sec must be >= 0, got %.3f", ErrInvalidParameter, p.MinKeepSec)
	}
	if p.AudioStreamIndex < 0 {
		return fmt.Errorf("%w: audio_stream_index must be >= 0, got %d", ErrInvalidParameter, p.AudioStreamIndex)
	}
	return nil
}

// KeepSegment is a kept interval plus its position in timeline order.
type KeepSegment struct {
	silence.Interval
	Index int `json:"index"`
}

// Plan is the pipeline's immutable output. Keeps and Removes tile
// [0, SourceDuration] exactly; callers wanting different parameters
// build a new Plan.
type Plan struct {
	SourceDuration float64            `json:"source_duration"`
	Params         Params             `json:"params"`
	Keeps          []KeepSegment      `json:"keeps"`
	Removes        []silence.Interval `json:"removes"`
	Warnings       []silence.Warning  `json:"warnings,omitempty"`
}

// KeptDuration returns the total seconds retained by the plan.
func (p *Plan) KeptDuration() float64 {
	total := 0.0
	for _, k := range p.Keeps {
		total += k.Duration()
	}
	return total
}

// RemovedDuration returns the total seconds cut by the plan.
func (p *Plan) RemovedDuration() float64 {
	total := 0.0
	for _, r := range p.Removes {
		total += r.Duration()
	}
	return total
}

// Empty reports whether the plan keeps nothing. An empty plan is valid
// for preview but cannot be serialized into a timeline.
func (p *Plan) Empty() bool {
	return len(p.Keeps) == 0
}

// BuildFromReport parses a raw silencedetect report and builds a Plan.
// It performs no I/O; the report text and duration are handed in.
func BuildFromReport(report string, sourceDuration float64, params Params) (*Plan, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if sourceDuration <= 0 {
		return nil, fmt.Errorf("%w: source duration must be > 0, got %.3f", ErrInvalidParameter, sourceDuration)
	}

	res := silence.ParseReport(report, sourceDuration)
	p, err := build(res.Silences, sourceDuration, params)
	if err != nil {
		return nil, err
	}
	p.Warnings = res.Warnings
	return p, nil
}

// BuildFromSilences builds a Plan from pre-parsed silences, supporting
// fast parameter retuning without re-running the detector.
func BuildFromSilences(silences []silence.Interval, sourceDuration float64, params Params) (*Plan, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if sourceDuration <= 0 {
		return nil, fmt.Errorf("%w: source duration must be > 0, got %.3f", ErrInvalidParameter, sourceDuration)
	}
	return build(silences, sourceDuration, params)
}

func build(silences []silence.Interval, duration float64, params Params) (*Plan, error) {
	merged := silence.Merge(silence.Clamp(silences, duration))
	keepIVs := silence.InvertToKeeps(merged, duration, params.PadSec, params.MinKeepSec)

	keeps := make([]KeepSegment, len(keepIVs))
	for i, iv := range keepIVs {
		keeps[i] = KeepSegment{Interval: iv, Index: i}
	}

	// Removes are re-derived from the final keeps, not from the merged
	// silences: padding and min-keep filtering moved the boundaries.
	removes := silence.Complement(keepIVs, duration)

	p := &Plan{
		SourceDuration: duration,
		Params:         params,
		Keeps:          keeps,
		Removes:        removes,
	}

	if diff := math.Abs(p.KeptDuration() + p.RemovedDuration() - duration); diff > tilingTolerance {
		return nil, fmt.Errorf("plan invariant violated: keeps+removes cover %.9f of %.9f seconds",
			p.KeptDuration()+p.RemovedDuration(), duration)
	}

	return p, nil
}
