package api

import (
	"github.com/go-playground/validator/v10"

	"github.com/silencecut/silencecut/internal/plan"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

// PlanRequest asks for a cut plan, either from a pasted silencedetect
// report or from a media file on disk. Unset parameters fall back to
// the pipeline defaults.
type PlanRequest struct {
	Report         string  `json:"report,omitempty"`
	Path           string  `json:"path,omitempty"`
	SourceDuration float64 `json:"source_duration,omitempty" validate:"omitempty,gt=0"`

	ThresholdDb      *float64 `json:"threshold_db,omitempty" validate:"omitempty,lte=0"`
	MinSilenceSec    *float64 `json:"min_silence_sec,omitempty" validate:"omitempty,gte=0"`
	PadSec           *float64 `json:"pad_sec,omitempty" validate:"omitempty,gte=0"`
	MinKeepSec       *float64 `json:"min_keep_sec,omitempty" validate:"omitempty,gte=0"`
	AudioStreamIndex *int     `json:"audio_stream_index,omitempty" validate:"omitempty,gte=0"`

	NoCache bool `json:"no_cache,omitempty"`
}

// Params merges the request overrides onto the defaults.
func (r *PlanRequest) Params() plan.Params {
	p := plan.DefaultParams()
	if r.ThresholdDb != nil {
		p.ThresholdDb = *r.ThresholdDb
	}
	if r.MinSilenceSec != nil {
		p.MinSilenceSec = *r.MinSilenceSec
	}
	if r.PadSec != nil {
		p.PadSec = *r.PadSec
	}
	if r.MinKeepSec != nil {
		p.MinKeepSec = *r.MinKeepSec
	}
	if r.AudioStreamIndex != nil {
		p.AudioStreamIndex = *r.AudioStreamIndex
	}
	return p
}

type PlanResponse struct {
	Plan            *plan.Plan `json:"plan"`
	Cached          bool       `json:"cached"`
	KeptDuration    float64    `json:"kept_duration"`
	RemovedDuration float64    `json:"removed_duration"`
}

type ExportRequest struct {
	Path      string `json:"path" validate:"required"`
	OutputDir string `json:"output_dir" validate:"required"`
	Format    string `json:"format,omitempty"`
	Title     string `json:"title,omitempty"`

	ThresholdDb      *float64 `json:"threshold_db,omitempty" validate:"omitempty,lte=0"`
	MinSilenceSec    *float64 `json:"min_silence_sec,omitempty" validate:"omitempty,gte=0"`
	PadSec           *float64 `json:"pad_sec,omitempty" validate:"omitempty,gte=0"`
	MinKeepSec       *float64 `json:"min_keep_sec,omitempty" validate:"omitempty,gte=0"`
	AudioStreamIndex *int     `json:"audio_stream_index,omitempty" validate:"omitempty,gte=0"`

	RegenProxy bool `json:"regen_proxy,omitempty"`
	NoCache    bool `json:"no_cache,omitempty"`
}

func (r *ExportRequest) Params() plan.Params {
	p := plan.DefaultParams()
	if r.ThresholdDb != nil {
		p.ThresholdDb = *r.ThresholdDb
	}
	if r.MinSilenceSec != nil {
		p.MinSilenceSec = *r.MinSilenceSec
	}
	if r.PadSec != nil {
		p.PadSec = *r.PadSec
	}
	if r.MinKeepSec != nil {
		p.MinKeepSec = *r.MinKeepSec
	}
	if r.AudioStreamIndex != nil {
		p.AudioStreamIndex = *r.AudioStreamIndex
	}
	return p
}

type ExportResponse struct {
	Status          string  `json:"status"`
	Format          string  `json:"format"`
	OutputPath      string  `json:"output_path"`
	ProxyPath       string  `json:"proxy_path"`
	ClipCount       int     `json:"clip_count"`
	KeptDuration    float64 `json:"kept_duration"`
	RemovedDuration float64 `json:"removed_duration"`
	WarningCount    int     `json:"warning_count"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
