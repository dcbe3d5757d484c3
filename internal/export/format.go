// Package export renders cut plans into editor-interchange timeline
// documents. Clips are placed back-to-back on the output timeline so the
// removed regions introduce no gaps (ripple delete).
package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/silencecut/silencecut/internal/plan"
)

// ErrEmptyPlan is returned when a plan keeps no segments: there is
// nothing to place on a timeline. Distinct from a parameter error; an
// empty plan is still valid for preview.
var ErrEmptyPlan = errors.New("plan keeps no segments")

// MediaRef describes the proxy media every clip references. It is
// supplied by the probing collaborator, never computed here.
type MediaRef struct {
	Path       string  `json:"path"`
	FrameRate  float64 `json:"frame_rate"`
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	ParNum     int     `json:"par_num"`
	ParDen     int     `json:"par_den"`
	FieldOrder string  `json:"field_order"` // none, upper or lower
	Duration   float64 `json:"duration"`
}

// Format renders a plan into one editor's exchange format. Rendering is
// deterministic: the same plan and media yield byte-identical output.
type Format interface {
	// Render serializes the plan. It fails with ErrEmptyPlan when the
	// plan keeps nothing.
	Render(p *plan.Plan, media MediaRef, title string) ([]byte, error)

	// Extension returns the output filename extension, without dot.
	Extension() string
}

// ForName resolves a format by its CLI/API name.
func ForName(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "fcpxml", "xml", "":
		return FCP7XML{}, nil
	case "edl":
		return EDL{}, nil
	default:
		return nil, fmt.Errorf("unknown export format %q (supported: fcpxml, edl)", name)
	}
}
