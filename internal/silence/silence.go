// Package silence implements the detection-to-keeps interval pipeline:
// parsing ffmpeg silencedetect reports, merging silence intervals and
// inverting them into kept regions under padding and minimum-length rules.
package silence

import "fmt"

// Interval is a half-open time range in seconds within a media file.
// It represents either a silent region or a kept region.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the interval length in seconds.
func (iv Interval) Duration() float64 {
	return iv.End - iv.Start
}

// Valid reports whether the interval is well-formed (0 <= Start < End).
func (iv Interval) Valid() bool {
	return iv.Start >= 0 && iv.End > iv.Start
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%.3f, %.3f)", iv.Start, iv.End)
}

// Warning records a detector report line that could not be parsed.
// Warnings never abort a parse; they are aggregated on the result.
type Warning struct {
	Line    int    `json:"line"`
	Text    string `json:"text"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s (%q)", w.Line, w.Message, w.Text)
}
