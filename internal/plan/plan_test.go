package plan

import (
	"errors"
	"math"
	"testing"

	"github.com/silencecut/silencecut/internal/silence"
)

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr bool
	}{
		{name: "defaults ok", mutate: func(p *Params) {}, wantErr: false},
		{name: "zero threshold ok", mutate: func(p *Params) { p.ThresholdDb = 0 }, wantErr: false},
		{name: "positive threshold", mutate: func(p *Params) { p.ThresholdDb = 3 }, wantErr: true},
		{name: "negative min silence", mutate: func(p *Params) { p.MinSilenceSec = -0.1 }, wantErr: true},
		{name: "negative pad", mutate: func(p *Params) { p.PadSec = -0.01 }, wantErr: true},
		{name: "negative min keep", mutate: func(p *Params) { p.MinKeepSec = -1 }, wantErr: true},
		{name: "negative stream index", mutate: func(p *Params) { p.AudioStreamIndex = -1 }, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultParams()
			tc.mutate(&p)
			err := p.Validate()
			if tc.wantErr && !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("expected ErrInvalidParameter, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestBuildFromReport_WorkedExample(t *testing.T) {
	report := "silence_start: 1.0\nsilence_end: 2.0\nsilence_start: 5.0\n"
	params := DefaultParams()
	params.PadSec = 0.1
	params.MinKeepSec = 0.1

	p, err := BuildFromReport(report, 6.0, params)
	if err != nil {
		t.Fatalf("BuildFromReport: %v", err)
	}

	if len(p.Keeps) != 2 {
		t.Fatalf("expected 2 keeps, got %v", p.Keeps)
	}
	assertNear(t, p.Keeps[0].Start, 0.0)
	assertNear(t, p.Keeps[0].End, 0.9)
	assertNear(t, p.Keeps[1].Start, 2.1)
	assertNear(t, p.Keeps[1].End, 4.9)

	if len(p.Removes) != 2 {
		t.Fatalf("expected 2 removes, got %v", p.Removes)
	}
	assertNear(t, p.Removes[0].Start, 0.9)
	assertNear(t, p.Removes[0].End, 2.1)
	assertNear(t, p.Removes[1].Start, 4.9)
	assertNear(t, p.Removes[1].End, 6.0)

	for i, k := range p.Keeps {
		if k.Index != i {
			t.Fatalf("keep %d has index %d", i, k.Index)
		}
	}
}

func TestBuildFromSilences_TilingInvariant(t *testing.T) {
	silences := []silence.Interval{{Start: 1, End: 2}, {Start: 3, End: 3.7}, {Start: 8, End: 9.5}}

	for _, pad := range []float64{0, 0.05, 0.3, 1.5} {
		params := DefaultParams()
		params.PadSec = pad

		p, err := BuildFromSilences(silences, 12.0, params)
		if err != nil {
			t.Fatalf("pad %.2f: %v", pad, err)
		}
		total := p.KeptDuration() + p.RemovedDuration()
		if math.Abs(total-12.0) > 1e-6 {
			t.Fatalf("pad %.2f: keeps+removes = %.9f, want 12", pad, total)
		}
	}
}

func TestBuildFromSilences_MinKeepFloor(t *testing.T) {
	silences := []silence.Interval{
		{Start: 0.5, End: 1}, {Start: 1.2, End: 3}, {Start: 3.3, End: 7},
	}
	params := DefaultParams()
	params.MinKeepSec = 0.4

	p, err := BuildFromSilences(silences, 8.0, params)
	if err != nil {
		t.Fatalf("BuildFromSilences: %v", err)
	}
	for _, k := range p.Keeps {
		if k.Duration() < params.MinKeepSec {
			t.Fatalf("keep %v shorter than min keep %.2f", k.Interval, params.MinKeepSec)
		}
	}
}

func TestBuildFromSilences_EmptyPlanIsValid(t *testing.T) {
	p, err := BuildFromSilences([]silence.Interval{{Start: 0, End: 10}}, 10.0, DefaultParams())
	if err != nil {
		t.Fatalf("fully silent input should still build: %v", err)
	}
	if !p.Empty() {
		t.Fatalf("expected empty plan, got keeps %v", p.Keeps)
	}
	if len(p.Removes) != 1 || p.Removes[0] != (silence.Interval{Start: 0, End: 10}) {
		t.Fatalf("expected removes [(0,10)], got %v", p.Removes)
	}
}

func TestBuild_RejectsNonPositiveDuration(t *testing.T) {
	_, err := BuildFromReport("silence_start: 1\nsilence_end: 2\n", 0, DefaultParams())
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for zero duration, got %v", err)
	}
	_, err = BuildFromSilences(nil, -3, DefaultParams())
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for negative duration, got %v", err)
	}
}

func TestBuildFromReport_CarriesWarnings(t *testing.T) {
	report := "silence_start: bogus\nsilence_start: 1\nsilence_end: 2\n"
	p, err := BuildFromReport(report, 5.0, DefaultParams())
	if err != nil {
		t.Fatalf("BuildFromReport: %v", err)
	}
	if len(p.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", p.Warnings)
	}
}

func assertNear(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("got %.9f, want %.9f", got, want)
	}
}
