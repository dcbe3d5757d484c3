package silence

import "sort"

// Merge collapses arbitrary (possibly overlapping, possibly unsorted)
// intervals into a minimal disjoint set sorted ascending by start.
// Touching intervals (next.Start == current.End) are merged: contiguous
// silence is one region. The input slice is not modified.
func Merge(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	merged := make([]Interval, 0, len(sorted))
	cur := sorted[0]
	for _, iv := range sorted[1:] {
		if iv.Start <= cur.End {
			if iv.End > cur.End {
				cur.End = iv.End
			}
			continue
		}
		merged = append(merged, cur)
		cur = iv
	}
	merged = append(merged, cur)
	return merged
}

// Clamp restricts intervals to [0, duration], dropping anything that
// becomes empty. Detector output can report a silence_end slightly past
// the container duration.
func Clamp(intervals []Interval, duration float64) []Interval {
	var out []Interval
	for _, iv := range intervals {
		s, e := iv.Start, iv.End
		if s < 0 {
			s = 0
		}
		if e > duration {
			e = duration
		}
		if e > s {
			out = append(out, Interval{Start: s, End: e})
		}
	}
	return out
}
