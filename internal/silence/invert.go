package silence

// InvertToKeeps computes the kept regions of [0, duration]: each silence
// is grown outward by pad seconds (clamped to the media bounds), the
// grown removes are re-merged, and the complement is emitted. Keeps
// shorter than minKeep are dropped and re-absorbed into removed time.
// Two silences closer together than 2*pad swallow the keep between them.
func InvertToKeeps(silences []Interval, duration, pad, minKeep float64) []Interval {
	if duration <= 0 {
		return nil
	}

	var removes []Interval
	for _, iv := range silences {
		s := iv.Start - pad
		e := iv.End + pad
		if s < 0 {
			s = 0
		}
		if e > duration {
			e = duration
		}
		if e > s {
			removes = append(removes, Interval{Start: s, End: e})
		}
	}
	removes = Merge(removes)

	var keeps []Interval
	cursor := 0.0
	for _, iv := range removes {
		if iv.Start > cursor && iv.Start-cursor >= minKeep {
			keeps = append(keeps, Interval{Start: cursor, End: iv.Start})
		}
		if iv.End > cursor {
			cursor = iv.End
		}
	}
	if duration > cursor && duration-cursor >= minKeep {
		keeps = append(keeps, Interval{Start: cursor, End: duration})
	}

	return keeps
}

// Complement returns the gaps of [0, duration] not covered by the given
// disjoint sorted intervals. Used to re-derive removes from final keeps
// so that keeps and removes always tile the duration exactly.
func Complement(intervals []Interval, duration float64) []Interval {
	var out []Interval
	cursor := 0.0
	for _, iv := range intervals {
		if iv.Start > cursor {
			out = append(out, Interval{Start: cursor, End: iv.Start})
		}
		if iv.End > cursor {
			cursor = iv.End
		}
	}
	if duration > cursor {
		out = append(out, Interval{Start: cursor, End: duration})
	}
	return out
}
