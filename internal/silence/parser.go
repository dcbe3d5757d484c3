package silence

import (
	"bufio"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	startRe = regexp.MustCompile(`silence_start:\s*(\S+)`)
	endRe   = regexp.MustCompile(`silence_end:\s*(\S+)`)
)

// ParseResult holds the silences extracted from one detector report
// together with any per-line warnings collected along the way.
type ParseResult struct {
	Silences []Interval
	Warnings []Warning
}

// ParseReport scans the raw silencedetect output for silence_start and
// silence_end markers and pairs them in emission order. A trailing start
// with no matching end is closed at sourceDuration; if the duration is
// unknown (zero or negative) the trailing start is dropped instead.
// Pairs with end <= start are discarded. The returned silences are
// sorted ascending by start but may still overlap; callers merge them.
func ParseReport(report string, sourceDuration float64) ParseResult {
	var res ParseResult
	var pending []float64

	sc := bufio.NewScanner(strings.NewReader(report))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()

		if m := startRe.FindStringSubmatch(line); m != nil {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				res.Warnings = append(res.Warnings, Warning{
					Line:    lineNo,
					Text:    strings.TrimSpace(line),
					Message: "unparseable silence_start timestamp",
				})
				continue
			}
			pending = append(pending, v)
			continue
		}

		if m := endRe.FindStringSubmatch(line); m != nil {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				res.Warnings = append(res.Warnings, Warning{
					Line:    lineNo,
					Text:    strings.TrimSpace(line),
					Message: "unparseable silence_end timestamp",
				})
				continue
			}
			if len(pending) == 0 {
				res.Warnings = append(res.Warnings, Warning{
					Line:    lineNo,
					Text:    strings.TrimSpace(line),
					Message: "silence_end without preceding silence_start",
				})
				continue
			}
			s := pending[0]
			pending = pending[1:]
			if v > s {
				res.Silences = append(res.Silences, Interval{Start: s, End: v})
			}
		}
	}

	// A detector run that terminates mid-silence leaves an unmatched
	// start; close it at the end of the media when the duration is known.
	for _, s := range pending {
		if sourceDuration > 0 && sourceDuration > s {
			res.Silences = append(res.Silences, Interval{Start: s, End: sourceDuration})
		}
	}

	sort.Slice(res.Silences, func(i, j int) bool {
		return res.Silences[i].Start < res.Silences[j].Start
	})

	return res
}
