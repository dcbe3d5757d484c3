package export

import (
	"fmt"
	"math"
)

// SecToFrames converts seconds to a frame count at the given rate,
// rounding half away from zero so repeated conversions do not drift in
// one direction.
func SecToFrames(sec, fps float64) int {
	return int(math.Round(sec * fps))
}

// TimebaseForRate maps a real frame rate onto the legacy FCP7 integer
// timebase plus NTSC flag. 29.97 and 59.94 map to 30/60 with the NTSC
// flag set; anything else rounds to the nearest integer timebase. The
// returned real rate is the one frame math must use.
func TimebaseForRate(fps float64) (timebase int, ntsc bool, realFPS float64) {
	if math.Abs(fps-30000.0/1001.0) < 0.05 || math.Abs(fps-29.97) < 0.05 {
		return 30, true, 30.0 / 1.001
	}
	if math.Abs(fps-60000.0/1001.0) < 0.05 || math.Abs(fps-59.94) < 0.05 {
		return 60, true, 60.0 / 1.001
	}
	tb := int(math.Round(fps))
	if tb < 1 {
		tb = 1
	}
	return tb, false, float64(tb)
}

// FramesToTimecode formats a frame count as HH:MM:SS:FF at an integer
// frame rate.
func FramesToTimecode(totalFrames, fps int) string {
	if fps <= 0 {
		fps = 30
	}
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}
