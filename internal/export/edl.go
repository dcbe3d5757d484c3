package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/silencecut/silencecut/internal/plan"
)

// EDL renders a CMX3600-style edit decision list. Source in/out come
// from each keep segment; record in/out ripple forward so the cut
// timeline carries no gaps.
type EDL struct{}

func (EDL) Extension() string { return "edl" }

func (EDL) Render(p *plan.Plan, media MediaRef, title string) ([]byte, error) {
	if p.Empty() {
		return nil, ErrEmptyPlan
	}

	fps := int(math.Round(media.FrameRate))
	if fps <= 0 {
		fps = 30
	}
	_, ntsc, realFPS := TimebaseForRate(media.FrameRate)

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if ntsc {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	recordOffset := 0
	for i, keep := range p.Keeps {
		inF := SecToFrames(keep.Start, realFPS)
		outF := SecToFrames(keep.End, realFPS)
		durF := outF - inF
		if durF <= 0 {
			continue
		}

		srcIn := FramesToTimecode(inF, fps)
		srcOut := FramesToTimecode(outF, fps)
		recIn := FramesToTimecode(recordOffset, fps)
		recOut := FramesToTimecode(recordOffset+durF, fps)

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "AA/V", srcIn, srcOut, recIn, recOut),
			fmt.Sprintf("* FROM CLIP NAME:  %s_%03d", title, i+1),
			fmt.Sprintf("* MEDIA PATH:  %s", media.Path),
		)

		recordOffset += durF
	}

	lines = append(lines, "")
	return []byte(strings.Join(lines, "\n")), nil
}
