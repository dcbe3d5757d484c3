package export

import (
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/silencecut/silencecut/internal/plan"
)

// FCP7XML renders the legacy Final Cut Pro 7 xmeml interchange format,
// which Premiere Pro and DaVinci Resolve import as a sequence. The
// sequence carries linked video and audio tracks of contiguous clips,
// all referencing the mono proxy.
type FCP7XML struct{}

func (FCP7XML) Extension() string { return "xml" }

const xmemlHeader = "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<!DOCTYPE xmeml>\n"

type xmlRate struct {
	Timebase int    `xml:"timebase"`
	NTSC     string `xml:"ntsc"`
}

type xmlVideoSC struct {
	Rate             *xmlRate `xml:"rate,omitempty"`
	Width            int      `xml:"width"`
	Height           int      `xml:"height"`
	Anamorphic       string   `xml:"anamorphic"`
	PixelAspectRatio string   `xml:"pixelaspectratio"`
	FieldDominance   string   `xml:"fielddominance"`
}

type xmlAudioSC struct {
	SampleRate int `xml:"samplerate"`
	Channels   int `xml:"channels"`
}

type xmlFile struct {
	ID       string  `xml:"id,attr"`
	Name     string  `xml:"name"`
	PathURL  string  `xml:"pathurl"`
	Rate     xmlRate `xml:"rate"`
	Duration int     `xml:"duration"`
	Media    struct {
		Video struct {
			SC xmlVideoSC `xml:"samplecharacteristics"`
		} `xml:"video"`
		Audio struct {
			SC xmlAudioSC `xml:"samplecharacteristics"`
		} `xml:"audio"`
	} `xml:"media"`
}

type xmlFileRef struct {
	ID string `xml:"id,attr"`
}

type xmlLink struct {
	LinkClipRef string `xml:"linkclipref"`
	MediaType   string `xml:"mediatype"`
	TrackIndex  int    `xml:"trackindex"`
	ClipIndex   int    `xml:"clipindex"`
}

type xmlSourceTrack struct {
	MediaType  string `xml:"mediatype"`
	TrackIndex int    `xml:"trackindex"`
}

type xmlVideoClip struct {
	XMLName xml.Name  `xml:"clipitem"`
	ID      string    `xml:"id,attr"`
	Name    string    `xml:"name"`
	Enabled string    `xml:"enabled"`
	Start   int       `xml:"start"`
	End     int       `xml:"end"`
	In      int       `xml:"in"`
	Out     int       `xml:"out"`
	File    xmlFile   `xml:"file"`
	Links   []xmlLink `xml:"link"`
}

type xmlAudioClip struct {
	XMLName     xml.Name       `xml:"clipitem"`
	ID          string         `xml:"id,attr"`
	Name        string         `xml:"name"`
	Enabled     string         `xml:"enabled"`
	Start       int            `xml:"start"`
	End         int            `xml:"end"`
	In          int            `xml:"in"`
	Out         int            `xml:"out"`
	File        xmlFileRef     `xml:"file"`
	SourceTrack xmlSourceTrack `xml:"sourcetrack"`
	Links       []xmlLink      `xml:"link"`
}

type xmlSequence struct {
	XMLName  xml.Name `xml:"sequence"`
	Name     string   `xml:"name"`
	Duration int      `xml:"duration"`
	Rate     xmlRate  `xml:"rate"`
	Media    struct {
		Video struct {
			Format struct {
				SC xmlVideoSC `xml:"samplecharacteristics"`
			} `xml:"format"`
			Track struct {
				Clips []xmlVideoClip `xml:"clipitem"`
			} `xml:"track"`
		} `xml:"video"`
		Audio struct {
			Format struct {
				SC xmlAudioSC `xml:"samplecharacteristics"`
			} `xml:"format"`
			Track struct {
				Clips []xmlAudioClip `xml:"clipitem"`
			} `xml:"track"`
		} `xml:"audio"`
	} `xml:"media"`
}

type xmeml struct {
	XMLName  xml.Name    `xml:"xmeml"`
	Version  string      `xml:"version,attr"`
	Sequence xmlSequence `xml:"sequence"`
}

func (FCP7XML) Render(p *plan.Plan, media MediaRef, title string) ([]byte, error) {
	if p.Empty() {
		return nil, ErrEmptyPlan
	}

	timebase, ntsc, realFPS := TimebaseForRate(media.FrameRate)
	rate := xmlRate{Timebase: timebase, NTSC: boolUpper(ntsc)}

	videoSC := xmlVideoSC{
		Width:            orDefault(media.Width, 1920),
		Height:           orDefault(media.Height, 1080),
		Anamorphic:       "FALSE",
		PixelAspectRatio: fmt.Sprintf("%d/%d", orDefault(media.ParNum, 1), orDefault(media.ParDen, 1)),
		FieldDominance:   fieldOrDefault(media.FieldOrder),
	}
	audioSC := xmlAudioSC{
		SampleRate: orDefault(media.SampleRate, 48000),
		Channels:   orDefault(media.Channels, 1),
	}

	fileElem := xmlFile{
		ID:       "file-1",
		Name:     filepath.Base(media.Path),
		PathURL:  pathURL(media.Path),
		Rate:     rate,
		Duration: SecToFrames(media.Duration, realFPS),
	}
	fileElem.Media.Video.SC = videoSC
	fileElem.Media.Video.SC.Rate = nil
	fileElem.Media.Audio.SC = audioSC

	doc := xmeml{Version: "4"}
	seq := &doc.Sequence
	seq.Name = title
	seq.Rate = rate
	seq.Media.Video.Format.SC = videoSC
	seq.Media.Video.Format.SC.Rate = &rate
	seq.Media.Audio.Format.SC = audioSC

	// Placement accumulates in frames, not seconds, so rounding error
	// cannot drift across many clips.
	cursor := 0
	for i, keep := range p.Keeps {
		n := i + 1
		vID := fmt.Sprintf("clipitem-v%d", n)
		aID := fmt.Sprintf("clipitem-a%d", n)
		name := fmt.Sprintf("%s_%03d", title, n)

		inF := SecToFrames(keep.Start, realFPS)
		outF := SecToFrames(keep.End, realFPS)
		durF := outF - inF
		if durF <= 0 {
			continue
		}
		start := cursor
		end := cursor + durF
		cursor = end

		links := []xmlLink{
			{LinkClipRef: vID, MediaType: "video", TrackIndex: 1, ClipIndex: n},
			{LinkClipRef: aID, MediaType: "audio", TrackIndex: 1, ClipIndex: n},
		}

		seq.Media.Video.Track.Clips = append(seq.Media.Video.Track.Clips, xmlVideoClip{
			ID: vID, Name: name, Enabled: "TRUE",
			Start: start, End: end, In: inF, Out: outF,
			File: fileElem, Links: links,
		})
		seq.Media.Audio.Track.Clips = append(seq.Media.Audio.Track.Clips, xmlAudioClip{
			ID: aID, Name: name, Enabled: "TRUE",
			Start: start, End: end, In: inF, Out: outF,
			File:        xmlFileRef{ID: "file-1"},
			SourceTrack: xmlSourceTrack{MediaType: "audio", TrackIndex: 1},
			Links:       links,
		})
	}

	if len(seq.Media.Video.Track.Clips) == 0 {
		return nil, ErrEmptyPlan
	}
	seq.Duration = cursor

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal xmeml: %w", err)
	}

	out := make([]byte, 0, len(xmemlHeader)+len(body)+1)
	out = append(out, xmemlHeader...)
	out = append(out, body...)
	out = append(out, '\n')
	return out, nil
}

func pathURL(path string) string {
	slashed := filepath.ToSlash(path)
	return "file:///" + strings.TrimPrefix(slashed, "/")
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func fieldOrDefault(field string) string {
	switch field {
	case "upper", "lower":
		return field
	default:
		return "none"
	}
}

func boolUpper(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
