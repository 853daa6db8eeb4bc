package transcript

import (
	"slices"
	"strings"

	"github.com/fmueller/voxchunk/internal/pipeline"
	"github.com/fmueller/voxchunk/internal/recognize"
)

// Labels alternate over sentence fragments. This is a placeholder for real
// diarization: fragment i is attributed to Labels[i%len(Labels)].
var Labels = []string{"client", "speaker"}

type SpeakerSegment struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

type TimedSegment struct {
	Start int64  `json:"start"`
	End   int64  `json:"end"`
	Text  string `json:"text"`
}

// Notice is a window that did not contribute text.
type Notice struct {
	Window  int    `json:"window"`
	Start   int64  `json:"start"`
	End     int64  `json:"end"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Record is the assembled transcript of a run. Accessors return copies.
type Record struct {
	text     string
	speakers []SpeakerSegment
	timed    []TimedSegment
	hasTimes bool
	notices  []Notice
	state    pipeline.State
}

// Assemble derives the transcript from the successful outcomes of run, in
// window order. Failed and unintelligible windows contribute no text.
func Assemble(run *pipeline.Run) Record {
	r := Record{state: run.State()}

	var texts []string
	for _, o := range run.Outcomes() {
		if !o.OK() {
			r.notices = append(r.notices, Notice{
				Window:  o.Window.Index,
				Start:   o.Window.StartMs,
				End:     o.Window.EndMs,
				Kind:    o.Kind.String(),
				Message: o.Message,
			})
			continue
		}

		texts = append(texts, o.Text)
		r.timed = append(r.timed, timedSegments(o)...)
		if o.Timed {
			r.hasTimes = true
		}
	}

	r.text = strings.TrimSpace(strings.Join(texts, " "))
	r.speakers = SpeakerSegments(r.text)
	return r
}

// timedSegments places backend spans on the run timeline by offsetting them
// with the window start. Outcomes without spans cover their whole window.
// Span bounds are clamped to the window.
func timedSegments(o recognize.Outcome) []TimedSegment {
	w := o.Window
	var out []TimedSegment
	for _, span := range o.Spans {
		text := strings.TrimSpace(span.Text)
		if text == "" {
			continue
		}
		start := min(w.StartMs+max(span.StartMs, 0), w.EndMs)
		end := min(max(w.StartMs+span.EndMs, start), w.EndMs)
		out = append(out, TimedSegment{Start: start, End: end, Text: text})
	}
	if len(out) == 0 {
		out = append(out, TimedSegment{Start: w.StartMs, End: w.EndMs, Text: o.Text})
	}
	return out
}

// SpeakerSegments splits text into sentence fragments on '.' and labels them
// alternately from Labels.
func SpeakerSegments(text string) []SpeakerSegment {
	var out []SpeakerSegment
	for _, fragment := range strings.Split(text, ".") {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		out = append(out, SpeakerSegment{Speaker: Labels[len(out)%len(Labels)], Text: fragment})
	}
	return out
}

func (r Record) Text() string {
	return r.text
}

func (r Record) Empty() bool {
	return r.text == ""
}

func (r Record) Speakers() []SpeakerSegment {
	return slices.Clone(r.speakers)
}

func (r Record) Timed() []TimedSegment {
	return slices.Clone(r.timed)
}

// PrefersTimestamps reports whether the timestamped form should be shown
// instead of the speaker form: some backend reported timing.
func (r Record) PrefersTimestamps() bool {
	return r.hasTimes
}

func (r Record) Notices() []Notice {
	return slices.Clone(r.notices)
}

func (r Record) State() pipeline.State {
	return r.state
}
