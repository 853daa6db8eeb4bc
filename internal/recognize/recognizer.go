package recognize

import (
	"context"
	"fmt"
	"strings"

	"github.com/fmueller/voxchunk/internal/audio"
	"github.com/fmueller/voxchunk/internal/chunk"
)

type Task string

const (
	TaskTranscribe Task = "transcribe"
	TaskTranslate  Task = "translate"
)

// Options are the recognition knobs shared by every backend. Backends ignore
// the ones they have no equivalent for.
type Options struct {
	Model    string
	Language string
	Task     Task
	Device   string
}

func (o Options) autoLanguage() bool {
	lang := strings.TrimSpace(o.Language)
	return lang == "" || lang == "auto"
}

// Clip is the audio of a single window.
type Clip struct {
	Window chunk.Window
	Audio  audio.Waveform
}

type Transcription struct {
	Text  string
	Spans []Span
	Timed bool
}

// Backend is the raw speech-to-text call. Implementations return
// ErrUnintelligible (possibly wrapped) when the audio held no usable speech.
type Backend interface {
	Name() string
	Transcribe(ctx context.Context, clip Clip) (Transcription, error)
}

// Recognizer never fails: every failure is folded into the Outcome.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, clip Clip) Outcome
}

type guard struct {
	backend Backend
}

// Guard adapts a Backend to a Recognizer, classifying its errors and turning
// panics into backend errors.
func Guard(b Backend) Recognizer {
	return guard{backend: b}
}

func (g guard) Name() string {
	return g.backend.Name()
}

func (g guard) Recognize(ctx context.Context, clip Clip) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Window: clip.Window, Kind: BackendError, Message: fmt.Sprintf("%s backend panicked: %v", g.backend.Name(), r)}
		}
	}()

	out = Classify(g.backend.Transcribe(ctx, clip))
	out.Window = clip.Window
	return out
}
