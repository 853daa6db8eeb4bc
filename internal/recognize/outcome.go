package recognize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fmueller/voxchunk/internal/chunk"
)

type Kind int

const (
	Success Kind = iota
	Unintelligible
	BackendError
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Unintelligible:
		return "unintelligible"
	case BackendError:
		return "backend_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ErrUnintelligible is returned by backends that received the audio but
// produced no confident text.
var ErrUnintelligible = errors.New("speech not recognized")

// Span is a backend-reported timing, relative to the start of its window.
type Span struct {
	StartMs int64
	EndMs   int64
	Text    string
}

// Outcome is the classified result of one recognition attempt.
type Outcome struct {
	Window  chunk.Window
	Kind    Kind
	Text    string
	Message string
	Spans   []Span
	Timed   bool
}

func (o Outcome) OK() bool {
	return o.Kind == Success
}

// Classify folds a backend result into an Outcome. Blank text counts as
// unintelligible; any error that is not ErrUnintelligible is a backend error
// carrying the original message.
func Classify(res Transcription, err error) Outcome {
	switch {
	case errors.Is(err, ErrUnintelligible):
		return Outcome{Kind: Unintelligible, Message: err.Error()}
	case err != nil:
		return Outcome{Kind: BackendError, Message: err.Error()}
	case isBlankText(res.Text):
		return Outcome{Kind: Unintelligible, Message: ErrUnintelligible.Error()}
	default:
		return Outcome{Kind: Success, Text: strings.TrimSpace(res.Text), Spans: res.Spans, Timed: res.Timed}
	}
}

const blankAudioToken = "[BLANK_AUDIO]"

func isBlankText(text string) bool {
	trimmed := strings.TrimSpace(text)
	return trimmed == "" || strings.EqualFold(trimmed, blankAudioToken)
}
