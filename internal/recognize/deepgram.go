package recognize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	prerecorded "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	restapi "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/fmueller/voxchunk/internal/audio"
)

const DefaultDeepgramModel = "nova-2"

type prerecordedClient interface {
	FromStream(ctx context.Context, src io.Reader, options *interfaces.PreRecordedTranscriptionOptions) (*restapi.PreRecordedResponse, error)
}

// DeepgramBackend uses Deepgram's pre-recorded REST API, one request per window.
type DeepgramBackend struct {
	Options Options

	dg prerecordedClient
}

var deepgramInit sync.Once

func NewDeepgramBackend(apiKey string, opts Options) (*DeepgramBackend, error) {
	if opts.Task == TaskTranslate {
		return nil, errors.New("deepgram backend does not support the translate task")
	}

	deepgramInit.Do(client.InitWithDefault)
	c := client.NewREST(apiKey, &interfaces.ClientOptions{})
	return &DeepgramBackend{Options: opts, dg: prerecorded.New(c)}, nil
}

func (d *DeepgramBackend) Name() string {
	return "deepgram"
}

func (d *DeepgramBackend) Transcribe(ctx context.Context, clip Clip) (Transcription, error) {
	if d.dg == nil {
		return Transcription{}, errors.New("deepgram client is not configured")
	}

	model := strings.TrimSpace(d.Options.Model)
	if model == "" {
		model = DefaultDeepgramModel
	}
	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       model,
		Punctuate:   true,
		SmartFormat: true,
	}
	if d.Options.autoLanguage() {
		options.DetectLanguage = true
	} else {
		options.Language = d.Options.Language
	}

	res, err := d.dg.FromStream(ctx, bytes.NewReader(audio.EncodeWAV(clip.Audio)), options)
	if err != nil {
		return Transcription{}, fmt.Errorf("deepgram request: %w", err)
	}

	if res == nil || res.Results == nil || len(res.Results.Channels) == 0 || len(res.Results.Channels[0].Alternatives) == 0 {
		return Transcription{}, fmt.Errorf("%w: deepgram returned no alternatives", ErrUnintelligible)
	}

	best := res.Results.Channels[0].Alternatives[0]
	words := make([]timedWord, 0, len(best.Words))
	for _, w := range best.Words {
		text := w.PunctuatedWord
		if strings.TrimSpace(text) == "" {
			text = w.Word
		}
		words = append(words, timedWord{Text: text, Start: w.Start, End: w.End})
	}

	spans := sentenceSpans(words)
	return Transcription{Text: best.Transcript, Spans: spans, Timed: len(spans) > 0}, nil
}
