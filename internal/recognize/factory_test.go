package recognize

import (
	"context"
	"testing"

	"github.com/fmueller/voxchunk/internal/whisper"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	text string
	err  error
	req  whisper.TranscriptionRequest
}

func (f *fakeEngine) Transcribe(_ context.Context, req whisper.TranscriptionRequest) (string, error) {
	f.req = req
	return f.text, f.err
}

func TestNames(t *testing.T) {
	t.Parallel()

	names := Names()
	require.Equal(t, []string{"whisper", "openai", "cloudflare", "deepgram"}, names)

	names[0] = "mutated"
	require.Equal(t, "whisper", Names()[0])
}

func TestNewBackendSelectsImplementation(t *testing.T) {
	t.Parallel()

	settings := Settings{
		WhisperEngine:  &fakeEngine{},
		OpenAIAPIKey:   "sk-test",
		DeepgramAPIKey: "dg-test",
	}

	for _, name := range Names() {
		b, err := NewBackend(name, settings)
		require.NoError(t, err, name)
		require.Equal(t, name, b.Name())
	}
}

func TestNewBackendRejectsUnknownName(t *testing.T) {
	t.Parallel()

	_, err := NewBackend("vosk", Settings{})
	require.ErrorIs(t, err, ErrUnknownBackend)
	require.Contains(t, err.Error(), "whisper, openai")
}

func TestNewBackendWhisperRequiresEngine(t *testing.T) {
	t.Parallel()

	_, err := NewBackend("whisper", Settings{})
	require.Error(t, err)
}

func TestNewBackendDeepgramRejectsTranslate(t *testing.T) {
	t.Parallel()

	_, err := NewBackend("deepgram", Settings{Options: Options{Task: TaskTranslate}})
	require.ErrorContains(t, err, "translate")
}

func TestNewBackendCloudflareRejectsUnsupportedOptions(t *testing.T) {
	t.Parallel()

	_, err := NewBackend("cloudflare", Settings{Options: Options{Task: TaskTranslate}})
	require.ErrorContains(t, err, "translate")

	_, err = NewBackend("cloudflare", Settings{Options: Options{Language: "de"}})
	require.ErrorContains(t, err, `"de"`)

	b, err := NewBackend("cloudflare", Settings{Options: Options{Language: "auto", Task: TaskTranscribe}})
	require.NoError(t, err)
	require.Equal(t, "cloudflare", b.Name())
}
