package recognize

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWhisperBackendPassesOptionsAndCleansUp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	engine := &fakeEngine{text: " hello from whisper \n"}
	b := &WhisperBackend{
		Engine:    engine,
		ModelPath: "/models/ggml-small.bin",
		Options:   Options{Language: "de", Task: TaskTranslate, Device: "cpu"},
		TempDir:   dir,
	}

	res, err := b.Transcribe(context.Background(), testClip(0, toneSamples(800, 0.3)))
	require.NoError(t, err)
	require.Equal(t, " hello from whisper \n", res.Text)
	require.False(t, res.Timed)

	require.Equal(t, "/models/ggml-small.bin", engine.req.ModelPath)
	require.Equal(t, "de", engine.req.Language)
	require.True(t, engine.req.Translate)
	require.Equal(t, "cpu", engine.req.Device)
	require.NoFileExists(t, engine.req.AudioPath)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestWhisperBackendBlankAudioIsUnintelligible(t *testing.T) {
	t.Parallel()

	b := &WhisperBackend{Engine: &fakeEngine{text: "[BLANK_AUDIO]"}, TempDir: t.TempDir()}
	_, err := b.Transcribe(context.Background(), testClip(0, nil))
	require.ErrorIs(t, err, ErrUnintelligible)
}

func TestWhisperBackendEngineFailure(t *testing.T) {
	t.Parallel()

	b := &WhisperBackend{Engine: &fakeEngine{err: errors.New("whisper exited with status 1")}, TempDir: t.TempDir()}
	out := Guard(b).Recognize(context.Background(), testClip(4, nil))
	require.Equal(t, BackendError, out.Kind)
	require.Equal(t, "whisper exited with status 1", out.Message)
	require.Equal(t, 4, out.Window.Index)
}
