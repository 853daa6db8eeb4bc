package recognize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fmueller/voxchunk/internal/audio"
	"github.com/fmueller/voxchunk/internal/whisper"
	"go.uber.org/zap"
)

// WhisperBackend runs a local whisper engine on each window. The engine and
// model are resolved by the caller and owned for the whole run.
type WhisperBackend struct {
	Engine    whisper.Engine
	ModelPath string
	Options   Options
	TempDir   string
	Logger    *zap.Logger
}

func (w *WhisperBackend) Name() string {
	return "whisper"
}

func (w *WhisperBackend) Transcribe(ctx context.Context, clip Clip) (Transcription, error) {
	if w.Engine == nil {
		return Transcription{}, errors.New("whisper engine is not configured")
	}

	f, err := os.CreateTemp(w.TempDir, "voxchunk-window-*.wav")
	if err != nil {
		return Transcription{}, fmt.Errorf("create window audio: %w", err)
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) && w.Logger != nil {
			w.Logger.Warn("failed to remove window audio", zap.String("path", path), zap.Error(err))
		}
	}()

	_, writeErr := f.Write(audio.EncodeWAV(clip.Audio))
	closeErr := f.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		return Transcription{}, fmt.Errorf("write window audio: %w", err)
	}

	text, err := w.Engine.Transcribe(ctx, whisper.TranscriptionRequest{
		AudioPath: path,
		ModelPath: w.ModelPath,
		Language:  w.Options.Language,
		Translate: w.Options.Task == TaskTranslate,
		Device:    w.Options.Device,
	})
	if err != nil {
		return Transcription{}, err
	}
	if isBlankText(text) {
		return Transcription{}, fmt.Errorf("%w: whisper returned %q", ErrUnintelligible, strings.TrimSpace(text))
	}

	return Transcription{Text: text}, nil
}
