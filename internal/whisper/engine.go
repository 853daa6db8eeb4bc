package whisper

import "context"

type TranscriptionRequest struct {
	AudioPath string
	ModelPath string
	Language  string
	// Translate asks whisper to emit English regardless of the spoken language.
	Translate bool
	// Device is "auto", "cpu" or "gpu"; "cpu" disables GPU offload.
	Device string
}

type Engine interface {
	Transcribe(ctx context.Context, req TranscriptionRequest) (string, error)
}
