package recognize

import (
	"context"
	"fmt"

	"github.com/fmueller/voxchunk/internal/audio"
	"go.uber.org/zap"
)

// SilenceGate classifies near-silent windows as unintelligible without
// spending a backend call on them.
type SilenceGate struct {
	Next          Recognizer
	ThresholdDBFS float64
	Logger        *zap.Logger
}

func (g SilenceGate) Name() string {
	return g.Next.Name()
}

func (g SilenceGate) Recognize(ctx context.Context, clip Clip) Outcome {
	silent, metrics := audio.IsSilent(clip.Audio, g.ThresholdDBFS)
	if !silent {
		return g.Next.Recognize(ctx, clip)
	}

	if g.Logger != nil {
		g.Logger.Debug(
			"window considered silent; skipping backend",
			zap.Int("window", clip.Window.Index),
			zap.Float64("rms_dbfs", metrics.RMSdBFS),
			zap.Float64("peak_dbfs", metrics.PeakdBFS),
			zap.Float64("threshold_dbfs", g.ThresholdDBFS),
		)
	}

	return Outcome{
		Window:  clip.Window,
		Kind:    Unintelligible,
		Message: fmt.Sprintf("audio below %.0f dBFS", g.ThresholdDBFS),
	}
}
