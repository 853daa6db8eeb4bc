package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fmueller/voxchunk/internal/audio"
	"github.com/fmueller/voxchunk/internal/chunk"
	"github.com/fmueller/voxchunk/internal/logging"
	"github.com/fmueller/voxchunk/internal/metrics"
	"github.com/fmueller/voxchunk/internal/recognize"
	"go.uber.org/zap"
)

// ErrAborted is returned by callers that treat an aborted run as a failure.
// Execute itself reports aborts through Run.State.
var ErrAborted = errors.New("transcription aborted")

// Reporter receives progress as windows are processed. Calls happen on the
// goroutine running Execute, in window order.
type Reporter interface {
	BeginWindow(w chunk.Window, total int)
	ReportProgress(fraction float64)
	ReportWarning(index int, message string)
	ReportFatal(index int, message string)
}

type Orchestrator struct {
	Recognizer recognize.Recognizer
	Reporter   Reporter
	Logger     *zap.Logger
	Metrics    *metrics.Recorder
}

// Execute segments wave into windows of chunkLength and recognizes them one
// at a time. Unintelligible windows are reported and skipped; the first
// backend error ends the run as Aborted with every outcome so far kept.
// Only invalid segmentation parameters produce an error, before any window
// is attempted.
func (o *Orchestrator) Execute(ctx context.Context, wave audio.Waveform, chunkLength time.Duration) (*Run, error) {
	if o.Recognizer == nil {
		return nil, errors.New("pipeline: no recognizer configured")
	}

	windows, err := chunk.Segment(wave.DurationMs(), chunkLength.Milliseconds())
	if err != nil {
		return nil, fmt.Errorf("segment audio: %w", err)
	}

	run := newRun(o.Recognizer.Name())
	logger := logging.WithRun(o.Logger, run.ID, run.Backend)

	run.start(windows)
	o.Metrics.SetWindows(len(windows))
	o.Metrics.SetState(Running.String())
	logger.Debug("transcription started", zap.Int64("duration_ms", wave.DurationMs()), zap.Int("windows", len(windows)))

	for _, w := range windows {
		o.reporter().BeginWindow(w, len(windows))

		started := time.Now()
		out := o.recognize(ctx, wave, w)
		o.Metrics.ObserveWindow(out.Kind.String(), time.Since(started))
		run.append(out)

		fields := []zap.Field{zap.Int("window", w.Index), zap.Stringer("range", w), zap.Stringer("kind", out.Kind)}
		switch out.Kind {
		case recognize.Unintelligible:
			logger.Debug("window not recognized", append(fields, zap.String("reason", out.Message))...)
			o.reporter().ReportWarning(w.Index, out.Message)
		case recognize.BackendError:
			logger.Debug("backend failed; aborting run", append(fields, zap.String("error", out.Message))...)
			run.finish(Aborted)
			o.reporter().ReportFatal(w.Index, out.Message)
		default:
			logger.Debug("window recognized", append(fields, zap.Int("chars", len(out.Text)))...)
		}

		if run.Aborted() {
			o.progress(run)
			o.Metrics.SetState(Aborted.String())
			return run, nil
		}
		if run.Attempted() < run.Total() {
			o.progress(run)
		}
	}

	run.finish(Completed)
	o.Metrics.SetState(Completed.String())
	o.progress(run)
	logger.Debug("transcription completed", zap.Int("windows", run.Total()))

	return run, nil
}

func (o *Orchestrator) recognize(ctx context.Context, wave audio.Waveform, w chunk.Window) recognize.Outcome {
	clipAudio, err := wave.Slice(w.StartMs, w.EndMs)
	if err != nil {
		return recognize.Outcome{Window: w, Kind: recognize.BackendError, Message: fmt.Sprintf("slice window %s: %v", w, err)}
	}

	out := o.Recognizer.Recognize(ctx, recognize.Clip{Window: w, Audio: clipAudio})
	out.Window = w
	return out
}

func (o *Orchestrator) progress(run *Run) {
	fraction := run.Progress()
	o.Metrics.SetProgress(fraction)
	o.reporter().ReportProgress(fraction)
}

func (o *Orchestrator) reporter() Reporter {
	if o.Reporter == nil {
		return nopReporter{}
	}
	return o.Reporter
}

type nopReporter struct{}

func (nopReporter) BeginWindow(chunk.Window, int) {}
func (nopReporter) ReportProgress(float64)        {}
func (nopReporter) ReportWarning(int, string)     {}
func (nopReporter) ReportFatal(int, string)       {}
