package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fmueller/voxchunk/internal/audio"
	"github.com/fmueller/voxchunk/internal/clipboard"
	"github.com/fmueller/voxchunk/internal/config"
	"github.com/fmueller/voxchunk/internal/download"
	"github.com/fmueller/voxchunk/internal/metrics"
	"github.com/fmueller/voxchunk/internal/pipeline"
	"github.com/fmueller/voxchunk/internal/recognize"
	"github.com/fmueller/voxchunk/internal/transcript"
	"github.com/fmueller/voxchunk/internal/whisper"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newTranscribeCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe an audio file",
		Long: "Decode an audio file, split it into fixed-length windows and transcribe them one by one.\n" +
			"The transcript is printed to stdout and written as a text or JSON artifact.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runTranscribe(cmd.Context(), args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&app.backend, "backend", app.backend, "Recognition backend: "+strings.Join(recognize.Names(), "|"))
	f.DurationVar(&app.chunkLength, "chunk-length", app.chunkLength, "Length of each transcription window")
	f.StringVar(&app.format, "format", app.format, "Artifact format: text|json")
	f.StringVar(&app.encoding, "encoding", app.encoding, "Input encoding (defaults to the file extension)")
	f.StringVar(&app.language, "language", app.language, "Language code (auto|en|de|...) for transcription")
	f.StringVar(&app.task, "task", app.task, "Recognition task: transcribe|translate")
	f.StringVar(&app.device, "device", app.device, "Whisper compute device: auto|cpu|gpu")
	f.BoolVar(&app.silenceGate, "silence-gate", app.silenceGate, "Skip near-silent windows without calling the backend")
	f.Float64Var(&app.silenceDBFS, "silence-threshold-dbfs", app.silenceDBFS, "Silence gate threshold in dBFS")
	f.StringVar(&app.output, "output", app.output, "Artifact path or directory (default: ./<artifact name>)")
	f.BoolVar(&app.copy, "copy", app.copy, "Copy transcript to clipboard")
	f.BoolVar(&app.copyEmpty, "copy-empty", app.copyEmpty, "Copy blank transcripts to clipboard")
	f.StringVar(&app.metricsFile, "metrics-file", app.metricsFile, "Write run metrics in Prometheus text format to this file")
	return cmd
}

func (a *appState) settings() config.Settings {
	return config.Settings{
		Backend:              a.backend,
		ChunkLength:          a.chunkLength,
		Format:               a.format,
		Task:                 a.task,
		Language:             a.language,
		Device:               a.device,
		SilenceThresholdDBFS: a.silenceDBFS,
	}
}

func (a *appState) runTranscribe(ctx context.Context, audioPath string, stdout, stderr io.Writer) error {
	settings := a.settings()
	if err := settings.Validate(); err != nil {
		return err
	}

	audioPath = filepath.Clean(audioPath)
	blob, err := os.ReadFile(audioPath)
	if err != nil {
		return fmt.Errorf("audio file not found: %w", err)
	}

	encoding := a.encoding
	if strings.TrimSpace(encoding) == "" {
		encoding = filepath.Ext(audioPath)
	}
	fingerprint := audio.Fingerprint(blob)
	a.log().Debug("input loaded", zap.String("audio", audioPath), zap.Int("bytes", len(blob)), zap.String("blake3", fingerprint))

	stopSpinner := startSpinner(a.progressEnabled(stderr), stderr, "Decoding")
	wave, err := a.decodeFn(ctx, blob, encoding)
	stopSpinner()
	if err != nil {
		return fmt.Errorf("%w; please verify the file is valid audio and that FFmpeg is installed", err)
	}

	backend, err := a.backendFn(ctx, settings)
	if err != nil {
		return err
	}

	var recognizer recognize.Recognizer = recognize.Guard(backend)
	if a.silenceGate {
		recognizer = recognize.SilenceGate{Next: recognizer, ThresholdDBFS: a.silenceDBFS, Logger: a.log()}
	}

	var recorder *metrics.Recorder
	if a.metricsFile != "" {
		recorder = metrics.NewRecorder(backend.Name())
	}

	reporter := newProgressReporter(a.progressEnabled(stderr), stderr, a.log())
	orchestrator := &pipeline.Orchestrator{
		Recognizer: recognizer,
		Reporter:   reporter,
		Logger:     a.log(),
		Metrics:    recorder,
	}

	started := a.now()
	run, err := orchestrator.Execute(ctx, wave, settings.ChunkLength)
	reporter.Close()
	if err != nil {
		return err
	}

	record := transcript.Assemble(run)
	artifact, err := transcript.Export(settings.Format, record, transcript.Metadata{
		Source:    filepath.Base(audioPath),
		BLAKE3:    fingerprint,
		Backend:   backend.Name(),
		Model:     a.model,
		Language:  settings.Language,
		Task:      settings.Task,
		RunID:     run.ID,
		State:     run.State().String(),
		Windows:   run.Total(),
		Attempted: run.Attempted(),
		Generated: started.UTC(),
	})
	if err != nil {
		return err
	}

	if err := displayResult(stdout, settings.Format, record, artifact); err != nil {
		return err
	}
	path, err := offerDownload(a.output, artifact)
	if err != nil {
		return err
	}
	a.log().Debug("artifact written", zap.String("path", path), zap.String("mime", artifact.MIMEType))

	if record.Empty() {
		a.log().Warn(noSpeechHint())
	}
	if a.copy {
		a.copyTranscript(ctx, record)
	}
	if recorder != nil {
		if err := recorder.WriteTextfile(a.metricsFile); err != nil {
			a.log().Warn("failed to write metrics file", zap.String("path", a.metricsFile), zap.Error(err))
		}
	}

	if failure, aborted := run.Failure(); aborted {
		return fmt.Errorf("%w at chunk %d of %d; partial transcript written to %s",
			pipeline.ErrAborted, failure.Window.Index+1, run.Total(), path)
	}

	a.log().Info("transcription complete",
		zap.Int("chunks", run.Total()),
		zap.Int("skipped", len(run.Warnings())),
		zap.Duration("elapsed", a.now().Sub(started)),
		zap.String("artifact", path),
	)
	return nil
}

func (a *appState) copyTranscript(ctx context.Context, record transcript.Record) {
	if record.Empty() && !a.copyEmpty {
		return
	}

	copyFn := a.copyFn
	if copyFn == nil {
		copyFn = clipboard.CopyText
	}
	if err := copyFn(ctx, record.Text()); err != nil {
		if errors.Is(err, clipboard.ErrUnavailable) {
			a.log().Warn("clipboard tool unavailable; transcript left on stdout")
			return
		}
		a.log().Warn("failed to copy transcript to clipboard; transcript left on stdout", zap.Error(err))
		return
	}
	a.log().Info("transcript copied to clipboard")
}

func (a *appState) decodeAudio(ctx context.Context, blob []byte, encoding string) (audio.Waveform, error) {
	return audio.NewFFmpegSource(a.log()).Decode(ctx, blob, encoding)
}

func (a *appState) newBackend(ctx context.Context, s config.Settings) (recognize.Backend, error) {
	rs := recognize.Settings{
		Options: recognize.Options{
			Model:    a.model,
			Language: s.Language,
			Task:     recognize.Task(s.Task),
			Device:   s.Device,
		},
		Logger: a.log(),
	}

	if s.Backend == "whisper" {
		model, err := a.ensureModelAvailable(ctx)
		if err != nil {
			return nil, err
		}
		engine, err := whisper.NewBundledEngine(a.log())
		if err != nil {
			return nil, err
		}
		rs.WhisperEngine = engine
		rs.WhisperModelPath = model.Path
		return recognize.NewBackend(s.Backend, rs)
	}

	credentialsFn := a.credentialsFn
	if credentialsFn == nil {
		credentialsFn = a.loadCredentials
	}
	creds, err := credentialsFn()
	if err != nil {
		return nil, err
	}
	if err := creds.Require(s.Backend); err != nil {
		return nil, err
	}

	rs.HTTPClient = &http.Client{Timeout: creds.HTTPTimeout}
	rs.OpenAIURL = creds.OpenAIURL
	rs.OpenAIAPIKey = creds.OpenAIAPIKey
	rs.CloudflareURL = creds.CloudflareURL
	rs.CloudflareAccountID = creds.CloudflareAccountID
	rs.CloudflareAPIToken = creds.CloudflareAPIToken
	rs.DeepgramAPIKey = creds.DeepgramAPIKey
	return recognize.NewBackend(s.Backend, rs)
}

func (a *appState) ensureModelAvailable(ctx context.Context) (whisper.ResolvedModel, error) {
	modelDir, err := a.modelStorageDir()
	if err != nil {
		return whisper.ResolvedModel{}, err
	}

	resolved, err := whisper.ResolveModel(a.model, modelDir)
	if err != nil {
		return whisper.ResolvedModel{}, err
	}
	if !resolved.NeedsDownload {
		return resolved, nil
	}

	if !a.autoDownload {
		return whisper.ResolvedModel{}, fmt.Errorf("model %q is missing at %s; run `voxchunk setup --model %s` or use --auto-download=true", resolved.Name, resolved.Path, resolved.Name)
	}

	a.log().Info("model not found, downloading", zap.String("model", resolved.Name), zap.String("destination", resolved.Path))
	if err := a.fetchModel(ctx, resolved); err != nil {
		return whisper.ResolvedModel{}, err
	}

	resolved.NeedsDownload = false
	return resolved, nil
}

func (a *appState) fetchModel(ctx context.Context, m whisper.ResolvedModel) error {
	var progress io.Writer
	if a.progressEnabled(os.Stderr) {
		progress = os.Stderr
	}

	started := time.Now()
	err := download.NewFetcher(a.log(), progress).Fetch(ctx, download.Asset{
		URL:         m.URL,
		Destination: m.Path,
		SHA256:      m.SHA256,
	})
	if err != nil {
		return fmt.Errorf("download model %q: %w", m.Name, err)
	}
	a.log().Debug("model downloaded", zap.String("model", m.Name), zap.Duration("elapsed", time.Since(started)))
	return nil
}
