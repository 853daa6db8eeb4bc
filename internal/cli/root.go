package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fmueller/voxchunk/internal/audio"
	"github.com/fmueller/voxchunk/internal/chunk"
	"github.com/fmueller/voxchunk/internal/clipboard"
	"github.com/fmueller/voxchunk/internal/config"
	"github.com/fmueller/voxchunk/internal/logging"
	"github.com/fmueller/voxchunk/internal/platform"
	"github.com/fmueller/voxchunk/internal/recognize"
	"github.com/fmueller/voxchunk/internal/version"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/spf13/cobra"
)

type appState struct {
	verbose      bool
	jsonLogs     bool
	noProgress   bool
	backend      string
	chunkLength  time.Duration
	format       string
	encoding     string
	model        string
	modelDir     string
	language     string
	task         string
	device       string
	autoDownload bool
	silenceGate  bool
	silenceDBFS  float64
	output       string
	copy         bool
	copyEmpty    bool
	metricsFile  string
	envFile      string

	logger *zap.Logger
	now    func() time.Time

	decodeFn      func(ctx context.Context, blob []byte, encoding string) (audio.Waveform, error)
	backendFn     func(ctx context.Context, s config.Settings) (recognize.Backend, error)
	credentialsFn func() (config.Credentials, error)
	copyFn        func(ctx context.Context, value string) error
}

func newAppState() *appState {
	app := &appState{
		backend:      "whisper",
		chunkLength:  chunk.DefaultChunkLength,
		format:       "text",
		language:     "auto",
		task:         string(recognize.TaskTranscribe),
		device:       "auto",
		autoDownload: true,
		silenceGate:  true,
		silenceDBFS:  -65,
		envFile:      ".env",
		now:          time.Now,
	}
	app.decodeFn = app.decodeAudio
	app.backendFn = app.newBackend
	app.credentialsFn = app.loadCredentials
	app.copyFn = clipboard.CopyText
	return app
}

func NewRootCmd() *cobra.Command {
	app := newAppState()

	cmd := &cobra.Command{
		Use:           "voxchunk",
		Short:         "Transcribe long audio files window by window",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			app.language = sanitizeLanguage(app.language)
			app.logger = logging.New(logging.Options{Verbose: app.verbose, JSON: app.jsonLogs, Output: logOutput(cmd)})
			return nil
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	bindLoggingFlags(cmd, app)
	bindModelFlags(cmd, app)
	cmd.PersistentFlags().BoolVar(&app.noProgress, "no-progress", app.noProgress, "Disable progress indicators")
	cmd.PersistentFlags().StringVar(&app.envFile, "env-file", app.envFile, "Dotenv file with VOXCHUNK_* credentials (ignored when missing)")

	cmd.AddCommand(newTranscribeCmd(app))
	cmd.AddCommand(newSetupCmd(app))
	cmd.AddCommand(newBackendsCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func bindLoggingFlags(cmd *cobra.Command, app *appState) {
	cmd.PersistentFlags().BoolVar(&app.verbose, "verbose", app.verbose, "Enable verbose logs")
	cmd.PersistentFlags().BoolVar(&app.jsonLogs, "json", app.jsonLogs, "Enable JSON logging")
}

func bindModelFlags(cmd *cobra.Command, app *appState) {
	cmd.PersistentFlags().StringVar(&app.model, "model", app.model, "Model name or model file path (backend default when empty)")
	cmd.PersistentFlags().StringVar(&app.modelDir, "model-dir", app.modelDir, "Directory where whisper models are stored")
	cmd.PersistentFlags().BoolVar(&app.autoDownload, "auto-download", app.autoDownload, "Automatically download missing whisper models")
}

func (a *appState) modelStorageDir() (string, error) {
	dir, err := platform.ResolveModelDir(a.modelDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create model directory %s: %w", dir, err)
	}
	return dir, nil
}

func (a *appState) loadCredentials() (config.Credentials, error) {
	return config.LoadCredentials(a.envFile)
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

// progressEnabled reports whether progress bars should be drawn on w.
func (a *appState) progressEnabled(w io.Writer) bool {
	if a.noProgress {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// logOutput is nil for the real stderr so the logger keeps colored levels.
func logOutput(cmd *cobra.Command) io.Writer {
	if w := cmd.ErrOrStderr(); w != os.Stderr {
		return w
	}
	return nil
}

func sanitizeLanguage(input string) string {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" {
		return "auto"
	}
	return trimmed
}
