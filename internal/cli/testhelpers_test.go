package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/fmueller/voxchunk/internal/audio"
	"github.com/fmueller/voxchunk/internal/config"
	"github.com/fmueller/voxchunk/internal/recognize"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args []string) (stdout string, stderr string, err error) {
	t.Helper()
	return execute(NewRootCmd(), args)
}

// execute runs cmd with output captured. Subcommands are silenced the way
// the root command silences them.
func execute(cmd *cobra.Command, args []string) (string, string, error) {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

// writeToneWAV writes durationMs of a 440 Hz tone at the decoder's native
// rate so it never needs ffmpeg.
func writeToneWAV(t *testing.T, durationMs int) string {
	t.Helper()

	const rate = audio.DefaultSampleRate
	samples := make([]int16, durationMs*rate/1000)
	for i := range samples {
		samples[i] = int16(0.4 * 32767 * math.Sin(2*math.Pi*440*float64(i)/rate))
	}

	path := filepath.Join(t.TempDir(), "talk.wav")
	require.NoError(t, os.WriteFile(path, audio.EncodeWAV(audio.Waveform{Samples: samples, SampleRate: rate}), 0o644))
	return path
}

type fakeBackend struct {
	texts  []string
	failAt int
	calls  int
}

func newFakeBackend(texts ...string) *fakeBackend {
	return &fakeBackend{texts: texts, failAt: -1}
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Transcribe(_ context.Context, clip recognize.Clip) (recognize.Transcription, error) {
	f.calls++
	if clip.Window.Index == f.failAt {
		return recognize.Transcription{}, errors.New("backend unavailable")
	}
	if clip.Window.Index >= len(f.texts) {
		return recognize.Transcription{}, fmt.Errorf("unexpected window %d", clip.Window.Index)
	}
	return recognize.Transcription{Text: f.texts[clip.Window.Index]}, nil
}

// testApp returns app state wired to backend, with no clipboard or
// credentials side effects.
func testApp(backend recognize.Backend) *appState {
	app := newAppState()
	app.backendFn = func(context.Context, config.Settings) (recognize.Backend, error) {
		return backend, nil
	}
	app.credentialsFn = func() (config.Credentials, error) {
		return config.Credentials{}, nil
	}
	app.copyFn = func(context.Context, string) error {
		return errors.New("clipboard disabled in tests")
	}
	return app
}
