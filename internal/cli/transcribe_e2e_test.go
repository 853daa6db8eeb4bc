//go:build e2e

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	e2eWhisperPathEnv = "VOXCHUNK_E2E_WHISPER_PATH"
	e2eModelDirEnv    = "VOXCHUNK_E2E_MODEL_DIR"
	e2eAudioEnv       = "VOXCHUNK_E2E_AUDIO"
)

// TestTranscribeEndToEnd runs setup and a chunked transcription with the real
// whisper engine. The input defaults to a generated 12s tone.
func TestTranscribeEndToEnd(t *testing.T) {
	whisperPath := strings.TrimSpace(os.Getenv(e2eWhisperPathEnv))
	if whisperPath == "" {
		t.Skip("set VOXCHUNK_E2E_WHISPER_PATH to run e2e test")
	}

	modelDir := strings.TrimSpace(os.Getenv(e2eModelDirEnv))
	if modelDir == "" {
		modelDir = t.TempDir()
	}

	t.Setenv("VOXCHUNK_WHISPER_PATH", whisperPath)

	_, setupStderr, err := runRootCommand(context.Background(), []string{
		"setup",
		"--model", "tiny",
		"--model-dir", modelDir,
		"--no-progress",
	})
	require.NoErrorf(t, err, "setup command failed: %s", setupStderr)

	outDir := t.TempDir()
	stdout, stderr, err := runRootCommand(context.Background(), []string{
		"transcribe",
		"--model", "tiny",
		"--model-dir", modelDir,
		"--chunk-length", "5s",
		"--format", "json",
		"--output", outDir,
		"--no-progress",
		e2eAudioPath(t),
	})
	require.NoErrorf(t, err, "transcribe command failed: %s", stderr)
	require.Contains(t, stdout, `"state": "completed"`)
	require.FileExists(t, filepath.Join(outDir, "transcript.json"))
}

func e2eAudioPath(t *testing.T) string {
	t.Helper()

	if override := strings.TrimSpace(os.Getenv(e2eAudioEnv)); override != "" {
		return override
	}
	return writeToneWAV(t, 12000)
}

func runRootCommand(ctx context.Context, args []string) (stdout string, stderr string, err error) {
	cmd := NewRootCmd()
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetContext(ctx)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}
