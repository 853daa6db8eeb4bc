package audio

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFFmpegSourceDecodesThroughFFmpeg(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	want := Waveform{Samples: []int16{1, 2, 3, 4}, SampleRate: 16000}

	var gotArgs []string
	src := NewFFmpegSource(nil)
	src.TempDir = tempDir
	src.run = func(_ context.Context, _ string, args ...string) (string, error) {
		gotArgs = args
		return "", os.WriteFile(args[len(args)-1], EncodeWAV(want), 0o644)
	}

	wave, err := src.Decode(context.Background(), []byte("ID3 fake mp3"), "mp3")
	require.NoError(t, err)
	require.Equal(t, want, wave)
	require.Contains(t, strings.Join(gotArgs, " "), "-ac 1 -ar 16000 -f wav")

	leftovers, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	require.Empty(t, leftovers, "temporary audio must be removed")
}

func TestFFmpegSourceParsesWAVDirectly(t *testing.T) {
	t.Parallel()

	src := NewFFmpegSource(nil)
	src.run = func(_ context.Context, _ string, _ ...string) (string, error) {
		t.Fatal("ffmpeg should not run for plain wav")
		return "", nil
	}

	wave, err := src.Decode(context.Background(), makePCM16WAV([]int16{9, 8}, 16000, 1), ".WAV")
	require.NoError(t, err)
	require.Equal(t, []int16{9, 8}, wave.Samples)
}

func TestFFmpegSourceResamplesForeignRateWAV(t *testing.T) {
	t.Parallel()

	want := Waveform{Samples: []int16{5, 6}, SampleRate: 16000}
	called := false
	src := NewFFmpegSource(nil)
	src.TempDir = t.TempDir()
	src.run = func(_ context.Context, _ string, args ...string) (string, error) {
		called = true
		return "", os.WriteFile(args[len(args)-1], EncodeWAV(want), 0o644)
	}

	wave, err := src.Decode(context.Background(), makePCM16WAV([]int16{1, 2, 3}, 44100, 2), "wav")
	require.NoError(t, err)
	require.True(t, called, "44.1 kHz wav must be resampled by ffmpeg")
	require.Equal(t, want, wave)
}

func TestFFmpegSourceReportsDecodeErrors(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	src := NewFFmpegSource(nil)
	src.TempDir = tempDir
	src.run = func(_ context.Context, _ string, _ ...string) (string, error) {
		return "Invalid data found when processing input", errors.New("exit status 1")
	}

	_, err := src.Decode(context.Background(), []byte("not audio"), "mp3")
	require.ErrorIs(t, err, ErrDecode)
	require.Contains(t, err.Error(), "Invalid data found")

	leftovers, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	require.Empty(t, leftovers)
}

func TestFFmpegSourceRejectsEmptyUpload(t *testing.T) {
	t.Parallel()

	_, err := NewFFmpegSource(nil).Decode(context.Background(), nil, "mp3")
	require.ErrorIs(t, err, ErrDecode)
}

func TestFFmpegSourceMissingExecutable(t *testing.T) {
	t.Parallel()

	src := NewFFmpegSource(nil)
	src.TempDir = t.TempDir()
	src.Executable = filepath.Join(t.TempDir(), "no-ffmpeg-here")
	src.run = func(_ context.Context, _ string, _ ...string) (string, error) {
		return "", &exec.Error{Name: "ffmpeg", Err: exec.ErrNotFound}
	}

	_, err := src.Decode(context.Background(), []byte("x"), "mp3")
	require.ErrorIs(t, err, ErrDecode)
	require.Contains(t, err.Error(), "install ffmpeg")
}

func TestNormalizeEncoding(t *testing.T) {
	t.Parallel()

	require.Equal(t, "mp3", NormalizeEncoding(".MP3"))
	require.Equal(t, "mp3", NormalizeEncoding("audio/mpeg"))
	require.Equal(t, "wav", NormalizeEncoding("wave"))
	require.Equal(t, "ogg", NormalizeEncoding(" ogg "))
	require.Equal(t, "bin", NormalizeEncoding(""))
	require.Equal(t, "wav", NormalizeEncoding("audio/x-wav"))
	require.Equal(t, "ogg", NormalizeEncoding("audio/ogg; codecs=opus"))
	require.Equal(t, "webm", NormalizeEncoding("video/webm"))
	require.Equal(t, "m4a", NormalizeEncoding("..\\m4a"))
	require.Equal(t, "bin", NormalizeEncoding("audio/"))
}

func TestFFmpegSourceAcceptsMIMEEncoding(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	var inPath string
	src := NewFFmpegSource(nil)
	src.TempDir = tempDir
	src.run = func(_ context.Context, _ string, args ...string) (string, error) {
		for i, arg := range args {
			if arg == "-i" {
				inPath = args[i+1]
			}
		}
		return "Invalid data found when processing input", errors.New("exit status 1")
	}

	_, err := src.Decode(context.Background(), []byte("not audio"), "audio/ogg")
	require.ErrorIs(t, err, ErrDecode)
	require.Equal(t, tempDir, filepath.Dir(inPath))
	require.True(t, strings.HasSuffix(inPath, ".ogg"), inPath)
}

func TestFFmpegSourceTempFailureIsDecodeError(t *testing.T) {
	t.Parallel()

	src := NewFFmpegSource(nil)
	src.TempDir = filepath.Join(t.TempDir(), "missing")
	src.run = func(_ context.Context, _ string, _ ...string) (string, error) {
		t.Fatal("ffmpeg should not run without an input file")
		return "", nil
	}

	_, err := src.Decode(context.Background(), []byte("ID3"), "mp3")
	require.ErrorIs(t, err, ErrDecode)
	require.ErrorContains(t, err, "create temp audio file")
}
