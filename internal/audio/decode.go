package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrDecode marks uploads the waveform source could not turn into PCM audio.
var ErrDecode = errors.New("decode audio")

type Source interface {
	Decode(ctx context.Context, blob []byte, encoding string) (Waveform, error)
}

type runFunc func(ctx context.Context, name string, args ...string) (string, error)

// FFmpegSource converts compressed uploads to mono PCM by shelling out to
// ffmpeg. WAV uploads the built-in parser understands and that are already at
// SampleRate skip ffmpeg entirely.
type FFmpegSource struct {
	Executable string
	TempDir    string
	SampleRate int
	Logger     *zap.Logger

	run runFunc
}

func NewFFmpegSource(logger *zap.Logger) *FFmpegSource {
	if logger == nil {
		logger = zap.NewNop()
	}

	executable := "ffmpeg"
	if override := strings.TrimSpace(os.Getenv("VOXCHUNK_FFMPEG_PATH")); override != "" {
		executable = override
	}

	return &FFmpegSource{
		Executable: executable,
		SampleRate: DefaultSampleRate,
		Logger:     logger,
		run:        runCommand,
	}
}

func (s *FFmpegSource) Decode(ctx context.Context, blob []byte, encoding string) (Waveform, error) {
	if len(blob) == 0 {
		return Waveform{}, fmt.Errorf("%w: empty upload", ErrDecode)
	}

	rate := s.SampleRate
	if rate <= 0 {
		rate = DefaultSampleRate
	}

	encoding = NormalizeEncoding(encoding)
	if encoding == "wav" {
		wave, err := ParseWAV(blob)
		switch {
		case err != nil:
			s.log().Debug("wav parser rejected upload; falling back to ffmpeg", zap.Error(err))
		case wave.SampleRate != rate:
			s.log().Debug("resampling wav upload with ffmpeg", zap.Int("sample_rate", wave.SampleRate), zap.Int("target_rate", rate))
		default:
			return wave, nil
		}
	}

	inPath, err := s.writeTemp("voxchunk-in-*."+encoding, blob)
	if err != nil {
		return Waveform{}, err
	}
	defer s.remove(inPath)

	outPath, err := s.writeTemp("voxchunk-pcm-*.wav", nil)
	if err != nil {
		return Waveform{}, err
	}
	defer s.remove(outPath)

	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", inPath, "-ac", "1", "-ar", strconv.Itoa(rate), "-f", "wav", outPath}
	s.log().Debug("running ffmpeg", zap.String("ffmpeg", s.Executable), zap.Strings("args", args))

	run := s.run
	if run == nil {
		run = runCommand
	}
	if stderr, err := run(ctx, s.Executable, args...); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return Waveform{}, fmt.Errorf("%w: ffmpeg not found at %q; install ffmpeg or set VOXCHUNK_FFMPEG_PATH", ErrDecode, s.Executable)
		}
		return Waveform{}, fmt.Errorf("%w: ffmpeg: %v (%s)", ErrDecode, err, stderr)
	}

	pcm, err := os.ReadFile(outPath)
	if err != nil {
		return Waveform{}, fmt.Errorf("%w: read ffmpeg output: %v", ErrDecode, err)
	}

	wave, err := ParseWAV(pcm)
	if err != nil {
		return Waveform{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return wave, nil
}

// NormalizeEncoding maps a declared encoding, MIME type or file extension to
// the short container name used for temp file suffixes. The result only holds
// lowercase letters and digits.
func NormalizeEncoding(encoding string) string {
	value := strings.ToLower(strings.TrimSpace(encoding))
	if i := strings.IndexByte(value, ';'); i >= 0 {
		value = value[:i]
	}
	if i := strings.LastIndexAny(value, `/\`); i >= 0 {
		value = value[i+1:]
	}
	value = strings.TrimPrefix(strings.TrimSpace(value), "x-")
	value = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, value)

	switch value {
	case "":
		return "bin"
	case "wave", "vndwave":
		return "wav"
	case "mpeg", "mp3", "mpeg3", "mpga":
		return "mp3"
	default:
		return value
	}
}

func (s *FFmpegSource) writeTemp(pattern string, content []byte) (string, error) {
	f, err := os.CreateTemp(s.TempDir, pattern)
	if err != nil {
		return "", fmt.Errorf("%w: create temp audio file: %v", ErrDecode, err)
	}

	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		s.remove(f.Name())
		return "", fmt.Errorf("%w: write temp audio file: %v", ErrDecode, err)
	}
	if err := f.Close(); err != nil {
		s.remove(f.Name())
		return "", fmt.Errorf("%w: close temp audio file: %v", ErrDecode, err)
	}

	return f.Name(), nil
}

func (s *FFmpegSource) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log().Warn("failed to remove temporary audio", zap.String("path", path), zap.Error(err))
	}
}

func (s *FFmpegSource) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return strings.TrimSpace(stderr.String()), err
}
