package whisper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
)

const enginePathEnv = "VOXCHUNK_WHISPER_PATH"

// BundledEngine drives a whisper-cli binary shipped next to voxchunk (or
// pointed to by VOXCHUNK_WHISPER_PATH). It is created once per run and reused
// for every window.
type BundledEngine struct {
	Executable string
	TempDir    string
	Logger     *zap.Logger
}

func NewBundledEngine(logger *zap.Logger) (*BundledEngine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if override := strings.TrimSpace(os.Getenv(enginePathEnv)); override != "" {
		if err := ensureExecutable(override); err != nil {
			return nil, fmt.Errorf("%s is not executable: %w", enginePathEnv, err)
		}
		return &BundledEngine{Executable: override, Logger: logger}, nil
	}

	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve voxchunk executable path: %w", err)
	}

	enginePath, err := ResolveBundledEnginePath(self)
	if err != nil {
		return nil, err
	}

	return &BundledEngine{Executable: enginePath, Logger: logger}, nil
}

func ResolveBundledEnginePath(selfExecutable string) (string, error) {
	for _, candidate := range EnginePathCandidates(selfExecutable) {
		if ensureExecutable(candidate) == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("bundled whisper engine not found near %s; install whisper-cli at ../libexec/whisper/%s or set %s", selfExecutable, engineBinaryName(), enginePathEnv)
}

func EnginePathCandidates(selfExecutable string) []string {
	binDir := filepath.Dir(selfExecutable)
	name := engineBinaryName()
	target := runtime.GOOS + "_" + normalizeArch(runtime.GOARCH)

	return []string{
		filepath.Join(binDir, "..", "libexec", "whisper", name),
		filepath.Join(binDir, "libexec", "whisper", name),
		filepath.Join(binDir, "packaging", "whisper", target, name),
		filepath.Join(binDir, name),
	}
}

func (b *BundledEngine) Transcribe(ctx context.Context, req TranscriptionRequest) (string, error) {
	if strings.TrimSpace(req.AudioPath) == "" {
		return "", errors.New("audio path is required")
	}
	if strings.TrimSpace(req.ModelPath) == "" {
		return "", errors.New("model path is required")
	}
	if err := ensureExecutable(b.Executable); err != nil {
		return "", fmt.Errorf("whisper engine missing or not executable: %w", err)
	}

	outFile, err := os.CreateTemp(b.TempDir, "voxchunk-whisper-*")
	if err != nil {
		return "", fmt.Errorf("reserve whisper output: %w", err)
	}
	outBase := outFile.Name()
	_ = outFile.Close()
	txtOut := outBase + ".txt"
	defer b.remove(outBase)
	defer b.remove(txtOut)

	args := buildArgs(req, outBase)
	cmd := exec.CommandContext(ctx, b.Executable, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	b.log().Debug("running whisper engine", zap.String("engine", b.Executable), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		return "", classifyRunError(b.Executable, err, strings.TrimSpace(stderr.String()))
	}

	content, err := os.ReadFile(txtOut)
	if err != nil {
		return "", fmt.Errorf("read whisper output: %w", err)
	}

	return strings.TrimSpace(string(content)), nil
}

func buildArgs(req TranscriptionRequest, outBase string) []string {
	args := []string{"-m", req.ModelPath, "-f", req.AudioPath, "-nt", "-otxt", "-of", outBase}

	if lang := strings.TrimSpace(req.Language); lang != "" && lang != "auto" {
		args = append(args, "-l", lang)
	} else {
		args = append(args, "-l", "auto")
	}
	if req.Translate {
		args = append(args, "-tr")
	}
	if strings.EqualFold(strings.TrimSpace(req.Device), "cpu") {
		args = append(args, "-ng")
	}

	return args
}

func classifyRunError(executable string, runErr error, stderr string) error {
	switch {
	case isMissingSharedLibraryError(stderr):
		return fmt.Errorf("whisper engine at %s is missing required shared libraries (%s); rebuild whisper-cli with BUILD_SHARED_LIBS=OFF", executable, stderr)
	case isIllegalInstructionError(stderr), isIllegalInstructionError(runErr.Error()):
		return fmt.Errorf("whisper engine crashed with an illegal CPU instruction; set %s to a whisper-cli binary built for this CPU", enginePathEnv)
	default:
		return fmt.Errorf("whisper transcribe failed: %w (%s)", runErr, stderr)
	}
}

func (b *BundledEngine) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		b.log().Warn("failed to remove whisper output", zap.String("path", path), zap.Error(err))
	}
}

func (b *BundledEngine) log() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}

func engineBinaryName() string {
	if runtime.GOOS == "windows" {
		return "whisper-cli.exe"
	}
	return "whisper-cli"
}

func ensureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if runtime.GOOS != "windows" && info.Mode()&0o111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}

func isMissingSharedLibraryError(stderr string) bool {
	value := strings.ToLower(strings.TrimSpace(stderr))
	if value == "" {
		return false
	}

	for _, pattern := range []string{
		"error while loading shared libraries",
		"cannot open shared object file",
		"dyld: library not loaded",
		"image not found",
	} {
		if strings.Contains(value, pattern) {
			return true
		}
	}

	return false
}

func isIllegalInstructionError(stderr string) bool {
	return strings.Contains(strings.ToLower(stderr), "illegal instruction")
}

func normalizeArch(arch string) string {
	switch arch {
	case "x86_64":
		return "amd64"
	case "aarch64":
		return "arm64"
	default:
		return arch
	}
}
