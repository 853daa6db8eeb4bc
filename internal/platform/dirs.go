package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appName = "voxchunk"

// EnvModelDir overrides the model directory when --model-dir is not given.
const EnvModelDir = "VOXCHUNK_MODEL_DIR"

type Env struct {
	GOOS         string
	Home         string
	XDGDataHome  string
	LocalAppData string
}

func CurrentEnv() (Env, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Env{}, fmt.Errorf("resolve user home: %w", err)
	}
	return Env{
		GOOS:         runtime.GOOS,
		Home:         home,
		XDGDataHome:  os.Getenv("XDG_DATA_HOME"),
		LocalAppData: os.Getenv("LOCALAPPDATA"),
	}, nil
}

// DataDir is the per-user directory voxchunk keeps downloaded assets in.
func (e Env) DataDir() (string, error) {
	if e.Home == "" {
		return "", errors.New("home directory is empty")
	}

	switch e.GOOS {
	case "linux", "freebsd", "openbsd":
		if e.XDGDataHome != "" {
			return filepath.Join(e.XDGDataHome, appName), nil
		}
		return filepath.Join(e.Home, ".local", "share", appName), nil
	case "darwin":
		return filepath.Join(e.Home, "Library", "Application Support", appName), nil
	case "windows":
		if e.LocalAppData != "" {
			return filepath.Join(e.LocalAppData, appName), nil
		}
		return filepath.Join(e.Home, "AppData", "Local", appName), nil
	default:
		return "", fmt.Errorf("unsupported OS: %s", e.GOOS)
	}
}

func (e Env) ModelDir() (string, error) {
	dataDir, err := e.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "models"), nil
}

// ResolveModelDir picks the model directory: the explicit override, then
// VOXCHUNK_MODEL_DIR, then the per-user default.
func ResolveModelDir(override string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		return filepath.Clean(override), nil
	}
	if fromEnv := strings.TrimSpace(os.Getenv(EnvModelDir)); fromEnv != "" {
		return filepath.Clean(fromEnv), nil
	}

	env, err := CurrentEnv()
	if err != nil {
		return "", err
	}
	return env.ModelDir()
}
