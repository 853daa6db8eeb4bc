package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fmueller/voxchunk/internal/transcript"
)

func noSpeechHint() string {
	return "No speech detected. Check that the file contains audible speech and try a different --language or --backend."
}

// displayResult prints the transcript: plain text, or the JSON document when
// that format was requested.
func displayResult(w io.Writer, format string, record transcript.Record, artifact transcript.Artifact) error {
	var err error
	if format == transcript.FormatJSON {
		_, err = w.Write(artifact.Bytes)
	} else {
		_, err = fmt.Fprintln(w, record.Text())
	}
	if err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// offerDownload writes the artifact to output. An empty output means the
// current directory; an existing directory receives the artifact's own name.
func offerDownload(output string, artifact transcript.Artifact) (string, error) {
	path := strings.TrimSpace(output)
	if path == "" {
		path = artifact.Filename
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, artifact.Filename)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("inspect output path: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, artifact.Bytes, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", artifact.MIMEType, err)
	}
	return path, nil
}
