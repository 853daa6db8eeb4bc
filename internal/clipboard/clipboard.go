package clipboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

var ErrUnavailable = errors.New("no clipboard command available")

const copyTimeout = 4 * time.Second

type tool struct {
	name string
	args []string
	// detach starts the tool and returns without waiting; xclip keeps
	// running to own the selection.
	detach bool
}

var toolsByOS = map[string][]tool{
	"darwin":  {{name: "pbcopy"}},
	"windows": {{name: "clip.exe"}},
	"linux": {
		{name: "wl-copy"},
		{name: "xclip", args: []string{"-selection", "clipboard", "-in", "-silent"}, detach: true},
		{name: "xsel", args: []string{"--clipboard", "--input"}},
	},
}

// CopyText puts value on the system clipboard using the first clipboard tool
// found on PATH.
func CopyText(ctx context.Context, value string) error {
	t, err := detect(runtime.GOOS, exec.LookPath)
	if err != nil {
		return err
	}
	if t.detach {
		return startDetached(t, value)
	}

	copyCtx, cancel := context.WithTimeout(ctx, copyTimeout)
	defer cancel()

	cmd := exec.CommandContext(copyCtx, t.name, t.args...)
	cmd.Stdin = strings.NewReader(value)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	if err := cmd.Run(); err != nil {
		if errors.Is(copyCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("copy to clipboard timed out: %w", copyCtx.Err())
		}
		return fmt.Errorf("copy to clipboard with %s: %w", t.name, err)
	}
	return nil
}

func detect(goos string, lookPath func(string) (string, error)) (tool, error) {
	candidates, ok := toolsByOS[goos]
	if !ok {
		candidates = toolsByOS["linux"]
	}
	for _, t := range candidates {
		if _, err := lookPath(t.name); err == nil {
			return t, nil
		}
	}
	return tool{}, ErrUnavailable
}

func startDetached(t tool, value string) error {
	cmd := exec.Command(t.name, t.args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open clipboard stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start %s: %w", t.name, err)
	}

	_, writeErr := io.WriteString(stdin, value)
	closeErr := stdin.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("write clipboard data: %w", err)
	}

	return cmd.Process.Release()
}
