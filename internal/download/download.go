package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

var ErrChecksumMismatch = errors.New("checksum mismatch")

// Fetcher downloads large assets (whisper models) to disk. The file is
// written next to its destination as <name>.part and renamed into place only
// after its sha256 matched.
type Fetcher struct {
	Client  *http.Client
	Retries int
	// Progress receives a byte progress bar when non-nil.
	Progress io.Writer
	Logger   *zap.Logger

	backoff time.Duration
}

type Asset struct {
	URL         string
	Destination string
	SHA256      string
}

func NewFetcher(logger *zap.Logger, progress io.Writer) *Fetcher {
	return &Fetcher{
		Client:   &http.Client{Timeout: 10 * time.Minute},
		Retries:  3,
		Progress: progress,
		Logger:   logger,
		backoff:  300 * time.Millisecond,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, asset Asset) error {
	if asset.URL == "" {
		return errors.New("download URL is required")
	}
	if asset.Destination == "" {
		return errors.New("destination path is required")
	}
	if err := os.MkdirAll(filepath.Dir(asset.Destination), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	retries := max(f.Retries, 1)
	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if attempt > 1 {
			f.log().Warn("retrying download", zap.Int("attempt", attempt), zap.Int("max", retries), zap.String("url", asset.URL), zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * f.backoff):
			}
		}

		lastErr = f.fetchOnce(ctx, asset)
		if lastErr == nil || errors.Is(lastErr, context.Canceled) {
			return lastErr
		}
	}

	return lastErr
}

// Verify hashes the file at path and compares it with expectedSHA256. An
// empty expectation always passes.
func Verify(path, expectedSHA256 string) error {
	expected := strings.ToLower(strings.TrimSpace(expectedSHA256))
	if expected == "" {
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file for checksum: %w", err)
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return fmt.Errorf("hash file: %w", err)
	}
	return compare(h, expected)
}

func (f *Fetcher) fetchOnce(ctx context.Context, asset Asset) error {
	partPath := asset.Destination + ".part"
	_ = os.Remove(partPath)

	out, err := os.Create(partPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	done := false
	defer func() {
		_ = out.Close()
		if !done {
			_ = os.Remove(partPath)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.URL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "voxchunk/1")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	h := sha256.New()
	writers := []io.Writer{out, h}
	var bar *progressbar.ProgressBar
	if f.Progress != nil && resp.ContentLength > 0 {
		bar = progressbar.NewOptions64(
			resp.ContentLength,
			progressbar.OptionSetDescription("downloading "+filepath.Base(asset.Destination)),
			progressbar.OptionSetWidth(20),
			progressbar.OptionShowBytes(true),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionSetWriter(f.Progress),
			progressbar.OptionClearOnFinish(),
		)
		writers = append(writers, bar)
	}

	if _, err := io.Copy(io.MultiWriter(writers...), resp.Body); err != nil {
		return fmt.Errorf("download body: %w", err)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if err := compare(h, strings.ToLower(strings.TrimSpace(asset.SHA256))); err != nil {
		return err
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(partPath, asset.Destination); err != nil {
		return fmt.Errorf("move temp file into destination: %w", err)
	}

	done = true
	return nil
}

func compare(h hash.Hash, expected string) error {
	if expected == "" {
		return nil
	}
	actual := hex.EncodeToString(h.Sum(nil))
	if actual != expected {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, expected, actual)
	}
	return nil
}

func (f *Fetcher) log() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}
