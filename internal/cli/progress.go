package cli

import (
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/fmueller/voxchunk/internal/chunk"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

type stopFunc func()

func startSpinner(enabled bool, w io.Writer, description string) stopFunc {
	if !enabled {
		return func() {}
	}

	bar := progressbar.NewOptions(
		-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(80*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	go func() {
		defer close(doneCh)
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				_ = bar.Finish()
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stopCh)
			<-doneCh
		})
	}
}

// progressReporter draws one determinate bar step per window and routes
// warnings and the fatal error through the logger.
type progressReporter struct {
	enabled bool
	w       io.Writer
	logger  *zap.Logger

	bar      *progressbar.ProgressBar
	total    int
	fraction float64
	warnings int
}

func newProgressReporter(enabled bool, w io.Writer, logger *zap.Logger) *progressReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &progressReporter{enabled: enabled, w: w, logger: logger}
}

func (p *progressReporter) BeginWindow(win chunk.Window, total int) {
	p.total = total
	status := fmt.Sprintf("Processing chunk %d of %d", win.Index+1, total)
	p.logger.Debug(status, zap.Stringer("range", win))

	if !p.enabled {
		return
	}
	if p.bar == nil {
		p.bar = progressbar.NewOptions(
			total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetWidth(20),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionClearOnFinish(),
		)
	}
	p.bar.Describe(status)
}

func (p *progressReporter) ReportProgress(fraction float64) {
	p.fraction = fraction
	if p.bar == nil {
		return
	}
	_ = p.bar.Set(int(math.Round(fraction * float64(p.total))))
}

func (p *progressReporter) ReportWarning(index int, message string) {
	p.warnings++
	p.clear()
	p.logger.Warn("chunk skipped", zap.Int("chunk", index+1), zap.Int("of", p.total), zap.String("reason", message))
}

func (p *progressReporter) ReportFatal(index int, message string) {
	p.clear()
	p.logger.Error("transcription stopped", zap.Int("chunk", index+1), zap.Int("of", p.total), zap.String("error", message))
}

func (p *progressReporter) Close() {
	if p.bar == nil {
		return
	}
	if p.fraction >= 1 {
		_ = p.bar.Finish()
	} else {
		_ = p.bar.Exit()
	}
	p.bar = nil
}

func (p *progressReporter) clear() {
	if p.bar != nil {
		_ = p.bar.Clear()
	}
}
