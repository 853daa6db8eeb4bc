package chunk

import (
	"errors"
	"fmt"
	"time"
)

const DefaultChunkLength = 30 * time.Second

var ErrInvalidInput = errors.New("invalid segmentation input")

// Window is the half-open interval [StartMs, EndMs) of the source audio.
type Window struct {
	Index   int   `json:"index"`
	StartMs int64 `json:"start_ms"`
	EndMs   int64 `json:"end_ms"`
}

func (w Window) Len() int64 {
	return w.EndMs - w.StartMs
}

func (w Window) String() string {
	return fmt.Sprintf("window %d: [%d, %d)", w.Index, w.StartMs, w.EndMs)
}

// Segment partitions [0, durationMs) into contiguous windows of chunkLengthMs.
// Only the last window may be shorter. A zero duration still yields one empty
// window so every run makes at least one recognition attempt.
func Segment(durationMs, chunkLengthMs int64) ([]Window, error) {
	if durationMs < 0 {
		return nil, fmt.Errorf("%w: duration %dms is negative", ErrInvalidInput, durationMs)
	}
	if chunkLengthMs <= 0 {
		return nil, fmt.Errorf("%w: chunk length %dms must be positive", ErrInvalidInput, chunkLengthMs)
	}

	if durationMs == 0 {
		return []Window{{Index: 0, StartMs: 0, EndMs: 0}}, nil
	}

	count := (durationMs + chunkLengthMs - 1) / chunkLengthMs
	windows := make([]Window, 0, count)
	for i := int64(0); i < count; i++ {
		start := i * chunkLengthMs
		windows = append(windows, Window{
			Index:   int(i),
			StartMs: start,
			EndMs:   min(start+chunkLengthMs, durationMs),
		})
	}

	return windows, nil
}
