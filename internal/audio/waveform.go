package audio

import (
	"errors"
	"fmt"
)

const DefaultSampleRate = 16000

var ErrInvalidRange = errors.New("invalid waveform range")

// Waveform is mono 16-bit PCM audio. Slices returned by Slice share storage
// with the receiver, so callers must treat Samples as read-only.
type Waveform struct {
	Samples    []int16
	SampleRate int
}

func (w Waveform) DurationMs() int64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return int64(len(w.Samples)) * 1000 / int64(w.SampleRate)
}

// Slice returns the samples covering [startMs, endMs). An end at or past the
// reported duration extends to the last sample so sub-millisecond tails are kept.
func (w Waveform) Slice(startMs, endMs int64) (Waveform, error) {
	if startMs < 0 || endMs < startMs {
		return Waveform{}, fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, startMs, endMs)
	}
	if w.SampleRate <= 0 {
		return Waveform{}, fmt.Errorf("%w: sample rate %d", ErrInvalidRange, w.SampleRate)
	}

	total := int64(len(w.Samples))
	from := startMs * int64(w.SampleRate) / 1000
	to := endMs * int64(w.SampleRate) / 1000
	if endMs >= w.DurationMs() {
		to = total
	}
	from = min(from, total)
	to = min(to, total)

	return Waveform{Samples: w.Samples[from:to], SampleRate: w.SampleRate}, nil
}
