package chunk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSegmentSeventyFiveSecondsIntoThirtySecondWindows(t *testing.T) {
	t.Parallel()

	windows, err := Segment(75000, 30000)
	require.NoError(t, err)
	require.Equal(t, []Window{
		{Index: 0, StartMs: 0, EndMs: 30000},
		{Index: 1, StartMs: 30000, EndMs: 60000},
		{Index: 2, StartMs: 60000, EndMs: 75000},
	}, windows)
}

func TestSegmentZeroDurationYieldsOneWindow(t *testing.T) {
	t.Parallel()

	windows, err := Segment(0, 30000)
	require.NoError(t, err)
	require.Equal(t, []Window{{Index: 0, StartMs: 0, EndMs: 0}}, windows)
}

func TestSegmentExactMultiple(t *testing.T) {
	t.Parallel()

	windows, err := Segment(60000, 30000)
	require.NoError(t, err)
	require.Len(t, windows, 2)
	require.EqualValues(t, 30000, windows[1].Len())
}

func TestSegmentShorterThanChunk(t *testing.T) {
	t.Parallel()

	windows, err := Segment(1234, 30000)
	require.NoError(t, err)
	require.Equal(t, []Window{{Index: 0, StartMs: 0, EndMs: 1234}}, windows)
}

func TestSegmentInvalidInput(t *testing.T) {
	t.Parallel()

	_, err := Segment(-1, 30000)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = Segment(1000, 0)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = Segment(1000, -5)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSegmentInvariants(t *testing.T) {
	t.Parallel()

	durations := []int64{1, 2, 999, 1000, 1001, 29999, 30000, 30001, 75000, 360_001}
	chunks := []int64{3, 7, 1000, 30000, 45000}

	for _, duration := range durations {
		for _, chunkLen := range chunks {
			windows, err := Segment(duration, chunkLen)
			require.NoError(t, err)

			wantCount := (duration + chunkLen - 1) / chunkLen
			require.Len(t, windows, int(wantCount), "duration=%d chunk=%d", duration, chunkLen)

			var total int64
			for i, w := range windows {
				require.Equal(t, i, w.Index)
				if i == 0 {
					require.Zero(t, w.StartMs)
				} else {
					require.Equal(t, windows[i-1].EndMs, w.StartMs)
				}
				require.Positive(t, w.Len())
				if i < len(windows)-1 {
					require.Equal(t, chunkLen, w.Len())
				} else {
					require.LessOrEqual(t, w.Len(), chunkLen)
				}
				total += w.Len()
			}
			require.Equal(t, duration, total)
			require.Equal(t, duration, windows[len(windows)-1].EndMs)

			again, err := Segment(duration, chunkLen)
			require.NoError(t, err)
			require.Equal(t, windows, again)
		}
	}
}

func TestSegmentIsDeterministic(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct{ duration, length int64 }{{0, 30000}, {75000, 30000}, {90000, 30000}, {1, 7}} {
		first, err := Segment(tc.duration, tc.length)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			again, err := Segment(tc.duration, tc.length)
			require.NoError(t, err)
			require.Equal(t, first, again, "duration=%d length=%d", tc.duration, tc.length)
		}
	}
}
