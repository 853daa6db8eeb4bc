package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	ErrUnsupportedWAV = errors.New("unsupported wav format")
	ErrInvalidWAV     = errors.New("invalid wav file")
)

const (
	formatPCM   = 1
	formatFloat = 3
)

type wavFormat struct {
	audioFormat   uint16
	channels      uint16
	sampleRate    uint32
	bitsPerSample uint16
}

// ParseWAV decodes a RIFF/WAVE byte stream into a mono Waveform. Multi-channel
// audio is averaged down to one channel and every supported sample width is
// rescaled to 16 bits.
func ParseWAV(data []byte) (Waveform, error) {
	if len(data) < 12 {
		return Waveform{}, fmt.Errorf("%w: %d byte header", ErrInvalidWAV, len(data))
	}
	if string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Waveform{}, ErrInvalidWAV
	}

	var (
		format  wavFormat
		payload []byte
		hasFmt  bool
		hasData bool
	)

	off := 12
	for off+8 <= len(data) {
		chunkID := string(data[off : off+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		end := body + chunkSize
		if end > len(data) {
			// ffmpeg writes a placeholder size when it streams to a pipe.
			if chunkID != "data" {
				return Waveform{}, fmt.Errorf("%w: chunk %q overruns file", ErrInvalidWAV, chunkID)
			}
			end = len(data)
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return Waveform{}, ErrInvalidWAV
			}
			format = wavFormat{
				audioFormat:   binary.LittleEndian.Uint16(data[body : body+2]),
				channels:      binary.LittleEndian.Uint16(data[body+2 : body+4]),
				sampleRate:    binary.LittleEndian.Uint32(data[body+4 : body+8]),
				bitsPerSample: binary.LittleEndian.Uint16(data[body+14 : body+16]),
			}
			hasFmt = true
		case "data":
			payload = data[body:end]
			hasData = true
		}

		off = end
		if chunkSize%2 != 0 {
			off++
		}
	}

	if !hasFmt || !hasData {
		return Waveform{}, ErrInvalidWAV
	}
	if err := validateFormat(format); err != nil {
		return Waveform{}, err
	}

	samples, err := decodeSamples(payload, format)
	if err != nil {
		return Waveform{}, err
	}

	return Waveform{Samples: samples, SampleRate: int(format.sampleRate)}, nil
}

// EncodeWAV writes w as a canonical 16-bit mono PCM WAV file.
func EncodeWAV(w Waveform) []byte {
	const (
		channels       = 1
		bytesPerSample = 2
		fmtChunkSize   = 16
	)
	dataSize := len(w.Samples) * bytesPerSample

	var buf bytes.Buffer
	buf.Grow(44 + dataSize)
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(4+(8+fmtChunkSize)+(8+dataSize)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(fmtChunkSize))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(formatPCM))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(w.SampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(w.SampleRate*channels*bytesPerSample))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels*bytesPerSample))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(8*bytesPerSample))

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	_ = binary.Write(&buf, binary.LittleEndian, w.Samples)

	return buf.Bytes()
}

func validateFormat(f wavFormat) error {
	if f.channels == 0 || f.sampleRate == 0 {
		return ErrInvalidWAV
	}

	switch f.audioFormat {
	case formatPCM:
		switch f.bitsPerSample {
		case 8, 16, 24, 32:
			return nil
		}
	case formatFloat:
		switch f.bitsPerSample {
		case 32, 64:
			return nil
		}
	}

	return ErrUnsupportedWAV
}

func decodeSamples(data []byte, f wavFormat) ([]int16, error) {
	bytesPerSample := int(f.bitsPerSample / 8)
	frameSize := bytesPerSample * int(f.channels)
	frames := len(data) / frameSize

	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		frame := data[i*frameSize : (i+1)*frameSize]
		var sum float64
		for ch := 0; ch < int(f.channels); ch++ {
			value, err := decodeSample(frame[ch*bytesPerSample:(ch+1)*bytesPerSample], f.audioFormat, f.bitsPerSample)
			if err != nil {
				return nil, err
			}
			sum += value
		}
		out[i] = toInt16(sum / float64(f.channels))
	}

	return out, nil
}

func decodeSample(sample []byte, audioFormat, bitsPerSample uint16) (float64, error) {
	if audioFormat == formatFloat {
		switch bitsPerSample {
		case 32:
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(sample))), nil
		case 64:
			return math.Float64frombits(binary.LittleEndian.Uint64(sample)), nil
		default:
			return 0, ErrUnsupportedWAV
		}
	}

	switch bitsPerSample {
	case 8:
		return (float64(sample[0]) - 128.0) / 128.0, nil
	case 16:
		return float64(int16(binary.LittleEndian.Uint16(sample))) / 32768.0, nil
	case 24:
		v := int32(sample[0]) | int32(sample[1])<<8 | int32(sample[2])<<16
		if v&0x800000 != 0 {
			v |= ^0xFFFFFF
		}
		return float64(v) / 8388608.0, nil
	case 32:
		return float64(int32(binary.LittleEndian.Uint32(sample))) / 2147483648.0, nil
	default:
		return 0, ErrUnsupportedWAV
	}
}

func toInt16(value float64) int16 {
	scaled := math.Round(value * 32768.0)
	if scaled > math.MaxInt16 {
		return math.MaxInt16
	}
	if scaled < math.MinInt16 {
		return math.MinInt16
	}
	return int16(scaled)
}
