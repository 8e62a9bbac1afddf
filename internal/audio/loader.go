// Package audio decodes raw audio bytes into a uniform mono sample buffer.
//
// Decoding is a pure transform: a byte slice either yields a Signal or a
// non-retryable validation error. Nothing downstream can run without it.
package audio

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var (
	// ErrTooLarge means the input exceeds the configured size cap.
	ErrTooLarge = errors.New("audio file too large")
	// ErrInvalidFormat means the bytes are not a decodable audio stream.
	ErrInvalidFormat = errors.New("invalid audio format")
)

// DefaultMaxBytes caps uploads at 10 MB.
const DefaultMaxBytes = 10 * 1024 * 1024

// Signal is a decoded track: mono samples normalized to [-1,1].
type Signal struct {
	Samples    []float64
	SampleRate int
	Duration   float64
}

// Decode validates and decodes a 16/24/32-bit PCM WAV byte stream into a
// mono Signal. maxBytes <= 0 uses DefaultMaxBytes.
func Decode(data []byte, maxBytes int64) (*Signal, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds cap of %s",
			ErrTooLarge, humanize.Bytes(uint64(len(data))), humanize.Bytes(uint64(maxBytes)))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidFormat)
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a RIFF/WAVE stream", ErrInvalidFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("%w: no PCM data", ErrInvalidFormat)
	}

	channels := buf.Format.NumChannels
	rate := buf.Format.SampleRate
	if rate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidFormat, rate)
	}
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("%w: unsupported channel count %d", ErrInvalidFormat, channels)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := 1.0 / float64(int(1)<<(bitDepth-1))

	samples := downmix(buf, channels, scale)
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no samples after downmix", ErrInvalidFormat)
	}

	return &Signal{
		Samples:    samples,
		SampleRate: rate,
		Duration:   float64(len(samples)) / float64(rate),
	}, nil
}

// downmix converts an interleaved integer PCM buffer to mono float64 in
// [-1,1], averaging channels for stereo input.
func downmix(buf *gaudio.IntBuffer, channels int, scale float64) []float64 {
	data := buf.Data
	if channels == 1 {
		out := make([]float64, len(data))
		for i, s := range data {
			out[i] = float64(s) * scale
		}
		return out
	}

	frames := len(data) / 2
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		l := float64(data[2*i]) * scale
		r := float64(data[2*i+1]) * scale
		out[i] = (l + r) * 0.5
	}
	return out
}
