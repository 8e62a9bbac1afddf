// Package dsp holds the shared signal primitives the analysis stages are
// built from: STFT magnitude frames and the scalar features derived from
// them (spectral flux, RMS, centroid, rolloff, zero crossings, chroma).
package dsp

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

const (
	// WindowSize is the default STFT analysis window.
	WindowSize = 2048
	// HopSize is the default STFT hop.
	HopSize = 512
)

// Hamming returns an n-point Hamming window.
func Hamming(n int) []float64 {
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// STFT computes magnitude spectra over hopped, windowed frames. Each row has
// windowSize/2 bins; bin k corresponds to k*sampleRate/windowSize Hz.
func STFT(samples []float64, windowSize, hopSize int) ([][]float64, error) {
	if windowSize <= 0 || hopSize <= 0 {
		return nil, errors.New("window and hop sizes must be positive")
	}
	if len(samples) < windowSize {
		return nil, errors.New("input shorter than window size")
	}

	window := Hamming(windowSize)
	half := windowSize / 2
	frame := make([]float64, windowSize)

	var spec [][]float64
	for start := 0; start+windowSize <= len(samples); start += hopSize {
		for i := 0; i < windowSize; i++ {
			frame[i] = samples[start+i] * window[i]
		}
		bins := fft.FFTReal(frame)
		mag := make([]float64, half)
		for i := 0; i < half; i++ {
			mag[i] = cmplx.Abs(bins[i])
		}
		spec = append(spec, mag)
	}
	return spec, nil
}

// FrameTime converts a frame index to seconds.
func FrameTime(frame, sampleRate, hopSize int) float64 {
	return float64(frame) * float64(hopSize) / float64(sampleRate)
}

// OnsetEnvelope computes half-wave rectified spectral flux per frame: the
// summed positive magnitude change from the previous frame.
func OnsetEnvelope(spec [][]float64) []float64 {
	onset := make([]float64, len(spec))
	for i := 1; i < len(spec); i++ {
		flux := 0.0
		for j, m := range spec[i] {
			d := m - spec[i-1][j]
			if d > 0 {
				flux += d
			}
		}
		onset[i] = flux
	}
	return onset
}

// RMSFrames computes root-mean-square loudness over hopped frames.
func RMSFrames(samples []float64, frameSize, hopSize int) []float64 {
	n := len(samples)
	numFrames := (n - frameSize) / hopSize
	if numFrames <= 0 {
		return nil
	}
	rms := make([]float64, numFrames)
	for i := 0; i < numFrames; i++ {
		start := i * hopSize
		sum := 0.0
		count := 0
		for j := 0; j < frameSize && start+j < n; j++ {
			v := samples[start+j]
			sum += v * v
			count++
		}
		if count > 0 {
			rms[i] = math.Sqrt(sum / float64(count))
		}
	}
	return rms
}

// SpectralCentroids returns the magnitude-weighted mean frequency (Hz) of
// each frame, a brightness proxy.
func SpectralCentroids(spec [][]float64, sampleRate, windowSize int) []float64 {
	binHz := float64(sampleRate) / float64(windowSize)
	out := make([]float64, len(spec))
	for i, mag := range spec {
		var num, den float64
		for k, m := range mag {
			num += float64(k) * binHz * m
			den += m
		}
		if den > 1e-12 {
			out[i] = num / den
		}
	}
	return out
}

// SpectralRolloffs returns, per frame, the frequency (Hz) below which pct of
// the spectral energy lies. pct is typically 0.85.
func SpectralRolloffs(spec [][]float64, sampleRate, windowSize int, pct float64) []float64 {
	binHz := float64(sampleRate) / float64(windowSize)
	out := make([]float64, len(spec))
	for i, mag := range spec {
		total := 0.0
		for _, m := range mag {
			total += m
		}
		if total <= 1e-12 {
			continue
		}
		target := total * pct
		acc := 0.0
		for k, m := range mag {
			acc += m
			if acc >= target {
				out[i] = float64(k) * binHz
				break
			}
		}
	}
	return out
}

// ZeroCrossingRate returns the fraction of sign changes per hopped frame,
// a rough texture proxy.
func ZeroCrossingRate(samples []float64, frameSize, hopSize int) []float64 {
	n := len(samples)
	numFrames := (n - frameSize) / hopSize
	if numFrames <= 0 {
		return nil
	}
	out := make([]float64, numFrames)
	for i := 0; i < numFrames; i++ {
		start := i * hopSize
		crossings := 0
		for j := 1; j < frameSize && start+j < n; j++ {
			if (samples[start+j-1] >= 0) != (samples[start+j] >= 0) {
				crossings++
			}
		}
		out[i] = float64(crossings) / float64(frameSize)
	}
	return out
}

// chroma reference: C4.
const referencePitchHz = 261.63

// ChromaFrames folds each magnitude frame into a 12-bin pitch-class vector
// over the 65-4000 Hz band.
func ChromaFrames(spec [][]float64, sampleRate, windowSize int) [][]float64 {
	binHz := float64(sampleRate) / float64(windowSize)
	out := make([][]float64, len(spec))
	for i, mag := range spec {
		chroma := make([]float64, 12)
		for k := 1; k < len(mag); k++ {
			freq := float64(k) * binHz
			if freq < 65 || freq > 4000 {
				continue
			}
			semitones := 12 * math.Log2(freq/referencePitchHz)
			pc := ((int(math.Round(semitones)) % 12) + 12) % 12
			chroma[pc] += mag[k]
		}
		out[i] = chroma
	}
	return out
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Max returns the largest value, or 0 for an empty slice.
func Max(xs []float64) float64 {
	best := 0.0
	for i, x := range xs {
		if i == 0 || x > best {
			best = x
		}
	}
	return best
}
