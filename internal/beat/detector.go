// Package beat estimates tempo and beat timestamps by reconciling two
// independent estimators under a 50ms precision contract.
//
// Both estimators are pure functions returning the same Estimate shape; the
// merge, dedup and agreement steps are standalone pure functions so the
// precision-critical logic stays testable without any audio decoding.
package beat

import (
	"math"
	"sort"

	"github.com/mlx93/VideoGen/internal/audio"
	"github.com/mlx93/VideoGen/internal/dsp"
)

const (
	// MinTempo and MaxTempo bound every reported tempo.
	MinTempo = 60.0
	MaxTempo = 200.0

	// DedupGap is the minimum spacing between kept beats (50ms contract).
	DedupGap = 0.050
	// AgreementTolerance is the match window when scoring estimator
	// agreement. Tunable, not a behavioral guarantee.
	AgreementTolerance = 0.070

	// DefaultTempo is used when no usable tempo exists.
	DefaultTempo = 120.0

	minConfidence      = 0.6
	fallbackConfidence = 0.5

	onsetFrameSize = 1024
	onsetHopSize   = 512
)

// Estimate is one estimator's raw output.
type Estimate struct {
	Source string
	Tempo  float64
	Beats  []float64
}

// Result is the reconciled beat set for a track. Adjacent beats are at
// least DedupGap apart and Tempo is within [MinTempo, MaxTempo].
type Result struct {
	Tempo      float64
	Beats      []float64
	Confidence float64
	Fallback   bool
}

// Detect runs both estimators on the signal and merges their outputs. It
// never fails: an unusable result degrades to a uniform grid with
// Fallback set.
func Detect(sig *audio.Signal) Result {
	spec, err := dsp.STFT(sig.Samples, onsetFrameSize, onsetHopSize)
	if err != nil {
		// Track too short to analyze at all.
		return gridResult(DefaultTempo, sig.Duration)
	}
	onset := dsp.OnsetEnvelope(spec)

	a := TrackBeats(onset, sig.SampleRate, onsetHopSize, sig.Duration)
	b := OnsetBeats(onset, sig.SampleRate, onsetHopSize)

	return Merge(a, b, sig.Duration)
}

// TrackBeats is estimator A: a tempo-first tracker. It picks the tempo by
// autocorrelating the onset strength curve over the 60-200 BPM lag range
// (with a perceptual bias toward 120 BPM to avoid octave errors), anchors
// the phase at the strongest early onset, and lays out a beat grid.
func TrackBeats(onset []float64, sampleRate, hopSize int, duration float64) Estimate {
	est := Estimate{Source: "tracker"}
	if len(onset) < 4 {
		return est
	}

	framesPerSec := float64(sampleRate) / float64(hopSize)
	minLag := int(framesPerSec * 60.0 / MaxTempo)
	maxLag := int(framesPerSec * 60.0 / MinTempo)
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(onset) {
		maxLag = len(onset) - 1
	}
	if maxLag <= minLag {
		return est
	}

	bestLag := minLag
	bestCorr := -1.0
	for lag := minLag; lag <= maxLag; lag++ {
		corr := 0.0
		count := 0
		for i := 0; i+lag < len(onset); i++ {
			corr += onset[i] * onset[i+lag]
			count++
		}
		if count > 0 {
			corr /= float64(count)
		}

		bpm := 60.0 * framesPerSec / float64(lag)
		weight := math.Exp(-0.5 * math.Pow((bpm-120.0)/40.0, 2))
		weighted := corr * (0.8 + 0.2*weight)

		if weighted > bestCorr {
			bestCorr = weighted
			bestLag = lag
		}
	}

	tempo := 60.0 * framesPerSec / float64(bestLag)
	for tempo > MaxTempo {
		tempo /= 2
	}
	for tempo < MinTempo {
		tempo *= 2
	}
	est.Tempo = math.Round(tempo*10) / 10

	// Phase anchor: strongest onset in the first five seconds.
	anchor := 0.0
	searchFrames := int(5.0 * framesPerSec)
	if searchFrames > len(onset) {
		searchFrames = len(onset)
	}
	bestVal := 0.0
	for i := 0; i < searchFrames; i++ {
		if onset[i] > bestVal {
			bestVal = onset[i]
			anchor = dsp.FrameTime(i, sampleRate, hopSize)
		}
	}

	period := 60.0 / est.Tempo
	for t := anchor; t >= 0; t -= period {
		est.Beats = append(est.Beats, math.Round(t*1000)/1000)
	}
	for t := anchor + period; t < duration; t += period {
		est.Beats = append(est.Beats, math.Round(t*1000)/1000)
	}
	sort.Float64s(est.Beats)
	return est
}

// OnsetBeats is estimator B: an onset picker over the same spectral-flux
// envelope. It keeps local maxima above an adaptive threshold and derives
// tempo from the median inter-onset gap.
func OnsetBeats(onset []float64, sampleRate, hopSize int) Estimate {
	est := Estimate{Source: "onset"}
	if len(onset) < 3 {
		return est
	}

	mean := dsp.Mean(onset)
	variance := 0.0
	for _, v := range onset {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(onset))
	threshold := mean + 1.5*math.Sqrt(variance)

	for i := 1; i < len(onset)-1; i++ {
		if onset[i] > threshold && onset[i] >= onset[i-1] && onset[i] > onset[i+1] {
			est.Beats = append(est.Beats, dsp.FrameTime(i, sampleRate, hopSize))
		}
	}

	if len(est.Beats) >= 2 {
		gaps := make([]float64, 0, len(est.Beats)-1)
		for i := 1; i < len(est.Beats); i++ {
			gaps = append(gaps, est.Beats[i]-est.Beats[i-1])
		}
		sort.Float64s(gaps)
		median := gaps[len(gaps)/2]
		if median > 0 {
			tempo := 60.0 / median
			for tempo > MaxTempo {
				tempo /= 2
			}
			for tempo < MinTempo && tempo > 0 {
				tempo *= 2
			}
			est.Tempo = math.Round(tempo*10) / 10
		}
	}
	return est
}

// Dedup walks sorted timestamps once and keeps a timestamp only when it is
// at least minGap past the last kept one (greedy, keep-earliest).
func Dedup(timestamps []float64, minGap float64) []float64 {
	if len(timestamps) == 0 {
		return nil
	}
	sorted := make([]float64, len(timestamps))
	copy(sorted, timestamps)
	sort.Float64s(sorted)

	kept := []float64{sorted[0]}
	for _, t := range sorted[1:] {
		if t-kept[len(kept)-1] >= minGap {
			kept = append(kept, t)
		}
	}
	return kept
}

// Agreement returns the fraction of a's beats that have a matching beat in
// b within tol seconds, clamped to [0,1].
func Agreement(a, b []float64, tol float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	matched := 0
	j := 0
	for _, t := range a {
		for j < len(b) && b[j] < t-tol {
			j++
		}
		if j < len(b) && math.Abs(b[j]-t) <= tol {
			matched++
		}
	}
	frac := float64(matched) / float64(len(a))
	if frac > 1 {
		frac = 1
	}
	return frac
}

// Merge reconciles two estimates: sorted union, dedup to the 50ms contract,
// agreement confidence, tempo validation, and the uniform-grid fallback when
// the merged set is not trustworthy.
func Merge(a, b Estimate, duration float64) Result {
	union := make([]float64, 0, len(a.Beats)+len(b.Beats))
	union = append(union, a.Beats...)
	union = append(union, b.Beats...)
	beats := Dedup(union, DedupGap)

	var confidence float64
	switch {
	case len(a.Beats) > 0 && len(b.Beats) > 0:
		confidence = Agreement(a.Beats, b.Beats, AgreementTolerance)
	case len(a.Beats) > 0 || len(b.Beats) > 0:
		// Only one estimator produced output.
		confidence = minConfidence
	default:
		return gridResult(DefaultTempo, duration)
	}

	tempo := a.Tempo
	if tempo == 0 {
		tempo = b.Tempo
	}
	if tempo < MinTempo || tempo > MaxTempo {
		tempo = DefaultTempo
		confidence = fallbackConfidence
	}

	if confidence < minConfidence {
		return gridResult(tempo, duration)
	}

	if confidence > 1 {
		confidence = 1
	}
	return Result{Tempo: tempo, Beats: beats, Confidence: confidence}
}

// UniformGrid synthesizes beats at multiples of the beat period up to
// duration.
func UniformGrid(tempo, duration float64) []float64 {
	if tempo <= 0 {
		tempo = DefaultTempo
	}
	period := 60.0 / tempo
	var beats []float64
	for t := 0.0; t < duration; t += period {
		beats = append(beats, t)
	}
	return beats
}

func gridResult(tempo, duration float64) Result {
	if tempo < MinTempo || tempo > MaxTempo {
		tempo = DefaultTempo
	}
	return Result{
		Tempo:      tempo,
		Beats:      UniformGrid(tempo, duration),
		Confidence: fallbackConfidence,
		Fallback:   true,
	}
}
