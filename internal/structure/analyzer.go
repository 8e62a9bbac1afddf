// Package structure segments a track into labeled sections by clustering a
// chroma self-similarity matrix and bucketing per-section energy.
package structure

import (
	"math"

	"github.com/mlx93/VideoGen/internal/audio"
	"github.com/mlx93/VideoGen/internal/dsp"
	"github.com/mlx93/VideoGen/pkg/models"
)

const (
	chromaWindowSize = 4096
	chromaHopSize    = 2048

	energyFrameSize = 2048
	energyHopSize   = 512

	// Energy buckets shared with mood classification.
	lowEnergyThreshold  = 0.4
	highEnergyThreshold = 0.7

	// A section shorter than this at the track edge can be intro/outro.
	edgeSectionMaxLen = 15.0

	// An interior section contrasting with both neighbors by more than
	// this is a bridge.
	bridgeContrast = 0.25
)

// Result is a contiguous, labeled segmentation spanning [0, duration].
type Result struct {
	Segments []models.StructureSegment
	Fallback bool
}

// Analyze clusters chroma features into contiguous sections and labels each
// from its energy profile. Section boundaries are pulled onto the detected
// beat grid when a beat is close enough. Degenerate input (too short,
// numerically flat) falls back to a single whole-track verse segment, never
// an error.
func Analyze(sig *audio.Signal, beats []float64, duration float64) Result {
	blocks, blockDur := chromaBlocks(sig)
	k := clusterCount(duration)
	if len(blocks) <= k {
		return fallbackResult(duration)
	}

	dist := distanceMatrix(blocks)
	labels := agglomerate(dist, k)

	// Section boundaries are wherever the cluster label changes.
	bounds := []float64{0}
	for i := 1; i < len(labels); i++ {
		if labels[i] != labels[i-1] {
			bounds = append(bounds, snapBound(float64(i)*blockDur, beats))
		}
	}
	bounds = append(bounds, duration)

	segments := buildSegments(sig, bounds, duration)
	if len(segments) == 0 {
		return fallbackResult(duration)
	}
	return Result{Segments: segments}
}

// Fallback returns the single whole-track segment used when analysis is
// degenerate.
func Fallback(duration float64) []models.StructureSegment {
	return []models.StructureSegment{{
		Type:   models.SegmentVerse,
		Start:  0,
		End:    duration,
		Energy: models.EnergyMedium,
	}}
}

func fallbackResult(duration float64) Result {
	return Result{Segments: Fallback(duration), Fallback: true}
}

// snapBound moves a section boundary to the nearest beat when one lies
// within 100ms, keeping sections musically aligned.
func snapBound(t float64, beats []float64) float64 {
	const tol = 0.1
	best := t
	bestDist := math.Inf(1)
	for _, b := range beats {
		if d := math.Abs(b - t); d < bestDist {
			bestDist = d
			best = b
		}
	}
	if bestDist <= tol {
		return best
	}
	return t
}

// clusterCount targets roughly one section per 30 seconds, within [3,8].
func clusterCount(duration float64) int {
	k := int(duration / 30)
	if k < 3 {
		k = 3
	}
	if k > 8 {
		k = 8
	}
	return k
}

// chromaBlocks extracts pitch-class frames and averages them into one-second
// blocks. Returns the blocks and the block duration in seconds.
func chromaBlocks(sig *audio.Signal) ([][]float64, float64) {
	spec, err := dsp.STFT(sig.Samples, chromaWindowSize, chromaHopSize)
	if err != nil {
		return nil, 0
	}
	frames := dsp.ChromaFrames(spec, sig.SampleRate, chromaWindowSize)

	framesPerBlock := sig.SampleRate / chromaHopSize
	if framesPerBlock < 1 {
		framesPerBlock = 1
	}
	blockDur := float64(framesPerBlock*chromaHopSize) / float64(sig.SampleRate)

	var blocks [][]float64
	for start := 0; start+framesPerBlock <= len(frames); start += framesPerBlock {
		block := make([]float64, 12)
		for i := start; i < start+framesPerBlock; i++ {
			for j, v := range frames[i] {
				block[j] += v
			}
		}
		for j := range block {
			block[j] /= float64(framesPerBlock)
		}
		blocks = append(blocks, block)
	}
	return blocks, blockDur
}

// distanceMatrix converts cosine similarity between blocks into distances
// (1 - similarity).
func distanceMatrix(blocks [][]float64) [][]float64 {
	n := len(blocks)
	norms := make([]float64, n)
	for i, b := range blocks {
		sum := 0.0
		for _, v := range b {
			sum += v * v
		}
		norms[i] = math.Sqrt(sum) + 1e-10
	}

	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dot := 0.0
			for k := range blocks[i] {
				dot += blocks[i][k] * blocks[j][k]
			}
			d := 1 - dot/(norms[i]*norms[j])
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return dist
}

// agglomerate runs average-linkage hierarchical clustering over a
// precomputed distance matrix until k clusters remain, and returns a
// cluster label per item.
func agglomerate(dist [][]float64, k int) []int {
	n := len(dist)
	clusters := make([][]int, n)
	for i := range clusters {
		clusters[i] = []int{i}
	}

	linkage := func(a, b []int) float64 {
		sum := 0.0
		for _, i := range a {
			for _, j := range b {
				sum += dist[i][j]
			}
		}
		return sum / float64(len(a)*len(b))
	}

	for len(clusters) > k {
		bi, bj := 0, 1
		best := math.Inf(1)
		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				if d := linkage(clusters[i], clusters[j]); d < best {
					best = d
					bi, bj = i, j
				}
			}
		}
		clusters[bi] = append(clusters[bi], clusters[bj]...)
		clusters = append(clusters[:bj], clusters[bj+1:]...)
	}

	labels := make([]int, n)
	for c, members := range clusters {
		for _, i := range members {
			labels[i] = c
		}
	}
	return labels
}

// buildSegments computes each section's energy score and applies the label
// rules.
func buildSegments(sig *audio.Signal, bounds []float64, duration float64) []models.StructureSegment {
	rms := dsp.RMSFrames(sig.Samples, energyFrameSize, energyHopSize)
	spec, err := dsp.STFT(sig.Samples, energyFrameSize, energyHopSize)
	if err != nil {
		return nil
	}
	centroids := dsp.SpectralCentroids(spec, sig.SampleRate, energyFrameSize)
	maxRMS := dsp.Max(rms)
	maxCentroid := dsp.Max(centroids)

	// Collapse zero-length spans first so neighbor contrast sees real
	// sections.
	type span struct{ start, end float64 }
	var spans []span
	for i := 0; i+1 < len(bounds); i++ {
		if bounds[i+1]-bounds[i] > 1e-9 {
			spans = append(spans, span{bounds[i], bounds[i+1]})
		}
	}
	if len(spans) == 0 {
		return nil
	}

	energies := make([]float64, len(spans))
	for i, s := range spans {
		energies[i] = segmentEnergy(rms, centroids, maxRMS, maxCentroid,
			s.start, s.end, sig.SampleRate)
	}

	segments := make([]models.StructureSegment, len(spans))
	for i, s := range spans {
		segments[i] = models.StructureSegment{
			Type:   labelSegment(i, len(spans), s.end-s.start, energies),
			Start:  s.start,
			End:    s.end,
			Energy: EnergyBucket(energies[i]),
		}
	}
	segments[len(segments)-1].End = duration
	return segments
}

// segmentEnergy combines a normalized loudness proxy (mean RMS) and a
// brightness proxy (mean spectral centroid) as 0.6*loudness + 0.4*brightness,
// clamped to [0,1].
func segmentEnergy(rms, centroids []float64, maxRMS, maxCentroid, start, end float64, sampleRate int) float64 {
	frameSlice := func(xs []float64) []float64 {
		lo := int(start * float64(sampleRate) / float64(energyHopSize))
		hi := int(end * float64(sampleRate) / float64(energyHopSize))
		if lo < 0 {
			lo = 0
		}
		if hi > len(xs) {
			hi = len(xs)
		}
		if lo >= hi {
			return nil
		}
		return xs[lo:hi]
	}

	rmsNorm := 0.0
	if maxRMS > 0 {
		rmsNorm = math.Min(dsp.Mean(frameSlice(rms))/maxRMS, 1.0)
	}
	centroidNorm := 0.0
	if maxCentroid > 0 {
		centroidNorm = math.Min(dsp.Mean(frameSlice(centroids))/maxCentroid, 1.0)
	}

	energy := 0.6*rmsNorm + 0.4*centroidNorm
	return math.Max(0, math.Min(1, energy))
}

// EnergyBucket maps a [0,1] energy score into low/medium/high.
func EnergyBucket(energy float64) models.EnergyLevel {
	switch {
	case energy < lowEnergyThreshold:
		return models.EnergyLow
	case energy > highEnergyThreshold:
		return models.EnergyHigh
	default:
		return models.EnergyMedium
	}
}

// labelRule is one entry of the ordered section-label table; the first
// matching rule wins.
type labelRule struct {
	label models.SegmentType
	match func(i, n int, length float64, energies []float64) bool
}

var labelRules = []labelRule{
	{models.SegmentIntro, func(i, n int, length float64, e []float64) bool {
		return i == 0 && n > 1 && length < edgeSectionMaxLen && e[i] < lowEnergyThreshold
	}},
	{models.SegmentOutro, func(i, n int, length float64, e []float64) bool {
		return i == n-1 && n > 1 && length < edgeSectionMaxLen && e[i] < lowEnergyThreshold
	}},
	{models.SegmentChorus, func(i, n int, length float64, e []float64) bool {
		return e[i] > highEnergyThreshold
	}},
	{models.SegmentBridge, func(i, n int, length float64, e []float64) bool {
		if i == 0 || i == n-1 {
			return false
		}
		return math.Abs(e[i]-e[i-1]) > bridgeContrast && math.Abs(e[i]-e[i+1]) > bridgeContrast
	}},
	{models.SegmentVerse, func(i, n int, length float64, e []float64) bool {
		return true
	}},
}

func labelSegment(i, n int, length float64, energies []float64) models.SegmentType {
	for _, rule := range labelRules {
		if rule.match(i, n, length, energies) {
			return rule.label
		}
	}
	return models.SegmentVerse
}
