// Package boundary produces beat-snapped clip windows for downstream
// generation: contiguous clips covering the whole track, 4-8s each, at
// least three per track.
package boundary

import (
	"math"

	"github.com/mlx93/VideoGen/pkg/models"
)

// SnapTolerance is how far a candidate may move to land on a beat.
const SnapTolerance = 0.1

// Options control clip sizing.
type Options struct {
	MinClips    int
	MinDuration float64
	MaxDuration float64
}

// DefaultOptions returns the production clip parameters: at least three
// clips of 4-8 seconds.
func DefaultOptions() Options {
	return Options{MinClips: 3, MinDuration: 4.0, MaxDuration: 8.0}
}

// SnapToBeat returns the nearest beat to t when one lies within tol
// seconds, otherwise t unchanged.
func SnapToBeat(t float64, beats []float64, tol float64) float64 {
	if len(beats) == 0 {
		return t
	}
	nearest := beats[0]
	for _, b := range beats[1:] {
		if math.Abs(b-t) < math.Abs(nearest-t) {
			nearest = b
		}
	}
	if math.Abs(nearest-t) <= tol {
		return nearest
	}
	return t
}

// Generate walks forward from zero, ending each clip on the beat closest to
// the 6s target within the [min,max] window (clipping at max when no beat
// qualifies), then merges the remainder into the final clip. If fewer than
// MinClips result, it regenerates uniform beat-snapped clips; for tracks
// shorter than MinClips*MinDuration the clip durations shrink
// proportionally. All outputs are clamped into [0, duration].
func Generate(beats []float64, duration, tempo float64, opts Options) []models.ClipBoundary {
	if opts.MinClips <= 0 {
		opts = DefaultOptions()
	}
	if duration <= 0 {
		return nil
	}
	if len(beats) == 0 {
		return uniform(nil, duration, clipCount(duration, opts))
	}

	target := (opts.MinDuration + opts.MaxDuration) / 2

	var out []models.ClipBoundary
	current := 0.0
	for duration-current > 1e-9 && len(out) < 1000 {
		remaining := duration - current

		if remaining <= opts.MaxDuration {
			out = append(out, clip(current, duration))
			break
		}

		if remaining <= opts.MaxDuration+opts.MinDuration {
			// A full clip here would leave a sub-minimum tail; split the
			// remainder evenly instead.
			mid := current + remaining/2
			if snapped := SnapToBeat(mid, beats, SnapTolerance); snapped-current >= opts.MinDuration &&
				duration-snapped >= opts.MinDuration {
				mid = snapped
			}
			out = append(out, clip(current, mid), clip(mid, duration))
			break
		}

		end := pickEnd(beats, current, target, opts)
		end = SnapToBeat(end, beats, SnapTolerance)
		if end <= current+1e-9 || end > duration {
			end = math.Min(current+opts.MaxDuration, duration)
		}
		out = append(out, clip(current, end))
		current = end
	}

	if len(out) < opts.MinClips {
		out = uniform(beats, duration, opts.MinClips)
	}

	return clampAll(out, duration)
}

// pickEnd chooses the beat closest to current+target inside the allowed
// window, or current+max when the window holds no beat.
func pickEnd(beats []float64, current, target float64, opts Options) float64 {
	lo := current + opts.MinDuration
	hi := current + opts.MaxDuration
	ideal := current + target

	best := -1.0
	bestDist := math.Inf(1)
	for _, b := range beats {
		if b < lo || b > hi {
			continue
		}
		if d := math.Abs(b - ideal); d < bestDist {
			bestDist = d
			best = b
		}
	}
	if best >= 0 {
		return best
	}
	return hi
}

// clipCount targets the 6s midpoint when laying out clips without beats.
func clipCount(duration float64, opts Options) int {
	target := (opts.MinDuration + opts.MaxDuration) / 2
	n := int(duration / target)
	if n < opts.MinClips {
		n = opts.MinClips
	}
	return n
}

// uniform lays out n equal clips over [0, duration], snapping interior
// boundaries onto beats when that keeps them strictly increasing.
func uniform(beats []float64, duration float64, n int) []models.ClipBoundary {
	if n <= 0 {
		n = 1
	}
	bounds := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		bounds[i] = duration * float64(i) / float64(n)
	}
	for i := 1; i < n; i++ {
		snapped := SnapToBeat(bounds[i], beats, SnapTolerance)
		if snapped > bounds[i-1] && snapped < bounds[i+1] {
			bounds[i] = snapped
		}
	}

	out := make([]models.ClipBoundary, n)
	for i := 0; i < n; i++ {
		out[i] = clip(bounds[i], bounds[i+1])
	}
	return out
}

func clip(start, end float64) models.ClipBoundary {
	return models.ClipBoundary{Start: start, End: end, Duration: end - start}
}

func clampAll(clips []models.ClipBoundary, duration float64) []models.ClipBoundary {
	out := clips[:0]
	for _, c := range clips {
		start := math.Max(0, c.Start)
		end := math.Min(duration, c.End)
		if start < end {
			out = append(out, clip(start, end))
		}
	}
	return out
}
