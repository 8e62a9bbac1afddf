// Package mood maps tempo and spectral features through an ordered rule
// table into a primary/secondary mood with a confidence score.
package mood

import (
	"math"

	"github.com/mlx93/VideoGen/internal/audio"
	"github.com/mlx93/VideoGen/internal/dsp"
	"github.com/mlx93/VideoGen/pkg/models"
)

const (
	frameSize = 2048
	hopSize   = 512

	darkCentroidHz   = 2000.0
	brightCentroidHz = 4000.0

	rolloffPct = 0.85
)

// Features are the track-level aggregates the rule table evaluates.
type Features struct {
	Tempo    float64
	Energy   float64 // normalized mean RMS, [0,1]
	Centroid float64 // mean spectral centroid, Hz
	ZCR      float64 // mean zero-crossing rate
	Rolloff  float64 // mean spectral rolloff, Hz
}

// Extract computes the aggregate features for a whole track.
func Extract(sig *audio.Signal, tempo float64) Features {
	f := Features{Tempo: tempo}

	rms := dsp.RMSFrames(sig.Samples, frameSize, hopSize)
	// Normalize against a nominal 0.5 RMS full-scale reference.
	f.Energy = math.Min(dsp.Mean(rms)/0.5, 1.0)

	if spec, err := dsp.STFT(sig.Samples, frameSize, hopSize); err == nil {
		f.Centroid = dsp.Mean(dsp.SpectralCentroids(spec, sig.SampleRate, frameSize))
		f.Rolloff = dsp.Mean(dsp.SpectralRolloffs(spec, sig.SampleRate, frameSize, rolloffPct))
	}
	f.ZCR = dsp.Mean(dsp.ZeroCrossingRate(sig.Samples, frameSize, hopSize))

	return f
}

// rule is one entry of the ordered mood decision table. The first matching
// rule decides the primary mood and the base confidence; the evaluation
// order is the documented contract.
type rule struct {
	label      models.MoodLabel
	confidence float64
	match      func(f Features) bool
}

var rules = []rule{
	{models.MoodEnergetic, 0.8, func(f Features) bool { return f.Tempo > 130 && f.Energy > 0.7 }},
	{models.MoodCalm, 0.8, func(f Features) bool { return f.Tempo < 90 && f.Energy < 0.4 }},
	{models.MoodDark, 0.7, func(f Features) bool { return f.Centroid < darkCentroidHz }},
	{models.MoodBright, 0.7, func(f Features) bool { return f.Centroid > brightCentroidHz }},
	{models.MoodEnergetic, 0.6, func(f Features) bool { return f.Tempo > 100 }},
	{models.MoodCalm, 0.6, func(f Features) bool { return true }},
}

// Classify runs the decision table over the track features. It never fails;
// callers receive Default on degenerate input instead.
func Classify(sig *audio.Signal, tempo float64, structure []models.StructureSegment) models.Mood {
	if sig == nil || len(sig.Samples) == 0 {
		return Default(tempo)
	}
	return FromFeatures(Extract(sig, tempo), structure)
}

// FromFeatures applies the decision table to already-extracted features.
func FromFeatures(f Features, structure []models.StructureSegment) models.Mood {
	var primary models.MoodLabel
	var confidence float64
	for _, r := range rules {
		if r.match(f) {
			primary = r.label
			confidence = r.confidence
			break
		}
	}

	secondary := secondaryMood(primary, f)
	confidence = math.Min(confidence+agreementBonus(primary, f), 1.0)

	return models.Mood{
		Primary:     primary,
		Secondary:   secondary,
		EnergyLevel: energyLevel(f, structure),
		Confidence:  confidence,
	}
}

// Default is the fallback mood when classification cannot run.
func Default(tempo float64) models.Mood {
	primary := models.MoodCalm
	if tempo > 100 {
		primary = models.MoodEnergetic
	}
	return models.Mood{
		Primary:     primary,
		EnergyLevel: models.EnergyMedium,
		Confidence:  0.5,
	}
}

// secondaryMood picks the complementary label that most strongly co-occurs
// with the primary.
func secondaryMood(primary models.MoodLabel, f Features) models.MoodLabel {
	switch primary {
	case models.MoodEnergetic:
		if f.Centroid > 3500 {
			return models.MoodBright
		}
		if f.Centroid < darkCentroidHz {
			return models.MoodDark
		}
	case models.MoodCalm:
		if f.Centroid > 3000 {
			return models.MoodBright
		}
		if f.Centroid < darkCentroidHz {
			return models.MoodDark
		}
	case models.MoodDark, models.MoodBright:
		if f.Tempo > 100 {
			return models.MoodEnergetic
		}
		return models.MoodCalm
	}
	return ""
}

// agreementBonus raises confidence when independent features point the same
// way as the primary mood: more agreeing features, higher confidence.
func agreementBonus(primary models.MoodLabel, f Features) float64 {
	agree := 0
	total := 3

	if (primary == models.MoodEnergetic && f.Tempo > 100) ||
		(primary == models.MoodCalm && f.Tempo < 100) {
		agree++
	}
	if ((primary == models.MoodEnergetic || primary == models.MoodBright) && f.Energy > 0.5) ||
		((primary == models.MoodCalm || primary == models.MoodDark) && f.Energy < 0.5) {
		agree++
	}
	if (primary == models.MoodBright && f.Centroid > 3000) ||
		(primary == models.MoodDark && f.Centroid < 2500) {
		agree++
	}

	return float64(agree) / float64(total) * 0.2
}

// energyLevel buckets the track energy, taking the section profile into
// account: a track whose sections are mostly high-energy reads as high even
// when the global mean sits in the middle.
func energyLevel(f Features, structure []models.StructureSegment) models.EnergyLevel {
	highSections := 0
	for _, s := range structure {
		if s.Energy == models.EnergyHigh {
			highSections++
		}
	}
	mostlyHigh := len(structure) > 0 && highSections*2 > len(structure)

	switch {
	case f.Energy < 0.4 || f.Tempo < 90:
		return models.EnergyLow
	case f.Energy > 0.7 || f.Tempo > 130 || mostlyHigh:
		return models.EnergyHigh
	default:
		return models.EnergyMedium
	}
}
