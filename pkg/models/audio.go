package models

// SegmentType labels a structural section of a track.
type SegmentType string

const (
	SegmentIntro  SegmentType = "intro"
	SegmentVerse  SegmentType = "verse"
	SegmentChorus SegmentType = "chorus"
	SegmentBridge SegmentType = "bridge"
	SegmentOutro  SegmentType = "outro"
)

// EnergyLevel buckets a normalized energy score.
type EnergyLevel string

const (
	EnergyLow    EnergyLevel = "low"
	EnergyMedium EnergyLevel = "medium"
	EnergyHigh   EnergyLevel = "high"
)

// MoodLabel is a coarse emotional category for a track.
type MoodLabel string

const (
	MoodEnergetic MoodLabel = "energetic"
	MoodCalm      MoodLabel = "calm"
	MoodDark      MoodLabel = "dark"
	MoodBright    MoodLabel = "bright"
)

// StructureSegment is one contiguous section of the track. A segment list is
// ordered, non-overlapping, starts at 0 and ends at the track duration.
type StructureSegment struct {
	Type   SegmentType `json:"type"`
	Start  float64     `json:"start"`
	End    float64     `json:"end"`
	Energy EnergyLevel `json:"energy"`
}

// Mood is the classified mood of a track. Secondary may be empty.
type Mood struct {
	Primary     MoodLabel   `json:"primary"`
	Secondary   MoodLabel   `json:"secondary,omitempty"`
	EnergyLevel EnergyLevel `json:"energy_level"`
	Confidence  float64     `json:"confidence"`
}

// ClipBoundary is one beat-aligned clip window. Duration equals End-Start.
type ClipBoundary struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

// LyricWord is a single transcribed word with its start timestamp.
type LyricWord struct {
	Text      string  `json:"text"`
	Timestamp float64 `json:"timestamp"`
}

// Metadata records how trustworthy each part of an analysis is: which
// subsystems degraded to their fallback and with what confidence.
type Metadata struct {
	ProcessingTime   float64            `json:"processing_time"`
	CacheHit         bool               `json:"cache_hit"`
	FallbackUsed     map[string]bool    `json:"fallback_used"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
}

// AudioAnalysis is the published artifact of one analysis run. It is
// immutable once assembled and is cached keyed by the content hash of the
// source audio bytes.
type AudioAnalysis struct {
	JobID          string             `json:"job_id"`
	BPM            float64            `json:"bpm"`
	Duration       float64            `json:"duration"`
	BeatTimestamps []float64          `json:"beat_timestamps"`
	Structure      []StructureSegment `json:"song_structure"`
	Lyrics         []LyricWord        `json:"lyrics"`
	Mood           Mood               `json:"mood"`
	ClipBoundaries []ClipBoundary     `json:"clip_boundaries"`
	Metadata       Metadata           `json:"metadata"`
}
