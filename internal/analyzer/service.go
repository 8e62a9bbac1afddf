// Package analyzer orchestrates the full audio analysis pipeline: cache
// lookup, decoding, beat detection, structure, mood, clip boundaries and
// transcription, assembled into one immutable AudioAnalysis artifact.
package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/mlx93/VideoGen/internal/audio"
	"github.com/mlx93/VideoGen/internal/beat"
	"github.com/mlx93/VideoGen/internal/boundary"
	"github.com/mlx93/VideoGen/internal/cache"
	"github.com/mlx93/VideoGen/internal/mood"
	"github.com/mlx93/VideoGen/internal/structure"
	"github.com/mlx93/VideoGen/pkg/logger"
	"github.com/mlx93/VideoGen/pkg/models"
)

// Logger is the logging surface the service needs.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

// Transcriber extracts word-level lyrics from raw audio bytes.
type Transcriber interface {
	Transcribe(ctx context.Context, data []byte, jobID string, duration float64) ([]models.LyricWord, error)
}

// Config holds the service collaborators and tunables.
type Config struct {
	Cache          cache.Store
	Transcriber    Transcriber
	Logger         Logger
	MaxUploadBytes int64
	CacheTTL       time.Duration
	Boundary       boundary.Options
}

// Option configures the service.
type Option func(*Config)

// WithCache wires the (typically tiered) analysis cache.
func WithCache(s cache.Store) Option {
	return func(c *Config) { c.Cache = s }
}

// WithTranscriber wires the external transcription client.
func WithTranscriber(t Transcriber) Option {
	return func(c *Config) { c.Transcriber = t }
}

// WithLogger overrides the default logger.
func WithLogger(l Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithMaxUploadBytes overrides the input size cap.
func WithMaxUploadBytes(n int64) Option {
	return func(c *Config) { c.MaxUploadBytes = n }
}

// WithCacheTTL overrides the cache entry lifetime.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Config) { c.CacheTTL = ttl }
}

// WithBoundaryOptions overrides clip sizing.
func WithBoundaryOptions(opts boundary.Options) Option {
	return func(c *Config) { c.Boundary = opts }
}

func defaultConfig() *Config {
	return &Config{
		MaxUploadBytes: audio.DefaultMaxBytes,
		CacheTTL:       cache.DefaultTTL,
		Boundary:       boundary.DefaultOptions(),
	}
}

// Service runs analyses. Each Parse call is self-contained; concurrent
// calls share only the cache, whose writes are idempotent per content hash.
type Service struct {
	cache       cache.Store
	transcriber Transcriber
	log         Logger
	maxBytes    int64
	cacheTTL    time.Duration
	boundary    boundary.Options
}

// NewService builds a Service from options.
func NewService(opts ...Option) *Service {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	return &Service{
		cache:       cfg.Cache,
		transcriber: cfg.Transcriber,
		log:         cfg.Logger,
		maxBytes:    cfg.MaxUploadBytes,
		cacheTTL:    cfg.CacheTTL,
		boundary:    cfg.Boundary,
	}
}

type lyricsResult struct {
	words []models.LyricWord
	err   error
}

// Parse analyzes raw audio bytes into an AudioAnalysis. Only validation and
// decoding failures are errors; every other subsystem degrades to its
// documented fallback, recorded in the result metadata. A cache hit
// short-circuits the pipeline entirely.
func (s *Service) Parse(ctx context.Context, data []byte, jobID string) (*models.AudioAnalysis, error) {
	start := time.Now()
	key := cache.Key(cache.ContentHash(data))

	if s.cache != nil {
		if cached, err := s.cache.Get(key); err != nil {
			s.log.Warnf("cache lookup failed for job %s: %v", jobID, err)
		} else if cached != nil {
			s.log.Infof("cache hit for job %s", jobID)
			hit := *cached
			hit.Metadata.CacheHit = true
			return &hit, nil
		}
	}

	sig, err := audio.Decode(data, s.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("audio load failed for job %s: %w", jobID, err)
	}
	s.log.Infof("audio loaded for job %s: duration=%.2fs rate=%d Hz",
		jobID, sig.Duration, sig.SampleRate)

	meta := models.Metadata{
		FallbackUsed:     make(map[string]bool),
		ConfidenceScores: make(map[string]float64),
	}

	// Transcription is I/O-bound with no dependency on the stages below;
	// run it alongside them and join before assembly.
	lyricsCh := make(chan lyricsResult, 1)
	if s.transcriber != nil {
		go func() {
			words, err := s.transcriber.Transcribe(ctx, data, jobID, sig.Duration)
			lyricsCh <- lyricsResult{words: words, err: err}
		}()
	}

	beats := beat.Detect(sig)
	meta.ConfidenceScores["beat_detection"] = beats.Confidence
	if beats.Fallback {
		meta.FallbackUsed["beat_detection"] = true
		s.log.Warnf("beat detection degraded to uniform grid for job %s", jobID)
	}
	s.log.Infof("beat detection for job %s: bpm=%.1f beats=%d confidence=%.2f",
		jobID, beats.Tempo, len(beats.Beats), beats.Confidence)

	st := structure.Analyze(sig, beats.Beats, sig.Duration)
	if st.Fallback {
		meta.FallbackUsed["structure_analysis"] = true
		s.log.Warnf("structure analysis degraded to single segment for job %s", jobID)
	}

	moodResult := mood.Classify(sig, beats.Tempo, st.Segments)
	meta.ConfidenceScores["mood"] = moodResult.Confidence

	clips := boundary.Generate(beats.Beats, sig.Duration, beats.Tempo, s.boundary)

	lyrics := []models.LyricWord{}
	if s.transcriber == nil {
		meta.FallbackUsed["lyrics"] = true
	} else {
		select {
		case res := <-lyricsCh:
			if res.err != nil {
				meta.FallbackUsed["lyrics"] = true
				s.log.Warnf("lyrics extraction failed for job %s: %v, treating as instrumental",
					jobID, res.err)
			} else if res.words != nil {
				lyrics = res.words
			}
		case <-ctx.Done():
			meta.FallbackUsed["lyrics"] = true
			s.log.Warnf("lyrics extraction canceled for job %s: %v", jobID, ctx.Err())
		}
	}

	meta.ProcessingTime = time.Since(start).Seconds()

	analysis := &models.AudioAnalysis{
		JobID:          jobID,
		BPM:            beats.Tempo,
		Duration:       sig.Duration,
		BeatTimestamps: beats.Beats,
		Structure:      st.Segments,
		Lyrics:         lyrics,
		Mood:           moodResult,
		ClipBoundaries: clips,
		Metadata:       meta,
	}

	if s.cache != nil {
		if err := s.cache.Put(key, analysis, s.cacheTTL); err != nil {
			s.log.Warnf("cache write failed for job %s: %v", jobID, err)
		}
	}

	s.log.Infof("analysis complete for job %s: %.2fs processed in %.2fs, "+
		"beats=%d segments=%d lyrics=%d boundaries=%d",
		jobID, sig.Duration, meta.ProcessingTime,
		len(beats.Beats), len(st.Segments), len(lyrics), len(clips))

	return analysis, nil
}
