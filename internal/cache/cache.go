// Package cache keys completed analyses by a content hash of the source
// audio bytes, making repeated analysis of identical audio a no-op.
//
// Two tiers sit behind one Store interface: a fast in-memory TTL store and
// a durable SQLite store. Cache failures are logged and swallowed; they
// never fail a job.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"time"

	"github.com/mlx93/VideoGen/pkg/logger"
	"github.com/mlx93/VideoGen/pkg/models"
)

// DefaultTTL is how long a cached analysis stays valid.
const DefaultTTL = 24 * time.Hour

// keyPrefix namespaces analysis entries in shared stores.
const keyPrefix = "audio_cache:"

// ContentHash returns the deterministic cache key for raw audio bytes.
func ContentHash(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Key returns the namespaced store key for a content hash.
func Key(contentHash string) string {
	return keyPrefix + contentHash
}

// Store is a TTL-expiring key-value store for analyses. Get returns
// (nil, nil) on a miss.
type Store interface {
	Get(key string) (*models.AudioAnalysis, error)
	Put(key string, analysis *models.AudioAnalysis, ttl time.Duration) error
	Close() error
}

// Tiered composes a fast tier over a durable one. Reads fall through to the
// durable tier and repopulate the fast one; writes go to both. All tier
// errors degrade to a miss.
type Tiered struct {
	fast    Store
	durable Store
}

// NewTiered composes the two tiers. Either may be nil.
func NewTiered(fast, durable Store) *Tiered {
	return &Tiered{fast: fast, durable: durable}
}

// Get looks up an analysis, fast tier first.
func (t *Tiered) Get(key string) (*models.AudioAnalysis, error) {
	if t.fast != nil {
		if a, err := t.fast.Get(key); err != nil {
			logger.Warnf("fast cache read failed: %v", err)
		} else if a != nil {
			return a, nil
		}
	}
	if t.durable != nil {
		a, err := t.durable.Get(key)
		if err != nil {
			logger.Warnf("durable cache read failed: %v", err)
			return nil, nil
		}
		if a != nil && t.fast != nil {
			if err := t.fast.Put(key, a, DefaultTTL); err != nil {
				logger.Warnf("fast cache repopulate failed: %v", err)
			}
		}
		return a, nil
	}
	return nil, nil
}

// Put writes through to both tiers. Failures are logged, never returned.
func (t *Tiered) Put(key string, analysis *models.AudioAnalysis, ttl time.Duration) error {
	if t.fast != nil {
		if err := t.fast.Put(key, analysis, ttl); err != nil {
			logger.Warnf("fast cache write failed: %v", err)
		}
	}
	if t.durable != nil {
		if err := t.durable.Put(key, analysis, ttl); err != nil {
			logger.Warnf("durable cache write failed: %v", err)
		}
	}
	return nil
}

// Close closes both tiers.
func (t *Tiered) Close() error {
	var firstErr error
	for _, s := range []Store{t.fast, t.durable} {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
