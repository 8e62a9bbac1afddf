// Package cost accumulates external API spend per job. Increments must be
// safe under concurrent jobs.
package cost

import (
	"sync"

	"github.com/mlx93/VideoGen/pkg/logger"
)

// Tracker is a concurrent-safe per-job USD accumulator.
type Tracker struct {
	mu    sync.Mutex
	byJob map[string]float64
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{byJob: make(map[string]float64)}
}

// Record adds a cost entry for a job. Negative costs are dropped.
func (t *Tracker) Record(jobID, api string, usd float64) {
	if usd < 0 {
		logger.Warnf("ignoring negative cost %.6f for job %s api %s", usd, jobID, api)
		return
	}
	t.mu.Lock()
	t.byJob[jobID] += usd
	t.mu.Unlock()
	logger.Debugf("tracked $%.6f for job %s (%s)", usd, jobID, api)
}

// Total returns the accumulated spend for a job.
func (t *Tracker) Total(jobID string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byJob[jobID]
}
