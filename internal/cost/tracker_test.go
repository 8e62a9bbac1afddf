package cost

import (
	"math"
	"sync"
	"testing"
)

func TestTrackerAccumulates(t *testing.T) {
	tr := NewTracker()

	tr.Record("job-a", "transcription", 0.012)
	tr.Record("job-a", "transcription", 0.006)
	tr.Record("job-b", "transcription", 0.024)

	if got := tr.Total("job-a"); math.Abs(got-0.018) > 1e-12 {
		t.Errorf("Total(job-a) = %v, want 0.018", got)
	}
	if got := tr.Total("job-b"); math.Abs(got-0.024) > 1e-12 {
		t.Errorf("Total(job-b) = %v, want 0.024", got)
	}
	if got := tr.Total("unknown"); got != 0 {
		t.Errorf("Total(unknown) = %v, want 0", got)
	}
}

func TestTrackerDropsNegative(t *testing.T) {
	tr := NewTracker()

	tr.Record("job-a", "transcription", 0.01)
	tr.Record("job-a", "transcription", -5)

	if got := tr.Total("job-a"); got != 0.01 {
		t.Errorf("Total = %v, want 0.01", got)
	}
}

func TestTrackerConcurrent(t *testing.T) {
	tr := NewTracker()

	const workers = 32
	const perWorker = 100

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				tr.Record("shared", "transcription", 0.001)
			}
		}()
	}
	wg.Wait()

	want := float64(workers*perWorker) * 0.001
	if got := tr.Total("shared"); math.Abs(got-want) > 1e-9 {
		t.Errorf("Total = %v, want %v", got, want)
	}
}
