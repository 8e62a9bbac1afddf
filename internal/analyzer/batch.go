package analyzer

import (
	"context"
	"sync"

	"github.com/mlx93/VideoGen/pkg/models"
)

// batchWorkers bounds concurrent analyses in a batch.
const batchWorkers = 4

// BatchItem is one track in a batch request.
type BatchItem struct {
	JobID string
	Data  []byte
}

// ParseBatch analyzes several tracks with a bounded worker pool. Results
// and errors are index-aligned with the input; a failed item leaves a nil
// result and a non-nil error at its index.
func (s *Service) ParseBatch(ctx context.Context, items []BatchItem) ([]*models.AudioAnalysis, []error) {
	results := make([]*models.AudioAnalysis, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	sem := make(chan struct{}, batchWorkers)

	for i, item := range items {
		wg.Add(1)
		go func(idx int, it BatchItem) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx], errs[idx] = s.Parse(ctx, it.Data, it.JobID)
		}(i, item)
	}
	wg.Wait()

	return results, errs
}
