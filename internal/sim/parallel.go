package sim

import (
	"context"
	"log/slog"
	"sync"

	"github.com/san-kum/trackevo/internal/config"
)

// Ensemble repeats one session under consecutive seeds.
type Ensemble struct {
	base      config.Config
	numRuns   int
	seedStart int64
	logger    *slog.Logger
}

func NewEnsemble(base *config.Config, numRuns int, seedStart int64, logger *slog.Logger) *Ensemble {
	return &Ensemble{base: *base, numRuns: numRuns, seedStart: seedStart, logger: logger}
}

// Run executes every member concurrently. Results are ordered by seed.
func (e *Ensemble) Run(ctx context.Context, rc Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfg := e.base
			cfg.Seed = e.seedStart + int64(idx)

			s, err := New(&cfg, e.logger)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = s.Run(ctx, rc)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// Spread reports the mean, minimum and maximum of one metric across results.
func Spread(results []*Result, metric string) (mean, lo, hi float64) {
	if len(results) == 0 {
		return 0, 0, 0
	}
	for i, r := range results {
		v := r.Metrics[metric]
		if i == 0 || v < lo {
			lo = v
		}
		if i == 0 || v > hi {
			hi = v
		}
		mean += v
	}
	return mean / float64(len(results)), lo, hi
}
