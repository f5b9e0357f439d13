package sim

import (
	"context"
	"runtime"
	"sync"

	"github.com/san-kum/motosim/internal/config"
)

// Setup prepares a freshly built simulator for one sweep entry, typically
// adding metrics, and returns the pilot to fly it with.
type Setup func(cfg *config.Config, s *Simulator) (Pilot, error)

// sweepWorkers caps how many vehicles a sweep runs at once.
var sweepWorkers = runtime.NumCPU()

// Sweep runs one independent vehicle per configuration, at most
// sweepWorkers at a time. Results keep the order of cfgs.
func Sweep(ctx context.Context, cfgs []*config.Config, setup Setup) ([]*Result, error) {
	results := make([]*Result, len(cfgs))
	errs := make([]error, len(cfgs))

	sem := make(chan struct{}, max(1, sweepWorkers))
	var wg sync.WaitGroup
	for i, cfg := range cfgs {
		sem <- struct{}{}
		wg.Add(1)
		go func(idx int, cfg *config.Config) {
			defer wg.Done()
			defer func() { <-sem }()

			s, err := NewFromConfig(cfg)
			if err != nil {
				errs[idx] = err
				return
			}
			pilot, err := setup(cfg, s)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = s.Run(ctx, pilot, RunConfig(cfg))
		}(i, cfg)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
