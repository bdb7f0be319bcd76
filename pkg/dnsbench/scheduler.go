package dnsbench

import (
	"context"
	"sync"

	"go.uber.org/ratelimit"
)

// scheduler dispatches query tasks with bounded concurrency. The bound
// applies per invocation of run, and run is invoked once per resolver and
// transport group, so one slow resolver can never starve the parallelism
// budget of another.
type scheduler struct {
	parallel int
	limiter  ratelimit.Limiter
	onDone   func(QueryResult)
}

func newScheduler(parallel, rate int, onDone func(QueryResult)) *scheduler {
	s := &scheduler{parallel: parallel, onDone: onDone}
	if parallel <= 0 {
		s.parallel = DefaultParallel
	}
	if rate > 0 {
		s.limiter = ratelimit.New(rate)
	}
	return s
}

// run executes all tasks of one resolver+transport group against the given
// client with at most parallel queries outstanding. The returned slice is
// ordered by issue order regardless of completion order, so the caller can
// derive jitter from consecutive results. On cancellation all partial
// results are discarded and the context error is returned.
func (s *scheduler) run(ctx context.Context, cl client, tasks []QueryTask) ([]QueryResult, error) {
	results := make([]QueryResult, len(tasks))
	sem := make(chan struct{}, s.parallel)
	var wg sync.WaitGroup

dispatch:
	for i := range tasks {
		if s.limiter != nil {
			s.limiter.Take()
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break dispatch
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			res := cl.query(ctx, tasks[i])
			results[i] = res
			recordMetrics(res)
			if s.onDone != nil && ctx.Err() == nil {
				s.onDone(res)
			}
		}(i)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
